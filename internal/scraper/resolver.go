/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scraper

import "fmt"

const providerField = "#idProveedor"

// resolveSlot activates cand on the live page and reads back the assigned
// operator and price. Activation fully overwrites the previous candidate's
// selection, so calling this once per candidate in sequence is safe. No
// failure here escapes to the orchestrator: extraction gaps degrade to
// empty/unknown fields inside an otherwise valid result.
func (s *Service) resolveSlot(page Page, cand SlotCandidate) SlotResult {
	s.activateSlot(page, cand)

	providerID := ""
	if field, ok, err := page.First(providerField); err == nil && ok {
		if v, err := field.Attribute("value"); err == nil {
			providerID = v
		}
	}

	result := SlotResult{
		Time:       cand.Time,
		Operator:   s.providers.Resolve(providerID),
		Price:      s.extractPrice(page),
		ProviderID: providerID,
	}
	if cand.Quota != "" {
		quota := cand.Quota
		result.Quota = &quota
	}
	return result
}

// activateSlot selects the candidate's time on the page. Clicking the radio
// input is preferred because it reliably triggers the page's own price
// recalculation; when the radio group is absent we set the dropdown value
// and fire the change handler ourselves.
func (s *Service) activateSlot(page Page, cand SlotCandidate) {
	selector := fmt.Sprintf(`input[name="horaActividad-radios"][value=%q]`, cand.Time)
	if radio, ok, err := page.First(selector); err == nil && ok {
		if radio.Click() == nil {
			page.Settle(s.delays.PriceUpdate)
			return
		}
	}

	js := fmt.Sprintf(`() => {
		const select = document.getElementById('horaActividad');
		if (select) {
			select.value = %q;
			select.dispatchEvent(new Event('change', { bubbles: true }));
		}
	}`, cand.Time)
	if _, err := page.Eval(js); err != nil {
		s.logger.Debug().Err(err).Str("time", cand.Time).Msg("dropdown activation failed")
	}
	page.Settle(s.delays.PriceUpdate)
}
