/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scraper

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	scheduleSelectOptions = "#horaActividad option"
	scheduleRadioGroup    = `input[name="horaActividad-radios"]`
	bookingFormSelector   = "#formActividad"
)

var slotTimeRe = regexp.MustCompile(`\b(\d{1,2}:\d{2})\b`)

// listSlots discovers the candidate time slots exposed by the booking
// widget. Discovery is tiered; each tier is attempted only when the
// previous one produced nothing. The returned list may be empty but
// listSlots itself never fails.
func (s *Service) listSlots(page Page) []SlotCandidate {
	if cands := s.slotsFromSelect(page); len(cands) > 0 {
		return cands
	}
	if cands := s.slotsFromRadios(page); len(cands) > 0 {
		return cands
	}
	return s.slotsFromFormText(page)
}

// slotsFromSelect reads the dropdown control. The first option is an empty
// placeholder and is always skipped.
func (s *Service) slotsFromSelect(page Page) []SlotCandidate {
	options, err := page.All(scheduleSelectOptions)
	if err != nil || len(options) <= 1 {
		return nil
	}
	var cands []SlotCandidate
	for _, opt := range options[1:] {
		value, err := opt.Attribute("value")
		if err != nil || value == "" {
			continue
		}
		quota := ""
		if q, err := opt.Attribute("data-quota"); err == nil && strings.TrimSpace(q) != "" {
			quota = fmt.Sprintf("Ultimas %s plazas", strings.TrimSpace(q))
		}
		cands = append(cands, SlotCandidate{Time: value, Index: len(cands), Quota: quota})
	}
	return cands
}

// slotsFromRadios enumerates the exclusive-choice group. The radio markup
// carries no quota attribute, so quota stays empty in this tier.
func (s *Service) slotsFromRadios(page Page) []SlotCandidate {
	radios, err := page.All(scheduleRadioGroup)
	if err != nil {
		return nil
	}
	var cands []SlotCandidate
	for _, radio := range radios {
		value, err := radio.Attribute("value")
		if err != nil || value == "" {
			continue
		}
		cands = append(cands, SlotCandidate{Time: value, Index: len(cands)})
	}
	return cands
}

// slotsFromFormText scrapes HH:MM-shaped substrings out of the raw booking
// form text when neither structured control exists. Matches are
// deduplicated and sorted lexicographically.
func (s *Service) slotsFromFormText(page Page) []SlotCandidate {
	form, ok, err := page.First(bookingFormSelector)
	if err != nil || !ok {
		return nil
	}
	text, err := form.Text()
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var times []string
	for _, m := range slotTimeRe.FindAllString(text, -1) {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		times = append(times, m)
	}
	sort.Strings(times)

	cands := make([]SlotCandidate, 0, len(times))
	for i, t := range times {
		cands = append(cands, SlotCandidate{Time: t, Index: i})
	}
	return cands
}
