/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scraper

import (
	"regexp"
	"strings"
)

// operatorNotFound is the terminal fallback of the operator extractor; the
// extractor never fails its caller.
const operatorNotFound = "No encontrado"

// Selector patterns commonly used for operator/provider display blocks,
// tried in order.
var operatorSelectors = []string{
	".operator-name",
	".provider-name",
	`[class*="operator"]`,
	`[class*="provider"]`,
	"[data-operator]",
	".activity-operator",
	".tour-operator",
	".m-cart-item__operator",
	".cart-operator",
}

// Label and JSON-key patterns searched against the rendered document when no
// selector matches.
var operatorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[Oo]perador[:\s]+([^<\n,]+)`),
	regexp.MustCompile(`[Pp]rovider[:\s]+([^<\n,]+)`),
	regexp.MustCompile(`[Oo]rganizador[:\s]+([^<\n,]+)`),
	regexp.MustCompile(`"operator"[:\s]*"([^"]+)"`),
	regexp.MustCompile(`"provider"[:\s]*"([^"]+)"`),
}

// extractOperator is the last-resort operator lookup used when no slots
// were enumerated at all. Order matters: display selectors first, then the
// document-wide regex patterns.
func (s *Service) extractOperator(page Page) string {
	for _, sel := range operatorSelectors {
		el, ok, err := page.First(sel)
		if err != nil || !ok {
			continue
		}
		text, err := el.Text()
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}

	content, err := page.HTML()
	if err != nil {
		return operatorNotFound
	}
	for _, re := range operatorPatterns {
		m := re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		operator := strings.TrimSpace(m[1])
		if len(operator) > 2 && len(operator) < 100 {
			return operator
		}
	}
	return operatorNotFound
}

// Price display selectors, most specific first. #tPrecioSpan0 is the adult
// price in the booking form, the one that updates when a slot is selected.
var priceSelectors = []string{
	"#tPrecioSpan0",
	".m-activity-price__top .a-text--price--big",
	".a-text--price--big",
	".pax-price",
	`[class*="price-final"]`,
	".total-price",
	"#precioTotal",
	".booking-price",
}

var (
	priceWithSymbolRe = regexp.MustCompile(`(\d+[.,]?\d*)\s*€`)
	priceDecimalRe    = regexp.MustCompile(`(\d+[.,]\d{2})`)
	priceLooseRe      = regexp.MustCompile(`(\d+[.,]?\d*)\s*€?`)
)

const pricePageProbe = `() => {
	const priceEl = document.querySelector('#tPrecioSpan0');
	if (priceEl) return priceEl.textContent;
	const totalEl = document.querySelector('.m-activity-price__total');
	if (totalEl) return totalEl.textContent;
	return null;
}`

// extractPrice reads the price quoted for the currently active slot. A nil
// return means the page exposes no price; that is a valid outcome, not an
// error.
func (s *Service) extractPrice(page Page) *string {
	for _, sel := range priceSelectors {
		el, ok, err := page.First(sel)
		if err != nil || !ok {
			continue
		}
		text, err := el.Text()
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if m := priceWithSymbolRe.FindStringSubmatch(text); m != nil {
			return priceRef(m[1])
		}
		// Looser fallback for displays that drop the currency symbol.
		if m := priceDecimalRe.FindStringSubmatch(text); m != nil {
			return priceRef(m[1])
		}
	}

	// Direct page-side read of the known price-bearing fields.
	raw, err := page.Eval(pricePageProbe)
	if err == nil && raw != "" {
		if m := priceLooseRe.FindStringSubmatch(raw); m != nil && m[1] != "" {
			return priceRef(m[1])
		}
	}
	return nil
}

func priceRef(amount string) *string {
	price := amount + " €"
	return &price
}
