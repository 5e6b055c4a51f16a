/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// bookingPage builds a page whose dropdown offers 09:00 (Tourismotion,
// 25,00 €) and 11:30 (Vivicos, 30,00 €, two seats left). Selecting a slot
// goes through the page-side change handler, which swaps the provider field
// and the displayed price.
func bookingPage() *fakePage {
	page := newFakePage()
	page.addCalendar("2026-09-15")

	page.add(scheduleSelectOptions, &fakeElement{attrs: map[string]string{"value": ""}})
	page.add(scheduleSelectOptions, &fakeElement{attrs: map[string]string{"value": "09:00"}})
	page.add(scheduleSelectOptions, &fakeElement{attrs: map[string]string{"value": "11:30", "data-quota": "2"}})

	provider := page.add(providerField, &fakeElement{attrs: map[string]string{"value": ""}})
	price := page.add("#tPrecioSpan0", &fakeElement{})

	page.evalFn = func(js string) (string, error) {
		switch {
		case strings.Contains(js, `"09:00"`):
			provider.attrs["value"] = "285"
			price.text = "25,00 €"
		case strings.Contains(js, `"11:30"`):
			provider.attrs["value"] = "6130"
			price.text = "30,00 €"
		}
		return "", nil
	}
	return page
}

func TestCompareAllSchedulesFullRun(t *testing.T) {
	page := bookingPage()
	factory, sess := sessionFor(page)
	svc := New(factory, nil, zerolog.Nop())

	results := svc.CompareAllSchedules(context.Background(), "https://www.civitatis.com/es/roma/tour-test/", "2026-09-15", "es")

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}

	first := results[0]
	if first.Time != "09:00" || first.Operator != "Tourismotion" || first.ProviderID != "285" {
		t.Fatalf("first result = %+v", first)
	}
	if first.Price == nil || *first.Price != "25,00 €" {
		t.Fatalf("first price = %v, want 25,00 €", first.Price)
	}
	if first.Quota != nil {
		t.Fatalf("first quota = %v, want nil", *first.Quota)
	}

	second := results[1]
	if second.Time != "11:30" || second.Operator != "Vivicos" || second.ProviderID != "6130" {
		t.Fatalf("second result = %+v", second)
	}
	if second.Price == nil || *second.Price != "30,00 €" {
		t.Fatalf("second price = %v, want 30,00 €", second.Price)
	}
	if second.Quota == nil || *second.Quota != "Ultimas 2 plazas" {
		t.Fatalf("second quota = %v, want Ultimas 2 plazas", second.Quota)
	}

	if !sess.closed {
		t.Fatal("session was not closed after the run")
	}
	if len(page.visited) != 1 || page.visited[0] != "https://www.civitatis.com/es/roma/tour-test/" {
		t.Fatalf("visited = %v", page.visited)
	}
}

func TestCompareAllSchedulesRadioActivation(t *testing.T) {
	page := newFakePage()
	page.addCalendar("2026-09-15")

	provider := page.add(providerField, &fakeElement{attrs: map[string]string{"value": ""}})
	price := page.add("#tPrecioSpan0", &fakeElement{})

	radio := &fakeElement{attrs: map[string]string{"value": "18:00"}}
	radio.onClick = func() {
		provider.attrs["value"] = "54973"
		price.text = "12,50 €"
	}
	page.add(scheduleRadioGroup, radio)
	page.add(`input[name="horaActividad-radios"][value="18:00"]`, radio)

	factory, _ := sessionFor(page)
	svc := New(factory, nil, zerolog.Nop())

	results := svc.CompareAllSchedules(context.Background(), "https://www.civitatis.com/es/roma/tour-test/", "2026-09-15", "")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: %+v", len(results), results)
	}
	got := results[0]
	if got.Time != "18:00" || got.Operator != "Rutasromanas" || got.ProviderID != "54973" {
		t.Fatalf("result = %+v", got)
	}
	if got.Price == nil || *got.Price != "12,50 €" {
		t.Fatalf("price = %v, want 12,50 €", got.Price)
	}
	if radio.clicks == 0 {
		t.Fatal("radio input was never clicked")
	}
}

func TestCompareAllSchedulesDateUnavailable(t *testing.T) {
	page := newFakePage()
	cell := page.addCalendar("2026-09-15")
	cell.attrs["class"] = "day inactive calendar-day-2026-09-15"

	factory, sess := sessionFor(page)
	svc := New(factory, nil, zerolog.Nop())

	results := svc.CompareAllSchedules(context.Background(), "https://www.civitatis.com/es/roma/tour-test/", "2026-09-15", "es")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Time != TimeUnavailable || results[0].Operator != "No se pudo seleccionar la fecha" {
		t.Fatalf("result = %+v", results[0])
	}
	if !sess.closed {
		t.Fatal("session was not closed after the failed run")
	}
}

func TestCompareAllSchedulesNoSlotsKeepsPageContext(t *testing.T) {
	page := newFakePage()
	page.addCalendar("2026-09-15")
	// Date selectable but the widget exposes no slot controls at all; the
	// single degraded row should still carry what the page shows.
	page.add(".operator-name", &fakeElement{text: "Enroma"})
	page.add("#tPrecioSpan0", &fakeElement{text: "45 €"})

	factory, _ := sessionFor(page)
	svc := New(factory, nil, zerolog.Nop())

	results := svc.CompareAllSchedules(context.Background(), "https://www.civitatis.com/es/roma/tour-test/", "2026-09-15", "es")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	got := results[0]
	if got.Time != TimeUnavailable || got.Operator != "Enroma" {
		t.Fatalf("result = %+v", got)
	}
	if got.Price == nil || *got.Price != "45 €" {
		t.Fatalf("price = %v, want 45 €", got.Price)
	}
}

func TestCompareAllSchedulesSessionFailure(t *testing.T) {
	factory := func(ctx context.Context, opts SessionOptions) (Session, error) {
		return nil, errors.New("browser unreachable")
	}
	svc := New(factory, nil, zerolog.Nop())

	results := svc.CompareAllSchedules(context.Background(), "https://www.civitatis.com/es/roma/tour-test/", "2026-09-15", "es")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Time != TimeUnavailable || !strings.Contains(results[0].Operator, "browser unreachable") {
		t.Fatalf("result = %+v", results[0])
	}
}

func TestCompareAllSchedulesInvalidDate(t *testing.T) {
	factory, _ := sessionFor(newFakePage())
	svc := New(factory, nil, zerolog.Nop())

	results := svc.CompareAllSchedules(context.Background(), "https://www.civitatis.com/es/roma/tour-test/", "15/09/2026", "es")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Time != TimeUnavailable || !strings.HasPrefix(results[0].Operator, "Error:") {
		t.Fatalf("result = %+v", results[0])
	}
}

func TestCompareAllSchedulesSessionOptions(t *testing.T) {
	var captured SessionOptions
	page := bookingPage()
	factory := func(ctx context.Context, opts SessionOptions) (Session, error) {
		captured = opts
		return &fakeSession{page: page}, nil
	}
	svc := New(factory, nil, zerolog.Nop())

	svc.CompareAllSchedules(context.Background(), "https://www.civitatis.com/es/roma/tour-test/", "2026-09-15", "en")

	if captured.ViewportWidth != 1920 || captured.ViewportHeight != 1080 {
		t.Fatalf("viewport = %dx%d", captured.ViewportWidth, captured.ViewportHeight)
	}
	if captured.Locale != "es-ES" || captured.AcceptLanguage != "en" {
		t.Fatalf("locale/language = %q/%q", captured.Locale, captured.AcceptLanguage)
	}
	if captured.UserAgent == "" {
		t.Fatal("user agent not pinned")
	}
}
