/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package e2e runs the full scrape engine against a real Chromium instance,
// serving a local replica of a Civitatis booking page.
package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/tourwatch/internal/browser"
	"github.com/friendsincode/tourwatch/internal/scraper"
)

// bookingPageHTML mimics the booking widget: a clndr calendar, the schedule
// dropdown, and a change handler that swaps the provider field and price the
// way the live page does.
const bookingPageHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Visita guiada por Roma</title></head>
<body>
<h1>Visita guiada por Roma</h1>
<div id="formReservaActividad">
  <table class="clndr-table">
    <tr>
      <td class="day calendar-day-2026-09-14 inactive">14</td>
      <td class="day calendar-day-2026-09-15">15</td>
      <td class="day calendar-day-2026-09-16">16</td>
    </tr>
  </table>
  <form id="formActividad">
    <select id="horaActividad">
      <option value="">Selecciona hora</option>
      <option value="09:00">09:00</option>
      <option value="11:30" data-quota="2">11:30</option>
    </select>
    <input type="hidden" id="idProveedor" value="">
    <span id="tPrecioSpan0"></span>
  </form>
</div>
<script>
  var slots = {
    "09:00": { provider: "285", price: "25,00 €" },
    "11:30": { provider: "6130", price: "30,00 €" }
  };
  document.getElementById('horaActividad').addEventListener('change', function () {
    var slot = slots[this.value];
    if (!slot) return;
    document.getElementById('idProveedor').setAttribute('value', slot.provider);
    document.getElementById('tPrecioSpan0').textContent = slot.price;
  });
</script>
</body>
</html>`

func fastDelays() scraper.Delays {
	return scraper.Delays{
		PageLoad:       200 * time.Millisecond,
		CookieDismiss:  50 * time.Millisecond,
		ChatDismiss:    50 * time.Millisecond,
		Scroll:         50 * time.Millisecond,
		CalendarWait:   5 * time.Second,
		CalendarRender: 100 * time.Millisecond,
		CalendarPage:   50 * time.Millisecond,
		CalendarSettle: 50 * time.Millisecond,
		DateClick:      100 * time.Millisecond,
		SlotListRender: 100 * time.Millisecond,
		PriceUpdate:    100 * time.Millisecond,
	}
}

func TestCompareAllSchedulesInBrowser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e tests in short mode")
	}
	headless := os.Getenv("E2E_HEADLESS") != "false"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(bookingPageHTML))
	}))
	defer server.Close()

	svc := scraper.New(browser.NewFactory(headless), scraper.DefaultProviders(), zerolog.Nop())
	svc.SetDelays(fastDelays())

	results := svc.CompareAllSchedules(context.Background(), server.URL, "2026-09-15", "es")

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
}

func TestCompareAllSchedulesInBrowserInactiveDate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e tests in short mode")
	}
	headless := os.Getenv("E2E_HEADLESS") != "false"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(bookingPageHTML))
	}))
	defer server.Close()

	svc := scraper.New(browser.NewFactory(headless), scraper.DefaultProviders(), zerolog.Nop())
	svc.SetDelays(fastDelays())

	results := svc.CompareAllSchedules(context.Background(), server.URL, "2026-09-14", "es")

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: %+v", len(results), results)
	}
	if results[0].Time != scraper.TimeUnavailable || results[0].Operator != "No se pudo seleccionar la fecha" {
		t.Fatalf("result = %+v", results[0])
	}
}
