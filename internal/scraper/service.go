/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/tourwatch/internal/telemetry"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Delays are the settle/wait timings the engine uses between interactions.
// The booking widget keeps mutating its DOM after elements become queryable,
// so most steps need a fixed pause before the next read is trustworthy.
type Delays struct {
	PageLoad       time.Duration // after navigation, for client-side rendering
	CookieDismiss  time.Duration
	ChatDismiss    time.Duration
	Scroll         time.Duration
	CalendarWait   time.Duration // bounded wait for the calendar widget
	CalendarRender time.Duration // initial widget render
	CalendarPage   time.Duration // after each month pagination click
	CalendarSettle time.Duration // before the day-cell lookup
	DateClick      time.Duration // after clicking a day cell
	SlotListRender time.Duration // for the slot controls to appear
	PriceUpdate    time.Duration // after activating a slot
}

// DefaultDelays returns timings tuned against the live site.
func DefaultDelays() Delays {
	return Delays{
		PageLoad:       3 * time.Second,
		CookieDismiss:  500 * time.Millisecond,
		ChatDismiss:    300 * time.Millisecond,
		Scroll:         time.Second,
		CalendarWait:   15 * time.Second,
		CalendarRender: 3 * time.Second,
		CalendarPage:   600 * time.Millisecond,
		CalendarSettle: 500 * time.Millisecond,
		DateClick:      2 * time.Second,
		SlotListRender: 2 * time.Second,
		PriceUpdate:    600 * time.Millisecond,
	}
}

// Service is the schedule-extraction engine. One Service may serve many
// concurrent comparison runs; each run owns its own browser session.
type Service struct {
	sessions  SessionFactory
	providers ProviderDirectory
	delays    Delays
	logger    zerolog.Logger
}

// New constructs the engine.
func New(sessions SessionFactory, providers ProviderDirectory, logger zerolog.Logger) *Service {
	if providers == nil {
		providers = DefaultProviders()
	}
	return &Service{
		sessions:  sessions,
		providers: providers,
		delays:    DefaultDelays(),
		logger:    logger,
	}
}

// SetDelays overrides the settle timings (shorter runs in tests).
func (s *Service) SetDelays(d Delays) {
	s.delays = d
}

// CompareAllSchedules extracts every available time slot for url on date
// (YYYY-MM-DD) together with the operator assigned to it and the quoted
// price. It never returns an error: expected unavailability, partial
// extraction gaps, and fatal session faults are all representable in the
// result list itself.
func (s *Service) CompareAllSchedules(ctx context.Context, url, date, language string) []SlotResult {
	start := time.Now()
	results := s.compare(ctx, url, date, language)
	if len(results) == 0 {
		results = []SlotResult{Sentinel("No se encontraron resultados")}
	}

	outcome := "ok"
	if len(results) == 1 && results[0].Time == TimeUnavailable {
		outcome = "sentinel"
	}
	telemetry.ScrapesTotal.WithLabelValues(outcome).Inc()
	telemetry.ScrapeDuration.Observe(time.Since(start).Seconds())
	telemetry.SlotsDiscovered.Observe(float64(len(results)))

	s.logger.Info().
		Str("url", url).
		Str("date", date).
		Int("slots", len(results)).
		Str("outcome", outcome).
		Dur("elapsed", time.Since(start)).
		Msg("comparison run finished")
	return results
}

func (s *Service) compare(ctx context.Context, url, date, language string) (results []SlotResult) {
	// The contract guarantees this function never raises outward; a fault
	// anywhere below degrades to a single descriptive sentinel.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("url", url).Str("date", date).Interface("panic", r).Msg("comparison run fault")
			results = []SlotResult{Sentinel(fmt.Sprintf("Error: %v", r))}
		}
	}()

	if language == "" {
		language = "es"
	}
	target, err := time.Parse("2006-01-02", date)
	if err != nil {
		return []SlotResult{Sentinel(fmt.Sprintf("Error: %v", err))}
	}

	sess, err := s.sessions(ctx, SessionOptions{
		UserAgent:      defaultUserAgent,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Locale:         "es-ES",
		AcceptLanguage: language,
	})
	if err != nil {
		return []SlotResult{Sentinel(fmt.Sprintf("Error: %v", err))}
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("session teardown failed")
		}
	}()

	page := sess.Page()
	if err := page.Navigate(ctx, url); err != nil {
		return []SlotResult{Sentinel(fmt.Sprintf("Error: %v", err))}
	}
	page.Settle(s.delays.PageLoad)

	// Non-essential overlays; the outcome of these clicks is ignored.
	s.dismissOverlays(page)
	s.scrollToBooking(page)

	if !s.selectDate(ctx, page, target) {
		return []SlotResult{Sentinel("No se pudo seleccionar la fecha")}
	}
	page.Settle(s.delays.SlotListRender)

	candidates := s.listSlots(page)
	if len(candidates) == 0 {
		// No enumerable slots at all: emit one sentinel carrying whatever
		// operator/price the page still exposes.
		return []SlotResult{{
			Time:     TimeUnavailable,
			Operator: s.extractOperator(page),
			Price:    s.extractPrice(page),
		}}
	}

	for _, cand := range candidates {
		results = append(results, s.resolveSlot(page, cand))
	}
	return results
}

// dismissOverlays closes the cookie-consent banner and the chat widget when
// present. Both are best-effort: a miss is not a failure.
func (s *Service) dismissOverlays(page Page) {
	if s.clickFirst(page, `button#didomi-notice-agree-button, [class*="cookie"] button, .accept-cookies`) {
		page.Settle(s.delays.CookieDismiss)
	}
	for _, sel := range chatCloseSelectors {
		if s.clickFirst(page, sel) {
			page.Settle(s.delays.ChatDismiss)
		}
	}
}

var chatCloseSelectors = []string{
	".ic-close",
	`[class*="chat"] .close`,
	`[class*="chat"] button[class*="close"]`,
	".chat-close",
	`[aria-label="Close"]`,
	`[aria-label="Cerrar"]`,
}

// scrollToBooking brings the booking form into the viewport so the calendar
// widget initializes. Best-effort.
func (s *Service) scrollToBooking(page Page) bool {
	el, ok, err := page.First("#formReservaActividad, #activity-navbar, .booking-form")
	if err != nil || !ok {
		return false
	}
	if el.ScrollIntoView() != nil {
		return false
	}
	page.Settle(s.delays.Scroll)
	return true
}

// clickFirst clicks the first match of selector, reporting whether a click
// landed.
func (s *Service) clickFirst(page Page, selector string) bool {
	el, ok, err := page.First(selector)
	if err != nil || !ok {
		return false
	}
	return el.Click() == nil
}
