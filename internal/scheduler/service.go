/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduler runs the periodic sweep that scrapes every registered
// tour for the upcoming dates and persists the results.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/tourwatch/internal/models"
	"github.com/friendsincode/tourwatch/internal/scraper"
	"github.com/friendsincode/tourwatch/internal/store"
	"github.com/friendsincode/tourwatch/internal/telemetry"
)

// ErrSweepInProgress is returned when a sweep is requested while one runs.
var ErrSweepInProgress = errors.New("sweep already in progress")

// Comparer is the slice of the scrape engine the sweep needs.
type Comparer interface {
	CompareAllSchedules(ctx context.Context, url, date, language string) []scraper.SlotResult
}

// Options tune the sweep.
type Options struct {
	Hour          int    // local hour of day the daily sweep starts
	LookaheadDays int    // dates scraped per tour, starting today
	Concurrency   int    // concurrent browser sessions
	Timezone      string // IANA zone for the sweep hour
}

// Service owns the daily sweep loop. Each (tour, date) pair is scraped in
// its own isolated browser session; page-level work inside a session stays
// strictly sequential.
type Service struct {
	store    *store.Store
	comparer Comparer
	logger   zerolog.Logger

	hour        int
	lookahead   int
	concurrency int
	location    *time.Location

	mu           sync.Mutex
	running      bool
	lastSweepDay string
}

// New constructs the sweep service.
func New(st *store.Store, comparer Comparer, opts Options, logger zerolog.Logger) *Service {
	if opts.LookaheadDays < 1 {
		opts.LookaheadDays = 30
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		logger.Warn().Str("timezone", opts.Timezone).Msg("unknown sweep timezone, using UTC")
		loc = time.UTC
	}
	return &Service{
		store:       st,
		comparer:    comparer,
		logger:      logger,
		hour:        opts.Hour,
		lookahead:   opts.LookaheadDays,
		concurrency: opts.Concurrency,
		location:    loc,
	}
}

// Run executes the sweep loop until the context is cancelled. The sweep
// fires once per local day at the configured hour.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	s.logger.Info().Int("hour", s.hour).Str("tz", s.location.String()).Msg("sweep loop started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweep loop stopped")
			return ctx.Err()
		case now := <-ticker.C:
			local := now.In(s.location)
			day := local.Format("2006-01-02")
			if local.Hour() != s.hour || s.sweptToday(day) {
				continue
			}
			if err := s.Sweep(ctx); err != nil && !errors.Is(err, ErrSweepInProgress) {
				s.logger.Error().Err(err).Msg("daily sweep failed")
			}
		}
	}
}

func (s *Service) sweptToday(day string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSweepDay == day
}

// Running reports whether a sweep is currently executing.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Sweep scrapes every registered tour for the next lookahead days and
// replaces the stored rows per (tour, date). At most one sweep runs at a
// time.
func (s *Service) Sweep(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSweepInProgress
	}
	s.running = true
	s.lastSweepDay = time.Now().In(s.location).Format("2006-01-02")
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	run, err := s.store.StartRun(ctx)
	if err != nil {
		telemetry.SweepErrorsTotal.WithLabelValues("start_run").Inc()
		return fmt.Errorf("start sweep run: %w", err)
	}

	tours, err := s.store.ListTours(ctx)
	if err != nil {
		telemetry.SweepErrorsTotal.WithLabelValues("list_tours").Inc()
		_ = s.store.FinishRun(ctx, run, models.RunFailed, 0, 0, err.Error())
		telemetry.SweepRunsTotal.WithLabelValues(string(models.RunFailed)).Inc()
		return fmt.Errorf("list tours: %w", err)
	}

	dates := s.sweepDates()
	s.logger.Info().Int("tours", len(tours)).Int("dates", len(dates)).Msg("sweep started")

	// Sessions are isolated, so (tour, date) pairs may run concurrently up
	// to the configured limit. Within a session everything is sequential.
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	var datesScraped atomic.Int64

	for _, tour := range tours {
		for _, date := range dates {
			select {
			case <-ctx.Done():
				wg.Wait()
				_ = s.store.FinishRun(ctx, run, models.RunFailed, len(tours), int(datesScraped.Load()), ctx.Err().Error())
				telemetry.SweepRunsTotal.WithLabelValues(string(models.RunFailed)).Inc()
				return ctx.Err()
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(tour models.Tour, date string) {
				defer wg.Done()
				defer func() { <-sem }()

				results := s.comparer.CompareAllSchedules(ctx, tour.URL, date, "es")
				if err := s.store.ReplaceSlots(ctx, tour.ID, date, results); err != nil {
					telemetry.SweepErrorsTotal.WithLabelValues("persist").Inc()
					s.logger.Error().Err(err).
						Str("tour", tour.Name).
						Str("date", date).
						Msg("persisting sweep results failed")
					return
				}
				datesScraped.Add(1)
			}(tour, date)
		}
	}
	wg.Wait()

	if err := s.store.FinishRun(ctx, run, models.RunSuccess, len(tours), int(datesScraped.Load()), ""); err != nil {
		telemetry.SweepErrorsTotal.WithLabelValues("finish_run").Inc()
		return fmt.Errorf("finish sweep run: %w", err)
	}
	telemetry.SweepRunsTotal.WithLabelValues(string(models.RunSuccess)).Inc()
	s.logger.Info().
		Int("tours", len(tours)).
		Int64("dates", datesScraped.Load()).
		Msg("sweep finished")
	return nil
}

// sweepDates returns today plus the following lookahead-1 days.
func (s *Service) sweepDates() []string {
	today := time.Now().In(s.location)
	dates := make([]string, 0, s.lookahead)
	for i := 0; i < s.lookahead; i++ {
		dates = append(dates, today.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return dates
}
