/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/friendsincode/tourwatch/internal/db"
	"github.com/friendsincode/tourwatch/internal/models"
	"github.com/friendsincode/tourwatch/internal/scraper"
	"github.com/friendsincode/tourwatch/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return store.New(database, zerolog.Nop())
}

// stubComparer records every (url, date) it was asked for and returns a
// canned slot list.
type stubComparer struct {
	mu      sync.Mutex
	calls   [][2]string
	results []scraper.SlotResult
	block   chan struct{}
}

func (c *stubComparer) CompareAllSchedules(ctx context.Context, url, date, language string) []scraper.SlotResult {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, [2]string{url, date})
	return c.results
}

func (c *stubComparer) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestSweepPersistsResults(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	tourA, err := st.CreateTour(ctx, "Tour A", "https://www.civitatis.com/es/roma/a/")
	if err != nil {
		t.Fatalf("create tour: %v", err)
	}
	if _, err := st.CreateTour(ctx, "Tour B", "https://www.civitatis.com/es/roma/b/"); err != nil {
		t.Fatalf("create tour: %v", err)
	}

	price := "25,00 €"
	comparer := &stubComparer{results: []scraper.SlotResult{
		{Time: "09:00", Operator: "Tourismotion", ProviderID: "285", Price: &price},
	}}

	svc := New(st, comparer, Options{Hour: 6, LookaheadDays: 3, Concurrency: 2, Timezone: "UTC"}, zerolog.Nop())

	if err := svc.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	// 2 tours x 3 dates
	if got := comparer.callCount(); got != 6 {
		t.Fatalf("comparer called %d times, want 6", got)
	}

	dates := svc.sweepDates()
	rows, err := st.SlotsForDate(ctx, tourA.ID, dates[0])
	if err != nil {
		t.Fatalf("slots for date: %v", err)
	}
	if len(rows) != 1 || rows[0].Operator != "Tourismotion" || rows[0].Price != "25,00 €" {
		t.Fatalf("rows = %+v", rows)
	}

	runs, err := st.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Status != models.RunSuccess || runs[0].ToursScraped != 2 || runs[0].DatesScraped != 6 {
		t.Fatalf("run = %+v", runs[0])
	}
	if svc.Running() {
		t.Fatal("Running() = true after sweep finished")
	}
}

func TestSweepRejectsOverlap(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	if _, err := st.CreateTour(ctx, "Tour A", "https://www.civitatis.com/es/roma/a/"); err != nil {
		t.Fatalf("create tour: %v", err)
	}

	block := make(chan struct{})
	comparer := &stubComparer{block: block}
	svc := New(st, comparer, Options{Hour: 6, LookaheadDays: 1, Concurrency: 1, Timezone: "UTC"}, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- svc.Sweep(ctx) }()

	// Wait for the sweep to take the running flag.
	deadline := time.Now().Add(time.Second)
	for !svc.Running() {
		if time.Now().After(deadline) {
			t.Fatal("sweep never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := svc.Sweep(ctx); err != ErrSweepInProgress {
		t.Fatalf("overlapping sweep returned %v, want ErrSweepInProgress", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first sweep: %v", err)
	}
}

func TestSweepDatesSpanLookahead(t *testing.T) {
	st := setupTestStore(t)
	svc := New(st, &stubComparer{}, Options{LookaheadDays: 5, Concurrency: 1, Timezone: "UTC"}, zerolog.Nop())

	dates := svc.sweepDates()
	if len(dates) != 5 {
		t.Fatalf("got %d dates, want 5", len(dates))
	}
	seen := make(map[string]struct{})
	for _, d := range dates {
		if _, dup := seen[d]; dup {
			t.Fatalf("duplicate date %s", d)
		}
		seen[d] = struct{}{}
	}
}
