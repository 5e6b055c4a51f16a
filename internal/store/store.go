/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package store persists tours, scraped slots, and sweep run logs.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/tourwatch/internal/models"
	"github.com/friendsincode/tourwatch/internal/scraper"
)

// Store wraps the database for the scraping domain.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New constructs the store.
func New(db *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// ReplaceSlots swaps the stored rows for (tourID, date) with results from a
// fresh comparison run, inside one transaction. Sentinel results are not
// persisted; a run that produced only a sentinel clears the old rows.
func (s *Store) ReplaceSlots(ctx context.Context, tourID, date string, results []scraper.SlotResult) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tour_id = ? AND date = ?", tourID, date).
			Delete(&models.SlotRecord{}).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, r := range results {
			if r.Time == "" || r.Time == scraper.TimeUnavailable {
				continue
			}
			rec := models.SlotRecord{
				ID:         uuid.NewString(),
				TourID:     tourID,
				Date:       date,
				Time:       r.Time,
				Operator:   r.Operator,
				ProviderID: r.ProviderID,
				ScrapedAt:  now,
			}
			if r.Price != nil {
				rec.Price = *r.Price
			}
			if r.Quota != nil {
				rec.Quota = *r.Quota
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SlotsForDate returns the stored rows for a tour and date, in scrape order.
func (s *Store) SlotsForDate(ctx context.Context, tourID, date string) ([]models.SlotRecord, error) {
	var rows []models.SlotRecord
	err := s.db.WithContext(ctx).
		Where("tour_id = ? AND date = ?", tourID, date).
		Order("time").
		Find(&rows).Error
	return rows, err
}

// ListTours returns every registered tour.
func (s *Store) ListTours(ctx context.Context) ([]models.Tour, error) {
	var tours []models.Tour
	err := s.db.WithContext(ctx).Order("created_at").Find(&tours).Error
	return tours, err
}

// GetTour looks a tour up by id.
func (s *Store) GetTour(ctx context.Context, id string) (*models.Tour, error) {
	var tour models.Tour
	if err := s.db.WithContext(ctx).First(&tour, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tour, nil
}

// TourByURL looks a tour up by its page URL.
func (s *Store) TourByURL(ctx context.Context, url string) (*models.Tour, error) {
	var tour models.Tour
	if err := s.db.WithContext(ctx).First(&tour, "url = ?", url).Error; err != nil {
		return nil, err
	}
	return &tour, nil
}

// CreateTour registers a tour.
func (s *Store) CreateTour(ctx context.Context, name, url string) (*models.Tour, error) {
	tour := models.Tour{ID: uuid.NewString(), Name: name, URL: url}
	if err := s.db.WithContext(ctx).Create(&tour).Error; err != nil {
		return nil, err
	}
	return &tour, nil
}

// DeleteTour removes a tour and its scraped rows.
func (s *Store) DeleteTour(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tour_id = ?", id).Delete(&models.SlotRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tour{}, "id = ?", id).Error
	})
}

// EnsureTours registers any seed tours that do not exist yet, keyed by URL.
func (s *Store) EnsureTours(ctx context.Context, seeds []TourSeed) error {
	for _, seed := range seeds {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Tour{}).
			Where("url = ?", seed.URL).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if _, err := s.CreateTour(ctx, seed.Name, seed.URL); err != nil {
			return err
		}
		s.logger.Info().Str("name", seed.Name).Msg("tour registered from seed")
	}
	return nil
}

// StartRun opens a sweep run log entry in "running" state.
func (s *Store) StartRun(ctx context.Context) (*models.ScrapeRun, error) {
	run := models.ScrapeRun{
		ID:        uuid.NewString(),
		Status:    models.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// FinishRun closes a sweep run log entry.
func (s *Store) FinishRun(ctx context.Context, run *models.ScrapeRun, status models.ScrapeRunStatus, tours, dates int, errMsg string) error {
	now := time.Now().UTC()
	run.Status = status
	run.FinishedAt = &now
	run.ToursScraped = tours
	run.DatesScraped = dates
	run.ErrorMessage = errMsg
	return s.db.WithContext(ctx).Save(run).Error
}

// RecentRuns lists the latest sweep run logs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]models.ScrapeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.ScrapeRun
	err := s.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}
