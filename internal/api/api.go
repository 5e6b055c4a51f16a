/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the HTTP surface: on-demand scrapes, tour CRUD,
// stored slot queries, and sweep control.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/tourwatch/internal/cache"
	"github.com/friendsincode/tourwatch/internal/scheduler"
	"github.com/friendsincode/tourwatch/internal/scraper"
	"github.com/friendsincode/tourwatch/internal/store"
)

// Comparer is the slice of the scrape engine the API needs.
type Comparer interface {
	CompareAllSchedules(ctx context.Context, url, date, language string) []scraper.SlotResult
}

// API exposes HTTP handlers.
type API struct {
	store    *store.Store
	comparer Comparer
	sweeper  *scheduler.Service
	cache    *cache.Cache
	logger   zerolog.Logger
}

// New creates the API router wrapper. cache and sweeper may be nil.
func New(st *store.Store, comparer Comparer, sweeper *scheduler.Service, resultCache *cache.Cache, logger zerolog.Logger) *API {
	return &API{
		store:    st,
		comparer: comparer,
		sweeper:  sweeper,
		cache:    resultCache,
		logger:   logger,
	}
}

// Routes mounts all API endpoints.
func (a *API) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Post("/scrape", a.handleScrape)

		r.Get("/tours", a.handleToursList)
		r.Post("/tours", a.handleToursCreate)
		r.Delete("/tours/{tourID}", a.handleToursDelete)
		r.Get("/tours/{tourID}/slots", a.handleTourSlots)

		r.Get("/runs", a.handleRunsList)
		r.Post("/sweep", a.handleSweepTrigger)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scrapeRequest struct {
	URL      string `json:"url"`
	Date     string `json:"date"`
	Language string `json:"language"`
}

// handleScrape runs one comparison on demand. The response mirrors the
// engine contract: scraping failures arrive as sentinel rows inside a
// successful response, never as an HTTP error.
func (a *API) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeScrapeError(w, http.StatusBadRequest, "No se recibieron datos JSON")
		return
	}
	if req.URL == "" {
		writeScrapeError(w, http.StatusBadRequest, "La URL del tour es requerida")
		return
	}
	if req.Date == "" {
		writeScrapeError(w, http.StatusBadRequest, "La fecha es requerida")
		return
	}
	if !strings.Contains(req.URL, "civitatis.com") {
		writeScrapeError(w, http.StatusBadRequest, "La URL debe ser de civitatis.com")
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeScrapeError(w, http.StatusBadRequest, "La fecha debe tener formato YYYY-MM-DD")
		return
	}
	if req.Language == "" {
		req.Language = "es"
	}

	ctx := r.Context()
	key := cache.Key(req.URL, req.Date, req.Language)
	if a.cache != nil {
		if results, ok := a.cache.GetResults(ctx, key); ok {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": results, "cached": true})
			return
		}
	}

	results := a.comparer.CompareAllSchedules(ctx, req.URL, req.Date, req.Language)

	if a.cache != nil {
		a.cache.SetResults(ctx, key, results)
	}

	// When the URL belongs to a registered tour, keep the stored rows fresh.
	if tour, err := a.store.TourByURL(ctx, req.URL); err == nil {
		if err := a.store.ReplaceSlots(ctx, tour.ID, req.Date, results); err != nil {
			a.logger.Error().Err(err).Str("tour", tour.Name).Msg("persisting on-demand scrape failed")
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": results})
}

func (a *API) handleToursList(w http.ResponseWriter, r *http.Request) {
	tours, err := a.store.ListTours(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("list tours failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, tours)
}

func (a *API) handleToursCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name_required")
		return
	}
	if req.URL == "" || !strings.Contains(req.URL, "civitatis.com") {
		writeError(w, http.StatusBadRequest, "url_invalid")
		return
	}

	tour, err := a.store.CreateTour(r.Context(), req.Name, req.URL)
	if err != nil {
		a.logger.Error().Err(err).Msg("create tour failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	a.logger.Info().Str("tour_id", tour.ID).Str("name", tour.Name).Msg("tour created")
	writeJSON(w, http.StatusCreated, tour)
}

func (a *API) handleToursDelete(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")
	if _, err := a.store.GetTour(r.Context(), tourID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "tour_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if err := a.store.DeleteTour(r.Context(), tourID); err != nil {
		a.logger.Error().Err(err).Str("tour_id", tourID).Msg("delete tour failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleTourSlots(w http.ResponseWriter, r *http.Request) {
	tourID := chi.URLParam(r, "tourID")
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date_required")
		return
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date_invalid")
		return
	}

	slots, err := a.store.SlotsForDate(r.Context(), tourID, date)
	if err != nil {
		a.logger.Error().Err(err).Str("tour_id", tourID).Msg("list slots failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (a *API) handleRunsList(w http.ResponseWriter, r *http.Request) {
	runs, err := a.store.RecentRuns(r.Context(), 20)
	if err != nil {
		a.logger.Error().Err(err).Msg("list runs failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleSweepTrigger starts a full sweep in the background.
func (a *API) handleSweepTrigger(w http.ResponseWriter, r *http.Request) {
	if a.sweeper == nil {
		writeError(w, http.StatusServiceUnavailable, "sweep_disabled")
		return
	}
	if a.sweeper.Running() {
		writeError(w, http.StatusConflict, "sweep_in_progress")
		return
	}
	go func() {
		// Detached from the request; a sweep outlives any sane client timeout.
		if err := a.sweeper.Sweep(context.Background()); err != nil && !errors.Is(err, scheduler.ErrSweepInProgress) {
			a.logger.Error().Err(err).Msg("manual sweep failed")
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeScrapeError keeps the scrape endpoint's success/error contract.
func writeScrapeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
