/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/tourwatch/internal/api"
	"github.com/friendsincode/tourwatch/internal/browser"
	"github.com/friendsincode/tourwatch/internal/cache"
	"github.com/friendsincode/tourwatch/internal/config"
	"github.com/friendsincode/tourwatch/internal/db"
	"github.com/friendsincode/tourwatch/internal/scheduler"
	"github.com/friendsincode/tourwatch/internal/scraper"
	"github.com/friendsincode/tourwatch/internal/store"
	"github.com/friendsincode/tourwatch/internal/telemetry"
)

// Server bundles the HTTP API and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db      *gorm.DB
	store   *store.Store
	cache   *cache.Cache
	engine  *scraper.Service
	sweeper *scheduler.Service
	api     *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(telemetry.MetricsMiddleware)
	// Scrape and sweep endpoints drive a real browser and routinely run
	// longer than the standard request timeout.
	router.Use(func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(60 * time.Second)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/scrape" || r.URL.Path == "/api/sweep" {
				next.ServeHTTP(w, r)
				return
			}
			timeout(next).ServeHTTP(w, r)
		})
	})

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		// Scrape responses can take minutes; handlers manage their own
		// deadlines and the middleware timeout covers the fast routes.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	s.store = store.New(database, s.logger)

	seeds, err := store.LoadSeeds(s.cfg.ToursFile)
	if err != nil {
		return fmt.Errorf("load tour seeds: %w", err)
	}
	if err := s.store.EnsureTours(context.Background(), seeds); err != nil {
		return fmt.Errorf("register seed tours: %w", err)
	}

	if s.cfg.RedisAddr != "" {
		resultCache, err := cache.New(cache.Config{
			RedisAddr:     s.cfg.RedisAddr,
			RedisPassword: s.cfg.RedisPassword,
			RedisDB:       s.cfg.RedisDB,
			TTL:           s.cfg.ScrapeCacheTTL,
		}, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("cache initialization failed, continuing without cache")
		} else {
			s.cache = resultCache
			s.DeferClose(func() error { return s.cache.Close() })
		}
	}

	sessions := browser.NewFactory(s.cfg.BrowserHeadless)
	s.engine = scraper.New(sessions, scraper.DefaultProviders(), s.logger)

	s.sweeper = scheduler.New(s.store, s.engine, scheduler.Options{
		Hour:          s.cfg.SweepHour,
		LookaheadDays: s.cfg.SweepLookaheadDays,
		Concurrency:   s.cfg.SweepConcurrency,
		Timezone:      s.cfg.SweepTimezone,
	}, s.logger)

	s.api = api.New(s.store, s.engine, s.sweeper, s.cache, s.logger)

	return nil
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	if !s.cfg.SweepEnabled {
		s.logger.Info().Msg("daily sweep disabled")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := s.sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("sweep loop exited")
		}
	}()
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.api.Routes(s.router)
}
