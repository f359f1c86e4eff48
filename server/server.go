// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/penny-vault/pvchart/data"
	"github.com/penny-vault/pvchart/service"
	"github.com/rs/zerolog/log"
)

// DataService is the part of service.DataService used by the HTTP handlers
type DataService interface {
	HistoricalData(ctx context.Context, ticker string, start, end time.Time) ([]*data.Bar, error)
	MetricsTable(ctx context.Context, ticker string, metrics []string, startYear, endYear int) *data.MetricsTable
	Analyze(ctx context.Context, req service.AnalysisRequest) (*service.Analysis, error)
	AnalysisStartDate(endDate, lookbackType string, lookbackValue int) string
	Catalog() *data.MetricCatalog
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Port        int
	CORSOrigins []string

	// Now returns the current time; defaults to time.Now
	Now func() time.Time
}

type Server struct {
	router *chi.Mux
	server *http.Server
	svc    DataService
	pinger Pinger
	cfg    Config
}

func New(svc DataService, pinger Pinger, cfg Config) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	srv := &Server{
		router: chi.NewRouter(),
		svc:    svc,
		pinger: pinger,
		cfg:    cfg,
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	srv.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return srv
}

// Handler returns the router, used by tests and embedding callers
func (srv *Server) Handler() http.Handler {
	return srv.router
}

func (srv *Server) setupMiddleware() {
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(middleware.RealIP)
	srv.router.Use(requestLogger)

	srv.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: srv.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))
}

func (srv *Server) setupRoutes() {
	srv.router.Get("/healthz", srv.handleHealth)

	srv.router.Route("/api", func(r chi.Router) {
		r.Get("/version", srv.handleVersion)
		r.Get("/catalog", srv.handleCatalog)
		r.Get("/history/{ticker}", srv.handleHistory)
		r.Get("/returns/{ticker}", srv.handleReturns)
		r.Get("/metrics/{ticker}", srv.handleMetrics)
		r.Get("/analysis/{ticker}", srv.handleAnalysis)
	})
}

// Start listens until the server is shut down
func (srv *Server) Start() error {
	log.Info().Int("Port", srv.cfg.Port).Msg("starting HTTP server")
	return srv.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (srv *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down HTTP server")
	return srv.server.Shutdown(ctx)
}
