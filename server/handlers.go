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
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/penny-vault/pvchart/data"
	"github.com/penny-vault/pvchart/pkginfo"
	"github.com/penny-vault/pvchart/service"
	"github.com/rs/zerolog"
)

const defaultMetricYears = 10

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type historyResponse struct {
	Ticker    string      `json:"ticker"`
	StartDate string      `json:"startDate"`
	EndDate   string      `json:"endDate"`
	Bars      []*data.Bar `json:"bars"`
}

type returnsResponse struct {
	Ticker    string             `json:"ticker"`
	StartDate string             `json:"startDate"`
	EndDate   string             `json:"endDate"`
	Returns   data.ReturnsSeries `json:"returns"`
}

type catalogEntry struct {
	Metric string `json:"metric"`
	Field  string `json:"field"`
	CAGR   bool   `json:"cagr"`
}

func (srv *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if srv.pinger != nil {
		if err := srv.pinger.Ping(r.Context()); err != nil {
			writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}

	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
}

func (srv *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, pkginfo.Current())
}

func (srv *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	metrics := srv.svc.Catalog().Metrics()
	entries := make([]catalogEntry, len(metrics))
	for idx, metric := range metrics {
		entries[idx] = catalogEntry{Metric: metric.Key, Field: metric.Field, CAGR: metric.CAGR}
	}

	writeJSON(w, r, http.StatusOK, entries)
}

func (srv *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ticker, start, end := srv.dateRange(r)

	bars, err := srv.svc.HistoricalData(r.Context(), ticker, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, historyResponse{
		Ticker:    ticker,
		StartDate: start.Format(data.DateLayout),
		EndDate:   end.Format(data.DateLayout),
		Bars:      bars,
	})
}

func (srv *Server) handleReturns(w http.ResponseWriter, r *http.Request) {
	ticker, start, end := srv.dateRange(r)

	bars, err := srv.svc.HistoricalData(r.Context(), ticker, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}

	returns, err := service.CalculateReturns(bars)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, returnsResponse{
		Ticker:    ticker,
		StartDate: start.Format(data.DateLayout),
		EndDate:   end.Format(data.DateLayout),
		Returns:   returns,
	})
}

func (srv *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ticker := data.NormalizeTicker(chi.URLParam(r, "ticker"))
	query := r.URL.Query()

	endYear := srv.cfg.Now().Year()
	if val := query.Get("end_year"); val != "" {
		year, err := data.ParseYear(val)
		if err != nil {
			writeError(w, r, err)
			return
		}
		endYear = year
	}

	startYear := endYear - defaultMetricYears + 1
	if val := query.Get("start_year"); val != "" {
		year, err := data.ParseYear(val)
		if err != nil {
			writeError(w, r, err)
			return
		}
		startYear = year
	}

	if startYear > endYear {
		writeError(w, r, fmt.Errorf("%w: start_year is after end_year", data.ErrInvalidInput))
		return
	}

	var metrics []string
	if val := query.Get("metrics"); val != "" {
		metrics = strings.Split(val, ",")
		if err := knownMetrics(srv.svc.Catalog(), metrics); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		for _, metric := range srv.svc.Catalog().Metrics() {
			metrics = append(metrics, metric.Key)
		}
	}

	table := srv.svc.MetricsTable(r.Context(), ticker, metrics, startYear, endYear)
	if table == nil {
		writeError(w, r, fmt.Errorf("%w: no metrics data for %s", data.ErrDataUnavailable, ticker))
		return
	}

	writeJSON(w, r, http.StatusOK, table)
}

// knownMetrics fails when none of the requested metrics are in the catalog
func knownMetrics(catalog *data.MetricCatalog, metrics []string) error {
	var firstErr error
	for _, name := range metrics {
		_, err := catalog.Resolve(name)
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (srv *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := service.AnalysisRequest{
		Ticker:        chi.URLParam(r, "ticker"),
		EndDate:       query.Get("end_date"),
		LookbackDays:  optionalIntParam(r, "lookback_days"),
		CrossoverDays: optionalIntParam(r, "crossover_days"),
	}

	analysis, err := srv.svc.Analyze(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, analysis)
}

// dateRange reads ticker, start, and end from the request. end falls back to today when missing
// or malformed; start falls back to lookback_days (default 365) before end.
func (srv *Server) dateRange(r *http.Request) (string, time.Time, time.Time) {
	ticker := data.NormalizeTicker(chi.URLParam(r, "ticker"))
	query := r.URL.Query()

	end := data.ParseDateOrNow(query.Get("end"), srv.cfg.Now())

	if startStr := query.Get("start"); startStr != "" {
		if start, err := data.ParseDate(startStr); err == nil {
			return ticker, start, end
		}
		zerolog.Ctx(r.Context()).Warn().Str("Start", startStr).Msg("invalid start date, using lookback")
	}

	lookback := intParam(r, "lookback_days", service.DefaultLookbackDays)
	startStr := srv.svc.AnalysisStartDate(end.Format(data.DateLayout), "days", lookback)
	start, err := data.ParseDate(startStr)
	if err != nil {
		start = end.AddDate(0, 0, -lookback)
	}

	return ticker, start, end
}

func intParam(r *http.Request, name string, defaultValue int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultValue
	}

	res, err := strconv.Atoi(val)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Str("Param", name).Str("Value", val).Msg("invalid integer parameter, using default")
		return defaultValue
	}

	return res
}

// statusCode maps the error taxonomy onto HTTP statuses
// optionalIntParam returns nil when the parameter is missing or malformed
func optionalIntParam(r *http.Request, name string) *int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return nil
	}

	res, err := strconv.Atoi(val)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Str("Param", name).Str("Value", val).Msg("invalid integer parameter, using default")
		return nil
	}

	return &res
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, data.ErrInvalidInput), errors.Is(err, data.ErrUnknownMetric):
		return http.StatusBadRequest
	case errors.Is(err, data.ErrDataUnavailable), errors.Is(err, data.ErrNoData):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	event := zerolog.Ctx(r.Context()).Warn()
	if status >= 500 {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("Status", status).Msg("request failed")

	writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("could not encode response")
	}
}
