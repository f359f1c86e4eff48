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
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/penny-vault/pvchart/data"
	"github.com/rs/zerolog"
)

// FinancialData returns the named metric for fiscal years [startYear, endYear]. It never
// fails: an unknown metric, a metric column the stored table lacks, or a failed fetch all yield
// nil. A stored table missing any requested year is refetched once; if that refetch fails the
// partial stored series is returned.
func (svc *DataService) FinancialData(ctx context.Context, ticker, metricName string, startYear, endYear int) *data.MetricSeries {
	ticker = data.NormalizeTicker(ticker)
	logger := zerolog.Ctx(ctx).With().Str("Ticker", ticker).Str("Metric", metricName).Int("StartYear", startYear).Int("EndYear", endYear).Logger()

	metric, err := svc.config.Catalog.Resolve(metricName)
	if err != nil {
		logger.Warn().Err(err).Msg("unknown metric")
		return nil
	}

	if startYear > endYear {
		logger.Warn().Msg("start year is after end year")
		return nil
	}

	tableName, err := data.FundamentalsTable(ticker)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid ticker")
		return nil
	}

	logger = logger.With().Str("Table", tableName).Logger()
	name := strings.TrimSpace(metricName)

	unlock := svc.lock(tableName)
	defer unlock()

	exists, err := svc.store.TableExists(ctx, tableName)
	if err != nil {
		logger.Error().Err(err).Msg("could not check if table exists")
		exists = false
	}

	if !exists {
		logger.Info().Msg("fundamentals not cached, fetching")
		if _, err := svc.refreshFundamentals(ctx, ticker, tableName, startYear, endYear); err != nil {
			logger.Warn().Err(err).Msg("could not fetch fundamentals")
			return nil
		}
		return svc.readSeries(ctx, tableName, metric, name, startYear, endYear)
	}

	columns, err := svc.store.Columns(ctx, tableName)
	if err != nil {
		logger.Error().Err(err).Msg("could not read table columns")
		return nil
	}

	if !contains(columns, metric.Field) {
		logger.Info().Str("Field", metric.Field).Msg("metric is not stored for ticker, refetching")
		if _, err := svc.refreshFundamentals(ctx, ticker, tableName, startYear, endYear); err != nil {
			logger.Warn().Err(err).Msg("could not refetch fundamentals")
			return nil
		}
		return svc.readSeries(ctx, tableName, metric, name, startYear, endYear)
	}

	points, err := svc.store.MetricValues(ctx, tableName, metric.Field, startYear, endYear)
	if err != nil {
		logger.Error().Err(err).Msg("could not read metric values")
		return nil
	}

	missing := missingYears(points, startYear, endYear)
	if len(missing) == 0 {
		logger.Debug().Int("NumYears", len(points)).Msg("cache hit")
		return newSeries(name, metric.Field, points)
	}

	logger.Info().Ints("MissingYears", missing).Msg("incomplete fundamentals, refetching")
	if _, err := svc.refreshFundamentals(ctx, ticker, tableName, startYear, endYear); err != nil {
		logger.Warn().Err(err).Msg("refetch failed, serving partial data")
		return newSeries(name, metric.Field, points)
	}

	return svc.readSeries(ctx, tableName, metric, name, startYear, endYear)
}

// RefreshFundamentals downloads the default lookback of fundamentals for ticker and replaces
// its table. It returns the number of fiscal years stored.
func (svc *DataService) RefreshFundamentals(ctx context.Context, ticker string) (int, error) {
	ticker = data.NormalizeTicker(ticker)
	tableName, err := data.FundamentalsTable(ticker)
	if err != nil {
		return 0, err
	}

	unlock := svc.lock(tableName)
	defer unlock()

	year := svc.now().Year()
	return svc.refreshFundamentals(ctx, ticker, tableName, year, year)
}

// FetchRange widens [startYear, endYear] to cover at least the configured lookback ending in
// the current year
func (svc *DataService) FetchRange(startYear, endYear int) (int, int) {
	currentYear := svc.now().Year()
	return min(startYear, currentYear-svc.config.FundamentalsLookbackYears), max(endYear, currentYear)
}

func (svc *DataService) refreshFundamentals(ctx context.Context, ticker, tableName string, startYear, endYear int) (int, error) {
	logger := zerolog.Ctx(ctx).With().Str("Ticker", ticker).Str("Table", tableName).Logger()

	if svc.fundamentals == nil {
		return 0, errors.New("no fundamentals provider configured")
	}

	fetchStart, fetchEnd := svc.FetchRange(startYear, endYear)
	logger.Info().Int("StartYear", fetchStart).Int("EndYear", fetchEnd).Msg("fetching fundamentals")

	fundamentals, err := svc.fundamentals.FetchFundamentals(ctx, ticker, fetchStart, fetchEnd)
	if err != nil {
		return 0, err
	}

	if fundamentals == nil || fundamentals.Len() == 0 {
		return 0, fmt.Errorf("%w: %s", data.ErrNoData, ticker)
	}

	rows := fundamentals.Rows()
	logger.Debug().Object("FirstRow", rows[0]).Object("LastRow", rows[len(rows)-1]).Msg("downloaded fundamentals")

	if err := svc.store.ReplaceFundamentals(ctx, ticker, tableName, fundamentals); err != nil {
		return 0, err
	}

	return fundamentals.Len(), nil
}

func (svc *DataService) readSeries(ctx context.Context, tableName string, metric *data.Metric, name string, startYear, endYear int) *data.MetricSeries {
	logger := zerolog.Ctx(ctx).With().Str("Table", tableName).Str("Metric", metric.Key).Logger()

	columns, err := svc.store.Columns(ctx, tableName)
	if err != nil {
		logger.Error().Err(err).Msg("could not read table columns")
		return nil
	}

	if !contains(columns, metric.Field) {
		logger.Info().Str("Field", metric.Field).Msg("provider returned no values for metric")
		return nil
	}

	points, err := svc.store.MetricValues(ctx, tableName, metric.Field, startYear, endYear)
	if err != nil {
		logger.Error().Err(err).Msg("could not read metric values")
		return nil
	}

	return newSeries(name, metric.Field, points)
}

func newSeries(name, field string, points []*data.MetricPoint) *data.MetricSeries {
	if len(points) == 0 {
		return nil
	}

	return &data.MetricSeries{
		Name:   name,
		Field:  field,
		Points: points,
	}
}

// missingYears lists the years in [startYear, endYear] with no row in points
func missingYears(points []*data.MetricPoint, startYear, endYear int) []int {
	have := make(map[int]bool, len(points))
	for _, pt := range points {
		have[pt.FiscalYear] = true
	}

	var missing []int
	for year := startYear; year <= endYear; year++ {
		if !have[year] {
			missing = append(missing, year)
		}
	}
	return missing
}

func contains(list []string, needle string) bool {
	for _, item := range list {
		if item == needle {
			return true
		}
	}
	return false
}
