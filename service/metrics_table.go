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
	"sort"
	"strings"

	"github.com/penny-vault/pvchart/data"
	"github.com/rs/zerolog"
)

// MetricsTable builds a table with one row per requested metric that has data in
// [startYear, endYear]. Metrics without data are skipped. Growth-style metrics get a CAGR
// when it can be computed. Nil is returned if no metric produced data.
func (svc *DataService) MetricsTable(ctx context.Context, ticker string, metrics []string, startYear, endYear int) *data.MetricsTable {
	ticker = data.NormalizeTicker(ticker)
	logger := zerolog.Ctx(ctx).With().Str("Ticker", ticker).Logger()

	table := &data.MetricsTable{
		Ticker: ticker,
		Rows:   make([]*data.MetricsRow, 0, len(metrics)),
	}

	seen := make(map[string]bool, len(metrics))
	years := make(map[int]bool)

	for _, metricName := range metrics {
		key := strings.ToLower(strings.TrimSpace(metricName))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		series := svc.FinancialData(ctx, ticker, key, startYear, endYear)
		if series == nil || series.Len() == 0 {
			logger.Info().Str("Metric", key).Msg("no data for metric, skipping")
			continue
		}

		row := &data.MetricsRow{
			Metric: key,
			Values: make(map[int]*float64, series.Len()),
		}

		for _, pt := range series.Points {
			row.Values[pt.FiscalYear] = pt.Value
			years[pt.FiscalYear] = true
		}

		if svc.config.Catalog.IsCAGR(key) {
			row.CAGR = CAGR(series)
		}

		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		logger.Warn().Strs("Metrics", metrics).Msg("no metrics produced data")
		return nil
	}

	table.Years = make([]int, 0, len(years))
	for year := range years {
		table.Years = append(table.Years, year)
	}
	sort.Ints(table.Years)

	return table
}
