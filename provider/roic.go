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
package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvchart/data"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const roicDefaultURL = "https://api.roic.ai/v1/rql"

// Roic downloads annual fundamentals from the roic.ai RQL endpoint, one query per metric
type Roic struct {
	baseURL string
	catalog *data.MetricCatalog
	client  *resty.Client
	limiter *rate.Limiter
}

func NewRoic(opts Options, catalog *data.MetricCatalog) *Roic {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = roicDefaultURL
	}

	if catalog == nil {
		catalog = data.DefaultCatalog()
	}

	return &Roic{
		baseURL: baseURL,
		catalog: catalog,
		client:  resty.New().SetQueryParam("apikey", opts.APIKey),
		limiter: newLimiter(opts.RateLimit),
	}
}

func (roic *Roic) Name() string {
	return "roic"
}

func (roic *Roic) Description() string {
	return `Annual company fundamentals from roic.ai queried with RQL. Requires a roic.ai API key.`
}

func (roic *Roic) ConfigDescription() map[string]string {
	return map[string]string{
		"roic.apikey":     "Enter your roic.ai API key:",
		"roic.rate_limit": "What is the maximum number of requests per minute?",
	}
}

// Query builds the RQL statement for one metric field
func Query(field, ticker string, startYear, endYear int) string {
	return fmt.Sprintf("get(%s(fa_period_reference=range('%d', '%d'))) for('%s')", field, startYear, endYear, ticker)
}

// FetchFundamentals runs one query per catalog metric and joins the results on fiscal year.
// Columns returned by more than one query keep the value from the first query. A non-2xx
// response aborts the fetch; if every query comes back empty data.ErrNoData is returned.
func (roic *Roic) FetchFundamentals(ctx context.Context, ticker string, startYear, endYear int) (*data.FundamentalTable, error) {
	logger := zerolog.Ctx(ctx).With().Str("Ticker", ticker).Int("StartYear", startYear).Int("EndYear", endYear).Logger()
	ticker = data.NormalizeTicker(ticker)

	table := data.NewFundamentalTable()
	numFrames := 0

	for _, metric := range roic.catalog.Metrics() {
		if err := roic.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := roic.client.R().
			SetContext(ctx).
			SetQueryParam("query", Query(metric.Field, ticker, startYear, endYear)).
			Get(roic.baseURL)
		if err != nil {
			logger.Error().Err(err).Str("Metric", metric.Key).Msg("resty returned an error when querying roic")
			return nil, fmt.Errorf("%w: %w", data.ErrUpstreamFetch, err)
		}

		if resp.StatusCode() >= 300 {
			logger.Error().Int("StatusCode", resp.StatusCode()).Str("Metric", metric.Key).Msg("roic returned an invalid HTTP response")
			return nil, fmt.Errorf("%w: roic returned status %d for %s %s", data.ErrUpstreamFetch, resp.StatusCode(), ticker, metric.Field)
		}

		frame, err := roic.parseFrame(resp.Body())
		if err != nil {
			logger.Error().Err(err).Str("Metric", metric.Key).Msg("could not parse roic response")
			return nil, fmt.Errorf("%w: roic response for %s %s: %w", data.ErrUpstreamFetch, ticker, metric.Field, err)
		}

		if len(frame.years) == 0 {
			logger.Debug().Str("Metric", metric.Key).Msg("roic returned an empty frame")
			continue
		}

		numFrames++
		for _, year := range frame.years {
			table.AddYear(year)
		}

		for _, col := range frame.columns {
			table.Merge(col, frame.values[col])
		}
	}

	if numFrames == 0 || table.Len() == 0 {
		return nil, fmt.Errorf("%w: roic has no fundamentals for %s", data.ErrNoData, ticker)
	}

	logger.Info().Int("NumYears", table.Len()).Int("NumColumns", len(table.Columns)).Msg("downloaded roic fundamentals")

	return table, nil
}

type roicFrame struct {
	years   []int
	columns []string
	values  map[string]map[int]*float64
}

var (
	errMissingFiscalYear = errors.New("response header has no fiscal_year column")
	errInvalidJSON       = errors.New("invalid json in response")
)

// parseFrame reads a JSON array of arrays whose first row holds the column names. Only
// fiscal_year and columns that are catalog fields are kept.
func (roic *Roic) parseFrame(body []byte) (*roicFrame, error) {
	frame := &roicFrame{
		values: make(map[string]map[int]*float64),
	}

	if !gjson.ValidBytes(body) {
		return nil, errInvalidJSON
	}

	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return frame, nil
	}

	rows := result.Array()
	if len(rows) == 0 {
		return frame, nil
	}

	header := rows[0].Array()
	yearIdx := -1
	columnIdx := make(map[int]string)
	for idx, name := range header {
		col := strings.ToLower(strings.TrimSpace(name.String()))
		switch {
		case col == data.FiscalYearColumn:
			yearIdx = idx
		case roic.catalog.HasField(col):
			if _, ok := frame.values[col]; ok {
				continue
			}
			columnIdx[idx] = col
			frame.columns = append(frame.columns, col)
			frame.values[col] = make(map[int]*float64)
		}
	}

	if len(rows) > 1 && yearIdx < 0 {
		return nil, errMissingFiscalYear
	}

	for _, row := range rows[1:] {
		cells := row.Array()
		if yearIdx >= len(cells) {
			continue
		}

		year, ok := parseFiscalYear(cells[yearIdx])
		if !ok {
			continue
		}

		frame.years = append(frame.years, year)
		for idx, col := range columnIdx {
			if idx >= len(cells) {
				frame.values[col][year] = nil
				continue
			}
			frame.values[col][year] = parseValue(cells[idx])
		}
	}

	return frame, nil
}

func parseFiscalYear(cell gjson.Result) (int, bool) {
	switch cell.Type {
	case gjson.Number:
		return int(cell.Int()), true
	case gjson.String:
		year, err := strconv.Atoi(strings.TrimSpace(cell.Str))
		if err != nil {
			return 0, false
		}
		return year, true
	default:
		return 0, false
	}
}

func parseValue(cell gjson.Result) *float64 {
	switch cell.Type {
	case gjson.Number:
		val := cell.Float()
		return &val
	case gjson.String:
		val, err := strconv.ParseFloat(strings.TrimSpace(cell.Str), 64)
		if err != nil {
			return nil
		}
		return &val
	default:
		return nil
	}
}
