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
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/pvchart/data"
)

const (
	DefaultLookbackDays  = 365
	DefaultCrossoverDays = 365

	minLookbackDays  = 30
	maxLookbackDays  = 10000
	minCrossoverDays = 30
	maxCrossoverDays = 1000
)

// AnalysisRequest describes the chart a user asked for. A nil window means the caller did not
// supply one and the default applies.
type AnalysisRequest struct {
	Ticker        string `json:"ticker"`
	EndDate       string `json:"endDate"`
	LookbackDays  *int   `json:"lookbackDays,omitempty"`
	CrossoverDays *int   `json:"crossoverDays,omitempty"`
}

// Normalize keeps the first word of the ticker upper-cased, fills in missing windows, and
// clamps the lookback windows. Both windows are non-nil afterwards.
func (req *AnalysisRequest) Normalize() error {
	fields := strings.Fields(req.Ticker)
	if len(fields) == 0 {
		return fmt.Errorf("%w: ticker symbol is required", data.ErrInvalidInput)
	}
	req.Ticker = strings.ToUpper(fields[0])

	req.LookbackDays = clampDays(req.LookbackDays, DefaultLookbackDays, minLookbackDays, maxLookbackDays)
	req.CrossoverDays = clampDays(req.CrossoverDays, DefaultCrossoverDays, minCrossoverDays, maxCrossoverDays)

	return nil
}

func clampDays(days *int, defaultDays, lower, upper int) *int {
	val := defaultDays
	if days != nil {
		val = *days
	}
	val = max(lower, min(upper, val))
	return &val
}

// Analysis is the data behind a stock chart. Bars cover the lookback window plus the crossover
// warm-up so moving averages are defined from ChartStart onwards.
type Analysis struct {
	Ticker        string             `json:"ticker"`
	LookbackDays  int                `json:"lookbackDays"`
	CrossoverDays int                `json:"crossoverDays"`
	FetchStart    string             `json:"fetchStart"`
	ChartStart    string             `json:"chartStart"`
	EndDate       string             `json:"endDate"`
	Bars          []*data.Bar        `json:"bars"`
	Returns       data.ReturnsSeries `json:"returns"`
}

// Analyze resolves the price history and returns needed to chart req
func (svc *DataService) Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	end := data.ParseDateOrNow(req.EndDate, svc.now())
	endStr := end.Format(data.DateLayout)

	lookback := *req.LookbackDays
	crossover := *req.CrossoverDays

	fetchStartStr := svc.AnalysisStartDate(endStr, "days", lookback+crossover)
	chartStartStr := svc.AnalysisStartDate(endStr, "days", lookback)

	fetchStart, err := time.Parse(data.DateLayout, fetchStartStr)
	if err != nil {
		return nil, err
	}

	bars, err := svc.HistoricalData(ctx, req.Ticker, fetchStart, end)
	if err != nil {
		return nil, err
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no prices for %s between %s and %s", data.ErrDataUnavailable, req.Ticker, fetchStartStr, endStr)
	}

	returns, err := CalculateReturns(bars)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		Ticker:        req.Ticker,
		LookbackDays:  lookback,
		CrossoverDays: crossover,
		FetchStart:    fetchStartStr,
		ChartStart:    chartStartStr,
		EndDate:       bars[len(bars)-1].Date.Format(data.DateLayout),
		Bars:          bars,
		Returns:       returns,
	}, nil
}
