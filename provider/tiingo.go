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
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvchart/data"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const tiingoDefaultURL = "https://api.tiingo.com"

type Tiingo struct {
	baseURL string
	client  *resty.Client
	limiter *rate.Limiter
}

func NewTiingo(opts Options) *Tiingo {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = tiingoDefaultURL
	}

	return &Tiingo{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  resty.New().SetQueryParam("token", opts.APIKey),
		limiter: newLimiter(opts.RateLimit),
	}
}

func (tiingo *Tiingo) Name() string {
	return "tiingo"
}

func (tiingo *Tiingo) Description() string {
	return `Tiingo end-of-day prices for US stocks, ETFs, and mutual funds. Requires a Tiingo API key.`
}

func (tiingo *Tiingo) ConfigDescription() map[string]string {
	return map[string]string{
		"tiingo.apikey":     "Enter your tiingo API key:",
		"tiingo.rate_limit": "What is the maximum number of requests per minute?",
	}
}

type tiingoEod struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adjClose"`
	Volume   float64 `json:"volume"`
	Dividend float64 `json:"divCash"`
	Split    float64 `json:"splitFactor"`
}

// FetchHistory downloads daily prices starting at start
func (tiingo *Tiingo) FetchHistory(ctx context.Context, symbol string, start time.Time) ([]*data.Bar, error) {
	logger := zerolog.Ctx(ctx)

	// reformat ticker for tiingo
	symbol = strings.NewReplacer(".", "-", "/", "-").Replace(data.NormalizeTicker(symbol))
	url := fmt.Sprintf("%s/tiingo/daily/%s/prices", tiingo.baseURL, symbol)

	if err := tiingo.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	respContent := make([]*tiingoEod, 0)
	resp, err := tiingo.client.R().
		SetContext(ctx).
		SetQueryParam("startDate", start.Format(data.DateLayout)).
		SetResult(&respContent).
		Get(url)
	if err != nil {
		logger.Error().Err(err).Str("Ticker", symbol).Msg("resty returned an error when querying eod prices")
		return nil, fmt.Errorf("%w: %w", data.ErrUpstreamFetch, err)
	}

	if resp.StatusCode() >= 300 {
		logger.Error().Int("StatusCode", resp.StatusCode()).Str("Ticker", symbol).Str("URL", resp.Request.URL).Msg("tiingo returned an invalid HTTP response")
		return nil, fmt.Errorf("%w: tiingo returned status %d for %s", data.ErrUpstreamFetch, resp.StatusCode(), symbol)
	}

	bars := make([]*data.Bar, 0, len(respContent))
	for _, quote := range respContent {
		quoteDate, err := time.Parse(time.RFC3339Nano, quote.Date)
		if err != nil {
			logger.Error().Err(err).Str("TiingoDate", quote.Date).Msg("could not parse date from tiingo eod object")
			continue
		}

		split := quote.Split
		if split == 0 {
			split = 1.0
		}

		bars = append(bars, &data.Bar{
			Date:     quoteDate,
			Open:     quote.Open,
			High:     quote.High,
			Low:      quote.Low,
			Close:    quote.Close,
			AdjClose: quote.AdjClose,
			Volume:   int64(quote.Volume),
			Dividend: quote.Dividend,
			Split:    split,
		})
	}

	bars = data.SortBars(bars)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: tiingo has no history for %s", data.ErrNoData, symbol)
	}

	return bars, nil
}

// newLimiter converts a requests-per-minute budget into a limiter; non-positive values disable
// limiting
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/float64(61)), 1)
}
