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
	"time"

	"github.com/penny-vault/pvchart/data"
	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
	"golang.org/x/time/rate"
)

type Yahoo struct {
	limiter *rate.Limiter
}

func NewYahoo(opts Options) *Yahoo {
	return &Yahoo{
		limiter: newLimiter(opts.RateLimit),
	}
}

func (yahoo *Yahoo) Name() string {
	return "yahoo"
}

func (yahoo *Yahoo) Description() string {
	return `Daily split and dividend adjusted prices from Yahoo Finance. No API key is required.`
}

func (yahoo *Yahoo) ConfigDescription() map[string]string {
	return map[string]string{}
}

// FetchHistory downloads the daily history from start through today
func (yahoo *Yahoo) FetchHistory(ctx context.Context, symbol string, start time.Time) ([]*data.Bar, error) {
	logger := zerolog.Ctx(ctx)
	symbol = data.NormalizeTicker(symbol)

	if err := yahoo.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo ticker %s: %w", data.ErrUpstreamFetch, symbol, err)
	}
	defer t.Close()

	params := yahooHistoryParams(start)

	yahooBars, err := t.History(params)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo history %s: %w", data.ErrUpstreamFetch, symbol, err)
	}

	bars := make([]*data.Bar, 0, len(yahooBars))
	for _, bar := range yahooBars {
		bars = append(bars, &data.Bar{
			Date:     bar.Date,
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: bar.AdjClose,
			Volume:   int64(bar.Volume),
			Split:    1.0,
		})
	}

	bars = data.SortBars(bars)
	bars = data.FilterBars(bars, start, time.Now())

	if len(bars) == 0 {
		logger.Warn().Str("Ticker", symbol).Msg("yahoo returned no price history")
		return nil, fmt.Errorf("%w: yahoo has no history for %s", data.ErrNoData, symbol)
	}

	logger.Debug().Str("Ticker", symbol).Int("NumBars", len(bars)).Msg("downloaded yahoo history")

	return bars, nil
}

func yahooHistoryParams(start time.Time) models.HistoryParams {
	start = data.Day(start)
	return models.HistoryParams{
		Start:      &start,
		Interval:   "1d",
		AutoAdjust: true,
	}
}
