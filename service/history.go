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
	"time"

	"github.com/penny-vault/pvchart/data"
	"github.com/rs/zerolog"
)

// HistoricalData returns the stored bars for ticker with a date in [start, end]. The end date
// is clamped to the latest trading day. When the table is missing, empty, or does not cover the
// requested range the full history is downloaded and the table replaced before reading.
// data.ErrDataUnavailable is returned only when no bars can be produced at all.
func (svc *DataService) HistoricalData(ctx context.Context, ticker string, start, end time.Time) ([]*data.Bar, error) {
	ticker = data.NormalizeTicker(ticker)
	tableName, err := data.HistoryTable(ticker)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("Ticker", ticker).Str("Table", tableName).Logger()

	start = data.Day(start)
	end = data.Day(end)

	latest := data.LatestTradingDay(svc.now())
	if end.After(latest) {
		logger.Info().Str("RequestedEnd", end.Format(data.DateLayout)).Str("LatestTradingDay", latest.Format(data.DateLayout)).Msg("adjusted end date to latest trading day")
		end = latest
	}

	if start.After(end) {
		logger.Warn().Str("StartDate", start.Format(data.DateLayout)).Str("EndDate", end.Format(data.DateLayout)).Msg("start date is after end date, nothing to return")
		return []*data.Bar{}, nil
	}

	unlock := svc.lock(tableName)
	defer unlock()

	exists, err := svc.store.TableExists(ctx, tableName)
	if err != nil {
		logger.Error().Err(err).Msg("could not check if table exists")
		exists = false
	}

	if !exists {
		logger.Info().Msg("history not cached, fetching")
		return svc.refreshAndLoad(ctx, ticker, tableName, start, end, false)
	}

	minDate, maxDate, err := svc.store.DateRange(ctx, tableName)
	if err != nil || minDate == nil || maxDate == nil {
		logger.Info().Err(err).Msg("stored date range is invalid, refreshing")
		return svc.refreshAndLoad(ctx, ticker, tableName, start, end, false)
	}

	dbStart := data.Day(*minDate)
	dbEnd := data.Day(*maxDate)

	logger.Debug().
		Str("DBStart", dbStart.Format(data.DateLayout)).Str("DBEnd", dbEnd.Format(data.DateLayout)).
		Str("StartDate", start.Format(data.DateLayout)).Str("EndDate", end.Format(data.DateLayout)).
		Msg("comparing requested range with stored range")

	if !start.Before(dbStart) && !end.After(dbEnd) {
		bars, err := svc.store.Bars(ctx, tableName, start, end)
		if err != nil {
			logger.Error().Err(err).Msg("could not read cached bars")
			return nil, fmt.Errorf("%w: %s: %w", data.ErrDataUnavailable, ticker, err)
		}

		logger.Info().Int("NumRows", len(bars)).Msg("cache hit")
		return bars, nil
	}

	logger.Info().Msg("requested range is outside stored range, refreshing")
	return svc.refreshAndLoad(ctx, ticker, tableName, start, end, true)
}

// RefreshPrices downloads the full history for ticker and replaces its table. It returns the
// number of bars stored.
func (svc *DataService) RefreshPrices(ctx context.Context, ticker string) (int, error) {
	ticker = data.NormalizeTicker(ticker)
	tableName, err := data.HistoryTable(ticker)
	if err != nil {
		return 0, err
	}

	unlock := svc.lock(tableName)
	defer unlock()

	return svc.refreshPrices(ctx, ticker, tableName)
}

// refreshAndLoad replaces the table and reads back [start, end]. If the refresh fails and the
// table still holds rows those are served instead.
func (svc *DataService) refreshAndLoad(ctx context.Context, ticker, tableName string, start, end time.Time, hasCache bool) ([]*data.Bar, error) {
	logger := zerolog.Ctx(ctx).With().Str("Ticker", ticker).Str("Table", tableName).Logger()

	if _, err := svc.refreshPrices(ctx, ticker, tableName); err != nil {
		if hasCache {
			bars, loadErr := svc.store.Bars(ctx, tableName, start, end)
			if loadErr == nil {
				logger.Warn().Err(err).Int("NumRows", len(bars)).Msg("refresh failed, serving stale data")
				return bars, nil
			}
			logger.Error().Err(loadErr).Msg("could not read stale bars")
		}

		return nil, fmt.Errorf("%w: %s: %w", data.ErrDataUnavailable, ticker, err)
	}

	bars, err := svc.store.Bars(ctx, tableName, start, end)
	if err != nil {
		logger.Error().Err(err).Msg("could not reload bars after refresh")
		return nil, fmt.Errorf("%w: %s: %w", data.ErrDataUnavailable, ticker, err)
	}

	logger.Info().Int("NumRows", len(bars)).Msg("returning refreshed data")
	return bars, nil
}

func (svc *DataService) refreshPrices(ctx context.Context, ticker, tableName string) (int, error) {
	logger := zerolog.Ctx(ctx).With().Str("Ticker", ticker).Str("Table", tableName).Logger()

	if svc.prices == nil {
		return 0, errors.New("no price provider configured")
	}

	start := data.Day(svc.now()).AddDate(-svc.config.PriceLookbackYears, 0, 0)
	logger.Info().Str("StartDate", start.Format(data.DateLayout)).Msg("fetching price history")

	bars, err := svc.prices.FetchHistory(ctx, ticker, start)
	if err != nil {
		logger.Error().Err(err).Msg("price fetch failed")
		return 0, err
	}

	bars = data.SortBars(bars)
	if len(bars) == 0 {
		logger.Warn().Msg("price provider returned no bars")
		return 0, fmt.Errorf("%w: %s", data.ErrNoData, ticker)
	}

	logger.Debug().Object("FirstBar", bars[0]).Object("LastBar", bars[len(bars)-1]).Int("NumBars", len(bars)).Msg("downloaded price history")

	if err := svc.store.ReplaceBars(ctx, ticker, tableName, bars); err != nil {
		logger.Error().Err(err).Msg("could not store price history")
		return 0, err
	}

	return len(bars), nil
}
