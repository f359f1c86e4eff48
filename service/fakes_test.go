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
package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/penny-vault/pvchart/data"
)

var errBoom = errors.New("boom")

// memStore is an in-memory Store
type memStore struct {
	mu sync.Mutex

	bars         map[string][]*data.Bar
	fundamentals map[string]*data.FundamentalTable
	emptyTables  map[string]bool

	replaceErr        error
	replaceBarsCalls  int
	replaceFundCalls  int
	lastFundamentals  *data.FundamentalTable
	lastReplaceTicker string
}

func newMemStore() *memStore {
	return &memStore{
		bars:         make(map[string][]*data.Bar),
		fundamentals: make(map[string]*data.FundamentalTable),
		emptyTables:  make(map[string]bool),
	}
}

func (store *memStore) TableExists(ctx context.Context, tableName string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	_, hasBars := store.bars[tableName]
	_, hasFundamentals := store.fundamentals[tableName]
	return hasBars || hasFundamentals || store.emptyTables[tableName], nil
}

func (store *memStore) Columns(ctx context.Context, tableName string) ([]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if table, ok := store.fundamentals[tableName]; ok {
		return table.ColumnNames(), nil
	}

	if _, ok := store.bars[tableName]; ok {
		return data.HistoryColumns, nil
	}

	return []string{}, nil
}

func (store *memStore) DateRange(ctx context.Context, tableName string) (*time.Time, *time.Time, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	bars := store.bars[tableName]
	if len(bars) == 0 {
		return nil, nil, nil
	}

	first := bars[0].Date
	last := bars[len(bars)-1].Date
	return &first, &last, nil
}

func (store *memStore) Bars(ctx context.Context, tableName string, start, end time.Time) ([]*data.Bar, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	return data.FilterBars(store.bars[tableName], start, end), nil
}

func (store *memStore) MetricValues(ctx context.Context, tableName, column string, startYear, endYear int) ([]*data.MetricPoint, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	table, ok := store.fundamentals[tableName]
	if !ok {
		return nil, errors.New("no such table")
	}

	if !table.HasColumn(column) {
		return nil, errors.New("no such column")
	}

	points := make([]*data.MetricPoint, 0)
	for _, row := range table.Rows() {
		if row.FiscalYear < startYear || row.FiscalYear > endYear {
			continue
		}
		points = append(points, &data.MetricPoint{FiscalYear: row.FiscalYear, Value: row.Values[column]})
	}

	return points, nil
}

func (store *memStore) ReplaceBars(ctx context.Context, ticker, tableName string, bars []*data.Bar) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.replaceBarsCalls++
	store.lastReplaceTicker = ticker
	if store.replaceErr != nil {
		return store.replaceErr
	}

	stored := make([]*data.Bar, len(bars))
	copy(stored, bars)
	store.bars[tableName] = data.SortBars(stored)
	delete(store.emptyTables, tableName)

	return nil
}

func (store *memStore) ReplaceFundamentals(ctx context.Context, ticker, tableName string, fundamentals *data.FundamentalTable) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.replaceFundCalls++
	store.lastReplaceTicker = ticker
	if store.replaceErr != nil {
		return store.replaceErr
	}

	store.fundamentals[tableName] = fundamentals
	store.lastFundamentals = fundamentals

	return nil
}

// fakePrices returns a fixed set of bars and counts calls
type fakePrices struct {
	mu sync.Mutex

	bars      []*data.Bar
	err       error
	calls     int
	lastStart time.Time
	delay     time.Duration
}

func (prices *fakePrices) FetchHistory(ctx context.Context, ticker string, start time.Time) ([]*data.Bar, error) {
	prices.mu.Lock()
	prices.calls++
	prices.lastStart = start
	delay := prices.delay
	prices.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if prices.err != nil {
		return nil, prices.err
	}

	res := make([]*data.Bar, 0, len(prices.bars))
	for _, bar := range prices.bars {
		if bar.Date.Before(start) {
			continue
		}
		cp := *bar
		res = append(res, &cp)
	}
	return res, nil
}

func (prices *fakePrices) Calls() int {
	prices.mu.Lock()
	defer prices.mu.Unlock()
	return prices.calls
}

// fakeFundamentals returns a fixed table and counts calls
type fakeFundamentals struct {
	table     *data.FundamentalTable
	err       error
	calls     int
	lastStart int
	lastEnd   int
}

func (fundamentals *fakeFundamentals) FetchFundamentals(ctx context.Context, ticker string, startYear, endYear int) (*data.FundamentalTable, error) {
	fundamentals.calls++
	fundamentals.lastStart = startYear
	fundamentals.lastEnd = endYear

	if fundamentals.err != nil {
		return nil, fundamentals.err
	}
	return fundamentals.table, nil
}

func day(dateStr string) time.Time {
	dt, err := time.Parse(data.DateLayout, dateStr)
	if err != nil {
		panic(err)
	}
	return dt
}

// weekdayBars returns one bar per weekday in [start, end] with a steadily rising close
func weekdayBars(start, end string) []*data.Bar {
	bars := make([]*data.Bar, 0)
	price := 100.0
	for dt := day(start); !dt.After(day(end)); dt = dt.AddDate(0, 0, 1) {
		if dt.Weekday() == time.Saturday || dt.Weekday() == time.Sunday {
			continue
		}
		bars = append(bars, &data.Bar{Date: dt, Open: price, High: price + 1, Low: price - 1, Close: price, AdjClose: price, Volume: 1000})
		price += 0.5
	}
	return bars
}

func ptr(val float64) *float64 {
	return &val
}

func intPtr(val int) *int {
	return &val
}

func fundamentalTable(values map[string]map[int]*float64, columns ...string) *data.FundamentalTable {
	table := data.NewFundamentalTable()
	for _, col := range columns {
		table.Merge(col, values[col])
	}
	return table
}
