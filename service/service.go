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
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/penny-vault/pvchart/data"
)

// Store is the persistence gateway used by the resolvers
type Store interface {
	TableExists(ctx context.Context, tableName string) (bool, error)
	Columns(ctx context.Context, tableName string) ([]string, error)
	DateRange(ctx context.Context, tableName string) (*time.Time, *time.Time, error)
	Bars(ctx context.Context, tableName string, start, end time.Time) ([]*data.Bar, error)
	MetricValues(ctx context.Context, tableName, column string, startYear, endYear int) ([]*data.MetricPoint, error)
	ReplaceBars(ctx context.Context, ticker, tableName string, bars []*data.Bar) error
	ReplaceFundamentals(ctx context.Context, ticker, tableName string, fundamentals *data.FundamentalTable) error
}

// PriceFetcher downloads daily bars on or after start
type PriceFetcher interface {
	FetchHistory(ctx context.Context, ticker string, start time.Time) ([]*data.Bar, error)
}

// FundamentalsFetcher downloads annual fundamentals for fiscal years [startYear, endYear]
type FundamentalsFetcher interface {
	FetchFundamentals(ctx context.Context, ticker string, startYear, endYear int) (*data.FundamentalTable, error)
}

// Config holds the resolver settings. It is built once by the application entry point.
type Config struct {
	// PriceLookbackYears is how much history a price refresh downloads
	PriceLookbackYears int

	// FundamentalsLookbackYears is the minimum range a fundamentals refresh downloads
	FundamentalsLookbackYears int

	Catalog *data.MetricCatalog

	// Now returns the current time; tests replace it with a fixed clock
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		PriceLookbackYears:        30,
		FundamentalsLookbackYears: 20,
		Catalog:                   data.DefaultCatalog(),
		Now:                       time.Now,
	}
}

// DataService resolves price history and fundamentals through the store, refreshing tables
// from the fetchers when the stored data does not cover a request
type DataService struct {
	store        Store
	prices       PriceFetcher
	fundamentals FundamentalsFetcher
	config       Config

	locks *haxmap.Map[string, *sync.Mutex]
}

func New(store Store, prices PriceFetcher, fundamentals FundamentalsFetcher, config Config) *DataService {
	defaults := DefaultConfig()
	if config.PriceLookbackYears <= 0 {
		config.PriceLookbackYears = defaults.PriceLookbackYears
	}
	if config.FundamentalsLookbackYears <= 0 {
		config.FundamentalsLookbackYears = defaults.FundamentalsLookbackYears
	}
	if config.Catalog == nil {
		config.Catalog = defaults.Catalog
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}

	return &DataService{
		store:        store,
		prices:       prices,
		fundamentals: fundamentals,
		config:       config,
		locks:        haxmap.New[string, *sync.Mutex](),
	}
}

// Catalog returns the metric catalog used to map metric names to columns
func (svc *DataService) Catalog() *data.MetricCatalog {
	return svc.config.Catalog
}

func (svc *DataService) now() time.Time {
	return svc.config.Now()
}

// lock serializes every resolve and refresh of a single table within the process
func (svc *DataService) lock(tableName string) func() {
	mu, _ := svc.locks.GetOrSet(tableName, &sync.Mutex{})
	mu.Lock()
	return mu.Unlock
}
