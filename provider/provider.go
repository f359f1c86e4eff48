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
	"sort"
	"time"

	"github.com/penny-vault/pvchart/data"
)

// PriceSource downloads the daily price history of a ticker
type PriceSource interface {
	Name() string
	Description() string
	ConfigDescription() map[string]string

	// FetchHistory returns every daily bar on or after start, sorted by date. An empty
	// history is reported as data.ErrNoData.
	FetchHistory(ctx context.Context, ticker string, start time.Time) ([]*data.Bar, error)
}

// Options configures a provider client
type Options struct {
	APIKey  string
	BaseURL string

	// RateLimit is the maximum number of requests per minute; 0 disables limiting
	RateLimit int
}

var priceSources = map[string]func(Options) PriceSource{
	"yahoo": func(opts Options) PriceSource {
		return NewYahoo(opts)
	},
	"tiingo": func(opts Options) PriceSource {
		return NewTiingo(opts)
	},
}

// NewPriceSource constructs the price source registered under name
func NewPriceSource(name string, opts Options) (PriceSource, error) {
	ctor, ok := priceSources[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown price provider %q (valid: %v)", data.ErrInvalidInput, name, PriceSourceNames())
	}
	return ctor(opts), nil
}

// PriceSourceNames lists registered price sources in alphabetical order
func PriceSourceNames() []string {
	names := make([]string, 0, len(priceSources))
	for name := range priceSources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
