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
package cmd

import (
	"context"

	"github.com/penny-vault/pvchart/library"
	"github.com/penny-vault/pvchart/provider"
	"github.com/penny-vault/pvchart/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// openLibrary connects to the configured database or exits
func openLibrary(ctx context.Context) *library.Library {
	myLibrary, err := library.NewFromDB(ctx, viper.GetString("db.url"))
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to library; did you run `pvchart init`?")
	}
	return myLibrary
}

// newDataService wires the configured providers and the library into a DataService
func newDataService(myLibrary *library.Library) *service.DataService {
	config := service.DefaultConfig()
	config.PriceLookbackYears = viper.GetInt("prices.lookback_years")
	config.FundamentalsLookbackYears = viper.GetInt("fundamentals.lookback_years")

	providerName := viper.GetString("prices.provider")
	prices, err := provider.NewPriceSource(providerName, provider.Options{
		APIKey:    viper.GetString(providerName + ".apikey"),
		BaseURL:   viper.GetString(providerName + ".url"),
		RateLimit: viper.GetInt(providerName + ".rate_limit"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("could not create price provider")
	}

	if viper.GetString("roic.apikey") == "" {
		log.Warn().Msg("roic.apikey is not set; fundamentals requests will fail")
	}

	fundamentals := provider.NewRoic(provider.Options{
		APIKey:    viper.GetString("roic.apikey"),
		BaseURL:   viper.GetString("roic.url"),
		RateLimit: viper.GetInt("roic.rate_limit"),
	}, config.Catalog)

	log.Debug().Str("PriceProvider", prices.Name()).Int("PriceLookbackYears", config.PriceLookbackYears).
		Int("FundamentalsLookbackYears", config.FundamentalsLookbackYears).Msg("configured data service")

	return service.New(myLibrary, prices, fundamentals, config)
}
