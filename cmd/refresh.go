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
	"fmt"
	"strings"
	"time"

	"github.com/hako/durafmt"
	"github.com/penny-vault/pvchart/data"
	"github.com/penny-vault/pvchart/healthcheck"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	refreshFundamentals bool
	healthCheckID       string
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh <ticker...>",
	Short: "Download and replace the cached price history of tickers",
	Long: `The refresh sub-command downloads the full price history for each ticker and
replaces its cached table. With --fundamentals the annual fundamentals table is
replaced as well. Tickers are processed sequentially; a failure on one ticker does
not stop the others. When --healthcheck is given the healthchecks.io check is
pinged at the start and end of the run so cron-scheduled warm-ups can be monitored.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		svc := newDataService(myLibrary)
		hc := healthcheck.New(viper.GetString("healthchecks.url"))

		if err := hc.Start(ctx, healthCheckID); err != nil {
			log.Warn().Err(err).Str("HealthCheckID", healthCheckID).Msg("could not signal start to healthchecks.io")
		}

		runStart := time.Now()
		failed := make([]string, 0)

		for _, ticker := range args {
			ticker = data.NormalizeTicker(ticker)
			tickerLogger := log.With().Str("Ticker", ticker).Logger()
			tickerCtx := tickerLogger.WithContext(ctx)

			startTime := time.Now()
			numBars, err := svc.RefreshPrices(tickerCtx, ticker)
			if err != nil {
				tickerLogger.Error().Err(err).Msg("price refresh failed")
				failed = append(failed, ticker)
				continue
			}

			tickerLogger.Info().Str("RunTime", durafmt.Parse(time.Since(startTime)).String()).Int("NumBars", numBars).Msg("refreshed prices")

			if refreshFundamentals {
				startTime = time.Now()
				numYears, err := svc.RefreshFundamentals(tickerCtx, ticker)
				if err != nil {
					tickerLogger.Error().Err(err).Msg("fundamentals refresh failed")
					failed = append(failed, ticker)
					continue
				}

				tickerLogger.Info().Str("RunTime", durafmt.Parse(time.Since(startTime)).String()).Int("NumYears", numYears).Msg("refreshed fundamentals")
			}
		}

		runTime := durafmt.Parse(time.Since(runStart)).String()

		if len(failed) > 0 {
			msg := fmt.Sprintf("refresh failed for %s", strings.Join(failed, ", "))
			if err := hc.Fail(ctx, healthCheckID, msg); err != nil {
				log.Warn().Err(err).Msg("could not signal failure to healthchecks.io")
			}
			log.Fatal().Strs("Failed", failed).Str("RunTime", runTime).Msg("refresh finished with errors")
		}

		if err := hc.Success(ctx, healthCheckID, fmt.Sprintf("refreshed %d tickers in %s", len(args), runTime)); err != nil {
			log.Warn().Err(err).Msg("could not signal success to healthchecks.io")
		}

		log.Info().Int("NumTickers", len(args)).Str("RunTime", runTime).Msg("refresh finished")
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().BoolVarP(&refreshFundamentals, "fundamentals", "f", false, "also refresh annual fundamentals")
	refreshCmd.Flags().StringVar(&healthCheckID, "healthcheck", "", "healthchecks.io check id to ping")
}
