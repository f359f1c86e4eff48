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
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvchart/data"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	metricNames      []string
	metricsStartYear string
	metricsEndYear   string
	metricsJSON      bool
)

// metricsCmd represents the metrics command
var metricsCmd = &cobra.Command{
	Use:   "metrics <ticker>",
	Short: "Print a table of annual fundamentals with compound annual growth rates",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		endYear := time.Now().Year()
		if metricsEndYear != "" {
			year, err := data.ParseYear(metricsEndYear)
			if err != nil {
				log.Fatal().Err(err).Msg("invalid end year")
			}
			endYear = year
		}

		startYear := endYear - 9
		if metricsStartYear != "" {
			year, err := data.ParseYear(metricsStartYear)
			if err != nil {
				log.Fatal().Err(err).Msg("invalid start year")
			}
			startYear = year
		}

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		svc := newDataService(myLibrary)

		metrics := metricNames
		if len(metrics) == 0 {
			for _, metric := range svc.Catalog().Metrics() {
				metrics = append(metrics, metric.Key)
			}
		}

		table := svc.MetricsTable(ctx, args[0], metrics, startYear, endYear)
		if table == nil {
			log.Fatal().Str("Ticker", args[0]).Msg("no metrics data available")
		}

		if metricsJSON {
			out, err := json.MarshalIndent(table, "", "  ")
			if err != nil {
				log.Fatal().Err(err).Msg("could not marshal metrics table")
			}
			fmt.Println(string(out))
			return
		}

		doc := fmt.Sprintf("# %s (%d - %d)\n\n%s", table.Ticker, startYear, endYear, table.Markdown())
		fmt.Print(renderMarkdown(doc))
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.Flags().StringSliceVarP(&metricNames, "metrics", "m", nil, "metrics to include (default all)")
	metricsCmd.Flags().StringVar(&metricsStartYear, "start-year", "", "first fiscal year (default 9 years before end)")
	metricsCmd.Flags().StringVar(&metricsEndYear, "end-year", "", "last fiscal year (default current year)")
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "print the table as JSON")
}
