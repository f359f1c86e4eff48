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
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvchart/data"
	"github.com/penny-vault/pvchart/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	historyStart    string
	historyEnd      string
	historyLookback int
	historyReturns  bool
	historyCSV      bool
)

type barRecord struct {
	Date     string  `csv:"date"`
	Open     float64 `csv:"open"`
	High     float64 `csv:"high"`
	Low      float64 `csv:"low"`
	Close    float64 `csv:"close"`
	AdjClose float64 `csv:"adj_close"`
	Volume   int64   `csv:"volume"`
}

type returnRecord struct {
	Date   string  `csv:"date"`
	Return float64 `csv:"return"`
}

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <ticker>",
	Short: "Print the price history or daily returns of a ticker",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		svc := newDataService(myLibrary)

		end := data.ParseDateOrNow(historyEnd, time.Now())
		startStr := historyStart
		if startStr == "" {
			startStr = svc.AnalysisStartDate(end.Format(data.DateLayout), "days", historyLookback)
		}

		start, err := data.ParseDate(startStr)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid start date")
		}

		bars, err := svc.HistoricalData(ctx, args[0], start, end)
		if err != nil {
			log.Fatal().Err(err).Str("Ticker", args[0]).Msg("could not get price history")
		}

		if historyReturns {
			returns, err := service.CalculateReturns(bars)
			if err != nil {
				log.Fatal().Err(err).Msg("could not calculate returns")
			}
			printReturns(returns)
			return
		}

		printBars(bars)
	},
}

func writeBarsCSV(w io.Writer, bars []*data.Bar) error {
	records := make([]*barRecord, len(bars))
	for idx, bar := range bars {
		records[idx] = &barRecord{
			Date:     bar.Date.Format(data.DateLayout),
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: bar.AdjClose,
			Volume:   bar.Volume,
		}
	}

	return gocsv.Marshal(&records, w)
}

func writeReturnsCSV(w io.Writer, returns data.ReturnsSeries) error {
	records := make([]*returnRecord, len(returns))
	for idx, pt := range returns {
		records[idx] = &returnRecord{
			Date:   pt.Date.Format(data.DateLayout),
			Return: pt.Return,
		}
	}

	return gocsv.Marshal(&records, w)
}

func printBars(bars []*data.Bar) {
	if historyCSV {
		if err := writeBarsCSV(os.Stdout, bars); err != nil {
			log.Fatal().Err(err).Msg("could not write csv")
		}
		return
	}

	fmt.Printf("%-10s %12s %12s %12s %12s %14s\n", "Date", "Open", "High", "Low", "Close", "Volume")
	for _, bar := range bars {
		fmt.Printf("%-10s %12.2f %12.2f %12.2f %12.2f %14d\n", bar.Date.Format(data.DateLayout), bar.Open, bar.High,
			bar.Low, bar.Close, bar.Volume)
	}
}

func printReturns(returns data.ReturnsSeries) {
	if historyCSV {
		if err := writeReturnsCSV(os.Stdout, returns); err != nil {
			log.Fatal().Err(err).Msg("could not write csv")
		}
		return
	}

	fmt.Printf("%-10s %10s\n", "Date", "Return")
	for _, pt := range returns {
		fmt.Printf("%-10s %9.2f%%\n", pt.Date.Format(data.DateLayout), pt.Return*100)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyStart, "start", "", "first date to include (YYYY-MM-DD)")
	historyCmd.Flags().StringVar(&historyEnd, "end", "", "last date to include (YYYY-MM-DD); defaults to today")
	historyCmd.Flags().IntVar(&historyLookback, "lookback", service.DefaultLookbackDays, "days before end to start when --start is not given")
	historyCmd.Flags().BoolVarP(&historyReturns, "returns", "r", false, "print daily returns instead of prices")
	historyCmd.Flags().BoolVar(&historyCSV, "csv", false, "write output as CSV")
}
