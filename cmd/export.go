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
	"os"
	"path/filepath"
	"time"

	"github.com/penny-vault/pvchart/backblaze"
	"github.com/penny-vault/pvchart/data"
	"github.com/penny-vault/pvchart/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	exportDir    string
	exportBucket string
	exportPrefix string
	exportYears  int
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <ticker...>",
	Short: "Write cached price histories and returns to CSV files",
	Long: `The export sub-command resolves the price history of each ticker through the
cache (fetching it when needed) and writes <ticker>_history.csv and
<ticker>_returns.csv to the output directory. When a backblaze bucket is
configured the files are uploaded as well.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		svc := newDataService(myLibrary)

		if err := os.MkdirAll(exportDir, 0o755); err != nil {
			log.Fatal().Err(err).Str("Dir", exportDir).Msg("could not create output directory")
		}

		var uploader *backblaze.Uploader
		if bucket := viper.GetString("backblaze.bucket"); bucket != "" {
			var err error
			uploader, err = backblaze.New(backblaze.Credentials{
				KeyID:          viper.GetString("backblaze.application_id"),
				ApplicationKey: viper.GetString("backblaze.application_key"),
			}, bucket)
			if err != nil {
				log.Fatal().Err(err).Str("Bucket", bucket).Msg("could not open backblaze bucket")
			}
		}

		end := data.Day(time.Now())
		start := end.AddDate(-exportYears, 0, 0)

		for _, ticker := range args {
			ticker = data.NormalizeTicker(ticker)
			files, err := exportTicker(ctx, svc, ticker, start, end)
			if err != nil {
				log.Error().Err(err).Str("Ticker", ticker).Msg("export failed")
				continue
			}

			if uploader == nil {
				continue
			}

			for _, fn := range files {
				if err := uploader.Upload(fn, exportPrefix); err != nil {
					log.Error().Err(err).Str("FileName", fn).Msg("upload failed")
				}
			}
		}
	},
}

func exportTicker(ctx context.Context, svc *service.DataService, ticker string, start, end time.Time) ([]string, error) {
	bars, err := svc.HistoricalData(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	returns, err := service.CalculateReturns(bars)
	if err != nil {
		return nil, err
	}

	name := data.SanitizeTicker(ticker)
	historyFn := filepath.Join(exportDir, fmt.Sprintf("%s_history.csv", name))
	returnsFn := filepath.Join(exportDir, fmt.Sprintf("%s_returns.csv", name))

	historyFile, err := os.Create(historyFn)
	if err != nil {
		return nil, err
	}
	defer historyFile.Close()

	if err := writeBarsCSV(historyFile, bars); err != nil {
		return nil, err
	}

	returnsFile, err := os.Create(returnsFn)
	if err != nil {
		return nil, err
	}
	defer returnsFile.Close()

	if err := writeReturnsCSV(returnsFile, returns); err != nil {
		return nil, err
	}

	log.Info().Str("Ticker", ticker).Int("NumBars", len(bars)).Str("Dir", exportDir).Msg("exported price history")

	return []string{historyFn, returnsFn}, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportDir, "output", "o", ".", "directory to write CSV files to")
	exportCmd.Flags().StringVar(&exportBucket, "bucket", "", "backblaze bucket to upload files to")
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "pvchart", "directory inside the bucket")
	exportCmd.Flags().IntVar(&exportYears, "years", 30, "number of years of history to export")

	if err := viper.BindPFlag("backblaze.bucket", exportCmd.Flags().Lookup("bucket")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for bucket failed")
	}
}
