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

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/pvchart/data"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [ticker...]",
	Short: "Display information about the data library or the cached tables of specific tickers",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		var summary string
		if len(args) == 0 {
			var err error
			summary, err = myLibrary.Summary(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("could not create library summary document")
			}
		} else {
			builder := strings.Builder{}
			for _, ticker := range args {
				ticker = data.NormalizeTicker(ticker)
				records, err := myLibrary.RefreshRecords(ctx, ticker)
				if err != nil {
					log.Fatal().Err(err).Str("Ticker", ticker).Msg("could not load refresh records")
				}

				builder.WriteString(fmt.Sprintf("# %s\n\n", ticker))
				if len(records) == 0 {
					builder.WriteString("Not cached\n\n")
					continue
				}

				for _, record := range records {
					builder.WriteString(fmt.Sprintf("  * %s `%s`: %d rows from %s to %s, refreshed %s\n", record.Kind,
						record.TableName, record.NumRows, record.FirstKey, record.LastKey,
						record.RefreshedAt.Local().Format("2006-01-02 15:04")))
				}
				builder.WriteString("\n")
			}
			summary = builder.String()
		}

		fmt.Print(renderMarkdown(summary))
	},
}

// renderMarkdown formats markdown for the terminal
func renderMarkdown(doc string) string {
	r, _ := glamour.NewTermRenderer(
		// detect background color and pick either the default dark or light theme
		glamour.WithAutoStyle(),
		// wrap output at specific width (default is 80)
		glamour.WithWordWrap(120),
	)

	out, err := r.Render(doc)
	if err != nil {
		log.Fatal().Err(err).Msg("could not render markdown document")
	}

	return out
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
