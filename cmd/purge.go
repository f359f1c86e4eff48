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

	"github.com/charmbracelet/huh"
	"github.com/penny-vault/pvchart/data"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var purgeYes bool

// purgeCmd represents the purge command
var purgeCmd = &cobra.Command{
	Use:   "purge <ticker...>",
	Short: "Delete the cached tables of tickers so the next request refetches them",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		for _, ticker := range args {
			ticker = data.NormalizeTicker(ticker)

			confirmed := purgeYes
			if !confirmed {
				confirmForm := huh.NewForm(
					huh.NewGroup(
						huh.NewConfirm().
							Title(fmt.Sprintf("Are you sure you want to delete cached data for '%s'?", ticker)).
							Value(&confirmed),
					),
				)

				if err := confirmForm.Run(); err != nil {
					log.Fatal().Err(err).Msg("failed to create wizard")
				}
			}

			if !confirmed {
				fmt.Printf("Ok, we won't delete '%s'\n", ticker)
				continue
			}

			fmt.Printf("deleting '%s'...\n", ticker)
			if err := myLibrary.Purge(ctx, ticker); err != nil {
				log.Fatal().Err(err).Str("Ticker", ticker).Msg("could not purge cached data")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "do not ask for confirmation")
}
