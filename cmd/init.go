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
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvchart/db"
	"github.com/penny-vault/pvchart/library"
	"github.com/penny-vault/pvchart/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type dbConfig struct {
	URL string `toml:"url"`
}

type pricesConfig struct {
	Provider      string `toml:"provider"`
	LookbackYears int    `toml:"lookback_years"`
}

type apiConfig struct {
	APIKey string `toml:"apikey,omitempty"`
}

type configFile struct {
	DB     dbConfig     `toml:"db"`
	Prices pricesConfig `toml:"prices"`
	Tiingo apiConfig    `toml:"tiingo"`
	Roic   apiConfig    `toml:"roic"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather database and provider configuration and setup schema",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := &library.Library{}
		config := configFile{
			Prices: pricesConfig{
				Provider:      "yahoo",
				LookbackYears: 30,
			},
		}

		priceOptions := make([]huh.Option[string], 0)
		for _, name := range provider.PriceSourceNames() {
			priceOptions = append(priceOptions, huh.NewOption(name, name))
		}

		form := huh.NewForm(
			// Gather details about the library and who owns it
			huh.NewGroup(
				huh.NewInput().
					Title("Give the library a name:").
					Value(&myLibrary.Name),

				huh.NewInput().
					Title("Who owns the library?").
					Value(&myLibrary.Owner),
			),

			// Get details about the database
			huh.NewGroup(
				huh.NewInput().
					Title("Provide the DSN for connecting to your PostgreSQL database (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
					Value(&myLibrary.DBUrl).
					Validate(func(dsn string) error {
						_, err := pgx.ParseConfig(dsn)
						return err
					}),
			),

			// Data providers
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Which provider should supply daily prices?").
					Options(priceOptions...).
					Value(&config.Prices.Provider),

				huh.NewInput().
					Title("Enter your tiingo API key (leave blank if not using tiingo):").
					Value(&config.Tiingo.APIKey),

				huh.NewInput().
					Title("Enter your roic.ai API key:").
					Value(&config.Roic.APIKey),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering database settings")
		}

		log.Info().Msg("creating database tables")

		err = db.Migrate(myLibrary.DBUrl)
		if err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}

		log.Info().Msg("database tables created")
		log.Info().Msg("Saving library name and owner to database")

		// save library name and owner to database
		if err := myLibrary.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myLibrary.Close()

		err = myLibrary.SaveDB(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("error saving library settings to database")
		}

		// save settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		config.DB.URL = myLibrary.DBUrl

		configFN := filepath.Join(home, ".pvchart.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving configuration to config file")
		configData, err := toml.Marshal(config)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0600)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your data library has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
