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
	"fmt"
	"sort"
	"strings"

	"github.com/penny-vault/pvchart/data"
	"github.com/penny-vault/pvchart/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the price and fundamentals providers and the metrics they supply",
	Run: func(cmd *cobra.Command, args []string) {
		builder := strings.Builder{}

		builder.WriteString("# Price Providers\n")
		for _, name := range provider.PriceSourceNames() {
			source, err := provider.NewPriceSource(name, provider.Options{})
			if err != nil {
				log.Fatal().Err(err).Str("Provider", name).Msg("could not create provider")
			}

			builder.WriteString(fmt.Sprintf("\n## %s\n", source.Name()))
			builder.WriteString(source.Description())
			builder.WriteString("\n")
			writeConfigDescription(&builder, source.ConfigDescription())
		}

		catalog := data.DefaultCatalog()
		roic := provider.NewRoic(provider.Options{}, catalog)

		builder.WriteString("\n# Fundamentals Provider\n")
		builder.WriteString(fmt.Sprintf("\n## %s\n", roic.Name()))
		builder.WriteString(roic.Description())
		builder.WriteString("\n")
		writeConfigDescription(&builder, roic.ConfigDescription())

		builder.WriteString("\n## Metrics\n\n| Metric | Field | CAGR |\n|---|---|---|\n")
		for _, metric := range catalog.Metrics() {
			cagr := ""
			if metric.CAGR {
				cagr = "yes"
			}
			builder.WriteString(fmt.Sprintf("| %s | `%s` | %s |\n", metric.Key, metric.Field, cagr))
		}

		fmt.Print(renderMarkdown(builder.String()))
	},
}

func writeConfigDescription(builder *strings.Builder, config map[string]string) {
	if len(config) == 0 {
		return
	}

	keys := make([]string, 0, len(config))
	for key := range config {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	builder.WriteString("\nConfiguration:\n\n")
	for _, key := range keys {
		builder.WriteString(fmt.Sprintf("  * `%s`: %s\n", key, config[key]))
	}
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
