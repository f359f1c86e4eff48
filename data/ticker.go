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
package data

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	identifierMatcher = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	tickerReplacer    = strings.NewReplacer(".", "", "^", "", "-", "")
)

// NormalizeTicker trims whitespace and upper-cases the symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// SanitizeTicker removes characters that are not allowed in table names ('.', '^', '-') and
// lower-cases the result. e.g. BRK.B -> brkb, ^GSPC -> gspc. Tickers that differ only by the
// stripped characters map to the same value (BRK.B and BRKB for example).
func SanitizeTicker(ticker string) string {
	return strings.ToLower(tickerReplacer.Replace(strings.TrimSpace(ticker)))
}

// ValidIdentifier reports whether name is safe to interpolate into SQL as a table or column name
func ValidIdentifier(name string) bool {
	return len(name) <= 63 && identifierMatcher.MatchString(name)
}

// HistoryTable returns the name of the table holding daily bars for ticker
func HistoryTable(ticker string) (string, error) {
	return DataTypes[HistoryKey].TableName(ticker)
}

// FundamentalsTable returns the name of the table holding annual fundamentals for ticker
func FundamentalsTable(ticker string) (string, error) {
	return DataTypes[FundamentalsKey].TableName(ticker)
}

func tableName(prefix, ticker string) (string, error) {
	sanitized := SanitizeTicker(ticker)
	if sanitized == "" {
		return "", fmt.Errorf("%w: empty ticker", ErrInvalidInput)
	}

	tbl := prefix + sanitized
	if !ValidIdentifier(tbl) {
		return "", fmt.Errorf("%w: ticker %q cannot be used as a table name", ErrInvalidInput, ticker)
	}

	return tbl, nil
}
