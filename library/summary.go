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
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/pvchart/data"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	records, err := myLibrary.RefreshLog(ctx)
	if err != nil {
		return "", err
	}

	numHistory, err := myLibrary.NumTables(ctx, data.HistoryKey)
	if err != nil {
		return "", err
	}

	numFundamentals, err := myLibrary.NumTables(ctx, data.FundamentalsKey)
	if err != nil {
		return "", err
	}

	totalRecords, err := myLibrary.TotalRecords(ctx)
	if err != nil {
		return "", err
	}

	lastUpdated, err := myLibrary.LastUpdated(ctx)
	if err != nil {
		return "", err
	}

	stats := &summaryStats{
		NumHistory:      numHistory,
		NumFundamentals: numFundamentals,
		TotalRecords:    totalRecords,
		LastUpdated:     lastUpdated,
	}

	return myLibrary.renderSummary(stats, records, time.Now()), nil
}

type summaryStats struct {
	NumHistory      int
	NumFundamentals int
	TotalRecords    int64
	LastUpdated     time.Time
}

func (myLibrary *Library) renderSummary(stats *summaryStats, records []*RefreshRecord, now time.Time) string {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString(fmt.Sprintf("# %s\n", myLibrary.Name))
	builder.WriteString("## Details\n\n")

	if myLibrary.Owner != "" {
		builder.WriteString(fmt.Sprintf("Owner: %s\n\n", myLibrary.Owner))
	}

	builder.WriteString(p.Sprintf("  * Price Histories: %d\n", stats.NumHistory))
	builder.WriteString(p.Sprintf("  * Fundamentals: %d\n", stats.NumFundamentals))
	builder.WriteString(p.Sprintf("  * Total Records: %d\n\n", stats.TotalRecords))

	if stats.LastUpdated.Equal(time.Time{}) || stats.LastUpdated.Year() <= 1 {
		builder.WriteString("Last Updated: Never\n\n")
	} else {
		builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", timeago.English.FormatReference(stats.LastUpdated, now),
			stats.LastUpdated.Local().Format("01/02/2006")))
	}

	builder.WriteString("## Cached Tables\n\n")

	if len(records) == 0 {
		builder.WriteString("No tables have been cached yet\n")
		return builder.String()
	}

	for _, record := range records {
		builder.WriteString(p.Sprintf("  * %s %s (%s - %s) %d rows, refreshed %s\n", record.Ticker, record.Kind,
			record.FirstKey, record.LastKey, record.NumRows, timeago.English.FormatReference(record.RefreshedAt, now)))
	}

	return builder.String()
}
