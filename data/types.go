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
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MetricPoint is a single fiscal year observation of a metric
type MetricPoint struct {
	FiscalYear int      `db:"fiscal_year" json:"fiscalYear"`
	Value      *float64 `db:"value" json:"value"`
}

// MetricSeries is a year-indexed series for one metric. Name is the metric description the
// caller asked for, Field is the storage column it was read from.
type MetricSeries struct {
	Name   string         `json:"name"`
	Field  string         `json:"field"`
	Points []*MetricPoint `json:"points"`
}

func (series *MetricSeries) Len() int {
	return len(series.Points)
}

// Years returns the fiscal years present in the series
func (series *MetricSeries) Years() []int {
	years := make([]int, len(series.Points))
	for idx, pt := range series.Points {
		years[idx] = pt.FiscalYear
	}
	return years
}

// MetricsRow is one metric of a MetricsTable. CAGR is nil when it is not computed for the
// metric or cannot be computed from the data.
type MetricsRow struct {
	Metric string           `json:"metric"`
	Values map[int]*float64 `json:"values"`
	CAGR   *float64         `json:"cagr"`
}

// MetricsTable is a per-request view of several metrics over a range of fiscal years
type MetricsTable struct {
	Ticker string        `json:"ticker"`
	Years  []int         `json:"years"`
	Rows   []*MetricsRow `json:"rows"`
}

// Row returns the row for metric or nil if the metric produced no data
func (table *MetricsTable) Row(metric string) *MetricsRow {
	metric = strings.ToLower(strings.TrimSpace(metric))
	for _, row := range table.Rows {
		if row.Metric == metric {
			return row
		}
	}
	return nil
}

// Markdown renders the table with one column per fiscal year and a trailing CAGR % column
func (table *MetricsTable) Markdown() string {
	p := message.NewPrinter(language.English)

	sb := strings.Builder{}
	sb.WriteString("| Metric |")
	for _, year := range table.Years {
		sb.WriteString(" ")
		sb.WriteString(strconv.Itoa(year))
		sb.WriteString(" |")
	}
	sb.WriteString(" CAGR % |\n")

	sb.WriteString("|---|")
	for range table.Years {
		sb.WriteString("---:|")
	}
	sb.WriteString("---:|\n")

	for _, row := range table.Rows {
		sb.WriteString("| ")
		sb.WriteString(row.Metric)
		sb.WriteString(" |")
		for _, year := range table.Years {
			sb.WriteString(" ")
			if val := row.Values[year]; val != nil {
				sb.WriteString(p.Sprintf("%.2f", *val))
			}
			sb.WriteString(" |")
		}

		sb.WriteString(" ")
		if row.CAGR != nil {
			sb.WriteString(p.Sprintf("%.2f", *row.CAGR))
		}
		sb.WriteString(" |\n")
	}

	return sb.String()
}

// ReturnPoint is the simple return of a single trading day relative to the prior one
type ReturnPoint struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// ReturnsSeries is a date ordered list of daily returns; the first entry is always 0
type ReturnsSeries []*ReturnPoint
