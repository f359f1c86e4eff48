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
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// HistoryColumns lists the columns of a his_ table in insert order
var HistoryColumns = []string{
	"event_date",
	"open",
	"high",
	"low",
	"close",
	"adj_close",
	"volume",
	"dividend",
	"split_factor",
}

// Bar is a single trading day of a ticker's price history. Date is always midnight UTC of the
// trading day (timezone-naive).
type Bar struct {
	Date     time.Time `db:"event_date" json:"date"`
	Open     float64   `db:"open" json:"open"`
	High     float64   `db:"high" json:"high"`
	Low      float64   `db:"low" json:"low"`
	Close    float64   `db:"close" json:"close"`
	AdjClose float64   `db:"adj_close" json:"adjClose"`
	Volume   int64     `db:"volume" json:"volume"`
	Dividend float64   `db:"dividend" json:"dividend"`
	Split    float64   `db:"split_factor" json:"splitFactor"`
}

func (bar *Bar) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Date", bar.Date.Format(DateLayout))
	e.Float64("Close", bar.Close)
	e.Int64("Volume", bar.Volume)
}

// CopyRow returns the bar's values in HistoryColumns order
func (bar *Bar) CopyRow() []any {
	return []any{
		bar.Date,
		bar.Open,
		bar.High,
		bar.Low,
		bar.Close,
		bar.AdjClose,
		bar.Volume,
		bar.Dividend,
		bar.Split,
	}
}

// SortBars orders bars by date ascending, normalizes each date to its trading day, and drops
// duplicate dates keeping the last one seen. Nil entries are removed.
func SortBars(bars []*Bar) []*Bar {
	byDate := make(map[time.Time]*Bar, len(bars))
	for _, bar := range bars {
		if bar == nil {
			continue
		}
		bar.Date = Day(bar.Date)
		byDate[bar.Date] = bar
	}

	res := make([]*Bar, 0, len(byDate))
	for _, bar := range byDate {
		res = append(res, bar)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].Date.Before(res[j].Date)
	})

	return res
}

// FilterBars returns the bars whose date lies in [start, end], inclusive on both ends
func FilterBars(bars []*Bar, start, end time.Time) []*Bar {
	start = Day(start)
	end = Day(end)

	res := make([]*Bar, 0, len(bars))
	for _, bar := range bars {
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		res = append(res, bar)
	}

	return res
}
