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

	"github.com/rs/zerolog"
)

const FiscalYearColumn = "fiscal_year"

// FundamentalRow holds every stored metric value for one fiscal year. A nil value means the
// provider reported no figure for that year.
type FundamentalRow struct {
	FiscalYear int
	Values     map[string]*float64
}

func (row *FundamentalRow) MarshalZerologObject(e *zerolog.Event) {
	e.Int("FiscalYear", row.FiscalYear)
	e.Int("NumValues", len(row.Values))
}

// FundamentalTable is the in-memory form of a roic_ table: one row per fiscal year and one
// column per metric field
type FundamentalTable struct {
	Columns []string
	rows    map[int]*FundamentalRow
}

func NewFundamentalTable() *FundamentalTable {
	return &FundamentalTable{
		Columns: []string{},
		rows:    make(map[int]*FundamentalRow),
	}
}

// Merge adds column to the table, joining values on fiscal year. If the column already exists
// the call is ignored so the first frame to supply a column wins.
func (table *FundamentalTable) Merge(column string, values map[int]*float64) bool {
	if table.HasColumn(column) {
		return false
	}

	table.Columns = append(table.Columns, column)
	for year, val := range values {
		table.Set(year, column, val)
	}

	return true
}

// Set stores a single value, creating the fiscal year row if needed
func (table *FundamentalTable) Set(year int, column string, val *float64) {
	row, ok := table.rows[year]
	if !ok {
		row = &FundamentalRow{
			FiscalYear: year,
			Values:     make(map[string]*float64),
		}
		table.rows[year] = row
	}

	row.Values[column] = val
}

// AddYear ensures a row exists for year even if it has no values
func (table *FundamentalTable) AddYear(year int) {
	if _, ok := table.rows[year]; !ok {
		table.rows[year] = &FundamentalRow{
			FiscalYear: year,
			Values:     make(map[string]*float64),
		}
	}
}

func (table *FundamentalTable) HasColumn(column string) bool {
	for _, col := range table.Columns {
		if col == column {
			return true
		}
	}
	return false
}

func (table *FundamentalTable) Len() int {
	return len(table.rows)
}

// Years returns the fiscal years in the table in ascending order
func (table *FundamentalTable) Years() []int {
	years := make([]int, 0, len(table.rows))
	for year := range table.rows {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// Rows returns the table rows ordered by fiscal year
func (table *FundamentalTable) Rows() []*FundamentalRow {
	res := make([]*FundamentalRow, 0, len(table.rows))
	for _, year := range table.Years() {
		res = append(res, table.rows[year])
	}
	return res
}

// Value returns the value stored for year and column. The second return is false when the
// year is not in the table.
func (table *FundamentalTable) Value(year int, column string) (*float64, bool) {
	row, ok := table.rows[year]
	if !ok {
		return nil, false
	}
	return row.Values[column], true
}

// ColumnNames returns fiscal_year followed by the metric columns, the column order used by
// CopyRows
func (table *FundamentalTable) ColumnNames() []string {
	return append([]string{FiscalYearColumn}, table.Columns...)
}

// CopyRows returns one slice per fiscal year ordered as ColumnNames
func (table *FundamentalTable) CopyRows() [][]any {
	res := make([][]any, 0, len(table.rows))
	for _, row := range table.Rows() {
		vals := make([]any, 0, len(table.Columns)+1)
		vals = append(vals, int32(row.FiscalYear))
		for _, col := range table.Columns {
			vals = append(vals, row.Values[col])
		}
		res = append(res, vals)
	}
	return res
}
