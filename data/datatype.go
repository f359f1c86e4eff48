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
	"strings"
)

type DataType struct {
	Name   string
	Prefix string
	Schema string
}

const (
	HistoryKey      = "history"
	FundamentalsKey = "fundamentals"
)

var DataTypes = map[string]*DataType{
	HistoryKey: {
		Name:   HistoryKey,
		Prefix: "his_",
		Schema: `CREATE TABLE %[1]s (
event_date     DATE             NOT NULL,
open           DOUBLE PRECISION NOT NULL DEFAULT 0.0,
high           DOUBLE PRECISION NOT NULL DEFAULT 0.0,
low            DOUBLE PRECISION NOT NULL DEFAULT 0.0,
close          DOUBLE PRECISION NOT NULL DEFAULT 0.0,
adj_close      DOUBLE PRECISION NOT NULL DEFAULT 0.0,
volume         BIGINT           NOT NULL DEFAULT 0,
dividend       DOUBLE PRECISION NOT NULL DEFAULT 0.0,
split_factor   DOUBLE PRECISION NOT NULL DEFAULT 1.0,
PRIMARY KEY (event_date)%[2]s
);`,
	},
	FundamentalsKey: {
		Name:   FundamentalsKey,
		Prefix: "roic_",
		Schema: `CREATE TABLE %[1]s (
fiscal_year    INTEGER          NOT NULL,
PRIMARY KEY (fiscal_year)%[2]s
);`,
	},
}

// TableName returns the storage table for ticker
func (dt *DataType) TableName(ticker string) (string, error) {
	return tableName(dt.Prefix, ticker)
}

// ExpandedSchema returns the CREATE TABLE statement for tableName. Any extra columns are
// added as nullable DOUBLE PRECISION columns; callers must validate them with ValidIdentifier.
func (dt *DataType) ExpandedSchema(tableName string, columns ...string) string {
	builder := strings.Builder{}
	for _, col := range columns {
		builder.WriteString(fmt.Sprintf(",\n%s DOUBLE PRECISION", col))
	}

	return fmt.Sprintf(dt.Schema, tableName, builder.String())
}
