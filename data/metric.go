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

// Metric is a fundamentals series that can be requested from the ROIC API. Key is the
// human-readable description callers use; Field is both the RQL function name and the storage
// column in roic_ tables.
type Metric struct {
	Key   string
	Field string
	CAGR  bool
}

// DefaultMetrics is the set of metrics fetched for every ticker. Metrics flagged CAGR get a
// compound annual growth rate in metrics tables.
var DefaultMetrics = []*Metric{
	{Key: "revenue", Field: "is_sales_revenue_turnover", CAGR: true},
	{Key: "gross profit", Field: "is_gross_profit", CAGR: true},
	{Key: "operating income", Field: "is_oper_income", CAGR: true},
	{Key: "net income", Field: "is_net_income", CAGR: true},
	{Key: "eps", Field: "is_diluted_eps", CAGR: true},
	{Key: "dividends per share", Field: "eqy_dps", CAGR: true},
	{Key: "operating cash flow", Field: "cf_cash_from_oper", CAGR: true},
	{Key: "capital expenditures", Field: "cf_cap_expenditures"},
	{Key: "free cash flow", Field: "cf_free_cash_flow", CAGR: true},
	{Key: "total assets", Field: "bs_tot_asset", CAGR: true},
	{Key: "total debt", Field: "bs_total_debt"},
	{Key: "shareholders equity", Field: "bs_total_equity", CAGR: true},
	{Key: "book value per share", Field: "book_val_per_sh", CAGR: true},
	{Key: "shares outstanding", Field: "bs_sh_out"},
	{Key: "roic", Field: "return_on_inv_capital"},
	{Key: "roe", Field: "return_com_eqy"},
	{Key: "gross margin", Field: "gross_margin"},
	{Key: "operating margin", Field: "oper_margin"},
	{Key: "net margin", Field: "profit_margin"},
	{Key: "pe ratio", Field: "pe_ratio"},
}

// MetricCatalog maps metric descriptions to storage columns
type MetricCatalog struct {
	metrics []*Metric
	byKey   map[string]*Metric
	byField map[string]*Metric
}

// NewMetricCatalog validates metrics and builds a catalog. Keys are matched
// case-insensitively; fields must be valid SQL identifiers and unique.
func NewMetricCatalog(metrics ...*Metric) (*MetricCatalog, error) {
	catalog := &MetricCatalog{
		metrics: make([]*Metric, 0, len(metrics)),
		byKey:   make(map[string]*Metric, len(metrics)),
		byField: make(map[string]*Metric, len(metrics)),
	}

	for _, metric := range metrics {
		key := normalizeMetricKey(metric.Key)
		if key == "" {
			return nil, fmt.Errorf("%w: metric with field %q has an empty key", ErrInvalidInput, metric.Field)
		}

		if !ValidIdentifier(metric.Field) || metric.Field == "fiscal_year" {
			return nil, fmt.Errorf("%w: metric field %q is not a valid column name", ErrInvalidInput, metric.Field)
		}

		if _, ok := catalog.byKey[key]; ok {
			return nil, fmt.Errorf("%w: duplicate metric key %q", ErrInvalidInput, key)
		}

		if _, ok := catalog.byField[metric.Field]; ok {
			return nil, fmt.Errorf("%w: duplicate metric field %q", ErrInvalidInput, metric.Field)
		}

		normalized := &Metric{Key: key, Field: metric.Field, CAGR: metric.CAGR}
		catalog.metrics = append(catalog.metrics, normalized)
		catalog.byKey[key] = normalized
		catalog.byField[metric.Field] = normalized
	}

	return catalog, nil
}

// DefaultCatalog returns a catalog of DefaultMetrics
func DefaultCatalog() *MetricCatalog {
	catalog, err := NewMetricCatalog(DefaultMetrics...)
	if err != nil {
		panic(err)
	}
	return catalog
}

// Lookup finds a metric by its description, ignoring case and surrounding whitespace
func (catalog *MetricCatalog) Lookup(name string) (*Metric, bool) {
	metric, ok := catalog.byKey[normalizeMetricKey(name)]
	return metric, ok
}

// Resolve is Lookup for callers that need an error; unknown names wrap ErrUnknownMetric
func (catalog *MetricCatalog) Resolve(name string) (*Metric, error) {
	metric, ok := catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, strings.TrimSpace(name))
	}
	return metric, nil
}

// HasField reports whether field is the storage column of a catalog metric
func (catalog *MetricCatalog) HasField(field string) bool {
	_, ok := catalog.byField[field]
	return ok
}

// IsCAGR reports whether a growth rate is computed for the named metric
func (catalog *MetricCatalog) IsCAGR(name string) bool {
	metric, ok := catalog.Lookup(name)
	return ok && metric.CAGR
}

// Metrics returns the catalog's metrics in definition order
func (catalog *MetricCatalog) Metrics() []*Metric {
	res := make([]*Metric, len(catalog.metrics))
	copy(res, catalog.metrics)
	return res
}

func normalizeMetricKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
