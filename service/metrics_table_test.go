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
package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvchart/data"
	"github.com/penny-vault/pvchart/service"
)

var _ = Describe("MetricsTable", func() {
	var (
		ctx          context.Context
		store        *memStore
		fundamentals *fakeFundamentals
		svc          *service.DataService
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemStore()
		fundamentals = &fakeFundamentals{}
		store.fundamentals["roic_aapl"] = fundamentalTable(map[string]map[int]*float64{
			"is_sales_revenue_turnover": {2020: ptr(10), 2021: ptr(12), 2022: ptr(14.4)},
			"is_net_income":             {2020: ptr(-5), 2021: ptr(1), 2022: ptr(3)},
			"return_on_inv_capital":     {2020: ptr(0.1), 2021: ptr(0.2), 2022: ptr(0.4)},
		}, "is_sales_revenue_turnover", "is_net_income", "return_on_inv_capital")

		config := service.DefaultConfig()
		config.Now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }
		svc = service.New(store, &fakePrices{}, fundamentals, config)
	})

	It("builds one row per metric with data and computes CAGR for growth metrics", func() {
		table := svc.MetricsTable(ctx, "aapl", []string{"Revenue", "net income", "roic"}, 2020, 2022)
		Expect(table).NotTo(BeNil())
		Expect(table.Ticker).To(Equal("AAPL"))
		Expect(table.Years).To(Equal([]int{2020, 2021, 2022}))
		Expect(table.Rows).To(HaveLen(3))

		revenue := table.Row("revenue")
		Expect(revenue).NotTo(BeNil())
		Expect(*revenue.Values[2021]).To(Equal(12.0))
		Expect(revenue.CAGR).NotTo(BeNil())
		Expect(*revenue.CAGR).To(BeNumerically("~", 20.0, 1e-9))

		Expect(table.Row("net income").CAGR).To(BeNil())
		Expect(table.Row("roic").CAGR).To(BeNil())
	})

	It("skips metrics without data", func() {
		table := svc.MetricsTable(ctx, "AAPL", []string{"revenue", "eps", "not a metric"}, 2020, 2022)
		Expect(table).NotTo(BeNil())
		Expect(table.Rows).To(HaveLen(1))
		Expect(table.Rows[0].Metric).To(Equal("revenue"))
	})

	It("ignores duplicate metric names", func() {
		table := svc.MetricsTable(ctx, "AAPL", []string{"revenue", "REVENUE "}, 2020, 2022)
		Expect(table.Rows).To(HaveLen(1))
	})

	It("returns nil when no metric has data", func() {
		Expect(svc.MetricsTable(ctx, "AAPL", []string{"eps", "capital expenditures"}, 2020, 2022)).To(BeNil())
		Expect(svc.MetricsTable(ctx, "AAPL", nil, 2020, 2022)).To(BeNil())
	})
})

var _ = Describe("CAGR", func() {
	series := func(values ...*float64) *data.MetricSeries {
		res := &data.MetricSeries{Name: "test"}
		for idx, val := range values {
			res.Points = append(res.Points, &data.MetricPoint{FiscalYear: 2020 + idx, Value: val})
		}
		return res
	}

	It("computes the compound growth rate in percent", func() {
		growth := service.CAGR(series(ptr(10), ptr(12), ptr(14.4)))
		Expect(growth).NotTo(BeNil())
		Expect(*growth).To(BeNumerically("~", 20.0, 1e-9))
	})

	It("handles declining series", func() {
		growth := service.CAGR(series(ptr(100), ptr(81)))
		Expect(*growth).To(BeNumerically("~", -19.0, 1e-9))
	})

	DescribeTable("is undefined",
		func(s *data.MetricSeries) {
			Expect(service.CAGR(s)).To(BeNil())
		},
		Entry("negative first value", series(ptr(-5), ptr(3))),
		Entry("zero last value", series(ptr(5), ptr(0))),
		Entry("single point", series(ptr(5))),
		Entry("missing first value", series(nil, ptr(3), ptr(4))),
		Entry("nil series", (*data.MetricSeries)(nil)),
	)
})
