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

var _ = Describe("FinancialData", func() {
	var (
		ctx          context.Context
		store        *memStore
		fundamentals *fakeFundamentals
		svc          *service.DataService
	)

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	fullTable := func() *data.FundamentalTable {
		return fundamentalTable(map[string]map[int]*float64{
			"is_sales_revenue_turnover": {2018: ptr(10), 2019: ptr(11), 2020: ptr(12), 2021: ptr(13)},
			"return_on_inv_capital":     {2018: ptr(0.1), 2019: ptr(0.2), 2020: nil, 2021: ptr(0.3)},
		}, "is_sales_revenue_turnover", "return_on_inv_capital")
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemStore()
		fundamentals = &fakeFundamentals{table: fullTable()}

		config := service.DefaultConfig()
		config.Now = func() time.Time { return now }
		svc = service.New(store, &fakePrices{}, fundamentals, config)
	})

	Context("when no table exists", func() {
		It("fetches at least the default lookback and returns the requested years", func() {
			series := svc.FinancialData(ctx, "AAPL", "Revenue", 2018, 2020)
			Expect(series).NotTo(BeNil())
			Expect(series.Name).To(Equal("Revenue"))
			Expect(series.Field).To(Equal("is_sales_revenue_turnover"))
			Expect(series.Years()).To(Equal([]int{2018, 2019, 2020}))
			Expect(*series.Points[2].Value).To(Equal(12.0))

			Expect(fundamentals.calls).To(Equal(1))
			Expect(fundamentals.lastStart).To(Equal(2004))
			Expect(fundamentals.lastEnd).To(Equal(2024))
			Expect(store.replaceFundCalls).To(Equal(1))
		})

		It("uses the requested range when it is wider than the lookback", func() {
			svc.FinancialData(ctx, "AAPL", "revenue", 1990, 2026)
			Expect(fundamentals.lastStart).To(Equal(1990))
			Expect(fundamentals.lastEnd).To(Equal(2026))
		})

		It("returns nil when the fetch fails", func() {
			fundamentals.err = errBoom
			Expect(svc.FinancialData(ctx, "AAPL", "revenue", 2018, 2020)).To(BeNil())
			Expect(store.replaceFundCalls).To(Equal(0))
		})

		It("returns nil when the provider lacks the metric", func() {
			Expect(svc.FinancialData(ctx, "AAPL", "eps", 2018, 2020)).To(BeNil())
			Expect(fundamentals.calls).To(Equal(1))
		})
	})

	It("returns nil for unknown metrics without fetching", func() {
		Expect(svc.FinancialData(ctx, "AAPL", "market share", 2018, 2020)).To(BeNil())
		Expect(fundamentals.calls).To(Equal(0))
	})

	Context("when a table exists", func() {
		BeforeEach(func() {
			store.fundamentals["roic_aapl"] = fullTable()
		})

		It("serves complete ranges from the store", func() {
			series := svc.FinancialData(ctx, "AAPL", "ROIC", 2018, 2021)
			Expect(series).NotTo(BeNil())
			Expect(series.Len()).To(Equal(4))
			Expect(series.Points[2].Value).To(BeNil())
			Expect(fundamentals.calls).To(Equal(0))
		})

		It("refetches when the metric column is not stored", func() {
			fundamentals.table = fundamentalTable(map[string]map[int]*float64{
				"is_sales_revenue_turnover": {2018: ptr(10), 2019: ptr(11), 2020: ptr(12)},
				"is_diluted_eps":            {2018: ptr(1.5), 2019: ptr(1.75), 2020: ptr(2)},
			}, "is_sales_revenue_turnover", "is_diluted_eps")

			series := svc.FinancialData(ctx, "AAPL", "eps", 2018, 2020)
			Expect(fundamentals.calls).To(Equal(1))
			Expect(store.replaceFundCalls).To(Equal(1))
			Expect(series).NotTo(BeNil())
			Expect(series.Field).To(Equal("is_diluted_eps"))
			Expect(series.Years()).To(Equal([]int{2018, 2019, 2020}))
			Expect(*series.Points[2].Value).To(Equal(2.0))
		})

		It("returns nil when the refetched table still lacks the metric", func() {
			Expect(svc.FinancialData(ctx, "AAPL", "eps", 2018, 2021)).To(BeNil())
			Expect(fundamentals.calls).To(Equal(1))
		})

		It("returns nil when the metric column is missing and the refetch fails", func() {
			fundamentals.err = errBoom
			Expect(svc.FinancialData(ctx, "AAPL", "eps", 2018, 2021)).To(BeNil())
			Expect(store.replaceFundCalls).To(Equal(0))
		})

		It("refetches when requested years are missing", func() {
			series := svc.FinancialData(ctx, "AAPL", "revenue", 2018, 2022)
			Expect(fundamentals.calls).To(Equal(1))
			Expect(fundamentals.lastStart).To(BeNumerically("<=", 2018))
			Expect(fundamentals.lastEnd).To(BeNumerically(">=", 2022))

			// the provider has no 2022 either, so the refetched series is still short
			Expect(series).NotTo(BeNil())
			Expect(series.Years()).To(Equal([]int{2018, 2019, 2020, 2021}))
		})
	})

	Context("when stored fundamentals have gaps", func() {
		BeforeEach(func() {
			store.fundamentals["roic_aapl"] = fundamentalTable(map[string]map[int]*float64{
				"is_sales_revenue_turnover": {2018: ptr(10), 2020: ptr(12)},
			}, "is_sales_revenue_turnover")
		})

		It("forces a refetch covering the requested range", func() {
			series := svc.FinancialData(ctx, "AAPL", "revenue", 2018, 2020)
			Expect(fundamentals.calls).To(Equal(1))
			Expect(fundamentals.lastStart).To(BeNumerically("<=", 2018))
			Expect(fundamentals.lastEnd).To(BeNumerically(">=", 2020))
			Expect(store.replaceFundCalls).To(Equal(1))
			Expect(series.Years()).To(Equal([]int{2018, 2019, 2020}))
		})

		It("serves the partial series when the refetch fails", func() {
			fundamentals.err = errBoom
			series := svc.FinancialData(ctx, "AAPL", "revenue", 2018, 2020)
			Expect(series).NotTo(BeNil())
			Expect(series.Years()).To(Equal([]int{2018, 2020}))
		})
	})

	It("refreshes on demand", func() {
		numYears, err := svc.RefreshFundamentals(ctx, "AAPL")
		Expect(err).NotTo(HaveOccurred())
		Expect(numYears).To(Equal(4))
		Expect(fundamentals.lastStart).To(Equal(2004))
		Expect(fundamentals.lastEnd).To(Equal(2024))
	})
})
