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
package server_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvchart/data"
	"github.com/penny-vault/pvchart/server"
	"github.com/penny-vault/pvchart/service"
)

type fakeService struct {
	bars    []*data.Bar
	histErr error
	table   *data.MetricsTable

	lastTicker  string
	lastStart   time.Time
	lastEnd     time.Time
	lastMetrics []string
	lastYears   [2]int
	lastRequest service.AnalysisRequest
	analyzeErr  error
}

func (svc *fakeService) HistoricalData(ctx context.Context, ticker string, start, end time.Time) ([]*data.Bar, error) {
	svc.lastTicker = ticker
	svc.lastStart = start
	svc.lastEnd = end
	return svc.bars, svc.histErr
}

func (svc *fakeService) MetricsTable(ctx context.Context, ticker string, metrics []string, startYear, endYear int) *data.MetricsTable {
	svc.lastTicker = ticker
	svc.lastMetrics = metrics
	svc.lastYears = [2]int{startYear, endYear}
	return svc.table
}

func (svc *fakeService) Analyze(ctx context.Context, req service.AnalysisRequest) (*service.Analysis, error) {
	svc.lastRequest = req
	if svc.analyzeErr != nil {
		return nil, svc.analyzeErr
	}
	return &service.Analysis{Ticker: req.Ticker}, nil
}

func (svc *fakeService) AnalysisStartDate(endDate, lookbackType string, lookbackValue int) string {
	return service.AnalysisStartDate(endDate, lookbackType, lookbackValue, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
}

func (svc *fakeService) Catalog() *data.MetricCatalog {
	return data.DefaultCatalog()
}

type fakePinger struct {
	err error
}

func (pinger *fakePinger) Ping(ctx context.Context) error {
	return pinger.err
}

func intPtr(val int) *int {
	return &val
}

func day(dateStr string) time.Time {
	dt, err := time.Parse(data.DateLayout, dateStr)
	if err != nil {
		panic(err)
	}
	return dt
}

var _ = Describe("Server", func() {
	var (
		svc    *fakeService
		pinger *fakePinger
		srv    *server.Server
	)

	get := func(url string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder) map[string]any {
		res := make(map[string]any)
		Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed())
		return res
	}

	BeforeEach(func() {
		svc = &fakeService{
			bars: []*data.Bar{
				{Date: day("2024-01-02"), Close: 100},
				{Date: day("2024-01-03"), Close: 110},
			},
		}
		pinger = &fakePinger{}
		srv = server.New(svc, pinger, server.Config{
			Port: 8080,
			Now:  func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) },
		})
	})

	Context("health", func() {
		It("reports ok when the database responds", func() {
			rec := get("/healthz")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec)).To(HaveKeyWithValue("status", "ok"))
		})

		It("reports unavailable when the database is down", func() {
			pinger.err = errors.New("connection refused")
			rec := get("/healthz")
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(decode(rec)).To(HaveKeyWithValue("error", "connection refused"))
		})
	})

	It("assigns a request id", func() {
		rec := get("/healthz")
		Expect(rec.Header().Get(server.RequestIDHeader)).NotTo(BeEmpty())
	})

	It("lists the metric catalog", func() {
		rec := get("/api/catalog")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var entries []map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &entries)).To(Succeed())
		Expect(entries).To(HaveLen(len(data.DefaultMetrics)))
		Expect(entries[0]).To(HaveKeyWithValue("metric", "revenue"))
	})

	Context("history", func() {
		It("passes explicit dates through", func() {
			rec := get("/api/history/aapl?start=2024-01-01&end=2024-02-01")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.lastTicker).To(Equal("AAPL"))
			Expect(svc.lastStart).To(Equal(day("2024-01-01")))
			Expect(svc.lastEnd).To(Equal(day("2024-02-01")))

			body := decode(rec)
			Expect(body).To(HaveKeyWithValue("ticker", "AAPL"))
			Expect(body["bars"]).To(HaveLen(2))
		})

		It("derives the start from the lookback", func() {
			rec := get("/api/history/AAPL?end=2024-03-01&lookback_days=30")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.lastStart).To(Equal(day("2024-01-31")))
		})

		It("defaults the end to today", func() {
			get("/api/history/AAPL")
			Expect(svc.lastEnd).To(Equal(day("2024-06-15")))
			Expect(svc.lastStart).To(Equal(day("2023-06-16")))
		})

		DescribeTable("maps errors to status codes",
			func(err error, status int) {
				svc.histErr = err
				rec := get("/api/history/AAPL")
				Expect(rec.Code).To(Equal(status))
				Expect(decode(rec)).To(HaveKey("error"))
			},
			Entry("invalid input", fmt.Errorf("%w: bad ticker", data.ErrInvalidInput), http.StatusBadRequest),
			Entry("unavailable", fmt.Errorf("%w: upstream down", data.ErrDataUnavailable), http.StatusNotFound),
			Entry("unexpected", errors.New("boom"), http.StatusInternalServerError),
		)
	})

	It("computes returns", func() {
		rec := get("/api/returns/AAPL?start=2024-01-01&end=2024-02-01")
		Expect(rec.Code).To(Equal(http.StatusOK))

		returns := decode(rec)["returns"].([]any)
		Expect(returns).To(HaveLen(2))
		Expect(returns[1].(map[string]any)["return"]).To(BeNumerically("~", 0.1, 1e-9))
	})

	It("computes returns across a zero close", func() {
		svc.bars = []*data.Bar{
			{Date: day("2024-01-02"), Close: 100},
			{Date: day("2024-01-03"), Close: 0},
			{Date: day("2024-01-04"), Close: 50},
		}

		rec := get("/api/returns/AAPL?start=2024-01-01&end=2024-02-01")
		Expect(rec.Code).To(Equal(http.StatusOK))

		returns := decode(rec)["returns"].([]any)
		Expect(returns).To(HaveLen(3))
		Expect(returns[2].(map[string]any)["return"]).To(BeNumerically("==", 0))
	})

	Context("metrics", func() {
		BeforeEach(func() {
			revenue := 10.0
			svc.table = &data.MetricsTable{
				Ticker: "AAPL",
				Years:  []int{2023},
				Rows:   []*data.MetricsRow{{Metric: "revenue", Values: map[int]*float64{2023: &revenue}}},
			}
		})

		It("defaults to ten years and the full catalog", func() {
			rec := get("/api/metrics/aapl")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.lastTicker).To(Equal("AAPL"))
			Expect(svc.lastYears).To(Equal([2]int{2015, 2024}))
			Expect(svc.lastMetrics).To(HaveLen(len(data.DefaultMetrics)))
		})

		It("parses the requested metrics and years", func() {
			rec := get("/api/metrics/AAPL?metrics=revenue,roic&start_year=2018&end_year=2020")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.lastMetrics).To(Equal([]string{"revenue", "roic"}))
			Expect(svc.lastYears).To(Equal([2]int{2018, 2020}))
		})

		It("rejects malformed years", func() {
			Expect(get("/api/metrics/AAPL?start_year=18").Code).To(Equal(http.StatusBadRequest))
			Expect(get("/api/metrics/AAPL?start_year=2021&end_year=2020").Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects requests where no metric is known", func() {
			rec := get("/api/metrics/AAPL?metrics=market%20share,moat")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(svc.lastMetrics).To(BeNil())
		})

		It("accepts requests where some metrics are known", func() {
			rec := get("/api/metrics/AAPL?metrics=moat,revenue")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.lastMetrics).To(Equal([]string{"moat", "revenue"}))
		})

		It("returns not found when there is no data", func() {
			svc.table = nil
			Expect(get("/api/metrics/AAPL").Code).To(Equal(http.StatusNotFound))
		})
	})

	Context("analysis", func() {
		It("passes query parameters to the service", func() {
			rec := get("/api/analysis/msft?end_date=2024-05-01&lookback_days=90&crossover_days=60")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.lastRequest).To(Equal(service.AnalysisRequest{
				Ticker:        "msft",
				EndDate:       "2024-05-01",
				LookbackDays:  intPtr(90),
				CrossoverDays: intPtr(60),
			}))
		})

		It("leaves missing and malformed numbers unset", func() {
			get("/api/analysis/MSFT?lookback_days=abc")
			Expect(svc.lastRequest.LookbackDays).To(BeNil())
			Expect(svc.lastRequest.CrossoverDays).To(BeNil())
		})

		It("passes an explicit zero through", func() {
			get("/api/analysis/MSFT?lookback_days=0")
			Expect(svc.lastRequest.LookbackDays).To(Equal(intPtr(0)))
		})

		It("maps service errors", func() {
			svc.analyzeErr = fmt.Errorf("%w: ticker symbol is required", data.ErrInvalidInput)
			Expect(get("/api/analysis/MSFT").Code).To(Equal(http.StatusBadRequest))
		})
	})
})
