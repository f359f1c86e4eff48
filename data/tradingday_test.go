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
package data_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvchart/data"
)

var _ = Describe("Trading days", func() {
	DescribeTable("LatestTradingDay",
		func(now, expected string) {
			nowDt, err := time.Parse(time.RFC3339, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(data.LatestTradingDay(nowDt).Format(data.DateLayout)).To(Equal(expected))
		},
		Entry("weekday", "2024-06-12T15:00:00Z", "2024-06-12"),
		Entry("friday", "2024-06-14T23:59:00Z", "2024-06-14"),
		Entry("saturday", "2024-06-15T10:00:00Z", "2024-06-14"),
		Entry("sunday", "2024-06-16T10:00:00Z", "2024-06-14"),
		Entry("monday", "2024-06-17T00:00:00Z", "2024-06-17"),
	)

	It("strips time of day and location", func() {
		nyc := time.FixedZone("EST", -5*60*60)
		dt := time.Date(2024, 3, 5, 16, 0, 0, 0, nyc)
		Expect(data.Day(dt)).To(Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	})

	Context("parsing dates", func() {
		now := time.Date(2024, 6, 12, 13, 0, 0, 0, time.UTC)

		It("parses YYYY-MM-DD", func() {
			dt, err := data.ParseDate("2023-02-28")
			Expect(err).NotTo(HaveOccurred())
			Expect(dt).To(Equal(time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)))
		})

		It("rejects other formats", func() {
			_, err := data.ParseDate("02/28/2023")
			Expect(err).To(MatchError(data.ErrInvalidInput))
		})

		It("falls back to today for empty or malformed dates", func() {
			Expect(data.ParseDateOrNow("", now)).To(Equal(data.Day(now)))
			Expect(data.ParseDateOrNow("yesterday", now)).To(Equal(data.Day(now)))
			Expect(data.ParseDateOrNow("2020-01-31", now)).To(Equal(time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)))
		})
	})

	DescribeTable("ParseYear",
		func(yearStr string, expected int, valid bool) {
			year, err := data.ParseYear(yearStr)
			if !valid {
				Expect(err).To(MatchError(data.ErrInvalidInput))
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(year).To(Equal(expected))
		},
		Entry("4 digits", "2021", 2021, true),
		Entry("padded", " 1999 ", 1999, true),
		Entry("2 digits", "21", 0, false),
		Entry("negative", "-123", 0, false),
		Entry("leading zero", "0999", 0, false),
		Entry("text", "20x1", 0, false),
	)
})
