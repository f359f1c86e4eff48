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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvchart/data"
)

var _ = Describe("Ticker", func() {
	DescribeTable("SanitizeTicker",
		func(ticker, expected string) {
			Expect(data.SanitizeTicker(ticker)).To(Equal(expected))
		},
		Entry("class shares", "BRK.B", "brkb"),
		Entry("index", "^GSPC", "gspc"),
		Entry("dash", "BF-B", "bfb"),
		Entry("plain", "AAPL", "aapl"),
		Entry("whitespace", "  msft ", "msft"),
	)

	It("is idempotent", func() {
		for _, ticker := range []string{"BRK.B", "^GSPC", "BF-B", "aapl"} {
			once := data.SanitizeTicker(ticker)
			Expect(data.SanitizeTicker(once)).To(Equal(once))
		}
	})

	It("maps tickers that differ only by stripped characters to the same value", func() {
		Expect(data.SanitizeTicker("BRK.B")).To(Equal(data.SanitizeTicker("BRKB")))
	})

	It("builds table names with the data type prefix", func() {
		tbl, err := data.HistoryTable("BRK.B")
		Expect(err).NotTo(HaveOccurred())
		Expect(tbl).To(Equal("his_brkb"))

		tbl, err = data.FundamentalsTable("^GSPC")
		Expect(err).NotTo(HaveOccurred())
		Expect(tbl).To(Equal("roic_gspc"))
	})

	It("rejects tickers that cannot form an identifier", func() {
		_, err := data.HistoryTable("..")
		Expect(err).To(MatchError(data.ErrInvalidInput))

		_, err = data.HistoryTable("A B")
		Expect(err).To(MatchError(data.ErrInvalidInput))

		_, err = data.FundamentalsTable("X;DROP")
		Expect(err).To(MatchError(data.ErrInvalidInput))
	})

	It("normalizes tickers for lookup", func() {
		Expect(data.NormalizeTicker(" brk.b ")).To(Equal("BRK.B"))
	})
})
