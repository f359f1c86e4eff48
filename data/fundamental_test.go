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

func ptr(val float64) *float64 {
	return &val
}

var _ = Describe("FundamentalTable", func() {
	It("joins columns on fiscal year and keeps the first column seen", func() {
		table := data.NewFundamentalTable()
		Expect(table.Merge("revenue", map[int]*float64{2021: ptr(10), 2022: ptr(12)})).To(BeTrue())
		Expect(table.Merge("net_income", map[int]*float64{2022: ptr(2), 2023: nil})).To(BeTrue())
		Expect(table.Merge("revenue", map[int]*float64{2021: ptr(99)})).To(BeFalse())

		Expect(table.Columns).To(Equal([]string{"revenue", "net_income"}))
		Expect(table.Years()).To(Equal([]int{2021, 2022, 2023}))

		val, ok := table.Value(2021, "revenue")
		Expect(ok).To(BeTrue())
		Expect(*val).To(Equal(10.0))

		val, ok = table.Value(2021, "net_income")
		Expect(ok).To(BeTrue())
		Expect(val).To(BeNil())

		_, ok = table.Value(2019, "revenue")
		Expect(ok).To(BeFalse())
	})

	It("produces copy rows with fiscal year first", func() {
		table := data.NewFundamentalTable()
		table.Merge("revenue", map[int]*float64{2022: ptr(12), 2021: ptr(10)})

		Expect(table.ColumnNames()).To(Equal([]string{"fiscal_year", "revenue"}))

		rows := table.CopyRows()
		Expect(rows).To(HaveLen(2))
		Expect(rows[0][0]).To(Equal(int32(2021)))
		Expect(*(rows[0][1].(*float64))).To(Equal(10.0))
		Expect(rows[1][0]).To(Equal(int32(2022)))
	})
})
