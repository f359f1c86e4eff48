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
package service

import (
	"math"

	"github.com/penny-vault/pvchart/data"
)

// CAGR returns the compound annual growth rate of series in percent, treating each point as
// one period. It is nil unless the first and last values are both positive and there are at
// least two points.
func CAGR(series *data.MetricSeries) *float64 {
	if series == nil {
		return nil
	}

	numPeriods := len(series.Points) - 1
	if numPeriods <= 0 {
		return nil
	}

	first := series.Points[0].Value
	last := series.Points[numPeriods].Value
	if first == nil || last == nil || *first <= 0 || *last <= 0 {
		return nil
	}

	growth := (math.Pow(*last / *first, 1/float64(numPeriods)) - 1) * 100
	if math.IsNaN(growth) || math.IsInf(growth, 0) {
		return nil
	}

	return &growth
}
