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
	"time"

	"github.com/penny-vault/pvchart/data"
)

const LookbackQuarters = "quarters"

// AnalysisStartDate subtracts a lookback from endDate and returns the result as YYYY-MM-DD.
// lookbackType "quarters" subtracts 3 months per unit, any other type subtracts days. An empty
// or malformed endDate is replaced by the current date.
func (svc *DataService) AnalysisStartDate(endDate, lookbackType string, lookbackValue int) string {
	return AnalysisStartDate(endDate, lookbackType, lookbackValue, svc.now())
}

func AnalysisStartDate(endDate, lookbackType string, lookbackValue int, now time.Time) string {
	end := data.ParseDateOrNow(endDate, now)

	var start time.Time
	if lookbackType == LookbackQuarters {
		start = subtractMonths(end, 3*lookbackValue)
	} else {
		start = end.AddDate(0, 0, -lookbackValue)
	}

	return start.Format(data.DateLayout)
}

// subtractMonths moves back n calendar months, clamping the day to the end of the target month
// (May 31 minus 3 months is Feb 28 or 29)
func subtractMonths(dt time.Time, n int) time.Time {
	firstOfMonth := time.Date(dt.Year(), dt.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -n, 0)
	lastDay := firstOfMonth.AddDate(0, 1, -1).Day()

	day := dt.Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, 0, 0, 0, 0, time.UTC)
}
