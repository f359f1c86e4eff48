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
	"fmt"
	"math"

	"github.com/penny-vault/pvchart/data"
	"github.com/rs/zerolog/log"
)

// CalculateReturns converts bars into simple close-to-close returns. The first return is 0, as
// is any return whose previous close is zero.
func CalculateReturns(bars []*data.Bar) (data.ReturnsSeries, error) {
	returns := make(data.ReturnsSeries, 0, len(bars))

	for idx, bar := range bars {
		if bar == nil || math.IsNaN(bar.Close) {
			return nil, fmt.Errorf("%w: bar %d has no close price", data.ErrInvalidInput, idx)
		}

		if idx == 0 {
			returns = append(returns, &data.ReturnPoint{Date: bar.Date, Return: 0})
			continue
		}

		prev := bars[idx-1].Close
		if prev == 0 {
			log.Warn().Str("Date", bar.Date.Format(data.DateLayout)).
				Str("PrevDate", bars[idx-1].Date.Format(data.DateLayout)).
				Msg("previous close is zero, return is undefined")
			returns = append(returns, &data.ReturnPoint{Date: bar.Date, Return: 0})
			continue
		}

		returns = append(returns, &data.ReturnPoint{
			Date:   bar.Date,
			Return: (bar.Close - prev) / prev,
		})
	}

	return returns, nil
}
