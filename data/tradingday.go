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
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const DateLayout = "2006-01-02"

// Day strips the time of day and location from t, returning midnight UTC of the same calendar
// date
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LatestTradingDay returns the most recent weekday on or before now. Saturdays and Sundays roll
// back to the preceding Friday. Exchange holidays are not considered.
func LatestTradingDay(now time.Time) time.Time {
	day := Day(now)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(dateStr string) (time.Time, error) {
	dt, err := time.Parse(DateLayout, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not in YYYY-MM-DD format", ErrInvalidInput, dateStr)
	}
	return dt, nil
}

// ParseDateOrNow parses dateStr and silently falls back to the calendar day of now when the
// string is empty or malformed
func ParseDateOrNow(dateStr string, now time.Time) time.Time {
	if strings.TrimSpace(dateStr) == "" {
		return Day(now)
	}

	dt, err := ParseDate(dateStr)
	if err != nil {
		log.Warn().Str("DateStr", dateStr).Msg("invalid date format, using current date")
		return Day(now)
	}

	return dt
}

// ParseYear parses a fiscal year given as a 4-digit string
func ParseYear(yearStr string) (int, error) {
	yearStr = strings.TrimSpace(yearStr)
	year, err := strconv.Atoi(yearStr)
	if err != nil || len(yearStr) != 4 || year < 1000 {
		return 0, fmt.Errorf("%w: year %q must be a 4-digit number", ErrInvalidInput, yearStr)
	}
	return year, nil
}
