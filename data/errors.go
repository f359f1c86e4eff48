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

import "errors"

var (
	// ErrDataUnavailable is returned when neither the store nor an external provider could
	// supply the requested observations
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrUpstreamFetch wraps network failures and non-success HTTP responses from providers
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrPersistence is returned when writing to the store fails
	ErrPersistence = errors.New("persistence failed")

	// ErrInvalidInput marks malformed tickers, dates, years, or metric names
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoData is returned by providers that answered successfully but had no rows
	ErrNoData = errors.New("provider returned no data")

	ErrUnknownMetric = errors.New("unknown metric")
)
