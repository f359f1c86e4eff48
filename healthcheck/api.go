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
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const DefaultPingURL = "https://hc-ping.com"

var (
	ErrStatus = errors.New("status code is invalid")
)

// Client signals the outcome of scheduled jobs to healthchecks.io
type Client struct {
	pingURL string
	client  *resty.Client
}

// New creates a client that pings checks under pingURL. An empty pingURL uses hc-ping.com.
func New(pingURL string) *Client {
	if pingURL == "" {
		pingURL = DefaultPingURL
	}

	return &Client{
		pingURL: strings.TrimRight(pingURL, "/"),
		client:  resty.New(),
	}
}

// Start tells healthchecks.io that the job has begun so its run time is measured
func (hc *Client) Start(ctx context.Context, id string) error {
	return hc.ping(ctx, id, "/start", "")
}

// Success reports a successful run; msg is stored as the ping body
func (hc *Client) Success(ctx context.Context, id string, msg string) error {
	return hc.ping(ctx, id, "", msg)
}

// Fail reports a failed run; msg is stored as the ping body
func (hc *Client) Fail(ctx context.Context, id string, msg string) error {
	return hc.ping(ctx, id, "/fail", msg)
}

func (hc *Client) ping(ctx context.Context, id, suffix, msg string) error {
	if id == "" {
		return nil
	}

	resp, err := hc.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(msg).
		Post(fmt.Sprintf("%s/%s%s", hc.pingURL, id, suffix))
	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
