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
package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/penny-vault/pvchart/data"
	"github.com/rs/zerolog/log"
)

// RefreshRecord describes the last full replace of a cached table
type RefreshRecord struct {
	ID          uuid.UUID
	Ticker      string
	TableName   string
	Kind        string
	NumRows     int64
	FirstKey    string
	LastKey     string
	RefreshedAt time.Time
}

func (record *RefreshRecord) save(ctx context.Context, tx pgx.Tx) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.RefreshedAt.IsZero() {
		record.RefreshedAt = time.Now()
	}

	_, err := tx.Exec(ctx, `INSERT INTO refresh_log (id, ticker, table_name, kind, num_rows, first_key, last_key, refreshed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT ON CONSTRAINT refresh_log_pkey DO UPDATE SET
	id = EXCLUDED.id,
	ticker = EXCLUDED.ticker,
	kind = EXCLUDED.kind,
	num_rows = EXCLUDED.num_rows,
	first_key = EXCLUDED.first_key,
	last_key = EXCLUDED.last_key,
	refreshed_at = EXCLUDED.refreshed_at`,
		record.ID, record.Ticker, record.TableName, record.Kind, record.NumRows, record.FirstKey, record.LastKey,
		record.RefreshedAt)
	return err
}

// RefreshLog returns every refresh record ordered by ticker and kind
func (myLibrary *Library) RefreshLog(ctx context.Context) ([]*RefreshRecord, error) {
	var records []*RefreshRecord
	err := pgxscan.Select(ctx, myLibrary.Pool, &records, `SELECT id, ticker, table_name, kind, num_rows,
first_key, last_key, refreshed_at FROM refresh_log ORDER BY ticker, kind`)
	return records, err
}

// RefreshRecords returns the refresh records for a single ticker
func (myLibrary *Library) RefreshRecords(ctx context.Context, ticker string) ([]*RefreshRecord, error) {
	var records []*RefreshRecord
	err := pgxscan.Select(ctx, myLibrary.Pool, &records, `SELECT id, ticker, table_name, kind, num_rows,
first_key, last_key, refreshed_at FROM refresh_log WHERE ticker = $1 ORDER BY kind`, data.NormalizeTicker(ticker))
	return records, err
}

// Purge drops the cached history and fundamentals tables for ticker along with their refresh
// records. The next request for the ticker refetches everything.
func (myLibrary *Library) Purge(ctx context.Context, ticker string) error {
	historyTable, err := data.HistoryTable(ticker)
	if err != nil {
		return err
	}

	fundamentalsTable, err := data.FundamentalsTable(ticker)
	if err != nil {
		return err
	}

	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			if !errors.Is(err, pgx.ErrTxClosed) {
				log.Error().Err(err).Msg("error rollingback tx")
			}
		}
	}()

	tables := []string{historyTable, fundamentalsTable}
	for _, tblName := range tables {
		log.Info().Str("TableName", tblName).Msg("delete table")
		if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", tblName)); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM refresh_log WHERE table_name = ANY($1)", tables); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// NumTables returns the number of cached tables of the given kind
func (myLibrary *Library) NumTables(ctx context.Context, kind string) (int, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	count := 0
	err = conn.QueryRow(ctx, "SELECT count(*) FROM refresh_log WHERE kind = $1", kind).Scan(&count)
	return count, err
}

// TotalRecords returns the total number of rows across all cached tables
func (myLibrary *Library) TotalRecords(ctx context.Context) (int64, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var count int64
	err = conn.QueryRow(ctx, "SELECT coalesce(sum(num_rows), 0) FROM refresh_log").Scan(&count)
	return count, err
}

// LastUpdated returns the time of the most recent refresh
func (myLibrary *Library) LastUpdated(ctx context.Context) (time.Time, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return time.Time{}, err
	}
	defer conn.Release()

	var lastUpdated time.Time
	err = conn.QueryRow(ctx, "SELECT coalesce(max(refreshed_at), '0001-01-01'::timestamptz) FROM refresh_log").Scan(&lastUpdated)
	if err != nil {
		return time.Time{}, err
	}

	return lastUpdated, nil
}
