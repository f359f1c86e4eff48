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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvchart/data"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Library struct {
	DBUrl string
	Name  string
	Owner string

	Pool *pgxpool.Pool
}

// Connect to the database configured for the library
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil {
		return nil
	}

	pool, err := pgxpool.New(ctx, myLibrary.DBUrl)
	if err != nil {
		return err
	}
	myLibrary.Pool = pool

	return nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	if myLibrary.Pool != nil {
		myLibrary.Pool.Close()
	}
}

// NewFromDB creates a new library object with values from the database
func NewFromDB(ctx context.Context, dbURL string) (*Library, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer conn.Release()

	myLibrary := Library{
		DBUrl: dbURL,
		Pool:  pool,
	}

	if err := conn.QueryRow(ctx, "SELECT name, owner FROM library LIMIT 1").Scan(&myLibrary.Name, &myLibrary.Owner); err != nil {
		pool.Close()
		return nil, err
	}

	return &myLibrary, nil
}

// SaveDB creates a new record in the library table for this library
func (myLibrary *Library) SaveDB(ctx context.Context) error {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `INSERT INTO library ("name", "owner") VALUES ($1, $2)`, myLibrary.Name, myLibrary.Owner)
	return err
}

// Ping checks that a database connection can be established
func (myLibrary *Library) Ping(ctx context.Context) error {
	return myLibrary.Pool.Ping(ctx)
}

// TableExists reports whether tableName is present in the current schema
func (myLibrary *Library) TableExists(ctx context.Context, tableName string) (bool, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, `SELECT EXISTS (
	SELECT 1 FROM information_schema.tables
	WHERE table_schema = current_schema() AND table_name = $1)`, tableName).Scan(&exists)
	return exists, err
}

// Columns returns the column names of tableName in ordinal order
func (myLibrary *Library) Columns(ctx context.Context, tableName string) ([]string, error) {
	var columns []string
	err := pgxscan.Select(ctx, myLibrary.Pool, &columns, `SELECT column_name FROM information_schema.columns
	WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position`, tableName)
	return columns, err
}

// DateRange returns the first and last event_date stored in a history table. Either value is
// nil when the table holds no rows.
func (myLibrary *Library) DateRange(ctx context.Context, tableName string) (*time.Time, *time.Time, error) {
	if !data.ValidIdentifier(tableName) {
		return nil, nil, fmt.Errorf("%w: table name %q", data.ErrInvalidInput, tableName)
	}

	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Release()

	var minDate, maxDate *time.Time
	err = conn.QueryRow(ctx, fmt.Sprintf("SELECT MIN(event_date), MAX(event_date) FROM %s", tableName)).Scan(&minDate, &maxDate)
	if err != nil {
		return nil, nil, err
	}

	return minDate, maxDate, nil
}

// Bars returns the bars stored in tableName with an event_date in [start, end]
func (myLibrary *Library) Bars(ctx context.Context, tableName string, start, end time.Time) ([]*data.Bar, error) {
	if !data.ValidIdentifier(tableName) {
		return nil, fmt.Errorf("%w: table name %q", data.ErrInvalidInput, tableName)
	}

	bars := make([]*data.Bar, 0, 256)
	err := pgxscan.Select(ctx, myLibrary.Pool, &bars, fmt.Sprintf(`SELECT event_date, open, high, low, close,
	adj_close, volume, dividend, split_factor FROM %s WHERE event_date BETWEEN $1 AND $2 ORDER BY event_date`,
		tableName), data.Day(start), data.Day(end))
	if err != nil {
		return nil, err
	}

	for _, bar := range bars {
		bar.Date = data.Day(bar.Date)
	}

	return bars, nil
}

// MetricValues returns the values of column for fiscal years in [startYear, endYear]. Every
// stored fiscal year in the range is returned even when its value is NULL.
func (myLibrary *Library) MetricValues(ctx context.Context, tableName, column string, startYear, endYear int) ([]*data.MetricPoint, error) {
	if !data.ValidIdentifier(tableName) || !data.ValidIdentifier(column) {
		return nil, fmt.Errorf("%w: table %q column %q", data.ErrInvalidInput, tableName, column)
	}

	points := make([]*data.MetricPoint, 0, endYear-startYear+1)
	err := pgxscan.Select(ctx, myLibrary.Pool, &points, fmt.Sprintf(`SELECT fiscal_year, %[2]s AS value FROM %[1]s
	WHERE fiscal_year BETWEEN $1 AND $2 ORDER BY fiscal_year`, tableName, column), startYear, endYear)
	return points, err
}

// ReplaceBars drops and recreates tableName with the given bars and records the refresh. The
// whole replacement happens in one transaction; readers see either the old or the new table.
func (myLibrary *Library) ReplaceBars(ctx context.Context, ticker, tableName string, bars []*data.Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: refusing to replace %s with an empty history", data.ErrPersistence, tableName)
	}

	rows := make([][]any, len(bars))
	for idx, bar := range bars {
		rows[idx] = bar.CopyRow()
	}

	record := &RefreshRecord{
		Ticker:    ticker,
		TableName: tableName,
		Kind:      data.HistoryKey,
		NumRows:   int64(len(bars)),
		FirstKey:  bars[0].Date.Format(data.DateLayout),
		LastKey:   bars[len(bars)-1].Date.Format(data.DateLayout),
	}

	return myLibrary.replaceTable(ctx, data.DataTypes[data.HistoryKey], tableName, nil, data.HistoryColumns, rows, record)
}

// ReplaceFundamentals drops and recreates tableName with one column per metric field in
// fundamentals
func (myLibrary *Library) ReplaceFundamentals(ctx context.Context, ticker, tableName string, fundamentals *data.FundamentalTable) error {
	if fundamentals == nil || fundamentals.Len() == 0 {
		return fmt.Errorf("%w: refusing to replace %s with empty fundamentals", data.ErrPersistence, tableName)
	}

	for _, col := range fundamentals.Columns {
		if !data.ValidIdentifier(col) {
			return fmt.Errorf("%w: column %q", data.ErrInvalidInput, col)
		}
	}

	years := fundamentals.Years()
	record := &RefreshRecord{
		Ticker:    ticker,
		TableName: tableName,
		Kind:      data.FundamentalsKey,
		NumRows:   int64(len(years)),
		FirstKey:  fmt.Sprintf("%d", years[0]),
		LastKey:   fmt.Sprintf("%d", years[len(years)-1]),
	}

	return myLibrary.replaceTable(ctx, data.DataTypes[data.FundamentalsKey], tableName, fundamentals.Columns,
		fundamentals.ColumnNames(), fundamentals.CopyRows(), record)
}

func (myLibrary *Library) replaceTable(ctx context.Context, dataType *data.DataType, tableName string,
	extraColumns, copyColumns []string, rows [][]any, record *RefreshRecord) error {
	if !data.ValidIdentifier(tableName) {
		return fmt.Errorf("%w: table name %q", data.ErrInvalidInput, tableName)
	}

	logger := zerolog.Ctx(ctx).With().Str("Table", tableName).Int("NumRows", len(rows)).Logger()

	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", data.ErrPersistence, err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", data.ErrPersistence, err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			if !errors.Is(err, pgx.ErrTxClosed) {
				log.Error().Err(err).Msg("error rollingback tx")
			}
		}
	}()

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)); err != nil {
		logger.Error().Err(err).Msg("could not drop table")
		return fmt.Errorf("%w: %w", data.ErrPersistence, err)
	}

	if _, err := tx.Exec(ctx, dataType.ExpandedSchema(tableName, extraColumns...)); err != nil {
		logger.Error().Err(err).Msg("could not create table")
		return fmt.Errorf("%w: %w", data.ErrPersistence, err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{tableName}, copyColumns, pgx.CopyFromRows(rows)); err != nil {
		logger.Error().Err(err).Msg("could not copy rows into table")
		return fmt.Errorf("%w: %w", data.ErrPersistence, err)
	}

	if err := record.save(ctx, tx); err != nil {
		logger.Error().Err(err).Msg("could not save refresh record")
		return fmt.Errorf("%w: %w", data.ErrPersistence, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", data.ErrPersistence, err)
	}

	logger.Info().Msg("replaced table")

	return nil
}
