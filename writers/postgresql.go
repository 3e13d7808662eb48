//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of SalesRank.
//
// SalesRank is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SalesRank is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with SalesRank. If not, see https://www.gnu.org/licenses/.

package writers

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/aaronlmathis/salesrank/core"
)

// PostgresWriterError wraps PostgreSQL-specific write errors with context about the operation.
type PostgresWriterError struct {
	Op  string // The operation being performed (e.g., "write", "connect")
	Err error  // The underlying error
}

// Error returns the error string for PostgresWriterError.
func (e *PostgresWriterError) Error() string {
	return fmt.Sprintf("postgres writer %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for PostgresWriterError.
func (e *PostgresWriterError) Unwrap() error {
	return e.Err
}

// PostgresWriterStats holds PostgreSQL write performance statistics.
type PostgresWriterStats struct {
	RecordsWritten   int64
	BatchesWritten   int64
	TransactionCount int64
	LastWriteTime    time.Time
	WriteDuration    time.Duration
	ConnectionTime   time.Duration
	NullValueCounts  map[string]int64
	ConflictCount    int64 // Rows skipped by ON CONFLICT DO NOTHING
}

// ConflictResolution defines how to handle INSERT conflicts in PostgreSQL.
type ConflictResolution int

const (
	// ConflictError returns an error on conflict (default PostgreSQL behavior).
	ConflictError ConflictResolution = iota
	// ConflictIgnore ignores conflicting rows (ON CONFLICT DO NOTHING).
	ConflictIgnore
	// ConflictUpdate updates conflicting rows (ON CONFLICT DO UPDATE).
	ConflictUpdate
)

// PostgresWriterOptions configures the PostgreSQL writer.
type PostgresWriterOptions struct {
	DSN                string
	DB                 *sql.DB           // Existing handle; DSN is ignored when set
	TableName          string            // Target table, optionally schema-qualified
	Columns            []string          // Columns to write (order matters)
	ColumnTypes        map[string]string // SQL types for CREATE TABLE; inferred when missing
	PrimaryKey         []string          // Primary key for CREATE TABLE
	BatchSize          int
	CreateTable        bool
	TruncateTable      bool
	ConflictResolution ConflictResolution
	ConflictColumns    []string
	UpdateColumns      []string
	TransactionMode    bool
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	MaxOpenConns       int
	MaxIdleConns       int
	QueryTimeout       time.Duration
}

// PostgresWriterOption represents a configuration function for PostgresWriterOptions.
type PostgresWriterOption func(*PostgresWriterOptions)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.DSN = dsn
	}
}

// WithPostgresDB reuses an open database handle. The writer does not close it.
func WithPostgresDB(db *sql.DB) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.DB = db
	}
}

// WithTableName sets the target table name.
func WithTableName(tableName string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.TableName = tableName
	}
}

// WithColumns sets the columns to write.
func WithColumns(columns []string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.Columns = slices.Clone(columns)
	}
}

// WithColumnTypes sets explicit SQL types used by CREATE TABLE.
func WithColumnTypes(types map[string]string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.ColumnTypes = make(map[string]string, len(types))
		for k, v := range types {
			opts.ColumnTypes[k] = v
		}
	}
}

// WithPrimaryKey sets the primary key columns used by CREATE TABLE.
func WithPrimaryKey(columns ...string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.PrimaryKey = slices.Clone(columns)
	}
}

// WithPostgresBatchSize sets the batch size for writes.
func WithPostgresBatchSize(size int) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.BatchSize = size
	}
}

// WithCreateTable enables or disables table creation.
func WithCreateTable(create bool) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.CreateTable = create
	}
}

// WithTruncateTable enables or disables table truncation before writing.
func WithTruncateTable(truncate bool) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.TruncateTable = truncate
	}
}

// WithConflictResolution sets the conflict resolution strategy and columns.
func WithConflictResolution(resolution ConflictResolution, conflictCols, updateCols []string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.ConflictResolution = resolution
		opts.ConflictColumns = slices.Clone(conflictCols)
		opts.UpdateColumns = slices.Clone(updateCols)
	}
}

// WithTransactionMode enables or disables transaction wrapping for batches.
func WithTransactionMode(enabled bool) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.TransactionMode = enabled
	}
}

// WithPostgresConnectionPool configures the connection pool.
func WithPostgresConnectionPool(maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
		opts.ConnMaxLifetime = maxLifetime
		opts.ConnMaxIdleTime = maxIdleTime
	}
}

// WithPostgresQueryTimeout sets the query timeout.
func WithPostgresQueryTimeout(timeout time.Duration) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.QueryTimeout = timeout
	}
}

// PostgresWriter implements core.DataSink for PostgreSQL output.
type PostgresWriter struct {
	db          *sql.DB
	ownsDB      bool
	options     PostgresWriterOptions
	columns     []string
	recordBuf   []core.Record
	stats       PostgresWriterStats
	prepared    *sql.Stmt
	initialized bool
	errorState  bool
	closed      bool
	mu          sync.Mutex
}

// NewPostgresWriter validates the options and connects to the database.
func NewPostgresWriter(opts ...PostgresWriterOption) (*PostgresWriter, error) {
	options := PostgresWriterOptions{
		BatchSize:       1000,
		QueryTimeout:    30 * time.Second,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if err := validateOptions(&options); err != nil {
		return nil, &PostgresWriterError{Op: "validate", Err: err}
	}

	writer := &PostgresWriter{
		options:   options,
		columns:   slices.Clone(options.Columns),
		recordBuf: make([]core.Record, 0, options.BatchSize),
		stats:     PostgresWriterStats{NullValueCounts: make(map[string]int64)},
	}

	if options.DB != nil {
		writer.db = options.DB
		return writer, nil
	}

	if err := writer.connect(); err != nil {
		return nil, &PostgresWriterError{Op: "connect", Err: err}
	}
	writer.ownsDB = true
	return writer, nil
}

// Stats returns a copy of the current write statistics.
func (w *PostgresWriter) Stats() PostgresWriterStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	statsCopy := w.stats
	statsCopy.NullValueCounts = make(map[string]int64, len(w.stats.NullValueCounts))
	for k, v := range w.stats.NullValueCounts {
		statsCopy.NullValueCounts[k] = v
	}
	return statsCopy
}

// Write implements the core.DataSink interface.
func (w *PostgresWriter) Write(ctx context.Context, record core.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.errorState {
		return &PostgresWriterError{Op: "write", Err: fmt.Errorf("writer is in error state")}
	}
	if w.closed {
		return &PostgresWriterError{Op: "write", Err: fmt.Errorf("writer is closed")}
	}

	if !w.initialized {
		if err := w.initializeUnsafe(ctx, record); err != nil {
			w.errorState = true
			return &PostgresWriterError{Op: "initialize", Err: err}
		}
	}

	for k, v := range record {
		if v == nil {
			w.stats.NullValueCounts[k]++
		}
	}

	w.recordBuf = append(w.recordBuf, record)
	w.stats.RecordsWritten++

	if len(w.recordBuf) >= w.options.BatchSize {
		if err := w.flushBufferUnsafe(ctx); err != nil {
			w.errorState = true
			return &PostgresWriterError{Op: "flush_batch", Err: err}
		}
	}
	return nil
}

// Flush implements the core.DataSink interface.
func (w *PostgresWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), w.options.QueryTimeout)
	defer cancel()

	if err := w.flushBufferUnsafe(ctx); err != nil {
		w.errorState = true
		return &PostgresWriterError{Op: "flush", Err: err}
	}
	return nil
}

// Close flushes pending rows and releases the statement and connection pool.
// With configured columns and no rows, the table is still created.
func (w *PostgresWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), w.options.QueryTimeout)
	defer cancel()

	var firstErr error
	if !w.errorState {
		if !w.initialized && len(w.columns) > 0 && w.options.CreateTable {
			if err := w.createTableUnsafe(ctx, nil); err != nil {
				firstErr = &PostgresWriterError{Op: "create_table", Err: err}
			}
		}
		if err := w.flushBufferUnsafe(ctx); err != nil && firstErr == nil {
			firstErr = &PostgresWriterError{Op: "flush", Err: err}
		}
	}

	if w.prepared != nil {
		w.prepared.Close()
		w.prepared = nil
	}
	if w.db != nil && w.ownsDB {
		if err := w.db.Close(); err != nil && firstErr == nil {
			firstErr = &PostgresWriterError{Op: "close", Err: err}
		}
	}
	w.db = nil
	return firstErr
}

// validateOptions validates the PostgreSQL writer options.
func validateOptions(opts *PostgresWriterOptions) error {
	if opts.DSN == "" && opts.DB == nil {
		return fmt.Errorf("dsn is required")
	}
	if opts.TableName == "" {
		return fmt.Errorf("table name is required")
	}
	if opts.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if opts.ConflictResolution == ConflictUpdate && len(opts.UpdateColumns) == 0 {
		return fmt.Errorf("update columns required for conflict update resolution")
	}
	if opts.ConflictResolution != ConflictError && len(opts.ConflictColumns) == 0 {
		return fmt.Errorf("conflict columns required for conflict resolution")
	}
	return nil
}

// connect establishes the database connection and configures the connection pool.
func (w *PostgresWriter) connect() error {
	start := time.Now()

	connector, err := pq.NewConnector(w.options.DSN)
	if err != nil {
		return fmt.Errorf("invalid dsn: %w", err)
	}
	db := sql.OpenDB(connector)

	db.SetMaxOpenConns(w.options.MaxOpenConns)
	db.SetMaxIdleConns(w.options.MaxIdleConns)
	db.SetConnMaxLifetime(w.options.ConnMaxLifetime)
	db.SetConnMaxIdleTime(w.options.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), w.options.QueryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	w.db = db
	w.stats.ConnectionTime = time.Since(start)
	return nil
}

// initializeUnsafe performs one-time initialization (must hold mutex).
func (w *PostgresWriter) initializeUnsafe(ctx context.Context, firstRecord core.Record) error {
	if len(w.columns) == 0 {
		for key := range firstRecord {
			w.columns = append(w.columns, key)
		}
		slices.Sort(w.columns)
	}

	if w.options.CreateTable {
		if err := w.createTableUnsafe(ctx, firstRecord); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	if w.options.TruncateTable {
		query := "TRUNCATE TABLE " + quoteTable(w.options.TableName)
		if _, err := w.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to truncate table: %w", err)
		}
	}

	query := buildInsertQuery(w.options, w.columns)
	stmt, err := w.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	w.prepared = stmt
	w.initialized = true
	return nil
}

func (w *PostgresWriter) createTableUnsafe(ctx context.Context, record core.Record) error {
	_, err := w.db.ExecContext(ctx, buildCreateTableQuery(w.options, w.columns, record))
	return err
}

// flushBufferUnsafe writes buffered records to PostgreSQL (must hold mutex).
func (w *PostgresWriter) flushBufferUnsafe(ctx context.Context) (err error) {
	if len(w.recordBuf) == 0 {
		return nil
	}
	start := time.Now()

	var tx *sql.Tx
	stmt := w.prepared
	if w.options.TransactionMode {
		tx, err = w.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
			}
		}()
		stmt = tx.StmtContext(ctx, w.prepared)
		defer stmt.Close()
	}

	for _, record := range w.recordBuf {
		values := make([]interface{}, len(w.columns))
		for i, col := range w.columns {
			values[i] = convertSQLValue(record[col])
		}

		result, execErr := stmt.ExecContext(ctx, values...)
		if execErr != nil {
			err = fmt.Errorf("failed to execute insert: %w", execErr)
			return err
		}
		if rows, raErr := result.RowsAffected(); raErr == nil && rows == 0 {
			w.stats.ConflictCount++
		}
	}

	if tx != nil {
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		w.stats.TransactionCount++
	}

	w.stats.BatchesWritten++
	w.stats.LastWriteTime = time.Now()
	w.stats.WriteDuration += time.Since(start)
	w.recordBuf = w.recordBuf[:0]
	return nil
}

// buildCreateTableQuery renders CREATE TABLE IF NOT EXISTS. Column types come
// from the options first, then from the sample record, then default to TEXT.
func buildCreateTableQuery(opts PostgresWriterOptions, columns []string, sample core.Record) string {
	defs := make([]string, 0, len(columns)+1)
	for _, col := range columns {
		sqlType, ok := opts.ColumnTypes[col]
		if !ok {
			sqlType = inferSQLType(sample[col])
		}
		defs = append(defs, pq.QuoteIdentifier(col)+" "+sqlType)
	}
	if len(opts.PrimaryKey) > 0 {
		defs = append(defs, "PRIMARY KEY ("+quoteList(opts.PrimaryKey)+")")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteTable(opts.TableName), strings.Join(defs, ", "))
}

// buildInsertQuery renders the INSERT statement for the configured conflict handling.
func buildInsertQuery(opts PostgresWriterOptions, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteTable(opts.TableName), quoteList(columns), strings.Join(placeholders, ", "))

	switch opts.ConflictResolution {
	case ConflictIgnore:
		query += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", quoteList(opts.ConflictColumns))
	case ConflictUpdate:
		updates := make([]string, len(opts.UpdateColumns))
		for i, col := range opts.UpdateColumns {
			q := pq.QuoteIdentifier(col)
			updates[i] = q + " = EXCLUDED." + q
		}
		query += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
			quoteList(opts.ConflictColumns), strings.Join(updates, ", "))
	}
	return query
}

// quoteTable quotes each dot-separated part of a possibly schema-qualified name.
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func quoteList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

// inferSQLType infers PostgreSQL column type from Go value.
func inferSQLType(value interface{}) string {
	switch value.(type) {
	case bool:
		return "BOOLEAN"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "BIGINT"
	case float32, float64:
		return "DOUBLE PRECISION"
	case time.Time:
		return "TIMESTAMPTZ"
	case []byte:
		return "BYTEA"
	default:
		return "TEXT"
	}
}

// convertSQLValue narrows Go values to the types database/sql drivers accept.
func convertSQLValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil, time.Time, bool, int64, float64, string, []byte:
		return v
	case float32:
		return float64(v)
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
