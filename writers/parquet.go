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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/salesrank/core"
)

// ParquetWriterError wraps Parquet-specific write errors with context about the operation.
type ParquetWriterError struct {
	Op  string // Operation that failed (e.g., "schema", "write_batch", "close_writer")
	Err error  // Underlying error
}

// Error returns the error string for ParquetWriterError.
func (e *ParquetWriterError) Error() string {
	return fmt.Sprintf("parquet writer %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for ParquetWriterError.
func (e *ParquetWriterError) Unwrap() error {
	return e.Err
}

// ParquetWriterOptions configures the Parquet writer.
type ParquetWriterOptions struct {
	BatchSize    int64                // Number of records to buffer before writing
	Schema       *arrow.Schema        // Pre-defined schema; inferred from the first record when nil
	Compression  compress.Compression // Compression algorithm
	FieldOrder   []string             // Explicit field ordering for inferred schemas
	RowGroupSize int64                // Maximum rows per row group
	Metadata     map[string]string    // Key/value metadata stored in the Arrow schema
}

// ParquetWriterStats holds statistics about the Parquet writer's performance.
type ParquetWriterStats struct {
	RecordsWritten  int64
	BatchesWritten  int64
	FlushDuration   time.Duration
	LastFlushTime   time.Time
	NullValueCounts map[string]int64
}

// WriterOption represents a configuration function for ParquetWriterOptions.
type WriterOption func(*ParquetWriterOptions)

// WithBatchSize sets the number of records to buffer before writing a batch.
func WithBatchSize(size int64) WriterOption {
	return func(opts *ParquetWriterOptions) {
		opts.BatchSize = size
	}
}

// WithCompression sets the Parquet compression algorithm.
func WithCompression(compression compress.Compression) WriterOption {
	return func(opts *ParquetWriterOptions) {
		opts.Compression = compression
	}
}

// WithFieldOrder sets the column order used when the schema is inferred.
func WithFieldOrder(fields []string) WriterOption {
	return func(opts *ParquetWriterOptions) {
		opts.FieldOrder = slices.Clone(fields)
	}
}

// WithSchema fixes the schema up front, so an empty result still yields a readable file.
func WithSchema(schema *arrow.Schema) WriterOption {
	return func(opts *ParquetWriterOptions) {
		opts.Schema = schema
	}
}

// WithRowGroupSize sets the row group size for the Parquet file.
func WithRowGroupSize(size int64) WriterOption {
	return func(opts *ParquetWriterOptions) {
		opts.RowGroupSize = size
	}
}

// WithMetadata sets user metadata for the Parquet file.
func WithMetadata(metadata map[string]string) WriterOption {
	return func(opts *ParquetWriterOptions) {
		if opts.Metadata == nil {
			opts.Metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			opts.Metadata[k] = v
		}
	}
}

// ParquetWriter implements core.DataSink for Parquet output.
type ParquetWriter struct {
	sink         io.WriteCloser
	writer       *pqarrow.FileWriter
	schema       *arrow.Schema
	builder      *array.RecordBuilder
	recordBuffer []core.Record
	opts         ParquetWriterOptions
	stats        ParquetWriterStats
	allocator    memory.Allocator
	closed       bool
	errorState   bool
	mu           sync.Mutex
}

// NewParquetWriter creates a new Parquet writer for a file, creating parent directories as needed.
func NewParquetWriter(filename string, options ...WriterOption) (*ParquetWriter, error) {
	dir := filepath.Dir(filename)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &ParquetWriterError{
				Op:  "create_directory",
				Err: fmt.Errorf("failed to create directory %s: %w", dir, err),
			}
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, &ParquetWriterError{
			Op:  "open_file",
			Err: fmt.Errorf("failed to create parquet file %s: %w", filename, err),
		}
	}

	writer, err := NewParquetStreamWriter(file, options...)
	if err != nil {
		file.Close()
		return nil, err
	}
	return writer, nil
}

// NewParquetStreamWriter writes Parquet to w. Closing the writer closes w.
func NewParquetStreamWriter(w io.WriteCloser, options ...WriterOption) (*ParquetWriter, error) {
	opts := ParquetWriterOptions{
		BatchSize:    1000,
		RowGroupSize: 10000,
		Compression:  compress.Codecs.Snappy,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}

	p := &ParquetWriter{
		sink:         &closeOnce{WriteCloser: w},
		opts:         opts,
		recordBuffer: make([]core.Record, 0, opts.BatchSize),
		stats:        ParquetWriterStats{NullValueCounts: make(map[string]int64)},
		allocator:    memory.NewGoAllocator(),
	}

	if opts.Schema != nil {
		if err := p.openWriter(opts.Schema); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Stats returns the current statistics of the Parquet writer.
func (p *ParquetWriter) Stats() ParquetWriterStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := p.stats
	stats.NullValueCounts = make(map[string]int64, len(p.stats.NullValueCounts))
	for k, v := range p.stats.NullValueCounts {
		stats.NullValueCounts[k] = v
	}
	return stats
}

// Schema returns the Arrow schema, nil until the first record when inferred.
func (p *ParquetWriter) Schema() *arrow.Schema {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.schema
}

// Write implements the core.DataSink interface.
func (p *ParquetWriter) Write(ctx context.Context, record core.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return &ParquetWriterError{Op: "write", Err: fmt.Errorf("parquet writer is closed")}
	}
	if p.errorState {
		return &ParquetWriterError{Op: "write", Err: fmt.Errorf("writer is in error state")}
	}

	if p.schema == nil {
		schema, err := p.inferSchema(record)
		if err != nil {
			p.errorState = true
			return &ParquetWriterError{Op: "schema", Err: err}
		}
		if err := p.openWriter(schema); err != nil {
			p.errorState = true
			return err
		}
	}

	p.recordBuffer = append(p.recordBuffer, record)
	p.stats.RecordsWritten++

	if int64(len(p.recordBuffer)) >= p.opts.BatchSize {
		if err := p.flushBatch(); err != nil {
			p.errorState = true
			return err
		}
	}
	return nil
}

// Flush implements the core.DataSink interface.
func (p *ParquetWriter) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.flushBatch(); err != nil {
		p.errorState = true
		return err
	}
	return nil
}

// Close flushes remaining records, writes the footer and closes the sink.
func (p *ParquetWriter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var firstErr error
	if !p.errorState {
		if err := p.flushBatch(); err != nil {
			firstErr = err
		}
	}

	if p.builder != nil {
		p.builder.Release()
		p.builder = nil
	}

	if p.writer != nil {
		if err := p.writer.Close(); err != nil && firstErr == nil {
			firstErr = &ParquetWriterError{Op: "close_writer", Err: err}
		}
		p.writer = nil
	}
	if p.sink != nil {
		if err := p.sink.Close(); err != nil && firstErr == nil {
			firstErr = &ParquetWriterError{Op: "close_file", Err: err}
		}
		p.sink = nil
	}
	return firstErr
}

// closeOnce lets the file writer and ParquetWriter both close the sink.
type closeOnce struct {
	io.WriteCloser
	once sync.Once
	err  error
}

func (c *closeOnce) Close() error {
	c.once.Do(func() { c.err = c.WriteCloser.Close() })
	return c.err
}

func (p *ParquetWriter) openWriter(schema *arrow.Schema) error {
	if len(p.opts.Metadata) > 0 {
		md := arrow.MetadataFrom(p.opts.Metadata)
		schema = arrow.NewSchema(schema.Fields(), &md)
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(p.opts.Compression),
		parquet.WithMaxRowGroupLength(p.opts.RowGroupSize),
	)

	writer, err := pqarrow.NewFileWriter(schema, p.sink, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return &ParquetWriterError{
			Op:  "create_writer",
			Err: fmt.Errorf("failed to create parquet file writer: %w", err),
		}
	}

	p.schema = schema
	p.writer = writer
	p.builder = array.NewRecordBuilder(p.allocator, schema)
	return nil
}

// inferSchema creates an Arrow schema from the first record.
func (p *ParquetWriter) inferSchema(record core.Record) (*arrow.Schema, error) {
	names := p.opts.FieldOrder
	if len(names) == 0 {
		names = make([]string, 0, len(record))
		for name := range record {
			names = append(names, name)
		}
		slices.Sort(names)
	}

	fields := make([]arrow.Field, 0, len(names))
	for _, name := range names {
		dataType, err := inferArrowType(record[name])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields = append(fields, arrow.Field{Name: name, Type: dataType, Nullable: true})
	}
	return arrow.NewSchema(fields, nil), nil
}

// inferArrowType maps a Go value to an Arrow type. Missing values become strings.
func inferArrowType(value interface{}) (arrow.DataType, error) {
	switch value.(type) {
	case nil, string:
		return arrow.BinaryTypes.String, nil
	case bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return arrow.PrimitiveTypes.Int64, nil
	case float32, float64:
		return arrow.PrimitiveTypes.Float64, nil
	case time.Time:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	case []byte:
		return arrow.BinaryTypes.Binary, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}

// flushBatch writes the current buffer as one Arrow record batch.
func (p *ParquetWriter) flushBatch() error {
	if len(p.recordBuffer) == 0 {
		return nil
	}
	start := time.Now()

	for _, record := range p.recordBuffer {
		for i, field := range p.schema.Fields() {
			value, ok := record[field.Name]
			if !ok || value == nil {
				p.builder.Field(i).AppendNull()
				p.stats.NullValueCounts[field.Name]++
				continue
			}
			if err := appendValue(p.builder.Field(i), value); err != nil {
				return &ParquetWriterError{
					Op:  "append_value",
					Err: fmt.Errorf("field %s: %w", field.Name, err),
				}
			}
		}
	}

	batch := p.builder.NewRecord()
	defer batch.Release()

	if err := p.writer.Write(batch); err != nil {
		return &ParquetWriterError{
			Op:  "write_batch",
			Err: fmt.Errorf("failed to write record batch: %w", err),
		}
	}

	p.stats.BatchesWritten++
	p.stats.FlushDuration += time.Since(start)
	p.stats.LastFlushTime = time.Now()
	p.recordBuffer = p.recordBuffer[:0]
	return nil
}

// appendValue appends a value to the Arrow builder matching its column.
func appendValue(builder array.Builder, value interface{}) error {
	switch b := builder.(type) {
	case *array.BooleanBuilder:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		b.Append(v)
	case *array.Int64Builder:
		v, ok := asInt64(value)
		if !ok {
			return fmt.Errorf("expected integer, got %T", value)
		}
		b.Append(v)
	case *array.Float64Builder:
		v, ok := asFloat64(value)
		if !ok {
			return fmt.Errorf("expected number, got %T", value)
		}
		b.Append(v)
	case *array.StringBuilder:
		if v, ok := value.(string); ok {
			b.Append(v)
		} else {
			b.Append(fmt.Sprintf("%v", value))
		}
	case *array.BinaryBuilder:
		v, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("expected []byte, got %T", value)
		}
		b.Append(v)
	case *array.TimestampBuilder:
		v, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("expected time.Time, got %T", value)
		}
		b.Append(arrow.Timestamp(v.UnixMicro()))
	default:
		return fmt.Errorf("unsupported builder %T", builder)
	}
	return nil
}

func asInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	}
	return 0, false
}

func asFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	if i, ok := asInt64(value); ok {
		return float64(i), true
	}
	return 0, false
}
