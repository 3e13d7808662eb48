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
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/aaronlmathis/salesrank/core"
)

// CSVWriterError wraps CSV-specific write errors with context.
type CSVWriterError struct {
	Op  string
	Err error
}

func (e *CSVWriterError) Error() string {
	return fmt.Sprintf("csv writer %s: %v", e.Op, e.Err)
}

func (e *CSVWriterError) Unwrap() error {
	return e.Err
}

// CSVWriterStats holds CSV write performance statistics.
type CSVWriterStats struct {
	RecordsWritten  int64
	FlushCount      int64
	FlushDuration   time.Duration
	LastFlushTime   time.Time
	NullValueCounts map[string]int64
}

// CSVWriterOptions configures CSV output.
type CSVWriterOptions struct {
	Comma       rune
	UseCRLF     bool
	WriteHeader bool
	Headers     []string
	BatchSize   int
}

// WriterOptionCSV is a functional option.
type WriterOptionCSV func(*CSVWriterOptions)

// WithHeaders fixes the column order. Without it the sorted keys of the first record are used.
func WithHeaders(headers []string) WriterOptionCSV {
	return func(opts *CSVWriterOptions) {
		opts.Headers = slices.Clone(headers)
	}
}

func WithComma(delim rune) WriterOptionCSV {
	return func(opts *CSVWriterOptions) {
		opts.Comma = delim
	}
}

func WithWriteHeader(write bool) WriterOptionCSV {
	return func(opts *CSVWriterOptions) {
		opts.WriteHeader = write
	}
}

func WithCSVBatchSize(size int) WriterOptionCSV {
	return func(opts *CSVWriterOptions) {
		opts.BatchSize = size
	}
}

func WithUseCRLF(useCRLF bool) WriterOptionCSV {
	return func(opts *CSVWriterOptions) {
		opts.UseCRLF = useCRLF
	}
}

// CSVWriter implements core.DataSink for CSV output with stats and batching.
type CSVWriter struct {
	writer      *csv.Writer
	closer      io.Closer
	options     CSVWriterOptions
	headers     []string
	recordBuf   []core.Record
	stats       CSVWriterStats
	wroteHeader bool
	errorState  bool
	closed      bool
	mu          sync.Mutex
}

// NewCSVWriter creates a new CSV writer with extended options.
func NewCSVWriter(w io.WriteCloser, opts ...WriterOptionCSV) (*CSVWriter, error) {
	options := CSVWriterOptions{
		Comma:       ',',
		WriteHeader: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	cw := csv.NewWriter(w)
	cw.Comma = options.Comma
	cw.UseCRLF = options.UseCRLF
	if err := validComma(options.Comma); err != nil {
		return nil, &CSVWriterError{Op: "validate_options", Err: err}
	}

	return &CSVWriter{
		writer:    cw,
		closer:    w,
		options:   options,
		headers:   slices.Clone(options.Headers),
		recordBuf: make([]core.Record, 0, max(options.BatchSize, 1)),
		stats:     CSVWriterStats{NullValueCounts: make(map[string]int64)},
	}, nil
}

// Write implements the core.DataSink interface.
func (c *CSVWriter) Write(ctx context.Context, record core.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.errorState {
		return &CSVWriterError{Op: "write", Err: fmt.Errorf("writer is in error state")}
	}
	if c.closed {
		return &CSVWriterError{Op: "write", Err: fmt.Errorf("writer is closed")}
	}

	for k, v := range record {
		if v == nil {
			c.stats.NullValueCounts[k]++
		}
	}

	if len(c.headers) == 0 {
		for key := range record {
			c.headers = append(c.headers, key)
		}
		slices.Sort(c.headers)
	}

	c.recordBuf = append(c.recordBuf, record)
	c.stats.RecordsWritten++

	if c.options.BatchSize > 0 && len(c.recordBuf) >= c.options.BatchSize {
		if err := c.flushBufferUnsafe(); err != nil {
			c.errorState = true
			return &CSVWriterError{Op: "flush_batch", Err: err}
		}
	}
	return nil
}

// Flush implements the core.DataSink interface.
func (c *CSVWriter) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.flushBufferUnsafe(); err != nil {
		c.errorState = true
		return &CSVWriterError{Op: "flush", Err: err}
	}
	return nil
}

// Close flushes pending rows and closes the underlying writer. A writer
// with configured headers and no rows still emits the header line.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var firstErr error
	if !c.errorState {
		if err := c.flushBufferUnsafe(); err != nil {
			firstErr = &CSVWriterError{Op: "close", Err: err}
		}
	}
	if c.closer != nil {
		if err := c.closer.Close(); err != nil && firstErr == nil {
			firstErr = &CSVWriterError{Op: "close", Err: err}
		}
	}
	return firstErr
}

// Stats returns write statistics.
func (c *CSVWriter) Stats() CSVWriterStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	statsCopy := c.stats
	statsCopy.NullValueCounts = make(map[string]int64, len(c.stats.NullValueCounts))
	for k, v := range c.stats.NullValueCounts {
		statsCopy.NullValueCounts[k] = v
	}
	return statsCopy
}

// flushBufferUnsafe writes buffered records to CSV (must hold mutex).
func (c *CSVWriter) flushBufferUnsafe() error {
	start := time.Now()

	if !c.wroteHeader && c.options.WriteHeader && len(c.headers) > 0 {
		if err := c.writer.Write(c.headers); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		c.wroteHeader = true
	}

	if len(c.recordBuf) == 0 && !c.wroteHeader {
		return nil
	}

	for _, record := range c.recordBuf {
		row := make([]string, len(c.headers))
		for i, key := range c.headers {
			row[i] = formatCSVValue(record[key])
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return fmt.Errorf("CSV writer flush error: %w", err)
	}

	if len(c.recordBuf) > 0 {
		c.stats.FlushCount++
		c.stats.LastFlushTime = time.Now()
		c.stats.FlushDuration += time.Since(start)
		c.recordBuf = c.recordBuf[:0]
	}
	return nil
}

// formatCSVValue renders floats with the shortest exact representation.
func formatCSVValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func validComma(r rune) error {
	switch r {
	case 0, '"', '\r', '\n', 0xFFFD:
		return fmt.Errorf("invalid delimiter %q", r)
	}
	return nil
}
