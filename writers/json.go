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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/aaronlmathis/salesrank/core"
)

// JSONWriterError provides structured error information for JSON writer operations
type JSONWriterError struct {
	Op  string
	Err error
}

func (e *JSONWriterError) Error() string {
	return fmt.Sprintf("json writer %s: %v", e.Op, e.Err)
}

func (e *JSONWriterError) Unwrap() error {
	return e.Err
}

// JSONWriterStats holds statistics about the JSON writer's performance
type JSONWriterStats struct {
	RecordsWritten  int64
	FlushCount      int64
	FlushDuration   time.Duration
	LastFlushTime   time.Time
	NullValueCounts map[string]int64
}

// JSONWriterOptions configures the JSON writer
type JSONWriterOptions struct {
	BatchSize    int      // Records buffered before an automatic flush
	FlushOnWrite bool     // Flush after every record
	Lines        bool     // One object per line instead of a single array
	FieldOrder   []string // Keys emitted first, in this order; the rest follow sorted
}

// WriterOptionJSON represents a configuration function for JSONWriter
type WriterOptionJSON func(*JSONWriterOptions)

// WithJSONBatchSize sets the flush threshold. Zero or less flushes on every write.
func WithJSONBatchSize(size int) WriterOptionJSON {
	return func(opts *JSONWriterOptions) { opts.BatchSize = size }
}

func WithFlushOnWrite(enabled bool) WriterOptionJSON {
	return func(opts *JSONWriterOptions) { opts.FlushOnWrite = enabled }
}

// WithJSONLines switches to line-delimited output.
func WithJSONLines(lines bool) WriterOptionJSON {
	return func(opts *JSONWriterOptions) { opts.Lines = lines }
}

func WithJSONFieldOrder(fields []string) WriterOptionJSON {
	return func(opts *JSONWriterOptions) { opts.FieldOrder = slices.Clone(fields) }
}

// JSONWriter implements core.DataSink for JSON output. By default it writes
// one JSON array; with WithJSONLines it writes one object per line.
type JSONWriter struct {
	writer     io.Writer
	closer     io.Closer
	opts       JSONWriterOptions
	buffer     [][]byte
	emitted    int64
	stats      JSONWriterStats
	errorState bool
	closed     bool
	mu         sync.Mutex
}

// NewJSONWriter creates a new JSON writer
func NewJSONWriter(w io.WriteCloser, options ...WriterOptionJSON) *JSONWriter {
	opts := JSONWriterOptions{BatchSize: 1000}
	for _, option := range options {
		option(&opts)
	}

	return &JSONWriter{
		writer: w,
		closer: w,
		opts:   opts,
		buffer: make([][]byte, 0, max(opts.BatchSize, 1)),
		stats:  JSONWriterStats{NullValueCounts: make(map[string]int64)},
	}
}

// Write implements the core.DataSink interface
func (j *JSONWriter) Write(ctx context.Context, record core.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.errorState {
		return &JSONWriterError{Op: "write", Err: fmt.Errorf("writer is in error state")}
	}
	if j.closed {
		return &JSONWriterError{Op: "write", Err: fmt.Errorf("writer is closed")}
	}

	data, err := marshalOrdered(record, j.opts.FieldOrder)
	if err != nil {
		return &JSONWriterError{Op: "marshal", Err: err}
	}

	for key, val := range record {
		if val == nil {
			j.stats.NullValueCounts[key]++
		}
	}

	j.buffer = append(j.buffer, data)
	j.stats.RecordsWritten++

	if j.opts.FlushOnWrite || len(j.buffer) >= j.opts.BatchSize {
		return j.flushBufferUnsafe()
	}
	return nil
}

// Flush implements the core.DataSink interface
func (j *JSONWriter) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.flushBufferUnsafe(); err != nil {
		return err
	}
	if flusher, ok := j.writer.(interface{ Flush() error }); ok {
		if err := flusher.Flush(); err != nil {
			return &JSONWriterError{Op: "flush", Err: err}
		}
	}
	return nil
}

// Close flushes pending records, terminates the array and closes the underlying writer.
func (j *JSONWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	var firstErr error
	if !j.errorState {
		if err := j.flushBufferUnsafe(); err != nil {
			firstErr = err
		} else if !j.opts.Lines {
			tail := "]\n"
			if j.emitted == 0 {
				tail = "[]\n"
			}
			if _, err := io.WriteString(j.writer, tail); err != nil {
				firstErr = &JSONWriterError{Op: "close", Err: err}
			}
		}
	}

	if j.closer != nil {
		if err := j.closer.Close(); err != nil && firstErr == nil {
			firstErr = &JSONWriterError{Op: "close", Err: err}
		}
	}
	return firstErr
}

// Stats returns a copy of the writer statistics
func (j *JSONWriter) Stats() JSONWriterStats {
	j.mu.Lock()
	defer j.mu.Unlock()

	stats := j.stats
	stats.NullValueCounts = make(map[string]int64, len(j.stats.NullValueCounts))
	for k, v := range j.stats.NullValueCounts {
		stats.NullValueCounts[k] = v
	}
	return stats
}

func (j *JSONWriter) flushBufferUnsafe() error {
	if len(j.buffer) == 0 {
		return nil
	}

	start := time.Now()
	var out bytes.Buffer
	for _, data := range j.buffer {
		switch {
		case j.opts.Lines:
		case j.emitted == 0:
			out.WriteByte('[')
		default:
			out.WriteByte(',')
		}
		out.Write(data)
		if j.opts.Lines {
			out.WriteByte('\n')
		}
		j.emitted++
	}

	if _, err := j.writer.Write(out.Bytes()); err != nil {
		j.errorState = true
		return &JSONWriterError{Op: "write", Err: err}
	}

	j.buffer = j.buffer[:0]
	j.stats.FlushCount++
	j.stats.FlushDuration += time.Since(start)
	j.stats.LastFlushTime = time.Now()
	return nil
}

// marshalOrdered encodes record as a JSON object whose keys follow order.
// Keys not named in order are appended in sorted order.
func marshalOrdered(record core.Record, order []string) ([]byte, error) {
	if len(order) == 0 {
		return json.Marshal(map[string]interface{}(record))
	}

	keys := make([]string, 0, len(record))
	seen := make(map[string]bool, len(order))
	for _, key := range order {
		if _, ok := record[key]; ok && !seen[key] {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	rest := make([]string, 0, len(record))
	for key := range record {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	slices.Sort(rest)
	keys = append(keys, rest...)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(record[key])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
