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

package readers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aaronlmathis/salesrank/core"
)

// CSVReaderError wraps structured error information for the CSV reader.
type CSVReaderError struct {
	Op   string
	Line int // input line of the failing row, 0 when unknown
	Err  error
}

func (e *CSVReaderError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("csv reader %s (line %d): %v", e.Op, e.Line, e.Err)
	}
	return fmt.Sprintf("csv reader %s: %v", e.Op, e.Err)
}

func (e *CSVReaderError) Unwrap() error {
	return e.Err
}

// CSVReaderStats holds statistics about the CSV reader's performance.
type CSVReaderStats struct {
	RecordsRead     int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
}

// CSVReaderOptions configures the CSV reader.
type CSVReaderOptions struct {
	Comma            rune
	Comment          rune
	LazyQuotes       bool
	TrimLeadingSpace bool
	HasHeaders       bool
	InferTypes       bool // convert cells to int, float64 or bool when they parse
	UpperHeaders     bool // upper-case header names so "price" matches PRICE
}

// ReaderOptionCSV allows functional customization of CSVReader.
type ReaderOptionCSV func(*CSVReaderOptions)

func WithCSVComma(r rune) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.Comma = r }
}

func WithCSVComment(r rune) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.Comment = r }
}

func WithCSVHasHeaders(hasHeaders bool) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.HasHeaders = hasHeaders }
}

func WithCSVTrimSpace(trim bool) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.TrimLeadingSpace = trim }
}

func WithCSVLazyQuotes(lazy bool) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.LazyQuotes = lazy }
}

// WithCSVTypeInference toggles conversion of cells into Go numbers and booleans.
// Sales rows are read with inference off so product codes like "0042" survive.
func WithCSVTypeInference(infer bool) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.InferTypes = infer }
}

func WithCSVUpperHeaders(upper bool) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.UpperHeaders = upper }
}

// CSVReader implements DataSource for CSV files.
type CSVReader struct {
	reader  *csv.Reader
	headers []string
	closer  io.Closer
	stats   CSVReaderStats
	opts    CSVReaderOptions
}

// NewCSVReader creates a CSVReader with default or overridden options.
// The header row is consumed immediately; an empty input is not an error and
// simply yields io.EOF on the first Read.
func NewCSVReader(r io.ReadCloser, options ...ReaderOptionCSV) (*CSVReader, error) {
	opts := CSVReaderOptions{
		Comma:            ',',
		HasHeaders:       true,
		TrimLeadingSpace: true,
		InferTypes:       true,
	}

	for _, opt := range options {
		opt(&opts)
	}

	csvReader := csv.NewReader(r)
	csvReader.Comma = opts.Comma
	csvReader.Comment = opts.Comment
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = opts.LazyQuotes
	csvReader.TrimLeadingSpace = opts.TrimLeadingSpace

	reader := &CSVReader{
		reader: csvReader,
		closer: r,
		opts:   opts,
		stats:  CSVReaderStats{NullValueCounts: make(map[string]int64)},
	}

	if opts.HasHeaders {
		headers, err := csvReader.Read()
		if err != nil && err != io.EOF {
			return nil, &CSVReaderError{Op: "read_headers", Err: err}
		}
		reader.headers = reader.normalizeHeaders(headers)
	}

	return reader, nil
}

// Headers returns the (normalized) header row.
func (c *CSVReader) Headers() []string {
	return append([]string(nil), c.headers...)
}

// Read implements the DataSource interface.
func (c *CSVReader) Read(ctx context.Context) (core.Record, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		return nil, &CSVReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	if c.opts.HasHeaders && len(c.headers) == 0 {
		return nil, io.EOF
	}

	row, err := c.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		var line int
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			line = perr.Line
		}
		return nil, &CSVReaderError{Op: "read_record", Line: line, Err: err}
	}

	res := make(core.Record, len(row))
	for i, val := range row {
		key := c.columnName(i)
		if strings.TrimSpace(val) == "" {
			c.stats.NullValueCounts[key]++
			res[key] = nil
			continue
		}
		res[key] = c.parseValue(val)
	}

	c.stats.RecordsRead++
	c.stats.LastReadTime = time.Now()
	c.stats.ReadDuration += time.Since(start)

	return res, nil
}

// Close implements the DataSource interface.
func (c *CSVReader) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Stats returns CSV reader performance stats.
func (c *CSVReader) Stats() CSVReaderStats {
	return c.stats
}

func (c *CSVReader) columnName(i int) string {
	if i < len(c.headers) {
		return c.headers[i]
	}
	return "col_" + strconv.Itoa(i)
}

func (c *CSVReader) normalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		h = strings.TrimSpace(h)
		if c.opts.UpperHeaders {
			h = strings.ToUpper(h)
		}
		out[i] = h
	}
	return out
}

// parseValue infers int, float, bool, or falls back to the trimmed string.
func (c *CSVReader) parseValue(value string) interface{} {
	value = strings.TrimSpace(value)
	if !c.opts.InferTypes {
		return value
	}

	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}
