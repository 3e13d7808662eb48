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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/salesrank/core"
)

// ParquetReaderError provides structured error information for parquet reader operations
type ParquetReaderError struct {
	Op  string // Operation that failed (e.g., "open_file", "load_batch", "column_projection")
	Err error  // Underlying error
}

func (e *ParquetReaderError) Error() string {
	return fmt.Sprintf("parquet reader %s: %v", e.Op, e.Err)
}

func (e *ParquetReaderError) Unwrap() error {
	return e.Err
}

// ParquetReader implements DataSource for Parquet files.
// Rows are decoded batch by batch through the Arrow record reader.
type ParquetReader struct {
	fileHandle      *os.File
	reader          *file.Reader
	recordReader    pqarrow.RecordReader
	currentBatch    arrow.Record
	currentBatchIdx int
	schema          *arrow.Schema
	stats           ParquetReaderStats
	opts            *ParquetReaderOptions
}

// ParquetReaderStats holds statistics about the Parquet reader's performance
type ParquetReaderStats struct {
	RecordsRead     int64
	BatchesRead     int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
}

// ParquetReaderOptions configures the Parquet reader
type ParquetReaderOptions struct {
	BatchSize int64    // rows per Arrow batch
	Columns   []string // optional column projection
}

// ReaderOptionParquet represents a configuration function for ParquetReaderOptions
type ReaderOptionParquet func(*ParquetReaderOptions)

// WithParquetBatchSize sets the number of rows per batch
func WithParquetBatchSize(size int64) ReaderOptionParquet {
	return func(opts *ParquetReaderOptions) {
		opts.BatchSize = size
	}
}

// WithParquetColumns limits reading to the named columns
func WithParquetColumns(columns ...string) ReaderOptionParquet {
	return func(opts *ParquetReaderOptions) {
		opts.Columns = append([]string(nil), columns...)
	}
}

// NewParquetReader opens filename for reading.
func NewParquetReader(filename string, options ...ReaderOptionParquet) (*ParquetReader, error) {
	opts := &ParquetReaderOptions{BatchSize: 1000}
	for _, option := range options {
		option(opts)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, &ParquetReaderError{Op: "open_file", Err: err}
	}

	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "create_reader", Err: err}
	}

	arrowReader, err := pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{BatchSize: opts.BatchSize}, memory.NewGoAllocator())
	if err != nil {
		parquetReader.Close()
		return nil, &ParquetReaderError{Op: "create_arrow_reader", Err: err}
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		parquetReader.Close()
		return nil, &ParquetReaderError{Op: "get_schema", Err: err}
	}

	var colIndices []int
	for _, name := range opts.Columns {
		idx := schema.FieldIndices(name)
		if len(idx) == 0 {
			parquetReader.Close()
			return nil, &ParquetReaderError{Op: "column_projection", Err: fmt.Errorf("column %q not found in schema", name)}
		}
		colIndices = append(colIndices, idx[0])
	}

	recordReader, err := arrowReader.GetRecordReader(context.Background(), colIndices, nil)
	if err != nil {
		parquetReader.Close()
		return nil, &ParquetReaderError{Op: "create_record_reader", Err: err}
	}

	return &ParquetReader{
		fileHandle:   f,
		reader:       parquetReader,
		recordReader: recordReader,
		schema:       schema,
		stats:        ParquetReaderStats{NullValueCounts: make(map[string]int64)},
		opts:         opts,
	}, nil
}

// Read returns the next row, or io.EOF once every batch is consumed.
func (p *ParquetReader) Read(ctx context.Context) (core.Record, error) {
	startTime := time.Now()
	defer func() {
		p.stats.ReadDuration += time.Since(startTime)
		p.stats.LastReadTime = time.Now()
	}()

	select {
	case <-ctx.Done():
		return nil, &ParquetReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	for p.currentBatch == nil || p.currentBatchIdx >= int(p.currentBatch.NumRows()) {
		if err := p.loadNextBatch(); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, &ParquetReaderError{Op: "load_batch", Err: err}
		}
	}

	result := p.extractRecordFromBatch(p.currentBatch, p.currentBatchIdx)
	p.currentBatchIdx++
	p.stats.RecordsRead++

	return result, nil
}

// Close releases resources and closes the underlying file
func (p *ParquetReader) Close() error {
	if p.currentBatch != nil {
		p.currentBatch.Release()
		p.currentBatch = nil
	}
	if p.recordReader != nil {
		p.recordReader.Release()
		p.recordReader = nil
	}
	if p.reader != nil {
		err := p.reader.Close()
		p.reader = nil
		p.fileHandle = nil
		return err
	}
	return nil
}

// Schema returns the Arrow schema of the Parquet file
func (p *ParquetReader) Schema() *arrow.Schema {
	return p.schema
}

// NumRows returns the row count recorded in the file metadata
func (p *ParquetReader) NumRows() int64 {
	return p.reader.NumRows()
}

// NumRowGroups returns the number of row groups in the file
func (p *ParquetReader) NumRowGroups() int {
	return p.reader.NumRowGroups()
}

// RowGroupRows returns the row count of every row group, in file order.
func (p *ParquetReader) RowGroupRows() []int64 {
	counts := make([]int64, p.reader.NumRowGroups())
	for i := range counts {
		counts[i] = p.reader.RowGroup(i).NumRows()
	}
	return counts
}

// PhysicalColumns returns each leaf column name with its Parquet physical type.
func (p *ParquetReader) PhysicalColumns() [][2]string {
	schema := p.reader.MetaData().Schema
	cols := make([][2]string, schema.NumColumns())
	for i := range cols {
		col := schema.Column(i)
		cols[i] = [2]string{col.Name(), fmt.Sprint(col.PhysicalType())}
	}
	return cols
}

// Stats returns statistics about the Parquet reader's performance
func (p *ParquetReader) Stats() ParquetReaderStats {
	return p.stats
}

func (p *ParquetReader) loadNextBatch() error {
	if p.currentBatch != nil {
		p.currentBatch.Release()
		p.currentBatch = nil
	}

	rec, err := p.recordReader.Read()
	if err != nil {
		return err
	}
	if rec == nil {
		return io.EOF
	}
	// The record reader releases its batch on the next Read.
	rec.Retain()
	p.currentBatch = rec
	p.currentBatchIdx = 0
	p.stats.BatchesRead++
	return nil
}

// extractRecordFromBatch builds a core.Record from a row in an Arrow Record batch
func (p *ParquetReader) extractRecordFromBatch(record arrow.Record, pos int) core.Record {
	res := make(core.Record, record.NumCols())
	sch := record.Schema()
	for i := 0; i < int(record.NumCols()); i++ {
		field := sch.Field(i)
		res[field.Name] = p.extractValueFromColumn(record.Column(i), pos, field.Name)
	}
	return res
}

func (p *ParquetReader) extractValueFromColumn(col arrow.Array, rowIdx int, fieldName string) interface{} {
	if col.IsNull(rowIdx) {
		p.stats.NullValueCounts[fieldName]++
		return nil
	}

	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(rowIdx)
	case *array.Int8:
		return arr.Value(rowIdx)
	case *array.Int16:
		return arr.Value(rowIdx)
	case *array.Int32:
		return arr.Value(rowIdx)
	case *array.Int64:
		return arr.Value(rowIdx)
	case *array.Uint8:
		return arr.Value(rowIdx)
	case *array.Uint16:
		return arr.Value(rowIdx)
	case *array.Uint32:
		return arr.Value(rowIdx)
	case *array.Uint64:
		return arr.Value(rowIdx)
	case *array.Float32:
		return arr.Value(rowIdx)
	case *array.Float64:
		return arr.Value(rowIdx)
	case *array.String:
		return arr.Value(rowIdx)
	case *array.Binary:
		return arr.Value(rowIdx)
	case *array.Timestamp:
		return arr.Value(rowIdx).ToTime(arrow.Microsecond)
	case *array.Date32:
		return arr.Value(rowIdx).ToTime()
	default:
		return fmt.Sprintf("%v", col.GetOneForMarshal(rowIdx))
	}
}
