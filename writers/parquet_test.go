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
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/salesrank/core"
	"github.com/aaronlmathis/salesrank/readers"
	"github.com/aaronlmathis/salesrank/sales"
)

func readParquet(t *testing.T, filename string) []core.Record {
	t.Helper()
	reader, err := readers.NewParquetReader(filename)
	require.NoError(t, err)
	defer reader.Close()

	var rows []core.Record
	for {
		row, err := reader.Read(context.Background())
		if errors.Is(err, io.EOF) {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func summarySchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: sales.FieldName, Type: arrow.BinaryTypes.String},
		{Name: sales.FieldMin, Type: arrow.PrimitiveTypes.Float64},
		{Name: sales.FieldMax, Type: arrow.PrimitiveTypes.Float64},
		{Name: sales.FieldSum, Type: arrow.PrimitiveTypes.Float64},
		{Name: sales.FieldMedian, Type: arrow.PrimitiveTypes.Float64},
	}, nil)
}

// TestParquetWriter_RoundTrip tests that summaries survive a write and read cycle
func TestParquetWriter_RoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "nested", "summaries.parquet")

	writer, err := NewParquetWriter(filename, WithBatchSize(1), WithSchema(summarySchema()))
	require.NoError(t, err)

	ctx := context.Background()
	for _, s := range testSummaries() {
		require.NoError(t, writer.Write(ctx, s.ToRecord()))
	}

	stats := writer.Stats()
	assert.Equal(t, int64(2), stats.RecordsWritten)
	assert.Equal(t, int64(2), stats.BatchesWritten)

	require.NoError(t, writer.Close())

	rows := readParquet(t, filename)
	require.Len(t, rows, 2)
	assert.Equal(t, core.Record{"name": "A", "min": 20.0, "max": 20.0, "sum": 40.0, "median": 20.0}, rows[0])
	assert.Equal(t, core.Record{"name": "B", "min": 100.0, "max": 100.0, "sum": 100.0, "median": 100.0}, rows[1])
}

// TestParquetWriter_EmptyWithSchema tests that no records still produce a readable file
func TestParquetWriter_EmptyWithSchema(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "empty.parquet")

	writer, err := NewParquetWriter(filename, WithSchema(summarySchema()))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader, err := readers.NewParquetReader(filename)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, int64(0), reader.NumRows())
	assert.Equal(t, sales.SummaryFields, fieldNames(reader.Schema()))

	cols := reader.PhysicalColumns()
	require.Len(t, cols, len(sales.SummaryFields))
	assert.Equal(t, sales.FieldName, cols[0][0])
	assert.Equal(t, "DOUBLE", cols[1][1])

	var total int64
	for _, n := range reader.RowGroupRows() {
		total += n
	}
	assert.Equal(t, int64(0), total)
}

// TestParquetWriter_InferredSchema tests type inference and field ordering
func TestParquetWriter_InferredSchema(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "inferred.parquet")

	writer, err := NewParquetWriter(filename,
		WithFieldOrder([]string{"name", "count", "score", "active", "note"}),
		WithCompression(compress.Codecs.Gzip),
		WithMetadata(map[string]string{"created_by": "test"}),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, writer.Write(ctx, core.Record{"name": "a", "count": 3, "score": 1.5, "active": true}))
	require.NoError(t, writer.Write(ctx, core.Record{"name": "b", "count": int64(4), "score": 2, "active": false, "note": "x"}))

	schema := writer.Schema()
	require.NotNil(t, schema)
	assert.Equal(t, []string{"name", "count", "score", "active", "note"}, fieldNames(schema))
	assert.Equal(t, arrow.PrimitiveTypes.Int64, schema.Field(1).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Float64, schema.Field(2).Type)
	assert.Equal(t, arrow.FixedWidthTypes.Boolean, schema.Field(3).Type)
	assert.Equal(t, arrow.BinaryTypes.String, schema.Field(4).Type)

	require.NoError(t, writer.Close())
	assert.Equal(t, int64(1), writer.Stats().NullValueCounts["note"])

	rows := readParquet(t, filename)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(3), rows[0]["count"])
	assert.Equal(t, 2.0, rows[1]["score"])
	assert.Nil(t, rows[0]["note"])
	assert.Equal(t, "x", rows[1]["note"])
}

// TestParquetWriter_ErrorHandling tests error conditions
func TestParquetWriter_ErrorHandling(t *testing.T) {
	t.Run("unsupported_type", func(t *testing.T) {
		writer, err := NewParquetWriter(filepath.Join(t.TempDir(), "bad.parquet"))
		require.NoError(t, err)
		defer writer.Close()

		err = writer.Write(context.Background(), core.Record{"ch": make(chan int)})
		var pqErr *ParquetWriterError
		require.ErrorAs(t, err, &pqErr)
		assert.Equal(t, "schema", pqErr.Op)

		err = writer.Write(context.Background(), core.Record{"ok": 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error state")
	})

	t.Run("type_mismatch", func(t *testing.T) {
		writer, err := NewParquetWriter(filepath.Join(t.TempDir(), "mismatch.parquet"), WithSchema(summarySchema()))
		require.NoError(t, err)
		defer writer.Close()

		require.NoError(t, writer.Write(context.Background(), core.Record{"name": "A", "min": "oops"}))
		err = writer.Flush()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected number")
	})

	t.Run("write_after_close", func(t *testing.T) {
		writer, err := NewParquetWriter(filepath.Join(t.TempDir(), "closed.parquet"), WithSchema(summarySchema()))
		require.NoError(t, err)
		require.NoError(t, writer.Close())
		require.NoError(t, writer.Close())

		err = writer.Write(context.Background(), core.Record{"name": "A"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "closed")
	})

	t.Run("bad_directory", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		_, err := NewParquetWriter(filepath.Join(blocker, "out.parquet"))
		var pqErr *ParquetWriterError
		require.ErrorAs(t, err, &pqErr)
		assert.Equal(t, "create_directory", pqErr.Op)
	})
}

func fieldNames(schema *arrow.Schema) []string {
	names := make([]string, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		names = append(names, f.Name)
	}
	return names
}
