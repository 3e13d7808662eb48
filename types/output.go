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

package types

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aaronlmathis/salesrank/core"
	"github.com/aaronlmathis/salesrank/readers"
	"github.com/aaronlmathis/salesrank/sales"
	"github.com/aaronlmathis/salesrank/writers"
)

// DefaultPostgresTable is the table summaries are upserted into.
const DefaultPostgresTable = "product_earnings"

// S3PutAPI is the subset of the S3 client used to upload output.
type S3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// OutputOptions tunes how an output location is opened.
type OutputOptions struct {
	Format        Format
	JSONLines     bool
	PostgresTable string
	CSVCRLF       bool // end CSV lines with \r\n
	S3            S3Options
	S3Client      S3PutAPI // overrides S3 config loading when set
}

// OutputLocation creates a DataSink for product summaries.
type OutputLocation interface {
	NewSink(ctx context.Context, opts OutputOptions) (core.DataSink, error)
	String() string
}

// ParseOutput classifies raw as a local path, an s3:// URI or a PostgreSQL DSN.
func ParseOutput(raw string) (OutputLocation, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("output location is empty")
	}

	switch {
	case strings.HasPrefix(raw, "s3://"):
		bucket, key, err := parseS3URI(raw)
		if err != nil {
			return nil, err
		}
		if key == "" || strings.HasSuffix(key, "/") {
			return nil, fmt.Errorf("s3 output %q must name an object", raw)
		}
		return S3Location{Bucket: bucket, Key: key}, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return PostgresLocation{DSN: raw}, nil
	case strings.HasPrefix(raw, "mongodb://"), strings.HasPrefix(raw, "mongodb+srv://"):
		return nil, fmt.Errorf("mongodb is supported as an input only")
	}
	return FileLocation{Path: raw}, nil
}

// OpenSink parses raw and opens it as a DataSink.
func OpenSink(ctx context.Context, raw string, opts OutputOptions) (core.DataSink, error) {
	loc, err := ParseOutput(raw)
	if err != nil {
		return nil, err
	}
	return loc.NewSink(ctx, opts)
}

// SummarySchema is the Arrow schema of a summary row.
func SummarySchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: sales.FieldName, Type: arrow.BinaryTypes.String},
		{Name: sales.FieldMin, Type: arrow.PrimitiveTypes.Float64},
		{Name: sales.FieldMax, Type: arrow.PrimitiveTypes.Float64},
		{Name: sales.FieldSum, Type: arrow.PrimitiveTypes.Float64},
		{Name: sales.FieldMedian, Type: arrow.PrimitiveTypes.Float64},
	}, nil)
}

// NewSink creates the file, along with missing parent directories, and
// picks a writer by format or extension. JSON is the default.
func (f FileLocation) NewSink(ctx context.Context, opts OutputOptions) (core.DataSink, error) {
	format := opts.Format
	if format == FormatAuto {
		format = FormatFromPath(f.Path, FormatJSON)
	}
	if err := checkStreamFormat(format); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(f.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(f.Path)
	if err != nil {
		return nil, err
	}

	sink, err := newSummarySink(file, format, opts)
	if err != nil {
		file.Close()
		return nil, err
	}
	path := f.Path
	return &abortableSink{DataSink: sink, abort: func() error {
		cerr := sink.Close()
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			return rerr
		}
		return cerr
	}}, nil
}

// NewSink buffers the encoded output in memory and uploads it with one
// PutObject call when the sink is closed.
func (s S3Location) NewSink(ctx context.Context, opts OutputOptions) (core.DataSink, error) {
	format := opts.Format
	if format == FormatAuto {
		format = FormatFromPath(s.Key, FormatJSON)
	}
	if err := checkStreamFormat(format); err != nil {
		return nil, err
	}

	client := opts.S3Client
	if client == nil {
		cfg, err := readers.LoadAWSConfig(ctx, opts.S3.AWSOptions())
		if err != nil {
			return nil, err
		}
		client = readers.NewS3Client(cfg, opts.S3.Endpoint, opts.S3.PathStyle)
	}

	upload := &s3Upload{
		ctx:         ctx,
		client:      client,
		bucket:      s.Bucket,
		key:         s.Key,
		contentType: contentType(format),
	}
	sink, err := newSummarySink(upload, format, opts)
	if err != nil {
		return nil, err
	}
	return &abortableSink{DataSink: sink, abort: func() error {
		upload.aborted = true
		return sink.Close()
	}}, nil
}

// PostgresLocation directs output to a PostgreSQL database.
type PostgresLocation struct {
	DSN string
}

func (p PostgresLocation) String() string { return redactURI(p.DSN) }

// NewSink creates the summary table when missing and upserts one row per product.
func (p PostgresLocation) NewSink(ctx context.Context, opts OutputOptions) (core.DataSink, error) {
	if opts.Format != FormatAuto && opts.Format != FormatPostgres {
		return nil, fmt.Errorf("unsupported format %s for postgres output", opts.Format)
	}

	table := opts.PostgresTable
	if table == "" {
		table = DefaultPostgresTable
	}

	metrics := []string{sales.FieldMin, sales.FieldMax, sales.FieldSum, sales.FieldMedian}
	types := map[string]string{sales.FieldName: "TEXT NOT NULL"}
	for _, m := range metrics {
		types[m] = "DOUBLE PRECISION NOT NULL"
	}

	writer, err := writers.NewPostgresWriter(
		writers.WithPostgresDSN(p.DSN),
		writers.WithTableName(table),
		writers.WithColumns(sales.SummaryFields),
		writers.WithColumnTypes(types),
		writers.WithPrimaryKey(sales.FieldName),
		writers.WithCreateTable(true),
		writers.WithConflictResolution(writers.ConflictUpdate, []string{sales.FieldName}, metrics),
		writers.WithTransactionMode(true),
	)
	if err != nil {
		return nil, err
	}
	return writer, nil
}

func newSummarySink(w io.WriteCloser, format Format, opts OutputOptions) (core.DataSink, error) {
	switch format {
	case FormatJSON:
		return writers.NewJSONWriter(w,
			writers.WithJSONFieldOrder(sales.SummaryFields),
			writers.WithJSONLines(opts.JSONLines),
		), nil
	case FormatCSV:
		writer, err := writers.NewCSVWriter(w,
			writers.WithHeaders(sales.SummaryFields),
			writers.WithUseCRLF(opts.CSVCRLF),
		)
		if err != nil {
			return nil, err
		}
		return writer, nil
	case FormatParquet:
		writer, err := writers.NewParquetStreamWriter(w, writers.WithSchema(SummarySchema()))
		if err != nil {
			return nil, err
		}
		return writer, nil
	}
	return nil, fmt.Errorf("unsupported output format %s", format)
}

func checkStreamFormat(format Format) error {
	switch format {
	case FormatJSON, FormatCSV, FormatParquet:
		return nil
	}
	return fmt.Errorf("unsupported output format %s for a file or object", format)
}

func contentType(format Format) string {
	switch format {
	case FormatCSV:
		return "text/csv"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	}
	return "application/json"
}

// s3Upload collects written bytes and uploads them on Close.
type s3Upload struct {
	ctx         context.Context
	client      S3PutAPI
	bucket      string
	key         string
	contentType string
	buf         bytes.Buffer
	closed      bool
	aborted     bool
}

func (u *s3Upload) Write(p []byte) (int, error) {
	if u.closed {
		return 0, fmt.Errorf("s3 upload %s/%s already closed", u.bucket, u.key)
	}
	return u.buf.Write(p)
}

func (u *s3Upload) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if u.aborted {
		return nil
	}

	_, err := u.client.PutObject(u.ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(u.key),
		Body:          bytes.NewReader(u.buf.Bytes()),
		ContentLength: aws.Int64(int64(u.buf.Len())),
		ContentType:   aws.String(u.contentType),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", u.bucket, u.key, err)
	}
	return nil
}

// abortableSink discards its output on Abort.
type abortableSink struct {
	core.DataSink
	abort func() error
}

func (a *abortableSink) Abort() error {
	return a.abort()
}
