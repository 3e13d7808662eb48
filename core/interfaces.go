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

package core

import (
	"context"
)

// DataSource produces raw sales rows.
// Implementations read from CSV or JSON lines files, Parquet files, S3 objects or MongoDB.
type DataSource interface {
	// Read returns the next record or io.EOF when no more records are available.
	Read(ctx context.Context) (Record, error)
	// Close releases any resources held by the data source.
	Close() error
}

// DataSink persists ranked summaries.
// Implementations write JSON, CSV, Parquet, PostgreSQL rows or S3 objects.
type DataSink interface {
	// Write outputs a single record to the sink.
	Write(ctx context.Context, record Record) error
	// Flush ensures all buffered data is written to the sink.
	Flush() error
	// Close releases any resources held by the data sink.
	Close() error
}

// Transformer rewrites a row before it is converted into a sales record,
// e.g. header normalization or whitespace trimming.
type Transformer interface {
	Transform(ctx context.Context, record Record) (Record, error)
}

// Filter decides whether a row takes part in aggregation.
type Filter interface {
	// ShouldInclude returns true if the record should be aggregated.
	ShouldInclude(ctx context.Context, record Record) (bool, error)
}

// Aborter is implemented by sinks that can discard their output instead of
// committing it. Pipelines call Abort in place of Close after a failure.
type Aborter interface {
	Abort() error
}
