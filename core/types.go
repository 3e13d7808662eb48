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

import "context"

// Package core defines the shared types for the SalesRank tool.
//
// SalesRank reads product sales rows, aggregates per-product earnings and writes
// a ranked summary. Rows travel between readers, transforms, filters and writers
// as loosely typed Records; the typed model lives in package sales.
//
// This file contains the Record type and the function adapters.

// Record is a single raw row as produced by a DataSource or consumed by a DataSink.
// Keys are column names; values are whatever the source decoded (string, int, float64, ...).
type Record map[string]interface{}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// TransformFunc is a function adapter for the Transformer interface.
type TransformFunc func(ctx context.Context, record Record) (Record, error)

// Transform implements the Transformer interface for TransformFunc.
func (f TransformFunc) Transform(ctx context.Context, record Record) (Record, error) {
	return f(ctx, record)
}

// FilterFunc is a function adapter for the Filter interface.
type FilterFunc func(ctx context.Context, record Record) (bool, error)

// ShouldInclude implements the Filter interface for FilterFunc.
func (f FilterFunc) ShouldInclude(ctx context.Context, record Record) (bool, error) {
	return f(ctx, record)
}
