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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/salesrank/core"
	"github.com/aaronlmathis/salesrank/sales"
)

func TestPostgresWriter_ValidateOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    []PostgresWriterOption
		wantErr string
	}{
		{"missing dsn", []PostgresWriterOption{WithTableName("t")}, "dsn is required"},
		{"missing table", []PostgresWriterOption{WithPostgresDSN("postgres://localhost/db")}, "table name is required"},
		{
			"update without columns",
			[]PostgresWriterOption{
				WithPostgresDSN("postgres://localhost/db"),
				WithTableName("t"),
				WithConflictResolution(ConflictUpdate, []string{"name"}, nil),
			},
			"update columns required",
		},
		{
			"ignore without conflict columns",
			[]PostgresWriterOption{
				WithPostgresDSN("postgres://localhost/db"),
				WithTableName("t"),
				WithConflictResolution(ConflictIgnore, nil, nil),
			},
			"conflict columns required",
		},
		{
			"zero batch",
			[]PostgresWriterOption{
				WithPostgresDSN("postgres://localhost/db"),
				WithTableName("t"),
				WithPostgresBatchSize(0),
			},
			"batch size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPostgresWriter(tt.opts...)
			require.Error(t, err)

			var pgErr *PostgresWriterError
			require.ErrorAs(t, err, &pgErr)
			assert.Equal(t, "validate", pgErr.Op)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresWriter_CreateTableQuery(t *testing.T) {
	opts := PostgresWriterOptions{
		TableName:   "public.product_earnings",
		ColumnTypes: map[string]string{"name": "TEXT NOT NULL"},
		PrimaryKey:  []string{"name"},
	}
	sample := sales.Summary{Name: "A", Min: 1, Max: 2, Sum: 3, Median: 1.5}.ToRecord()

	query := buildCreateTableQuery(opts, sales.SummaryFields, sample)
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "public"."product_earnings" (`+
			`"name" TEXT NOT NULL, "min" DOUBLE PRECISION, "max" DOUBLE PRECISION, `+
			`"sum" DOUBLE PRECISION, "median" DOUBLE PRECISION, PRIMARY KEY ("name"))`,
		query)

	query = buildCreateTableQuery(PostgresWriterOptions{TableName: "t"}, []string{"a", "b"}, nil)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "t" ("a" TEXT, "b" TEXT)`, query)
}

func TestPostgresWriter_InsertQuery(t *testing.T) {
	columns := []string{"name", "sum"}

	query := buildInsertQuery(PostgresWriterOptions{TableName: "earnings"}, columns)
	assert.Equal(t, `INSERT INTO "earnings" ("name", "sum") VALUES ($1, $2)`, query)

	query = buildInsertQuery(PostgresWriterOptions{
		TableName:          "earnings",
		ConflictResolution: ConflictIgnore,
		ConflictColumns:    []string{"name"},
	}, columns)
	assert.Equal(t, `INSERT INTO "earnings" ("name", "sum") VALUES ($1, $2) ON CONFLICT ("name") DO NOTHING`, query)

	query = buildInsertQuery(PostgresWriterOptions{
		TableName:          "earnings",
		ConflictResolution: ConflictUpdate,
		ConflictColumns:    []string{"name"},
		UpdateColumns:      []string{"sum"},
	}, columns)
	assert.Equal(t,
		`INSERT INTO "earnings" ("name", "sum") VALUES ($1, $2) ON CONFLICT ("name") DO UPDATE SET "sum" = EXCLUDED."sum"`,
		query)
}

func TestPostgresWriter_TypeMapping(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "BOOLEAN", inferSQLType(true))
	assert.Equal(t, "BIGINT", inferSQLType(int32(1)))
	assert.Equal(t, "DOUBLE PRECISION", inferSQLType(1.5))
	assert.Equal(t, "TIMESTAMPTZ", inferSQLType(now))
	assert.Equal(t, "TEXT", inferSQLType(nil))
	assert.Equal(t, "TEXT", inferSQLType(core.Record{}))

	assert.Equal(t, int64(7), convertSQLValue(7))
	assert.Equal(t, float64(float32(1.25)), convertSQLValue(float32(1.25)))
	assert.Equal(t, now, convertSQLValue(now))
	assert.Nil(t, convertSQLValue(nil))
	assert.Equal(t, "[1 2]", convertSQLValue([]int{1, 2}))
}
