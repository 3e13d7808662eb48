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

package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aaronlmathis/salesrank/core"
)

func include(t *testing.T, f core.Filter, record core.Record) bool {
	t.Helper()
	ok, err := f.ShouldInclude(context.Background(), record)
	assert.NoError(t, err)
	return ok
}

func TestOneOf(t *testing.T) {
	months := OneOf("MONTH", "Jan", " feb ")

	assert.True(t, include(t, months, core.Record{"MONTH": "jan"}))
	assert.True(t, include(t, months, core.Record{"MONTH": "FEB "}))
	assert.False(t, include(t, months, core.Record{"MONTH": "Mar"}))
	assert.False(t, include(t, months, core.Record{"PRODUCT": "A"}))
	assert.False(t, include(t, months, core.Record{"MONTH": nil}))

	assert.True(t, include(t, OneOf("MONTH"), core.Record{}), "empty set passes everything")
	assert.True(t, include(t, OneOf("YEAR", "2024"), core.Record{"YEAR": int64(2024)}))
}

func TestNotNull(t *testing.T) {
	f := NotNull("PRODUCT")
	assert.True(t, include(t, f, core.Record{"PRODUCT": "A"}))
	assert.False(t, include(t, f, core.Record{"PRODUCT": ""}))
	assert.False(t, include(t, f, core.Record{"PRODUCT": nil}))
	assert.False(t, include(t, f, core.Record{}))
}

func TestContains(t *testing.T) {
	f := Contains("PRODUCT", "phone")
	assert.True(t, include(t, f, core.Record{"PRODUCT": "smartphone"}))
	assert.False(t, include(t, f, core.Record{"PRODUCT": "laptop"}))
	assert.False(t, include(t, f, core.Record{"PRODUCT": 3}))
}

func TestNumericFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter core.Filter
		value  interface{}
		want   bool
	}{
		{"gt float", GreaterThan("PRICE", 10), 10.5, true},
		{"gt equal", GreaterThan("PRICE", 10), 10, false},
		{"gt string", GreaterThan("PRICE", 10), "11", true},
		{"lt int64", LessThan("PRICE", 10), int64(3), true},
		{"lt text", LessThan("PRICE", 10), "cheap", false},
		{"between low", Between("PRICE", 1, 5), 1, true},
		{"between high", Between("PRICE", 1, 5), float32(5), true},
		{"between out", Between("PRICE", 1, 5), 6, false},
		{"missing", Between("PRICE", 1, 5), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, include(t, tt.filter, core.Record{"PRICE": tt.value}))
		})
	}
}

func TestCombinators(t *testing.T) {
	jan := OneOf("MONTH", "Jan")
	a := OneOf("PRODUCT", "A")
	rec := core.Record{"MONTH": "Jan", "PRODUCT": "B"}

	assert.False(t, include(t, And(jan, a), rec))
	assert.True(t, include(t, Or(jan, a), rec))
	assert.True(t, include(t, Not(a), rec))
	assert.True(t, include(t, And(), rec))
	assert.False(t, include(t, Or(), rec))
	assert.True(t, include(t, Custom(func(r core.Record) bool { return r["PRODUCT"] == "B" }), rec))
}

func TestCombinatorErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := core.FilterFunc(func(context.Context, core.Record) (bool, error) { return false, boom })

	for _, f := range []core.Filter{And(failing), Or(failing), Not(failing)} {
		ok, err := f.ShouldInclude(context.Background(), core.Record{})
		assert.ErrorIs(t, err, boom)
		assert.False(t, ok)
	}
}
