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

package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/salesrank/core"
	"github.com/aaronlmathis/salesrank/sales"
)

func TestSummaries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summaries(&buf, []sales.Summary{
		{Name: "A", Min: 20, Max: 20, Sum: 40, Median: 20},
		{Name: "B", Min: 0.5, Max: 100, Sum: 100.5, Median: 50.25},
	}))

	out := buf.String()
	for _, want := range []string{"name", "median", "A", "40", "B", "0.5", "100.5", "50.25"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "A"), strings.Index(out, "B"), "rows keep slice order")
}

func TestSummariesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summaries(&buf, nil))
	assert.Contains(t, buf.String(), "sum")
}

func TestRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Records(&buf, []sales.Record{{Product: "Widget", Price: 2.5, Sales: 4, Month: "Jan"}}))

	out := buf.String()
	for _, want := range []string{"PRODUCT", "MONTH", "Widget", "2.5", "Jan"} {
		assert.Contains(t, out, want)
	}
}

func TestRowsAndKeyValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Rows(&buf, []string{"PRODUCT", "EXTRA"}, []core.Record{{"PRODUCT": "A", "PRICE": 1}}))
	assert.Contains(t, buf.String(), "EXTRA")
	assert.NotContains(t, buf.String(), "PRICE")

	buf.Reset()
	require.NoError(t, KeyValues(&buf, "column", "type", [][2]string{{"name", "utf8"}}))
	assert.Contains(t, buf.String(), "utf8")
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{1.5, "1.5"},
		{float32(0.25), "0.25"},
		{int64(7), "7"},
		{true, "true"},
		{ts, "2024-01-02T03:04:05Z"},
		{[]byte{0xab}, "ab"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestWriteError(t *testing.T) {
	assert.Error(t, Summaries(failingWriter{}, nil))
}
