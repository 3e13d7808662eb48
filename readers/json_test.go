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
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/salesrank/core"
)

func TestJSONReader_Formats(t *testing.T) {
	want := []core.Record{
		{"PRODUCT": "A", "PRICE": 10.0, "SALES": 2.0},
		{"PRODUCT": "B", "PRICE": 100.0, "SALES": 1.0},
	}

	tests := []struct {
		name  string
		input string
	}{
		{"array", `[{"PRODUCT":"A","PRICE":10,"SALES":2},{"PRODUCT":"B","PRICE":100,"SALES":1}]`},
		{"indented array", "\n  [\n {\"PRODUCT\":\"A\",\"PRICE\":10,\"SALES\":2},\n {\"PRODUCT\":\"B\",\"PRICE\":100,\"SALES\":1}\n]\n"},
		{"lines", "{\"PRODUCT\":\"A\",\"PRICE\":10,\"SALES\":2}\n{\"PRODUCT\":\"B\",\"PRICE\":100,\"SALES\":1}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewJSONReader(io.NopCloser(strings.NewReader(tt.input)))
			defer reader.Close()

			assert.Equal(t, want, readAll(t, reader))

			// EOF is sticky
			_, err := reader.Read(context.Background())
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestJSONReader_Empty(t *testing.T) {
	for _, input := range []string{"", "   \n", "[]", " [ ] "} {
		reader := NewJSONReader(io.NopCloser(strings.NewReader(input)))
		assert.Empty(t, readAll(t, reader), "input %q", input)
	}
}

func TestJSONReader_DecodeError(t *testing.T) {
	reader := NewJSONReader(io.NopCloser(strings.NewReader(`[{"a":1},"oops"]`)))

	_, err := reader.Read(context.Background())
	require.NoError(t, err)

	_, err = reader.Read(context.Background())
	var jsonErr *JSONReaderError
	require.ErrorAs(t, err, &jsonErr)
	assert.Equal(t, "decode", jsonErr.Op)
	assert.Equal(t, int64(2), jsonErr.Object)
}
