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

package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/salesrank/sales"
)

func fixture() []sales.Summary {
	return []sales.Summary{
		{Name: "A", Min: 20, Max: 20, Sum: 40, Median: 20},
		{Name: "B", Min: 100, Max: 100, Sum: 100, Median: 100},
		{Name: "C", Min: 1, Max: 500, Sum: 504, Median: 3},
		{Name: "D", Min: 5, Max: 60, Sum: 65, Median: 32.5},
	}
}

func names(summaries []sales.Summary) []string {
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.Name
	}
	return out
}

func TestRank_EachKey(t *testing.T) {
	tests := map[sales.Key][]string{
		sales.KeyMin:    {"C", "D", "A", "B"},
		sales.KeyMax:    {"A", "D", "B", "C"},
		sales.KeySum:    {"A", "D", "B", "C"},
		sales.KeyMedian: {"C", "A", "D", "B"},
	}
	for key, want := range tests {
		ranked, err := Rank(fixture(), key)
		require.NoError(t, err)
		assert.Equal(t, want, names(ranked), key.String())

		ok, err := IsRanked(ranked, key)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestRank_Idempotent(t *testing.T) {
	for _, key := range sales.Keys() {
		once, err := Rank(fixture(), key)
		require.NoError(t, err)
		twice, err := Rank(once, key)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestRank_StableTies(t *testing.T) {
	in := []sales.Summary{
		{Name: "first", Sum: 10},
		{Name: "low", Sum: 1},
		{Name: "second", Sum: 10},
		{Name: "third", Sum: 10},
	}
	ranked, err := Rank(in, sales.KeySum)
	require.NoError(t, err)
	assert.Equal(t, []string{"low", "first", "second", "third"}, names(ranked))
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	in := fixture()
	_, err := Rank(in, sales.KeyMin)
	require.NoError(t, err)
	assert.Equal(t, fixture(), in)
}

func TestRank_InvalidKey(t *testing.T) {
	_, err := Rank(fixture(), "average")
	assert.ErrorIs(t, err, sales.ErrInvalidKey)

	_, err = IsRanked(fixture(), "")
	assert.ErrorIs(t, err, sales.ErrInvalidKey)
}

func TestRank_Empty(t *testing.T) {
	ranked, err := Rank(nil, sales.KeyMax)
	require.NoError(t, err)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)

	ok, err := IsRanked(fixture(), sales.KeyMin)
	require.NoError(t, err)
	assert.False(t, ok)
}
