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

// Package rank orders product summaries by one of their statistics.
package rank

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/aaronlmathis/salesrank/sales"
)

// Rank returns a new slice holding summaries sorted ascending by the field
// named by key. The sort is stable: summaries with equal values keep their
// incoming order. summaries itself is left untouched.
func Rank(summaries []sales.Summary, key sales.Key) ([]sales.Summary, error) {
	value, err := accessor(key)
	if err != nil {
		return nil, err
	}

	ranked := slices.Clone(summaries)
	if ranked == nil {
		ranked = []sales.Summary{}
	}
	slices.SortStableFunc(ranked, func(a, b sales.Summary) int {
		return cmp.Compare(value(a), value(b))
	})
	return ranked, nil
}

// IsRanked reports whether summaries are already in ascending key order.
func IsRanked(summaries []sales.Summary, key sales.Key) (bool, error) {
	value, err := accessor(key)
	if err != nil {
		return false, err
	}
	return slices.IsSortedFunc(summaries, func(a, b sales.Summary) int {
		return cmp.Compare(value(a), value(b))
	}), nil
}

func accessor(key sales.Key) (func(sales.Summary) float64, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("rank: %w %q", sales.ErrInvalidKey, string(key))
	}
	return func(s sales.Summary) float64 {
		v, _ := key.Value(s)
		return v
	}, nil
}
