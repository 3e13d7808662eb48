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

package sales

import (
	"fmt"
	"strings"
)

// Key names the statistic summaries are ranked by.
type Key string

const (
	KeyMin    Key = "min"
	KeyMax    Key = "max"
	KeySum    Key = "sum"
	KeyMedian Key = "median"
)

// Keys returns every recognized key.
func Keys() []Key {
	return []Key{KeyMin, KeyMax, KeySum, KeyMedian}
}

// ParseKey validates a raw key such as the --sorting flag value.
func ParseKey(s string) (Key, error) {
	k := Key(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w %q (want %s)", ErrInvalidKey, s, keyList())
	}
	return k, nil
}

// Valid reports whether k is one of the recognized keys.
func (k Key) Valid() bool {
	switch k {
	case KeyMin, KeyMax, KeySum, KeyMedian:
		return true
	}
	return false
}

// Value extracts the statistic named by k from s.
func (k Key) Value(s Summary) (float64, error) {
	switch k {
	case KeyMin:
		return s.Min, nil
	case KeyMax:
		return s.Max, nil
	case KeySum:
		return s.Sum, nil
	case KeyMedian:
		return s.Median, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrInvalidKey, string(k))
	}
}

func (k Key) String() string {
	return string(k)
}

func keyList() string {
	keys := Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, "|")
}
