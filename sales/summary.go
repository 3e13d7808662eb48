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
	"math"

	"github.com/aaronlmathis/salesrank/core"
)

// Summary fields in output order.
const (
	FieldName   = "name"
	FieldMin    = "min"
	FieldMax    = "max"
	FieldSum    = "sum"
	FieldMedian = "median"
)

// SummaryFields is the column order used by every sink.
var SummaryFields = []string{FieldName, FieldMin, FieldMax, FieldSum, FieldMedian}

// Summary holds the earnings statistics of one product.
type Summary struct {
	Name   string  `json:"name"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Sum    float64 `json:"sum"`
	Median float64 `json:"median"`
}

// Finite reports whether every statistic is a finite number.
func (s Summary) Finite() bool {
	for _, v := range []float64{s.Min, s.Max, s.Sum, s.Median} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ToRecord converts the summary into the record shape sinks consume.
func (s Summary) ToRecord() core.Record {
	return core.Record{
		FieldName:   s.Name,
		FieldMin:    s.Min,
		FieldMax:    s.Max,
		FieldSum:    s.Sum,
		FieldMedian: s.Median,
	}
}
