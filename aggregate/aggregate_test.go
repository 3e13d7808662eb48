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

package aggregate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/salesrank/sales"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		values []float64
		want   float64
	}{
		{[]float64{10, 20, 30}, 20},
		{[]float64{10, 20, 30, 40}, 25},
		{[]float64{5}, 5},
		{[]float64{30, 10, 20}, 20},
		{[]float64{40, 10, 30, 20}, 25},
		{[]float64{-5, 5}, 0},
		{nil, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Median(tt.values), "%v", tt.values)
	}

	values := []float64{3, 1, 2}
	Median(values)
	assert.Equal(t, []float64{3, 1, 2}, values, "input must not be reordered")
}

func TestAggregate_Example(t *testing.T) {
	summaries := Aggregate([]sales.Record{
		{Product: "A", Price: 10, Sales: 2},
		{Product: "A", Price: 5, Sales: 4},
		{Product: "B", Price: 100, Sales: 1},
	})

	assert.Equal(t, []sales.Summary{
		{Name: "A", Min: 20, Max: 20, Sum: 40, Median: 20},
		{Name: "B", Min: 100, Max: 100, Sum: 100, Median: 100},
	}, summaries)
}

func TestAggregate_Empty(t *testing.T) {
	summaries := Aggregate(nil)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestAggregate_FirstSeenOrderAndNegatives(t *testing.T) {
	summaries := Aggregate([]sales.Record{
		{Product: "Z", Price: 1, Sales: 1},
		{Product: "M", Price: -2, Sales: 3},
		{Product: "Z", Price: 2, Sales: 2},
		{Product: "M", Price: -1, Sales: 1},
	})

	require.Len(t, summaries, 2)
	assert.Equal(t, "Z", summaries[0].Name)
	assert.Equal(t, sales.Summary{Name: "M", Min: -6, Max: -1, Sum: -7, Median: -3.5}, summaries[1])
}

func TestAggregate_Invariants(t *testing.T) {
	var records []sales.Record
	total := 0.0
	for i := 0; i < 50; i++ {
		r := sales.Record{
			Product: fmt.Sprintf("P%d", i%7),
			Price:   float64(i%5) + 0.5,
			Sales:   float64((i * 3) % 11),
		}
		total += r.Earning()
		records = append(records, r)
	}

	summaries := Aggregate(records)
	assert.Len(t, summaries, 7)

	sum := 0.0
	for _, s := range summaries {
		assert.LessOrEqual(t, s.Min, s.Median, s.Name)
		assert.LessOrEqual(t, s.Median, s.Max, s.Name)
		sum += s.Sum
	}
	assert.InDelta(t, total, sum, 1e-9)
}

func TestGroupBy(t *testing.T) {
	g := NewGroupBy()
	g.Add(sales.Record{Product: "A", Price: 1, Sales: 1})
	g.Add(sales.Record{Product: "B", Price: 1, Sales: 1})
	g.Add(sales.Record{Product: "A", Price: 1, Sales: 1})

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 2, g.Count("A"))
	assert.Equal(t, 0, g.Count("C"))
	assert.Equal(t, []string{"A", "B"}, g.Products())

	products := g.Products()
	products[0] = "changed"
	assert.Equal(t, []string{"A", "B"}, g.Products())

	g.Reset()
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Summaries())
}

func TestAggregators(t *testing.T) {
	aggs := []struct {
		agg  Aggregator
		want float64
	}{
		{&MinAggregator{}, -4},
		{&MaxAggregator{}, 7},
		{&SumAggregator{}, 5},
		{&MedianAggregator{}, 1},
	}
	for _, a := range aggs {
		for _, v := range []float64{1, 7, -4, 1} {
			a.agg.Add(v)
		}
		assert.Equal(t, a.want, a.agg.Result(), "%T", a.agg)

		a.agg.Reset()
		assert.Equal(t, 0.0, a.agg.Result(), "%T after reset", a.agg)

		a.agg.Add(-9)
		assert.Equal(t, -9.0, a.agg.Result(), "%T reseeded", a.agg)
	}
}
