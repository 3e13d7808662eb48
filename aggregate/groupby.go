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
	"slices"

	"github.com/aaronlmathis/salesrank/sales"
)

// Aggregate groups records by product and computes the earnings summary of
// every group. Summaries come back in the order each product was first seen.
// An empty input yields an empty, non-nil slice.
func Aggregate(records []sales.Record) []sales.Summary {
	g := NewGroupBy()
	for _, r := range records {
		g.Add(r)
	}
	return g.Summaries()
}

// GroupBy partitions records by product while keeping first-appearance order.
type GroupBy struct {
	keys   []string
	groups map[string]*group
}

// group owns the accumulators of one product.
type group struct {
	min    MinAggregator
	max    MaxAggregator
	sum    SumAggregator
	median MedianAggregator
	count  int
}

func (gr *group) aggregators() []Aggregator {
	return []Aggregator{&gr.min, &gr.max, &gr.sum, &gr.median}
}

// NewGroupBy creates an empty GroupBy.
func NewGroupBy() *GroupBy {
	return &GroupBy{
		groups: make(map[string]*group),
	}
}

// Add routes the earning of r to the group of r.Product.
func (g *GroupBy) Add(r sales.Record) {
	gr, exists := g.groups[r.Product]
	if !exists {
		gr = &group{}
		g.groups[r.Product] = gr
		g.keys = append(g.keys, r.Product)
	}

	earning := r.Earning()
	for _, agg := range gr.aggregators() {
		agg.Add(earning)
	}
	gr.count++
}

// Len returns the number of distinct products seen.
func (g *GroupBy) Len() int {
	return len(g.keys)
}

// Count returns how many records were added for product.
func (g *GroupBy) Count(product string) int {
	if gr, ok := g.groups[product]; ok {
		return gr.count
	}
	return 0
}

// Products returns the distinct products in first-seen order.
func (g *GroupBy) Products() []string {
	return slices.Clone(g.keys)
}

// Summaries builds one summary per group, in first-seen order.
func (g *GroupBy) Summaries() []sales.Summary {
	out := make([]sales.Summary, 0, len(g.keys))
	for _, name := range g.keys {
		gr := g.groups[name]
		out = append(out, sales.Summary{
			Name:   name,
			Min:    gr.min.Result(),
			Max:    gr.max.Result(),
			Sum:    gr.sum.Result(),
			Median: gr.median.Result(),
		})
	}
	return out
}

// Reset drops every group.
func (g *GroupBy) Reset() {
	g.keys = nil
	g.groups = make(map[string]*group)
}

// SumAggregator totals earnings.
type SumAggregator struct {
	sum float64
}

func (s *SumAggregator) Add(value float64) {
	s.sum += value
}

func (s *SumAggregator) Result() float64 {
	return s.sum
}

func (s *SumAggregator) Reset() {
	s.sum = 0
}

// MinAggregator tracks the smallest earning.
// The first value seeds the minimum, so negative earnings are handled.
type MinAggregator struct {
	min float64
	set bool
}

func (m *MinAggregator) Add(value float64) {
	if !m.set || value < m.min {
		m.min = value
		m.set = true
	}
}

func (m *MinAggregator) Result() float64 {
	return m.min
}

func (m *MinAggregator) Reset() {
	m.min = 0
	m.set = false
}

// MaxAggregator tracks the largest earning.
type MaxAggregator struct {
	max float64
	set bool
}

func (m *MaxAggregator) Add(value float64) {
	if !m.set || value > m.max {
		m.max = value
		m.set = true
	}
}

func (m *MaxAggregator) Result() float64 {
	return m.max
}

func (m *MaxAggregator) Reset() {
	m.max = 0
	m.set = false
}

// MedianAggregator keeps every earning and computes the median on demand.
type MedianAggregator struct {
	values []float64
}

func (m *MedianAggregator) Add(value float64) {
	m.values = append(m.values, value)
}

func (m *MedianAggregator) Result() float64 {
	return Median(m.values)
}

func (m *MedianAggregator) Reset() {
	m.values = m.values[:0]
}
