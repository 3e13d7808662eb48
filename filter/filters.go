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
	"fmt"
	"strconv"
	"strings"

	"github.com/aaronlmathis/salesrank/core"
)

// Package filter provides composable row filters that decide which rows
// reach aggregation. All functions return core.Filter implementations.

// NotNull excludes records where field is missing, nil or an empty string.
func NotNull(field string) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		value, exists := record[field]
		if !exists || value == nil {
			return false, nil
		}
		if str, ok := value.(string); ok && str == "" {
			return false, nil
		}
		return true, nil
	})
}

// OneOf includes records whose field, rendered as text and trimmed, equals
// one of values ignoring case. It backs the --month and --product flags.
// With no values every record passes.
func OneOf(field string, values ...string) core.Filter {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}

	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		if len(set) == 0 {
			return true, nil
		}
		value, exists := record[field]
		if !exists || value == nil {
			return false, nil
		}
		_, ok := set[strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))]
		return ok, nil
	})
}

// Contains includes records where the string field contains substring.
func Contains(field, substring string) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		if str, ok := record[field].(string); ok {
			return strings.Contains(str, substring), nil
		}
		return false, nil
	})
}

// GreaterThan includes records where the numeric field is greater than threshold.
func GreaterThan(field string, threshold float64) core.Filter {
	return numeric(field, func(n float64) bool { return n > threshold })
}

// LessThan includes records where the numeric field is less than threshold.
func LessThan(field string, threshold float64) core.Filter {
	return numeric(field, func(n float64) bool { return n < threshold })
}

// Between includes records where the numeric field is within [min, max].
func Between(field string, min, max float64) core.Filter {
	return numeric(field, func(n float64) bool { return n >= min && n <= max })
}

// And requires all filters to pass.
func And(filters ...core.Filter) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		for _, filter := range filters {
			include, err := filter.ShouldInclude(ctx, record)
			if err != nil || !include {
				return false, err
			}
		}
		return true, nil
	})
}

// Or requires at least one filter to pass.
func Or(filters ...core.Filter) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		for _, filter := range filters {
			include, err := filter.ShouldInclude(ctx, record)
			if err != nil {
				return false, err
			}
			if include {
				return true, nil
			}
		}
		return false, nil
	})
}

// Not negates filter.
func Not(filter core.Filter) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		include, err := filter.ShouldInclude(ctx, record)
		if err != nil {
			return false, err
		}
		return !include, nil
	})
}

// Custom wraps a plain predicate.
func Custom(predicate func(core.Record) bool) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		return predicate(record), nil
	})
}

// numeric excludes records whose field is missing or not a number.
func numeric(field string, match func(float64) bool) core.Filter {
	return core.FilterFunc(func(ctx context.Context, record core.Record) (bool, error) {
		num, ok := convertToFloat64(record[field])
		if !ok {
			return false, nil
		}
		return match(num), nil
	})
}

// convertToFloat64 converts numeric types and numeric strings to float64.
func convertToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
