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

package transform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aaronlmathis/salesrank/core"
)

// Package transform provides composable row transformers used ahead of
// aggregation: header normalization, column selection and renaming, and
// value cleanup. Every constructor returns a core.Transformer; none of
// them mutate the record they are given.

// UpperKeys upper-cases every field name so that inputs with lowercase
// headers (JSON documents, Mongo collections) line up with PRODUCT, PRICE,
// SALES and MONTH. When two keys collide after upper-casing, the one that
// was already upper-case wins.
func UpperKeys() core.Transformer {
	return core.TransformFunc(func(ctx context.Context, record core.Record) (core.Record, error) {
		result := make(core.Record, len(record))
		for key, value := range record {
			upper := strings.ToUpper(strings.TrimSpace(key))
			if _, taken := result[upper]; taken && key != upper {
				continue
			}
			result[upper] = value
		}
		return result, nil
	})
}

// Select keeps only the listed fields. Fields missing from the record are
// left out rather than added as nil.
func Select(fields ...string) core.Transformer {
	return core.TransformFunc(func(ctx context.Context, record core.Record) (core.Record, error) {
		result := make(core.Record, len(fields))
		for _, field := range fields {
			if value, exists := record[field]; exists {
				result[field] = value
			}
		}
		return result, nil
	})
}

// Rename renames fields according to mapping (old name to new name).
// A renamed field replaces any existing field with the new name.
func Rename(mapping map[string]string) core.Transformer {
	return core.TransformFunc(func(ctx context.Context, record core.Record) (core.Record, error) {
		result := make(core.Record, len(record))
		for key, value := range record {
			if _, renamed := mapping[key]; renamed {
				continue
			}
			result[key] = value
		}
		for from, to := range mapping {
			if value, exists := record[from]; exists {
				result[to] = value
			}
		}
		return result, nil
	})
}

// TrimSpace trims whitespace from the listed string fields.
func TrimSpace(fields ...string) core.Transformer {
	return mapStrings(strings.TrimSpace, fields)
}

// ToUpper upper-cases the listed string fields.
func ToUpper(fields ...string) core.Transformer {
	return mapStrings(strings.ToUpper, fields)
}

// ToFloat parses the listed fields into float64. Numbers of any Go kind and
// numeric strings convert; anything else is an error naming the field.
func ToFloat(fields ...string) core.Transformer {
	return core.TransformFunc(func(ctx context.Context, record core.Record) (core.Record, error) {
		result := record.Clone()
		for _, field := range fields {
			value, exists := record[field]
			if !exists || value == nil {
				continue
			}
			f, err := convertToFloat(value)
			if err != nil {
				return nil, fmt.Errorf("failed to convert field %s: %w", field, err)
			}
			result[field] = f
		}
		return result, nil
	})
}

// RemoveFields drops the listed fields. Missing fields are ignored.
func RemoveFields(fields ...string) core.Transformer {
	drop := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		drop[field] = struct{}{}
	}

	return core.TransformFunc(func(ctx context.Context, record core.Record) (core.Record, error) {
		result := make(core.Record, len(record))
		for k, v := range record {
			if _, skip := drop[k]; !skip {
				result[k] = v
			}
		}
		return result, nil
	})
}

// Chain composes transformers into one, applied left to right.
func Chain(transformers ...core.Transformer) core.Transformer {
	return core.TransformFunc(func(ctx context.Context, record core.Record) (core.Record, error) {
		current := record
		for _, t := range transformers {
			next, err := t.Transform(ctx, current)
			if err != nil {
				return nil, err
			}
			current = next
		}
		return current, nil
	})
}

func mapStrings(fn func(string) string, fields []string) core.Transformer {
	return core.TransformFunc(func(ctx context.Context, record core.Record) (core.Record, error) {
		result := record.Clone()
		for _, field := range fields {
			if str, ok := record[field].(string); ok {
				result[field] = fn(str)
			}
		}
		return result, nil
	})
}

// convertToFloat attempts to convert a value to float64.
func convertToFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}
