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
	"math"
	"strconv"
	"strings"

	"github.com/aaronlmathis/salesrank/core"
)

// Column names expected in the input rows.
const (
	ColumnProduct = "PRODUCT"
	ColumnPrice   = "PRICE"
	ColumnSales   = "SALES"
	ColumnMonth   = "MONTH"
)

// Columns lists the input columns in display order.
var Columns = []string{ColumnProduct, ColumnPrice, ColumnSales, ColumnMonth}

// Record is one sale event for a product in a given month.
type Record struct {
	Product string
	Price   float64
	Sales   float64
	Month   string
}

// Earning returns Price * Sales.
func (r Record) Earning() float64 {
	return r.Price * r.Sales
}

// FromRow converts a raw row into a Record.
//
// PRODUCT must be a non-empty value. PRICE and SALES accept any Go integer or
// float kind as well as numeric strings; NaN and infinities are rejected.
// Negative and zero values are accepted as-is. MONTH is optional and passed through.
func FromRow(row core.Record) (Record, error) {
	var rec Record

	product, err := stringField(row, ColumnProduct)
	if err != nil {
		return rec, err
	}
	if product == "" {
		return rec, invalidField(ColumnProduct, "product is empty")
	}
	rec.Product = product

	if rec.Price, err = numberField(row, ColumnPrice); err != nil {
		return rec, err
	}
	if rec.Sales, err = numberField(row, ColumnSales); err != nil {
		return rec, err
	}
	if e := rec.Earning(); math.IsNaN(e) || math.IsInf(e, 0) {
		return rec, invalidField("", "earning %v x %v is not finite", rec.Price, rec.Sales)
	}

	if v, ok := row[ColumnMonth]; ok && v != nil {
		rec.Month = strings.TrimSpace(fmt.Sprintf("%v", v))
	}

	return rec, nil
}

// ToRow is the inverse of FromRow, used for display and tests.
func (r Record) ToRow() core.Record {
	return core.Record{
		ColumnProduct: r.Product,
		ColumnPrice:   r.Price,
		ColumnSales:   r.Sales,
		ColumnMonth:   r.Month,
	}
}

func stringField(row core.Record, field string) (string, error) {
	value, exists := row[field]
	if !exists || value == nil {
		return "", invalidField(field, "missing value")
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case []byte:
		return strings.TrimSpace(string(v)), nil
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v)), nil
	}
}

func numberField(row core.Record, field string) (float64, error) {
	value, exists := row[field]
	if !exists || value == nil {
		return 0, invalidField(field, "missing value")
	}

	f, err := toFloat64(value)
	if err != nil {
		return 0, invalidField(field, "%v", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalidField(field, "value %v is not finite", value)
	}
	return f, nil
}

func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		s := strings.TrimSpace(v)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot use %T as a number", value)
	}
}
