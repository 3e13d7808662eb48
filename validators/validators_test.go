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

package validators

import (
	"context"
	"errors"
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/salesrank/core"
	"github.com/aaronlmathis/salesrank/sales"
)

func TestSalesRow(t *testing.T) {
	v := SalesRow()

	tests := []struct {
		name      string
		record    core.Record
		wantField string
	}{
		{"valid strings", core.Record{"PRODUCT": "A", "PRICE": "10", "SALES": "2"}, ""},
		{"valid numbers", core.Record{"PRODUCT": "A", "PRICE": 10.5, "SALES": int64(2)}, ""},
		{"negative accepted", core.Record{"PRODUCT": "A", "PRICE": -1, "SALES": 3}, ""},
		{"missing product", core.Record{"PRICE": "10", "SALES": "2"}, "PRODUCT"},
		{"blank product", core.Record{"PRODUCT": "   ", "PRICE": "10", "SALES": "2"}, "PRODUCT"},
		{"nil price", core.Record{"PRODUCT": "A", "PRICE": nil, "SALES": "2"}, "PRICE"},
		{"text price", core.Record{"PRODUCT": "A", "PRICE": "ten", "SALES": "2"}, "PRICE"},
		{"nan sales", core.Record{"PRODUCT": "A", "PRICE": "1", "SALES": math.NaN()}, "SALES"},
		{"inf sales string", core.Record{"PRODUCT": "A", "PRICE": "1", "SALES": "+Inf"}, "SALES"},
		{"bool price", core.Record{"PRODUCT": "A", "PRICE": true, "SALES": "1"}, "PRICE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.record)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, sales.ErrInvalidRecord))

			var re *sales.RecordError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.wantField, re.Field)
		})
	}
}

func TestRowValidatorTransform(t *testing.T) {
	v := SalesRow()
	ctx := context.Background()

	in := core.Record{"PRODUCT": "A", "PRICE": "1", "SALES": "1", "MONTH": "Jan"}
	out, err := v.Transform(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out, err = v.Transform(ctx, core.Record{"PRODUCT": "A"})
	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestFieldValidatorRules(t *testing.T) {
	v := NewRowValidator(nil,
		WithForbiddenFields("SECRET"),
		WithFieldValidator("MONTH", FieldValidator{
			DataType:      FieldTypeString,
			AllowedValues: []string{"Jan", "Feb"},
		}),
		WithFieldValidator("SALES", FieldValidator{
			DataType: FieldTypeNumber,
			MinValue: Float(0),
			MaxValue: Float(100),
		}),
		WithFieldValidator("CODE", FieldValidator{
			DataType: FieldTypeString,
			Pattern:  regexp.MustCompile(`^[A-Z]{3}$`),
		}),
		WithFieldValidator("QTY", FieldValidator{DataType: FieldTypeInt}),
		WithFieldValidator("RATE", FieldValidator{DataType: FieldTypeFloat}),
		WithFieldValidator("ACTIVE", FieldValidator{DataType: FieldTypeBool}),
		WithFieldValidator("EVEN", FieldValidator{
			DataType: FieldTypeInt,
			CustomFunc: func(v interface{}) (bool, error) {
				return v.(int)%2 == 0, nil
			},
		}),
	)

	assert.NoError(t, v.Validate(core.Record{
		"MONTH": "jan", "SALES": "50", "CODE": "ABC",
		"QTY": 3, "RATE": 0.5, "ACTIVE": true, "EVEN": 4,
	}))

	failures := []core.Record{
		{"SECRET": "x"},
		{"MONTH": "Mar"},
		{"MONTH": 1},
		{"SALES": -1},
		{"SALES": 101},
		{"CODE": "abcd"},
		{"QTY": 1.5},
		{"RATE": 1},
		{"ACTIVE": "yes"},
		{"EVEN": 3},
	}
	for _, record := range failures {
		assert.ErrorIs(t, v.Validate(record), sales.ErrInvalidRecord, "record %v", record)
	}
}

func TestCheckNumbersRows(t *testing.T) {
	v := SalesRow()
	errs := v.Check([]core.Record{
		{"PRODUCT": "A", "PRICE": "1", "SALES": "1"},
		{"PRODUCT": "B", "PRICE": "x", "SALES": "1"},
		{"PRODUCT": "C", "PRICE": "1", "SALES": "1"},
		{"PRICE": "1", "SALES": "1"},
	})
	require.Len(t, errs, 2)

	var re *sales.RecordError
	require.True(t, errors.As(errs[0], &re))
	assert.Equal(t, 2, re.Row)
	require.True(t, errors.As(errs[1], &re))
	assert.Equal(t, 4, re.Row)
	assert.Contains(t, errs[1].Error(), "record 4")
}
