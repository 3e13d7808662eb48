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

// validators.go - row shape checks run before aggregation
package validators

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/aaronlmathis/salesrank/core"
	"github.com/aaronlmathis/salesrank/sales"
)

// RowValidator checks the shape of individual rows.
// It implements core.Transformer so it can sit in a pipeline's transform
// chain; a row that passes is returned unchanged.
type RowValidator struct {
	RequiredFields  []string                  // Fields that must be present and non-null
	ForbiddenFields []string                  // Fields that must not be present
	FieldValidators map[string]FieldValidator // Per-field validation rules
}

// FieldValidator defines validation rules for a single field.
type FieldValidator struct {
	DataType      FieldDataType                   // Expected data type
	Pattern       *regexp.Regexp                  // Regex pattern for string fields
	MinValue      *float64                        // Inclusive lower bound for numeric fields
	MaxValue      *float64                        // Inclusive upper bound for numeric fields
	AllowedValues []string                        // Whitelist, compared case-insensitively
	CustomFunc    func(interface{}) (bool, error) // Custom validation function
}

// FieldDataType represents expected data types for validation.
type FieldDataType string

const (
	FieldTypeString FieldDataType = "string"
	FieldTypeInt    FieldDataType = "int"
	FieldTypeFloat  FieldDataType = "float"
	// FieldTypeNumber accepts any finite Go number or a string that parses as one.
	FieldTypeNumber FieldDataType = "number"
	FieldTypeBool   FieldDataType = "bool"
	FieldTypeAny    FieldDataType = "any"
)

// nonBlank matches strings with at least one non-space character.
var nonBlank = regexp.MustCompile(`\S`)

// RowOption is a functional option for configuring a RowValidator.
type RowOption func(*RowValidator)

// NewRowValidator creates a validator that requires the given fields.
func NewRowValidator(requiredFields []string, options ...RowOption) *RowValidator {
	v := &RowValidator{
		RequiredFields:  requiredFields,
		FieldValidators: make(map[string]FieldValidator),
	}
	for _, option := range options {
		option(v)
	}
	return v
}

// SalesRow returns the validator for raw sales rows: PRODUCT must be a
// non-blank value and PRICE and SALES must be finite numbers.
func SalesRow(options ...RowOption) *RowValidator {
	base := []RowOption{
		WithFieldValidator(sales.ColumnProduct, FieldValidator{DataType: FieldTypeAny, Pattern: nonBlank}),
		WithFieldValidator(sales.ColumnPrice, FieldValidator{DataType: FieldTypeNumber}),
		WithFieldValidator(sales.ColumnSales, FieldValidator{DataType: FieldTypeNumber}),
	}
	return NewRowValidator(
		[]string{sales.ColumnProduct, sales.ColumnPrice, sales.ColumnSales},
		append(base, options...)...,
	)
}

// WithForbiddenFields sets fields that must not be present.
func WithForbiddenFields(fields ...string) RowOption {
	return func(v *RowValidator) {
		v.ForbiddenFields = fields
	}
}

// WithFieldValidator adds a field-specific validator.
func WithFieldValidator(fieldName string, validator FieldValidator) RowOption {
	return func(v *RowValidator) {
		if v.FieldValidators == nil {
			v.FieldValidators = make(map[string]FieldValidator)
		}
		v.FieldValidators[fieldName] = validator
	}
}

// Transform implements core.Transformer.
func (v *RowValidator) Transform(_ context.Context, record core.Record) (core.Record, error) {
	if err := v.Validate(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Validate returns a *sales.RecordError wrapping sales.ErrInvalidRecord
// for the first rule the record breaks.
func (v *RowValidator) Validate(record core.Record) error {
	for _, field := range v.RequiredFields {
		if value, exists := record[field]; !exists || value == nil {
			return invalid(field, "missing required field")
		}
	}

	for _, field := range v.ForbiddenFields {
		if _, exists := record[field]; exists {
			return invalid(field, "forbidden field present")
		}
	}

	for fieldName, validator := range v.FieldValidators {
		value, exists := record[fieldName]
		if !exists || value == nil {
			continue
		}
		if err := validateField(fieldName, value, validator); err != nil {
			return err
		}
	}

	return nil
}

// Check validates every record and returns all failures, each carrying its
// 1-based position in records.
func (v *RowValidator) Check(records []core.Record) []error {
	var errs []error
	for i, record := range records {
		if err := v.Validate(record); err != nil {
			if re, ok := err.(*sales.RecordError); ok {
				re.Row = i + 1
			}
			errs = append(errs, err)
		}
	}
	return errs
}

func validateField(fieldName string, value interface{}, validator FieldValidator) error {
	num, isNum := toNumber(value)

	switch validator.DataType {
	case FieldTypeString:
		if _, ok := value.(string); !ok {
			return invalid(fieldName, "expected string, got %T", value)
		}
	case FieldTypeInt:
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		default:
			return invalid(fieldName, "expected integer, got %T", value)
		}
	case FieldTypeFloat:
		switch value.(type) {
		case float32, float64:
		default:
			return invalid(fieldName, "expected float, got %T", value)
		}
	case FieldTypeNumber:
		if !isNum {
			return invalid(fieldName, "value %v is not numeric", value)
		}
		if math.IsNaN(num) || math.IsInf(num, 0) {
			return invalid(fieldName, "value %v is not finite", value)
		}
	case FieldTypeBool:
		if _, ok := value.(bool); !ok {
			return invalid(fieldName, "expected bool, got %T", value)
		}
	}

	if validator.Pattern != nil {
		str := fmt.Sprintf("%v", value)
		if !validator.Pattern.MatchString(str) {
			return invalid(fieldName, "value %q does not match %s", str, validator.Pattern)
		}
	}

	if validator.MinValue != nil || validator.MaxValue != nil {
		if !isNum {
			return invalid(fieldName, "value %v is not numeric", value)
		}
		if validator.MinValue != nil && num < *validator.MinValue {
			return invalid(fieldName, "value %v below minimum %v", value, *validator.MinValue)
		}
		if validator.MaxValue != nil && num > *validator.MaxValue {
			return invalid(fieldName, "value %v above maximum %v", value, *validator.MaxValue)
		}
	}

	if len(validator.AllowedValues) > 0 {
		str := strings.TrimSpace(fmt.Sprintf("%v", value))
		allowed := false
		for _, candidate := range validator.AllowedValues {
			if strings.EqualFold(candidate, str) {
				allowed = true
				break
			}
		}
		if !allowed {
			return invalid(fieldName, "value %q not in allowed values", str)
		}
	}

	if validator.CustomFunc != nil {
		ok, err := validator.CustomFunc(value)
		if err != nil {
			return invalid(fieldName, "custom validation failed: %v", err)
		}
		if !ok {
			return invalid(fieldName, "failed custom validation")
		}
	}

	return nil
}

// toNumber converts Go numbers and numeric strings to float64.
func toNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
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

func invalid(field, format string, args ...interface{}) *sales.RecordError {
	return &sales.RecordError{
		Field: field,
		Err:   fmt.Errorf("%w: %s", sales.ErrInvalidRecord, fmt.Sprintf(format, args...)),
	}
}

// Float returns a pointer to f, for MinValue and MaxValue literals.
func Float(f float64) *float64 {
	return &f
}
