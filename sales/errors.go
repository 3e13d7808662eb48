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
	"errors"
	"fmt"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrInvalidRecord reports a row whose shape or numeric fields are unusable.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrOverflow reports a product whose earnings statistics left the float64 range.
	ErrOverflow = errors.New("earnings overflow")

	// ErrInvalidKey reports a ranking key outside min, max, sum and median.
	ErrInvalidKey = errors.New("invalid sort key")
)

// RecordError describes which row and column made a record invalid.
type RecordError struct {
	Row   int    // 1-based data row; 0 when the position is unknown
	Field string // offending column, empty for whole-row problems
	Err   error  // wraps ErrInvalidRecord
}

func (e *RecordError) Error() string {
	msg := "record"
	if e.Row > 0 {
		msg = fmt.Sprintf("record %d", e.Row)
	}
	if e.Field != "" {
		msg += " field " + e.Field
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func invalidField(field, format string, args ...interface{}) *RecordError {
	return &RecordError{
		Field: field,
		Err:   fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...)),
	}
}
