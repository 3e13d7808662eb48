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

package core

import (
	"context"
	"fmt"
)

// ErrorHandler is called for rows that fail to read, transform or convert.
type ErrorHandler interface {
	// HandleError processes an error that occurred while preparing a row.
	// Returning a non-nil error stops the pipeline; returning nil skips the row.
	HandleError(ctx context.Context, record Record, err error) error
}

// ErrorStrategy defines how the pipeline treats bad rows.
type ErrorStrategy int

const (
	// FailFast stops processing on the first bad row.
	FailFast ErrorStrategy = iota
	// SkipErrors drops bad rows and keeps going.
	SkipErrors
	// CollectErrors drops bad rows and reports them once the run completes.
	CollectErrors
)

// String returns the flag spelling of the strategy.
func (s ErrorStrategy) String() string {
	switch s {
	case FailFast:
		return "fail"
	case SkipErrors:
		return "skip"
	case CollectErrors:
		return "collect"
	default:
		return "unknown"
	}
}

// ErrorHandlerFunc is a function adapter for the ErrorHandler interface.
type ErrorHandlerFunc func(ctx context.Context, record Record, err error) error

// HandleError implements the ErrorHandler interface for ErrorHandlerFunc.
func (f ErrorHandlerFunc) HandleError(ctx context.Context, record Record, err error) error {
	return f(ctx, record, err)
}

// ParseErrorStrategy maps "fail", "skip" or "collect" to an ErrorStrategy.
func ParseErrorStrategy(s string) (ErrorStrategy, error) {
	switch s {
	case "", "fail":
		return FailFast, nil
	case "skip":
		return SkipErrors, nil
	case "collect":
		return CollectErrors, nil
	default:
		return FailFast, fmt.Errorf("unknown error strategy %q (want fail, skip or collect)", s)
	}
}
