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

package types

import (
	"context"
	"fmt"
	"sync"

	"github.com/aaronlmathis/salesrank/core"
)

// DeferredSink opens its output location on first use, so a run that fails
// while reading input leaves no file, object or table behind.
type DeferredSink struct {
	mu      sync.Mutex
	ctx     context.Context
	loc     OutputLocation
	opts    OutputOptions
	sink    core.DataSink
	openErr error
	done    bool
}

// OpenDeferredSink parses raw and checks the output format immediately, but
// creates the sink only when the first record is written or the sink is
// flushed or closed.
func OpenDeferredSink(ctx context.Context, raw string, opts OutputOptions) (*DeferredSink, error) {
	loc, err := ParseOutput(raw)
	if err != nil {
		return nil, err
	}
	if err := checkOutput(loc, opts); err != nil {
		return nil, err
	}
	return NewDeferredSink(ctx, loc, opts), nil
}

// NewDeferredSink wraps loc without opening it.
func NewDeferredSink(ctx context.Context, loc OutputLocation, opts OutputOptions) *DeferredSink {
	return &DeferredSink{ctx: ctx, loc: loc, opts: opts}
}

// Location returns the wrapped output location.
func (d *DeferredSink) Location() OutputLocation {
	return d.loc
}

func (d *DeferredSink) open() (core.DataSink, error) {
	if d.done {
		return nil, fmt.Errorf("output %s already closed", d.loc)
	}
	if d.sink == nil && d.openErr == nil {
		d.sink, d.openErr = d.loc.NewSink(d.ctx, d.opts)
	}
	return d.sink, d.openErr
}

func (d *DeferredSink) Write(ctx context.Context, record core.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sink, err := d.open()
	if err != nil {
		return err
	}
	return sink.Write(ctx, record)
}

func (d *DeferredSink) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sink, err := d.open()
	if err != nil {
		return err
	}
	return sink.Flush()
}

// Close opens the location if nothing was written yet, so an empty result
// still produces output, then closes it.
func (d *DeferredSink) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done {
		return nil
	}
	sink, err := d.open()
	d.done = true
	if err != nil {
		return err
	}
	return sink.Close()
}

// Abort discards whatever was opened. When nothing was opened it is a no-op.
func (d *DeferredSink) Abort() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done {
		return nil
	}
	d.done = true
	if d.sink == nil {
		return nil
	}
	if a, ok := d.sink.(core.Aborter); ok {
		return a.Abort()
	}
	return d.sink.Close()
}

// checkOutput rejects format and location combinations before anything is opened.
func checkOutput(loc OutputLocation, opts OutputOptions) error {
	switch l := loc.(type) {
	case FileLocation:
		format := opts.Format
		if format == FormatAuto {
			format = FormatFromPath(l.Path, FormatJSON)
		}
		return checkStreamFormat(format)
	case S3Location:
		format := opts.Format
		if format == FormatAuto {
			format = FormatFromPath(l.Key, FormatJSON)
		}
		return checkStreamFormat(format)
	case PostgresLocation:
		if opts.Format != FormatAuto && opts.Format != FormatPostgres {
			return fmt.Errorf("unsupported format %s for postgres output", opts.Format)
		}
	}
	return nil
}
