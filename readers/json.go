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

package readers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aaronlmathis/salesrank/core"
)

// JSONReaderError wraps JSON decoding failures with the object position.
type JSONReaderError struct {
	Op     string
	Object int64 // 1-based index of the failing object
	Err    error
}

func (e *JSONReaderError) Error() string {
	return fmt.Sprintf("json reader %s (object %d): %v", e.Op, e.Object, e.Err)
}

func (e *JSONReaderError) Unwrap() error {
	return e.Err
}

// JSONReader implements DataSource for JSON input. It accepts either a
// single top-level array of objects or a stream of objects (JSON lines).
type JSONReader struct {
	buf     *bufio.Reader
	decoder *json.Decoder
	closer  io.Closer
	started bool
	inArray bool
	count   int64
}

// NewJSONReader creates a JSON reader over r.
func NewJSONReader(r io.ReadCloser) *JSONReader {
	return &JSONReader{
		buf:    bufio.NewReader(r),
		closer: r,
	}
}

// Read implements the DataSource interface.
func (j *JSONReader) Read(ctx context.Context) (core.Record, error) {
	select {
	case <-ctx.Done():
		return nil, &JSONReaderError{Op: "read", Object: j.count + 1, Err: ctx.Err()}
	default:
	}

	if !j.started {
		if err := j.start(); err != nil {
			return nil, err
		}
	}

	if !j.decoder.More() {
		if j.inArray {
			if _, err := j.decoder.Token(); err != nil {
				return nil, &JSONReaderError{Op: "close_array", Object: j.count, Err: err}
			}
			j.inArray = false
		}
		return nil, io.EOF
	}

	var record core.Record
	if err := j.decoder.Decode(&record); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &JSONReaderError{Op: "decode", Object: j.count + 1, Err: err}
	}
	j.count++

	return record, nil
}

// start skips leading whitespace and detects whether the input is a
// top-level array, consuming the opening bracket when it is.
func (j *JSONReader) start() error {
	j.started = true

	for {
		b, err := j.buf.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &JSONReaderError{Op: "peek", Err: err}
		}
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			continue
		}
		if err := j.buf.UnreadByte(); err != nil {
			return &JSONReaderError{Op: "peek", Err: err}
		}
		j.inArray = b == '['
		break
	}

	j.decoder = json.NewDecoder(j.buf)
	if j.inArray {
		if _, err := j.decoder.Token(); err != nil {
			return &JSONReaderError{Op: "open_array", Err: err}
		}
	}
	return nil
}

// Close implements the DataSource interface.
func (j *JSONReader) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
