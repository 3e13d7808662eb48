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
	"fmt"
	"path"
	"strings"
)

// Format names a supported source or sink encoding.
type Format int

const (
	FormatAuto Format = iota
	FormatCSV
	FormatJSON
	FormatParquet
	FormatPostgres
	FormatMongo
)

var formatNames = map[Format]string{
	FormatAuto:     "auto",
	FormatCSV:      "csv",
	FormatJSON:     "json",
	FormatParquet:  "parquet",
	FormatPostgres: "postgres",
	FormatMongo:    "mongo",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extension returns the file extension conventionally used for f.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	case FormatParquet:
		return ".parquet"
	}
	return ""
}

// ParseFormat parses a user-supplied format name. The empty string means auto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "csv":
		return FormatCSV, nil
	case "json", "jsonl", "ndjson":
		return FormatJSON, nil
	case "parquet":
		return FormatParquet, nil
	case "postgres", "postgresql":
		return FormatPostgres, nil
	case "mongo", "mongodb":
		return FormatMongo, nil
	}
	return FormatAuto, fmt.Errorf("unknown format %q", s)
}

// FormatFromPath infers a file format from its extension. Unknown
// extensions fall back to def.
func FormatFromPath(p string, def Format) Format {
	switch strings.ToLower(path.Ext(p)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	case ".parquet", ".pq":
		return FormatParquet
	}
	return def
}
