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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aaronlmathis/salesrank/config"
	"github.com/aaronlmathis/salesrank/core"
	"github.com/aaronlmathis/salesrank/display"
	"github.com/aaronlmathis/salesrank/readers"
	"github.com/aaronlmathis/salesrank/sales"
	"github.com/aaronlmathis/salesrank/types"
)

func newInspectCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect LOCATION",
		Short: "Print the rows of an input as a table",
		Long: `inspect prints the first rows of any supported input. For Parquet files it
also prints the row count, the row groups and both the Arrow and the
physical column types.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			opts, err := cfg.InputOptions()
			if err != nil {
				return err
			}
			return runInspect(cmd.Context(), args[0], opts, limit, cmd.OutOrStdout())
		},
	}

	config.RegisterSourceFlags(cmd.Flags())
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to print; 0 prints every row")
	return cmd
}

func runInspect(ctx context.Context, location string, opts types.InputOptions, limit int, out io.Writer) error {
	source, err := types.OpenSource(ctx, location, opts)
	if err != nil {
		return fmt.Errorf("input %s: %w", location, err)
	}
	defer source.Close()

	if pr, ok := source.(*readers.ParquetReader); ok {
		if err := printParquetInfo(out, pr); err != nil {
			return err
		}
	}

	var rows []core.Record
	total := 0
	for {
		rec, err := source.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", location, err)
		}
		total++
		if limit <= 0 || len(rows) < limit {
			rows = append(rows, rec)
		}
	}

	if err := display.Rows(out, columnsOf(rows), rows); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%d of %d rows shown\n", len(rows), total)
	return err
}

func printParquetInfo(out io.Writer, pr *readers.ParquetReader) error {
	groups := pr.RowGroupRows()
	info := [][2]string{
		{"rows", strconv.FormatInt(pr.NumRows(), 10)},
		{"row groups", strconv.Itoa(len(groups))},
	}
	for i, n := range groups {
		info = append(info, [2]string{fmt.Sprintf("row group %d", i), strconv.FormatInt(n, 10)})
	}
	if err := display.KeyValues(out, "file", "value", info); err != nil {
		return err
	}

	var fields [][2]string
	for _, f := range pr.Schema().Fields() {
		fields = append(fields, [2]string{f.Name, f.Type.String()})
	}
	if err := display.KeyValues(out, "field", "arrow type", fields); err != nil {
		return err
	}
	return display.KeyValues(out, "column", "physical type", pr.PhysicalColumns())
}

// columnsOf lists the known sales columns first, then any other column in
// sorted order.
func columnsOf(rows []core.Record) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}

	var cols []string
	for _, c := range sales.Columns {
		if seen[c] {
			cols = append(cols, c)
			delete(seen, c)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	slices.Sort(rest)
	return append(cols, rest...)
}
