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

// Package display renders input rows and ranked summaries as console tables.
package display

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/aaronlmathis/salesrank/core"
	"github.com/aaronlmathis/salesrank/sales"
)

// IndexHeader titles the leading row-number column.
const IndexHeader = "#"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

// Summaries prints ranked summaries, one row per product, in slice order.
func Summaries(w io.Writer, summaries []sales.Summary) error {
	rows := make([][]string, 0, len(summaries))
	for i, s := range summaries {
		rows = append(rows, []string{
			strconv.Itoa(i),
			s.Name,
			formatFloat(s.Min),
			formatFloat(s.Max),
			formatFloat(s.Sum),
			formatFloat(s.Median),
		})
	}
	headers := append([]string{IndexHeader}, sales.SummaryFields...)
	return render(w, headers, rows, func(col int) bool { return col == 0 || col > 1 })
}

// Records prints parsed input records with the PRODUCT, PRICE, SALES and
// MONTH columns.
func Records(w io.Writer, records []sales.Record) error {
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(i),
			r.Product,
			formatFloat(r.Price),
			formatFloat(r.Sales),
			r.Month,
		})
	}
	headers := append([]string{IndexHeader}, sales.Columns...)
	return render(w, headers, rows, func(col int) bool { return col == 0 || col == 2 || col == 3 })
}

// Rows prints raw records under the given columns. Missing values render
// as empty cells.
func Rows(w io.Writer, columns []string, records []core.Record) error {
	rows := make([][]string, 0, len(records))
	for i, rec := range records {
		row := make([]string, 0, len(columns)+1)
		row = append(row, strconv.Itoa(i))
		for _, col := range columns {
			row = append(row, FormatValue(rec[col]))
		}
		rows = append(rows, row)
	}
	headers := append([]string{IndexHeader}, columns...)
	return render(w, headers, rows, func(col int) bool { return col == 0 })
}

// KeyValues prints a two column table, used for schemas and file metadata.
func KeyValues(w io.Writer, keyHeader, valueHeader string, pairs [][2]string) error {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}
	return render(w, []string{keyHeader, valueHeader}, rows, func(int) bool { return false })
}

// FormatValue renders a record value for a table cell.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return formatFloat(val)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return fmt.Sprintf("%x", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func render(w io.Writer, headers []string, rows [][]string, numeric func(col int) bool) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case numeric(col):
				return numberStyle
			default:
				return cellStyle
			}
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
