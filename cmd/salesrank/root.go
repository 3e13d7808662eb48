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
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aaronlmathis/salesrank"
	"github.com/aaronlmathis/salesrank/config"
	"github.com/aaronlmathis/salesrank/core"
	"github.com/aaronlmathis/salesrank/display"
	"github.com/aaronlmathis/salesrank/filter"
	"github.com/aaronlmathis/salesrank/logging"
	"github.com/aaronlmathis/salesrank/sales"
	"github.com/aaronlmathis/salesrank/transform"
	"github.com/aaronlmathis/salesrank/types"
	"github.com/aaronlmathis/salesrank/validators"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "salesrank",
		Short: "Rank products by the earnings in a sales file",
		Long: `salesrank reads product sales rows (PRODUCT, PRICE, SALES, MONTH), computes
the min, max, sum and median of PRICE x SALES for every product and writes
the products sorted ascending by the chosen statistic.`,
		Example: `  salesrank --input sales.csv --output earnings.json --sorting median
  salesrank --input s3://bucket/sales/ --output postgres://localhost/shop --sorting sum
  salesrank --input mongodb://localhost/shop --mongo-collection sales --output out.parquet --sorting max`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(logging.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			return runRank(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.AddCommand(newInspectCmd())
	return cmd
}

// runRank wires the configured source, row preparation and sink into a
// pipeline, runs it and prints the tables requested.
func runRank(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	key, err := cfg.SortKey()
	if err != nil {
		return err
	}
	strategy, err := cfg.ErrorStrategy()
	if err != nil {
		return err
	}
	inOpts, err := cfg.InputOptions()
	if err != nil {
		return err
	}
	outOpts, err := cfg.OutputOptions()
	if err != nil {
		return err
	}

	sink, err := types.OpenDeferredSink(ctx, cfg.Output, outOpts)
	if err != nil {
		return fmt.Errorf("output %s: %w", cfg.Output, err)
	}
	source, err := types.OpenSource(ctx, cfg.Input, inOpts)
	if err != nil {
		return fmt.Errorf("input %s: %w", cfg.Input, err)
	}

	logger.Debug("salesrank.locations", "input", cfg.Input, "output", sink.Location().String())

	builder := salesrank.NewPipeline().
		From(source).
		To(sink).
		RankBy(key).
		WithErrorStrategy(strategy).
		WithLogger(logger)
	for _, t := range rowTransformers(cfg) {
		builder.Transform(t)
	}
	for _, f := range rowFilters(cfg) {
		builder.Filter(f)
	}
	builder.Validate(validators.SalesRow())

	p, err := builder.Build()
	if err != nil {
		source.Close()
		return err
	}

	result, err := p.Execute(ctx)
	if err != nil {
		return err
	}

	for _, rowErr := range result.Errors {
		logger.Warn("salesrank.row_error", "error", rowErr)
	}

	if cfg.ShowInput {
		if err := display.Records(stdout, result.Records); err != nil {
			return err
		}
	}
	if cfg.Display {
		if err := display.Summaries(stdout, result.Summaries); err != nil {
			return err
		}
	}
	return nil
}

// rowTransformers normalizes rows from any source to the PRODUCT, PRICE,
// SALES and MONTH columns.
func rowTransformers(cfg *config.Config) []core.Transformer {
	out := []core.Transformer{transform.UpperKeys()}
	if len(cfg.Rename) > 0 {
		mapping := make(map[string]string, len(cfg.Rename))
		for from, to := range cfg.Rename {
			mapping[strings.ToUpper(strings.TrimSpace(from))] = strings.ToUpper(strings.TrimSpace(to))
		}
		out = append(out, transform.Rename(mapping))
	}
	return append(out,
		transform.Select(sales.Columns...),
		transform.TrimSpace(sales.ColumnProduct, sales.ColumnMonth),
	)
}

func rowFilters(cfg *config.Config) []core.Filter {
	var out []core.Filter
	if len(cfg.Months) > 0 {
		out = append(out, filter.OneOf(sales.ColumnMonth, cfg.Months...))
	}
	if len(cfg.Products) > 0 {
		out = append(out, filter.OneOf(sales.ColumnProduct, cfg.Products...))
	}
	return out
}
