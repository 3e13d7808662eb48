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

package salesrank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aaronlmathis/salesrank/aggregate"
	"github.com/aaronlmathis/salesrank/core"
	"github.com/aaronlmathis/salesrank/logging"
	"github.com/aaronlmathis/salesrank/rank"
	"github.com/aaronlmathis/salesrank/sales"
)

// PipelineBuilder provides a fluent API for constructing a Pipeline.
type PipelineBuilder struct {
	pipeline *Pipeline
}

// NewPipeline creates a builder with the fail-fast strategy and a discarding logger.
func NewPipeline() *PipelineBuilder {
	return &PipelineBuilder{
		pipeline: &Pipeline{
			transformers: make([]core.Transformer, 0),
			filters:      make([]core.Filter, 0),
			strategy:     core.FailFast,
			logger:       logging.Discard(),
		},
	}
}

// From sets the row source.
func (pb *PipelineBuilder) From(source core.DataSource) *PipelineBuilder {
	pb.pipeline.source = source
	return pb
}

// Transform appends a transformer; transformers run in the order added.
func (pb *PipelineBuilder) Transform(transformer core.Transformer) *PipelineBuilder {
	pb.pipeline.transformers = append(pb.pipeline.transformers, transformer)
	return pb
}

// Map appends a transformation function.
func (pb *PipelineBuilder) Map(fn func(ctx context.Context, record core.Record) (core.Record, error)) *PipelineBuilder {
	return pb.Transform(core.TransformFunc(fn))
}

// Filter appends a filter; a row must pass every filter to be aggregated.
func (pb *PipelineBuilder) Filter(filter core.Filter) *PipelineBuilder {
	pb.pipeline.filters = append(pb.pipeline.filters, filter)
	return pb
}

// Where appends a filter function.
func (pb *PipelineBuilder) Where(fn func(ctx context.Context, record core.Record) (bool, error)) *PipelineBuilder {
	return pb.Filter(core.FilterFunc(fn))
}

// Validate appends a row check that runs after every filter, so rows a
// filter excludes are never rejected. Checks return the row unchanged or an error.
func (pb *PipelineBuilder) Validate(check core.Transformer) *PipelineBuilder {
	pb.pipeline.checks = append(pb.pipeline.checks, check)
	return pb
}

// RankBy selects the statistic summaries are sorted by.
func (pb *PipelineBuilder) RankBy(key sales.Key) *PipelineBuilder {
	pb.pipeline.key = key
	return pb
}

// To sets the summary sink.
func (pb *PipelineBuilder) To(sink core.DataSink) *PipelineBuilder {
	pb.pipeline.sink = sink
	return pb
}

// WithErrorStrategy sets how bad rows are treated.
func (pb *PipelineBuilder) WithErrorStrategy(strategy core.ErrorStrategy) *PipelineBuilder {
	pb.pipeline.strategy = strategy
	return pb
}

// WithErrorHandler sets a handler consulted for bad rows under SkipErrors
// and CollectErrors. A non-nil return from the handler stops the run.
func (pb *PipelineBuilder) WithErrorHandler(handler core.ErrorHandler) *PipelineBuilder {
	pb.pipeline.errorHandler = handler
	return pb
}

// WithLogger sets the logger; nil keeps the discarding default.
func (pb *PipelineBuilder) WithLogger(logger *slog.Logger) *PipelineBuilder {
	if logger != nil {
		pb.pipeline.logger = logger
	}
	return pb
}

// Build validates and returns the Pipeline.
func (pb *PipelineBuilder) Build() (*Pipeline, error) {
	if pb.pipeline.source == nil {
		return nil, fmt.Errorf("pipeline requires a data source")
	}
	if pb.pipeline.sink == nil {
		return nil, fmt.Errorf("pipeline requires a data sink")
	}
	if !pb.pipeline.key.Valid() {
		return nil, fmt.Errorf("pipeline: %w %q", sales.ErrInvalidKey, pb.pipeline.key.String())
	}
	return pb.pipeline, nil
}

// Pipeline reads every row, aggregates, ranks and writes the summaries.
type Pipeline struct {
	transformers []core.Transformer
	filters      []core.Filter
	checks       []core.Transformer
	source       core.DataSource
	sink         core.DataSink
	key          sales.Key
	strategy     core.ErrorStrategy
	errorHandler core.ErrorHandler
	logger       *slog.Logger
}

// Result describes one pipeline run.
type Result struct {
	Summaries        []sales.Summary // ranked, as written to the sink
	Records          []sales.Record  // rows that reached aggregation, in input order
	RowsRead         int
	RowsFiltered     int
	RowsSkipped      int
	Errors           []error // bad rows, populated under CollectErrors
	Duration         time.Duration
	SummariesWritten int
}

// Summarize groups records by product and ranks the summaries by key.
func Summarize(records []sales.Record, key sales.Key) ([]sales.Summary, error) {
	return rank.Rank(aggregate.Aggregate(records), key)
}

// Execute runs the pipeline. The source is always closed. The sink is
// flushed and closed on success. On failure it is aborted when it
// implements core.Aborter and closed otherwise; the returned error is the
// first failure.
//
// Source read errors and sink errors always stop the run. Row errors from
// transformers, filters and record conversion follow the error strategy.
func (p *Pipeline) Execute(ctx context.Context) (result *Result, err error) {
	start := time.Now()
	result = &Result{}

	p.logger.Info("pipeline.start", "sort_key", p.key.String(), "on_error", p.strategy.String())

	defer func() {
		if cerr := p.source.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close source: %w", cerr)
		}
		result.Duration = time.Since(start)
		if err != nil {
			p.logger.Error("pipeline.failed", "error", err, "rows_read", result.RowsRead)
			return
		}
		p.logger.Info("pipeline.done",
			"rows_read", result.RowsRead,
			"rows_filtered", result.RowsFiltered,
			"rows_skipped", result.RowsSkipped,
			"products", len(result.Summaries),
			"duration", result.Duration,
		)
	}()

	records, err := p.collect(ctx, result)
	if err != nil {
		p.abortSink()
		return result, err
	}
	result.Records = records

	summaries, err := Summarize(records, p.key)
	if err != nil {
		p.abortSink()
		return result, err
	}
	for _, s := range summaries {
		if !s.Finite() {
			p.abortSink()
			return result, fmt.Errorf("summarize %q: %w", s.Name, sales.ErrOverflow)
		}
	}
	result.Summaries = summaries
	p.logger.Debug("pipeline.ranked", "products", len(summaries), "sort_key", p.key.String())

	for _, s := range summaries {
		if err := p.sink.Write(ctx, s.ToRecord()); err != nil {
			p.abortSink()
			return result, fmt.Errorf("write summary %q: %w", s.Name, err)
		}
		result.SummariesWritten++
	}

	if err := p.sink.Flush(); err != nil {
		p.abortSink()
		return result, fmt.Errorf("flush sink: %w", err)
	}
	if err := p.sink.Close(); err != nil {
		return result, fmt.Errorf("close sink: %w", err)
	}

	return result, nil
}

// abortSink discards the sink output when the sink supports it.
func (p *Pipeline) abortSink() {
	if a, ok := p.sink.(core.Aborter); ok {
		if err := a.Abort(); err != nil {
			p.logger.Warn("pipeline.abort_failed", "error", err)
		}
		return
	}
	if err := p.sink.Close(); err != nil {
		p.logger.Warn("pipeline.close_failed", "error", err)
	}
}

// collect drains the source and returns every row that survived the
// transform, filter and conversion steps.
func (p *Pipeline) collect(ctx context.Context, result *Result) ([]sales.Record, error) {
	records := make([]sales.Record, 0)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := p.source.Read(ctx)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}

		result.RowsRead++
		row := result.RowsRead

		if len(raw) == 0 {
			result.RowsFiltered++
			continue
		}

		transformed, err := p.applyTransformations(ctx, raw)
		if err != nil {
			if err := p.handleError(ctx, result, row, raw, err); err != nil {
				return nil, err
			}
			continue
		}

		include, err := p.applyFilters(ctx, transformed)
		if err != nil {
			if err := p.handleError(ctx, result, row, transformed, err); err != nil {
				return nil, err
			}
			continue
		}
		if !include {
			result.RowsFiltered++
			continue
		}

		if err := p.applyChecks(ctx, transformed); err != nil {
			if err := p.handleError(ctx, result, row, transformed, err); err != nil {
				return nil, err
			}
			continue
		}

		rec, err := sales.FromRow(transformed)
		if err != nil {
			if err := p.handleError(ctx, result, row, transformed, err); err != nil {
				return nil, err
			}
			continue
		}

		records = append(records, rec)
	}
}

func (p *Pipeline) applyFilters(ctx context.Context, record core.Record) (bool, error) {
	for _, filter := range p.filters {
		include, err := filter.ShouldInclude(ctx, record)
		if err != nil {
			return false, err
		}
		if !include {
			return false, nil
		}
	}
	return true, nil
}

func (p *Pipeline) applyTransformations(ctx context.Context, record core.Record) (core.Record, error) {
	current := record
	for _, transformer := range p.transformers {
		transformed, err := transformer.Transform(ctx, current)
		if err != nil {
			return nil, err
		}
		current = transformed
	}
	return current, nil
}

func (p *Pipeline) applyChecks(ctx context.Context, record core.Record) error {
	for _, check := range p.checks {
		if _, err := check.Transform(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// handleError attaches the row number to err and applies the strategy.
// It returns nil when the row should be dropped and processing continue.
func (p *Pipeline) handleError(ctx context.Context, result *Result, row int, record core.Record, err error) error {
	var re *sales.RecordError
	if errors.As(err, &re) {
		if re.Row == 0 {
			re.Row = row
		}
	} else {
		err = fmt.Errorf("row %d: %w", row, err)
	}

	switch p.strategy {
	case core.SkipErrors:
		result.RowsSkipped++
		p.logger.Warn("pipeline.row_skipped", "row", row, "error", err)
	case core.CollectErrors:
		result.RowsSkipped++
		result.Errors = append(result.Errors, err)
		p.logger.Debug("pipeline.row_collected", "row", row, "error", err)
	default:
		return err
	}

	if p.errorHandler != nil {
		return p.errorHandler.HandleError(ctx, record, err)
	}
	return nil
}
