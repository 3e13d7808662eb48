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

// Package salesrank ranks products by the earnings recorded in a sales file.
//
// A Pipeline reads raw rows from a core.DataSource, passes them through
// transformers and filters, converts them to sales.Record values, and then
// buffers the whole input. Once the source is exhausted the records are
// grouped by product, summarized (min, max, sum and median of PRICE x SALES),
// sorted ascending by the chosen key and written to a core.DataSink.
//
// Example usage:
//
//	p, err := salesrank.NewPipeline().
//	    From(csvReader).
//	    Transform(transform.UpperKeys()).
//	    Filter(filter.OneOf("MONTH", "Jan")).
//	    RankBy(sales.KeyMedian).
//	    To(jsonWriter).
//	    Build()
//	if err != nil { log.Fatal(err) }
//	result, err := p.Execute(context.Background())
package salesrank
