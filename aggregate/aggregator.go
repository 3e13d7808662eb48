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

package aggregate

// Aggregator accumulates earnings of one product group into a single statistic.
type Aggregator interface {
	// Add feeds one earning into the aggregator.
	Add(value float64)
	// Result returns the statistic over every value added so far.
	Result() float64
	// Reset clears the aggregator state for reuse.
	Reset()
}
