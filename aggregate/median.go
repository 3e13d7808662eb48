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

import "slices"

// Median returns the middle value of values, or the mean of the two middle
// values when the count is even. values is not modified. Median of an empty
// slice is 0; groups always hold at least one earning so this never surfaces.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	half := n / 2
	if n%2 == 1 {
		return sorted[half]
	}
	return (sorted[half-1] + sorted[half]) / 2
}
