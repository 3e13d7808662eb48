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

package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/salesrank/core"
)

func apply(t *testing.T, tr core.Transformer, in core.Record) core.Record {
	t.Helper()
	out, err := tr.Transform(context.Background(), in)
	require.NoError(t, err)
	return out
}

func TestUpperKeys(t *testing.T) {
	in := core.Record{"product": "A", " price ": 10.0, "Sales": 2, "MONTH": "Jan"}
	out := apply(t, UpperKeys(), in)

	assert.Equal(t, core.Record{"PRODUCT": "A", "PRICE": 10.0, "SALES": 2, "MONTH": "Jan"}, out)
	assert.Contains(t, in, "product", "input must not be modified")
}

func TestUpperKeysCollision(t *testing.T) {
	out := apply(t, UpperKeys(), core.Record{"price": 1, "PRICE": 2})
	assert.Equal(t, core.Record{"PRICE": 2}, out)
}

func TestSelect(t *testing.T) {
	out := apply(t, Select("PRODUCT", "PRICE", "MISSING"), core.Record{"PRODUCT": "A", "PRICE": 1, "_ID": "x"})
	assert.Equal(t, core.Record{"PRODUCT": "A", "PRICE": 1}, out)
}

func TestRename(t *testing.T) {
	out := apply(t, Rename(map[string]string{"ITEM": "PRODUCT", "QTY": "SALES"}),
		core.Record{"ITEM": "A", "QTY": 3, "PRICE": 1})
	assert.Equal(t, core.Record{"PRODUCT": "A", "SALES": 3, "PRICE": 1}, out)
}

func TestTrimSpaceAndToUpper(t *testing.T) {
	in := core.Record{"PRODUCT": "  a ", "MONTH": " jan", "PRICE": 1}

	out := apply(t, TrimSpace("PRODUCT", "MONTH", "PRICE"), in)
	assert.Equal(t, "a", out["PRODUCT"])
	assert.Equal(t, "jan", out["MONTH"])
	assert.Equal(t, 1, out["PRICE"])

	out = apply(t, ToUpper("MONTH"), out)
	assert.Equal(t, "JAN", out["MONTH"])
	assert.Equal(t, "  a ", in["PRODUCT"])
}

func TestToFloat(t *testing.T) {
	out := apply(t, ToFloat("PRICE", "SALES", "NONE"), core.Record{"PRICE": " 2.5 ", "SALES": int64(4)})
	assert.Equal(t, 2.5, out["PRICE"])
	assert.Equal(t, 4.0, out["SALES"])

	_, err := ToFloat("PRICE").Transform(context.Background(), core.Record{"PRICE": "abc"})
	assert.ErrorContains(t, err, "field PRICE")

	_, err = ToFloat("PRICE").Transform(context.Background(), core.Record{"PRICE": true})
	assert.ErrorContains(t, err, "cannot convert bool")
}

func TestRemoveFields(t *testing.T) {
	out := apply(t, RemoveFields("_ID", "NOPE"), core.Record{"_ID": 1, "PRODUCT": "A"})
	assert.Equal(t, core.Record{"PRODUCT": "A"}, out)
}

func TestChain(t *testing.T) {
	tr := Chain(UpperKeys(), TrimSpace("PRODUCT"), Select("PRODUCT"))
	out := apply(t, tr, core.Record{"product": " A ", "other": 1})
	assert.Equal(t, core.Record{"PRODUCT": "A"}, out)

	failing := Chain(ToFloat("PRICE"), UpperKeys())
	_, err := failing.Transform(context.Background(), core.Record{"PRICE": "x"})
	assert.Error(t, err)
}
