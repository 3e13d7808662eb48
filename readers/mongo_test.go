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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aaronlmathis/salesrank/core"
)

func TestMongoReader_Validation(t *testing.T) {
	_, err := NewMongoReader(WithMongoCollection("sales"))
	var mongoErr *MongoReaderError
	require.ErrorAs(t, err, &mongoErr)
	assert.Contains(t, err.Error(), "database name is required")

	_, err = NewMongoReader(WithMongoDB("shop"))
	require.ErrorAs(t, err, &mongoErr)
	assert.Contains(t, err.Error(), "collection name is required")

	_, err = NewMongoReader(WithMongoDB("shop"), WithMongoCollection("sales"), WithMongoReadPreference("sideways"))
	require.Error(t, err)

	reader, err := NewMongoReader(
		WithMongoDB("shop"),
		WithMongoCollection("sales"),
		WithMongoTimeout(5*time.Second),
		WithMongoBatchSize(10),
		WithMongoFilter(bson.M{"MONTH": "Jan"}),
	)
	require.NoError(t, err)
	assert.Equal(t, int32(10), reader.opts.BatchSize)
	assert.NoError(t, reader.Close())
}

func TestMongoReader_QueryOptions(t *testing.T) {
	sort, err := ParseMongoSort([]string{"-SALES", "+PRODUCT", " MONTH "})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "SALES", Value: -1}, {Key: "PRODUCT", Value: 1}, {Key: "MONTH", Value: 1}}, sort)

	_, err = ParseMongoSort([]string{"PRICE", "-"})
	assert.ErrorContains(t, err, "empty field")

	assert.Nil(t, MongoProjection(nil))
	assert.Equal(t, bson.M{"_id": 0, "PRODUCT": 1, "PRICE": 1}, MongoProjection([]string{"PRODUCT", " PRICE", ""}))

	reader, err := NewMongoReader(
		WithMongoDB("shop"),
		WithMongoCollection("sales"),
		WithMongoLimit(500),
		WithMongoSort(sort),
		WithMongoProjection(MongoProjection([]string{"PRODUCT"})),
	)
	require.NoError(t, err)

	opts := reader.Options()
	assert.Equal(t, int64(500), opts.Limit)
	assert.Equal(t, sort, opts.Sort)
	assert.Equal(t, bson.M{"_id": 0, "PRODUCT": 1}, opts.Projection)
}

func TestDocumentToRecord(t *testing.T) {
	id := primitive.NewObjectID()
	price, err := primitive.ParseDecimal128("12.50")
	require.NoError(t, err)
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	doc := bson.M{
		"_id":     id,
		"PRODUCT": "A",
		"PRICE":   price,
		"SALES":   int32(3),
		"WHEN":    primitive.NewDateTimeFromTime(when),
		"TAGS":    bson.A{"x", primitive.Null{}},
		"META":    bson.D{{Key: "k", Value: "v"}},
	}

	assert.Equal(t, core.Record{
		"_id":     id.Hex(),
		"PRODUCT": "A",
		"PRICE":   "12.50",
		"SALES":   int32(3),
		"WHEN":    when,
		"TAGS":    []interface{}{"x", nil},
		"META":    map[string]interface{}{"k": "v"},
	}, DocumentToRecord(doc))
}
