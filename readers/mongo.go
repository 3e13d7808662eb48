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
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aaronlmathis/salesrank/core"
)

// MongoReaderError provides structured error information for MongoDB reader operations
type MongoReaderError struct {
	Op         string // Operation that failed (e.g., "connect", "find", "decode")
	Collection string // Collection being accessed when error occurred
	Err        error  // Underlying error
}

func (e *MongoReaderError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("mongo reader %s [%s]: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("mongo reader %s: %v", e.Op, e.Err)
}

func (e *MongoReaderError) Unwrap() error {
	return e.Err
}

// MongoReaderStats holds statistics about the MongoDB reader's performance
type MongoReaderStats struct {
	RecordsRead  int64
	ReadDuration time.Duration
	LastReadTime time.Time
	ErrorCount   int64
}

// MongoReaderOptions configures the MongoDB reader
type MongoReaderOptions struct {
	URI            string        // MongoDB connection URI
	Database       string        // Database name
	Collection     string        // Collection name
	Filter         bson.M        // Query filter
	Projection     bson.M        // Field projection
	Sort           bson.D        // Sort specification; natural order when empty
	BatchSize      int32         // Batch size for cursor
	Limit          int64         // Maximum number of documents to read
	Timeout        time.Duration // Connect timeout
	ReadPreference string        // primary, secondary, nearest, ...
}

// ReaderOptionMongo is a functional option for MongoReaderOptions
type ReaderOptionMongo func(*MongoReaderOptions)

func WithMongoURI(uri string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.URI = uri }
}

func WithMongoDB(database string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Database = database }
}

func WithMongoCollection(collection string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Collection = collection }
}

func WithMongoFilter(filter bson.M) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Filter = filter }
}

func WithMongoProjection(projection bson.M) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Projection = projection }
}

func WithMongoSort(sort bson.D) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Sort = sort }
}

func WithMongoLimit(limit int64) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Limit = limit }
}

func WithMongoBatchSize(batchSize int32) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.BatchSize = batchSize }
}

func WithMongoTimeout(timeout time.Duration) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Timeout = timeout }
}

func WithMongoReadPreference(preference string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.ReadPreference = preference }
}

// ParseMongoSort turns field names into a sort specification. A leading
// "-" sorts that field descending, a leading "+" or none ascending.
func ParseMongoSort(fields []string) (bson.D, error) {
	sort := make(bson.D, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		dir := 1
		switch {
		case strings.HasPrefix(f, "-"):
			dir, f = -1, f[1:]
		case strings.HasPrefix(f, "+"):
			f = f[1:]
		}
		if f == "" {
			return nil, fmt.Errorf("empty field in mongo sort %q", strings.Join(fields, ","))
		}
		sort = append(sort, bson.E{Key: f, Value: dir})
	}
	return sort, nil
}

// MongoProjection includes only fields in the returned documents. The
// document _id is excluded unless listed. An empty list projects nothing.
func MongoProjection(fields []string) bson.M {
	if len(fields) == 0 {
		return nil
	}
	projection := bson.M{"_id": 0}
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			projection[f] = 1
		}
	}
	return projection
}

// MongoReader implements core.DataSource for a MongoDB collection.
// The connection is opened on the first Read.
type MongoReader struct {
	client     *mongo.Client
	collection *mongo.Collection
	cursor     *mongo.Cursor
	opts       MongoReaderOptions
	stats      MongoReaderStats
	connected  bool
}

// NewMongoReader creates a new MongoDB reader with configurable options
func NewMongoReader(options ...ReaderOptionMongo) (*MongoReader, error) {
	opts := MongoReaderOptions{
		URI:            "mongodb://localhost:27017",
		BatchSize:      1000,
		Timeout:        30 * time.Second,
		ReadPreference: "primary",
	}
	for _, option := range options {
		option(&opts)
	}

	if opts.Database == "" {
		return nil, &MongoReaderError{Op: "validate", Err: fmt.Errorf("database name is required")}
	}
	if opts.Collection == "" {
		return nil, &MongoReaderError{Op: "validate", Err: fmt.Errorf("collection name is required")}
	}
	if _, err := readpref.ModeFromString(opts.ReadPreference); err != nil {
		return nil, &MongoReaderError{Op: "validate", Err: err}
	}

	return &MongoReader{opts: opts}, nil
}

// Connect establishes connection to MongoDB and verifies it with a ping
func (mr *MongoReader) Connect(ctx context.Context) error {
	if mr.connected {
		return nil
	}

	mode, err := readpref.ModeFromString(mr.opts.ReadPreference)
	if err != nil {
		return &MongoReaderError{Op: "build_options", Err: err}
	}
	rp, err := readpref.New(mode)
	if err != nil {
		return &MongoReaderError{Op: "build_options", Err: err}
	}

	clientOpts := options.Client().
		ApplyURI(mr.opts.URI).
		SetConnectTimeout(mr.opts.Timeout).
		SetReadPreference(rp)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return &MongoReaderError{Op: "connect", Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, mr.opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, rp); err != nil {
		_ = client.Disconnect(ctx)
		return &MongoReaderError{Op: "ping", Err: err}
	}

	mr.client = client
	mr.collection = client.Database(mr.opts.Database).Collection(mr.opts.Collection)
	mr.connected = true
	return nil
}

// Read implements the core.DataSource interface
func (mr *MongoReader) Read(ctx context.Context) (core.Record, error) {
	start := time.Now()
	defer func() {
		mr.stats.ReadDuration += time.Since(start)
		mr.stats.LastReadTime = time.Now()
	}()

	if err := mr.Connect(ctx); err != nil {
		return nil, err
	}

	if mr.cursor == nil {
		if err := mr.openCursor(ctx); err != nil {
			return nil, &MongoReaderError{Op: "find", Collection: mr.opts.Collection, Err: err}
		}
	}

	if !mr.cursor.Next(ctx) {
		if err := mr.cursor.Err(); err != nil {
			mr.stats.ErrorCount++
			return nil, &MongoReaderError{Op: "cursor_next", Collection: mr.opts.Collection, Err: err}
		}
		return nil, io.EOF
	}

	var doc bson.M
	if err := mr.cursor.Decode(&doc); err != nil {
		mr.stats.ErrorCount++
		return nil, &MongoReaderError{Op: "decode", Collection: mr.opts.Collection, Err: err}
	}

	mr.stats.RecordsRead++
	return DocumentToRecord(doc), nil
}

// Close implements the core.DataSource interface
func (mr *MongoReader) Close() error {
	ctx := context.Background()
	var errs []error

	if mr.cursor != nil {
		if err := mr.cursor.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("cursor close: %w", err))
		}
		mr.cursor = nil
	}
	if mr.client != nil {
		if err := mr.client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("client disconnect: %w", err))
		}
		mr.client = nil
	}
	mr.connected = false

	if err := errors.Join(errs...); err != nil {
		return &MongoReaderError{Op: "close", Err: err}
	}
	return nil
}

// Options returns the resolved reader options.
func (mr *MongoReader) Options() MongoReaderOptions {
	return mr.opts
}

// Stats returns MongoDB reader performance statistics
func (mr *MongoReader) Stats() MongoReaderStats {
	return mr.stats
}

func (mr *MongoReader) openCursor(ctx context.Context) error {
	findOpts := options.Find()
	if mr.opts.BatchSize > 0 {
		findOpts.SetBatchSize(mr.opts.BatchSize)
	}
	if mr.opts.Limit > 0 {
		findOpts.SetLimit(mr.opts.Limit)
	}
	if mr.opts.Projection != nil {
		findOpts.SetProjection(mr.opts.Projection)
	}
	if len(mr.opts.Sort) > 0 {
		findOpts.SetSort(mr.opts.Sort)
	}

	filter := mr.opts.Filter
	if filter == nil {
		filter = bson.M{}
	}

	cursor, err := mr.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return err
	}
	mr.cursor = cursor
	return nil
}

// DocumentToRecord converts a decoded BSON document to a core.Record.
// The _id field is kept as a hex string.
func DocumentToRecord(doc bson.M) core.Record {
	record := make(core.Record, len(doc))
	for key, value := range doc {
		record[key] = convertBSONValue(value)
	}
	return record
}

// convertBSONValue converts BSON values to plain Go types
func convertBSONValue(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.Decimal128:
		// Keep the exact decimal text; numeric columns are parsed downstream.
		return v.String()
	case primitive.Binary:
		return v.Data
	case primitive.Timestamp:
		return time.Unix(int64(v.T), 0).UTC()
	case primitive.Undefined, primitive.Null:
		return nil
	case bson.M:
		result := make(map[string]interface{}, len(v))
		for k, val := range v {
			result[k] = convertBSONValue(val)
		}
		return result
	case bson.D:
		result := make(map[string]interface{}, len(v))
		for _, e := range v {
			result[e.Key] = convertBSONValue(e.Value)
		}
		return result
	case bson.A:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = convertBSONValue(val)
		}
		return result
	default:
		return v
	}
}
