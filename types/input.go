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

package types

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/aaronlmathis/salesrank/core"
	"github.com/aaronlmathis/salesrank/readers"
)

// S3Options carries connection settings shared by S3 sources and sinks.
// Static credentials replace the default chain when AccessKeyID is set.
type S3Options struct {
	Region          string
	Endpoint        string
	Profile         string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// AWSOptions converts the settings for readers.LoadAWSConfig.
func (o S3Options) AWSOptions() readers.AWSOptions {
	return readers.AWSOptions{
		Region:  o.Region,
		Profile: o.Profile,
		Credentials: aws.Credentials{
			AccessKeyID:     o.AccessKeyID,
			SecretAccessKey: o.SecretAccessKey,
			SessionToken:    o.SessionToken,
			Source:          "salesrank",
		},
	}
}

// CSVInputOptions tunes CSV parsing for files and S3 objects.
type CSVInputOptions struct {
	LazyQuotes       bool // accept bare quotes inside unquoted fields
	KeepLeadingSpace bool // keep spaces after the delimiter
}

func (o CSVInputOptions) readerOptions() []readers.ReaderOptionCSV {
	return []readers.ReaderOptionCSV{
		readers.WithCSVLazyQuotes(o.LazyQuotes),
		readers.WithCSVTrimSpace(!o.KeepLeadingSpace),
	}
}

// InputOptions tunes how an input location is opened.
type InputOptions struct {
	Format          Format
	CSV             CSVInputOptions
	S3              S3Options
	S3Order         readers.SortOrder // order prefix objects are read in; name when empty
	S3Client        readers.S3API     // overrides S3 config loading when set
	MongoDatabase   string
	MongoCollection string
	MongoLimit      int64    // 0 reads every document
	MongoSort       []string // field names, "-" prefix for descending
	MongoFields     []string // projection; every field when empty
}

// InputLocation creates a DataSource for rows of sales data.
type InputLocation interface {
	NewSource(ctx context.Context, opts InputOptions) (core.DataSource, error)
	String() string
}

// ParseInput classifies raw as a local path, an s3:// URI or a MongoDB URI.
func ParseInput(raw string) (InputLocation, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("input location is empty")
	}

	switch {
	case strings.HasPrefix(raw, "s3://"):
		bucket, key, err := parseS3URI(raw)
		if err != nil {
			return nil, err
		}
		return S3Location{Bucket: bucket, Key: key}, nil
	case strings.HasPrefix(raw, "mongodb://"), strings.HasPrefix(raw, "mongodb+srv://"):
		return MongoLocation{URI: raw}, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return nil, fmt.Errorf("postgres is supported as an output only")
	}
	return FileLocation{Path: raw}, nil
}

// OpenSource parses raw and opens it as a DataSource.
func OpenSource(ctx context.Context, raw string, opts InputOptions) (core.DataSource, error) {
	loc, err := ParseInput(raw)
	if err != nil {
		return nil, err
	}
	return loc.NewSource(ctx, opts)
}

// FileLocation reads from or writes to a local filesystem path.
type FileLocation struct {
	Path string
}

func (f FileLocation) String() string { return f.Path }

// NewSource opens the file with a reader chosen by format or extension.
// CSV is assumed when neither says otherwise.
func (f FileLocation) NewSource(ctx context.Context, opts InputOptions) (core.DataSource, error) {
	format := opts.Format
	if format == FormatAuto {
		format = FormatFromPath(f.Path, FormatCSV)
	}

	switch format {
	case FormatCSV:
		file, err := os.Open(f.Path)
		if err != nil {
			return nil, err
		}
		csvOpts := append([]readers.ReaderOptionCSV{
			readers.WithCSVTypeInference(false),
			readers.WithCSVUpperHeaders(true),
		}, opts.CSV.readerOptions()...)
		reader, err := readers.NewCSVReader(file, csvOpts...)
		if err != nil {
			file.Close()
			return nil, err
		}
		return reader, nil
	case FormatJSON:
		file, err := os.Open(f.Path)
		if err != nil {
			return nil, err
		}
		return readers.NewJSONReader(file), nil
	case FormatParquet:
		reader, err := readers.NewParquetReader(f.Path)
		if err != nil {
			return nil, err
		}
		return reader, nil
	default:
		return nil, fmt.Errorf("unsupported input format %s for file %s", format, f.Path)
	}
}

// S3Location addresses one object, or every object under a prefix when
// Key is empty or ends with a slash.
type S3Location struct {
	Bucket string
	Key    string
}

func (s S3Location) String() string { return "s3://" + s.Bucket + "/" + s.Key }

// IsPrefix reports whether the location names a prefix rather than an object.
func (s S3Location) IsPrefix() bool {
	return s.Key == "" || strings.HasSuffix(s.Key, "/")
}

// NewSource creates an S3 reader. For prefixes an explicit format narrows
// the listing to objects with the matching extension.
func (s S3Location) NewSource(ctx context.Context, opts InputOptions) (core.DataSource, error) {
	order := opts.S3Order
	if order == "" {
		order = readers.SortByName
	}
	readerOpts := []readers.ReaderOptionS3{
		readers.WithS3Bucket(s.Bucket),
		readers.WithS3Region(opts.S3.Region),
		readers.WithS3Profile(opts.S3.Profile),
		readers.WithS3Credentials(opts.S3.AWSOptions().Credentials),
		readers.WithS3Endpoint(opts.S3.Endpoint),
		readers.WithS3PathStyle(opts.S3.PathStyle),
		readers.WithS3SortOrder(order),
	}
	if opts.S3Client != nil {
		readerOpts = append(readerOpts, readers.WithS3Client(opts.S3Client))
	}

	if s.IsPrefix() {
		readerOpts = append(readerOpts, readers.WithS3Prefix(s.Key))
		if ext := opts.Format.Extension(); ext != "" {
			readerOpts = append(readerOpts, readers.WithS3Suffix(ext))
		}
	} else {
		readerOpts = append(readerOpts, readers.WithS3Key(s.Key))
	}

	objectReader := readers.CSVObjectReader(opts.CSV.readerOptions()...)
	format := opts.Format
	readerOpts = append(readerOpts, readers.WithS3ObjectReader(func(body io.ReadCloser, key string) (core.DataSource, error) {
		if format != FormatAuto {
			key = forceExtension(key, format)
		}
		return objectReader(body, key)
	}))

	reader, err := readers.NewS3Reader(readerOpts...)
	if err != nil {
		return nil, err
	}
	return reader, nil
}

// MongoLocation reads documents from a MongoDB collection.
type MongoLocation struct {
	URI string
}

func (m MongoLocation) String() string { return redactURI(m.URI) }

// NewSource creates a MongoDB reader. The database defaults to the URI path.
func (m MongoLocation) NewSource(ctx context.Context, opts InputOptions) (core.DataSource, error) {
	database := opts.MongoDatabase
	if database == "" {
		if u, err := url.Parse(m.URI); err == nil {
			database = strings.Trim(u.Path, "/")
		}
	}

	sort, err := readers.ParseMongoSort(opts.MongoSort)
	if err != nil {
		return nil, err
	}

	reader, err := readers.NewMongoReader(
		readers.WithMongoURI(m.URI),
		readers.WithMongoDB(database),
		readers.WithMongoCollection(opts.MongoCollection),
		readers.WithMongoLimit(opts.MongoLimit),
		readers.WithMongoSort(sort),
		readers.WithMongoProjection(readers.MongoProjection(opts.MongoFields)),
	)
	if err != nil {
		return nil, err
	}
	return reader, nil
}

func parseS3URI(raw string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(raw, "s3://")
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 location %q has no bucket", raw)
	}
	return bucket, key, nil
}

// forceExtension swaps the key's extension so the object reader decodes it as format.
func forceExtension(key string, format Format) string {
	ext := format.Extension()
	if ext == "" {
		return key
	}
	return strings.TrimSuffix(key, path.Ext(key)) + ext
}

// redactURI hides credentials embedded in a connection URI.
func redactURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
