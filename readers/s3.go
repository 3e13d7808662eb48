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
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aaronlmathis/salesrank/core"
)

// S3ReaderError provides structured error information for S3 reader operations
type S3ReaderError struct {
	Op  string // Operation that failed (e.g., "list_objects", "get_object", "read")
	Key string // Object key involved, if any
	Err error  // Underlying error
}

func (e *S3ReaderError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("s3 reader %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3 reader %s: %v", e.Op, e.Err)
}

func (e *S3ReaderError) Unwrap() error {
	return e.Err
}

// S3API is the subset of the S3 client used by S3Reader.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3ReaderStats holds statistics about the S3 reader's performance
type S3ReaderStats struct {
	ObjectsListed  int64         // Total objects discovered
	ObjectsRead    int64         // Total objects successfully opened
	RecordsRead    int64         // Total records read across all objects
	ReadDuration   time.Duration // Total time spent reading
	CurrentObject  string        // Currently processing object
	ProcessedFiles []string      // Objects opened so far
}

// S3ReaderOptions configures the S3 reader behavior
type S3ReaderOptions struct {
	Bucket         string          // S3 bucket name
	Key            string          // Single object to read; overrides Prefix
	Prefix         string          // Key prefix filter
	Suffix         string          // Key suffix filter (e.g., ".csv")
	MaxKeys        int32           // Page size for listing
	Region         string          // AWS region
	Profile        string          // AWS shared config profile
	Credentials    aws.Credentials // Explicit credentials
	EndpointURL    string          // Custom S3 endpoint (for S3-compatible services)
	ForcePathStyle bool            // Use path-style addressing
	SortOrder      SortOrder       // Order in which listed objects are read
	Client         S3API           // Preconfigured client; skips AWS config loading
	ObjectReader   ObjectReaderFunc
}

// ObjectReaderFunc builds the row reader for one object body. It owns body
// and must close it when it fails.
type ObjectReaderFunc func(body io.ReadCloser, key string) (core.DataSource, error)

// SortOrder defines how listed objects are ordered for reading
type SortOrder string

const (
	SortByName         SortOrder = "name"          // Sort by object key
	SortByLastModified SortOrder = "last_modified" // Sort by modification time
	SortBySize         SortOrder = "size"          // Sort by object size
	SortNone           SortOrder = "none"          // Keep listing order
)

// ReaderOptionS3 represents a configuration function for S3Reader
type ReaderOptionS3 func(*S3ReaderOptions)

func WithS3Bucket(bucket string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Bucket = bucket }
}

func WithS3Key(key string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Key = key }
}

func WithS3Prefix(prefix string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Prefix = prefix }
}

func WithS3Suffix(suffix string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Suffix = suffix }
}

func WithS3Region(region string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Region = region }
}

func WithS3Profile(profile string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Profile = profile }
}

func WithS3Credentials(creds aws.Credentials) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Credentials = creds }
}

func WithS3Endpoint(endpoint string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.EndpointURL = endpoint }
}

func WithS3PathStyle(pathStyle bool) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.ForcePathStyle = pathStyle }
}

// ParseSortOrder maps "name", "last_modified", "size" or "none" to a SortOrder.
// An empty string selects SortByName.
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case "":
		return SortByName, nil
	case SortByName, SortByLastModified, SortBySize, SortNone:
		return order, nil
	default:
		return "", fmt.Errorf("unknown s3 sort order %q (want name, last_modified, size or none)", s)
	}
}

func WithS3SortOrder(order SortOrder) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.SortOrder = order }
}

// WithS3Client injects a client, mainly for tests and custom endpoints.
func WithS3Client(client S3API) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Client = client }
}

// WithS3ObjectReader overrides how object bodies are decoded.
func WithS3ObjectReader(fn ObjectReaderFunc) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.ObjectReader = fn }
}

// S3Object describes one listed object.
type S3Object struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// S3Reader implements core.DataSource over one S3 object or every object under a prefix.
type S3Reader struct {
	client        S3API
	objects       []S3Object
	currentIndex  int
	currentReader core.DataSource
	stats         S3ReaderStats
	opts          S3ReaderOptions
	listed        bool
	mu            sync.Mutex
}

// NewS3Reader creates a new S3 reader with the specified options.
// Objects are listed lazily on the first Read.
func NewS3Reader(options ...ReaderOptionS3) (*S3Reader, error) {
	opts := S3ReaderOptions{
		MaxKeys:   1000,
		SortOrder: SortByName,
	}
	for _, option := range options {
		option(&opts)
	}

	if opts.Bucket == "" {
		return nil, &S3ReaderError{Op: "validate_options", Err: fmt.Errorf("bucket is required")}
	}
	if opts.ObjectReader == nil {
		opts.ObjectReader = DefaultObjectReader
	}

	client := opts.Client
	if client == nil {
		cfg, err := LoadAWSConfig(context.Background(), AWSOptions{
			Region:      opts.Region,
			Profile:     opts.Profile,
			Credentials: opts.Credentials,
		})
		if err != nil {
			return nil, &S3ReaderError{Op: "create_aws_config", Err: err}
		}
		client = NewS3Client(cfg, opts.EndpointURL, opts.ForcePathStyle)
	}

	return &S3Reader{
		client: client,
		opts:   opts,
		stats:  S3ReaderStats{ProcessedFiles: make([]string, 0)},
	}, nil
}

// Read implements the core.DataSource interface
func (s *S3Reader) Read(ctx context.Context) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		s.stats.ReadDuration += time.Since(start)
	}()

	select {
	case <-ctx.Done():
		return nil, &S3ReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	if !s.listed {
		if err := s.listObjects(ctx); err != nil {
			return nil, &S3ReaderError{Op: "list_objects", Err: err}
		}
	}

	for {
		if s.currentReader == nil {
			if s.currentIndex >= len(s.objects) {
				return nil, io.EOF
			}
			if err := s.openNextObject(ctx); err != nil {
				return nil, err
			}
		}

		record, err := s.currentReader.Read(ctx)
		if err == io.EOF {
			if err := s.closeCurrentReader(); err != nil {
				return nil, &S3ReaderError{Op: "close_object", Err: err}
			}
			continue
		}
		if err != nil {
			return nil, &S3ReaderError{Op: "read_record", Key: s.stats.CurrentObject, Err: err}
		}

		s.stats.RecordsRead++
		return record, nil
	}
}

// Close implements the core.DataSource interface
func (s *S3Reader) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closeCurrentReader()
}

// Stats returns S3 reader performance statistics
func (s *S3Reader) Stats() S3ReaderStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.ProcessedFiles = append([]string(nil), s.stats.ProcessedFiles...)
	return stats
}

// Objects returns the objects that will be or have been read
func (s *S3Reader) Objects() []S3Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]S3Object(nil), s.objects...)
}

// AWSOptions carries the settings shared by the S3 reader and the S3 sink.
type AWSOptions struct {
	Region      string
	Profile     string
	Credentials aws.Credentials
}

// LoadAWSConfig resolves the default AWS configuration with optional overrides.
func LoadAWSConfig(ctx context.Context, opts AWSOptions) (aws.Config, error) {
	configOpts := []func(*config.LoadOptions) error{}

	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	if opts.Credentials.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				opts.Credentials.AccessKeyID,
				opts.Credentials.SecretAccessKey,
				opts.Credentials.SessionToken,
			),
		)
	}

	return cfg, nil
}

// NewS3Client builds an S3 client honoring a custom endpoint and path-style addressing.
func NewS3Client(cfg aws.Config, endpoint string, pathStyle bool) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = pathStyle
	})
}

// DefaultObjectReader picks a row reader from the object key's extension.
func DefaultObjectReader(body io.ReadCloser, key string) (core.DataSource, error) {
	return CSVObjectReader()(body, key)
}

// CSVObjectReader behaves like DefaultObjectReader and applies csvOpts to
// CSV objects after the defaults (string cells, upper-cased headers).
func CSVObjectReader(csvOpts ...ReaderOptionCSV) ObjectReaderFunc {
	return func(body io.ReadCloser, key string) (core.DataSource, error) {
		switch strings.ToLower(path.Ext(key)) {
		case ".csv", ".txt", "":
			opts := append([]ReaderOptionCSV{WithCSVTypeInference(false), WithCSVUpperHeaders(true)}, csvOpts...)
			reader, err := NewCSVReader(body, opts...)
			if err != nil {
				body.Close()
				return nil, err
			}
			return reader, nil
		case ".json", ".jsonl", ".ndjson":
			return NewJSONReader(body), nil
		case ".parquet":
			reader, err := newSpooledParquetReader(body)
			if err != nil {
				return nil, err
			}
			return reader, nil
		default:
			body.Close()
			return nil, fmt.Errorf("unsupported object type %q", path.Ext(key))
		}
	}
}

// spooledParquetReader reads a Parquet object copied to a temporary file,
// since the footer sits at the end and needs random access.
type spooledParquetReader struct {
	*ParquetReader
	path string
}

func newSpooledParquetReader(body io.ReadCloser) (*spooledParquetReader, error) {
	defer body.Close()

	tmp, err := os.CreateTemp("", "salesrank-*.parquet")
	if err != nil {
		return nil, err
	}
	name := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(name)
		return nil, fmt.Errorf("spool parquet object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return nil, err
	}

	reader, err := NewParquetReader(name)
	if err != nil {
		os.Remove(name)
		return nil, err
	}
	return &spooledParquetReader{ParquetReader: reader, path: name}, nil
}

func (s *spooledParquetReader) Close() error {
	err := s.ParquetReader.Close()
	if rmErr := os.Remove(s.path); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// listObjects resolves the objects to read, either the single configured key
// or every object under the prefix that carries the suffix.
func (s *S3Reader) listObjects(ctx context.Context) error {
	s.listed = true

	if s.opts.Key != "" {
		s.objects = []S3Object{{Key: s.opts.Key}}
		s.stats.ObjectsListed = 1
		return nil
	}

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.opts.Bucket),
		MaxKeys: aws.Int32(s.opts.MaxKeys),
	}
	if s.opts.Prefix != "" {
		input.Prefix = aws.String(s.opts.Prefix)
	}

	var all []S3Object
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !s.shouldIncludeObject(key) {
				continue
			}
			all = append(all, S3Object{
				Key:          key,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
				ETag:         strings.Trim(aws.ToString(obj.ETag), "\""),
			})
		}
	}

	s.sortObjects(all)
	s.objects = all
	s.stats.ObjectsListed = int64(len(all))
	return nil
}

func (s *S3Reader) shouldIncludeObject(key string) bool {
	if strings.HasSuffix(key, "/") {
		return false
	}
	if s.opts.Suffix != "" && !strings.HasSuffix(key, s.opts.Suffix) {
		return false
	}
	return true
}

func (s *S3Reader) sortObjects(objects []S3Object) {
	switch s.opts.SortOrder {
	case SortByName:
		slices.SortStableFunc(objects, func(a, b S3Object) int { return cmp.Compare(a.Key, b.Key) })
	case SortByLastModified:
		slices.SortStableFunc(objects, func(a, b S3Object) int { return a.LastModified.Compare(b.LastModified) })
	case SortBySize:
		slices.SortStableFunc(objects, func(a, b S3Object) int { return cmp.Compare(a.Size, b.Size) })
	}
}

func (s *S3Reader) openNextObject(ctx context.Context) error {
	obj := s.objects[s.currentIndex]
	s.stats.CurrentObject = obj.Key

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(obj.Key),
	})
	if err != nil {
		return &S3ReaderError{Op: "get_object", Key: obj.Key, Err: err}
	}

	reader, err := s.opts.ObjectReader(result.Body, obj.Key)
	if err != nil {
		return &S3ReaderError{Op: "create_reader", Key: obj.Key, Err: err}
	}

	s.currentReader = reader
	s.stats.ObjectsRead++
	s.stats.ProcessedFiles = append(s.stats.ProcessedFiles, obj.Key)
	return nil
}

// closeCurrentReader closes the current object and advances to the next one
func (s *S3Reader) closeCurrentReader() error {
	if s.currentReader == nil {
		return nil
	}
	err := s.currentReader.Close()
	s.currentReader = nil
	s.currentIndex++
	return err
}
