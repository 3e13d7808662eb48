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

// Package config resolves the settings of a ranking run from command line
// flags, SALESRANK_* environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aaronlmathis/salesrank/core"
	"github.com/aaronlmathis/salesrank/readers"
	"github.com/aaronlmathis/salesrank/sales"
	"github.com/aaronlmathis/salesrank/types"
)

// EnvPrefix is prepended to every environment variable, e.g. SALESRANK_SORTING.
const EnvPrefix = "SALESRANK"

// Config is the resolved configuration of one run.
type Config struct {
	Input        string            `mapstructure:"input"`
	Output       string            `mapstructure:"output"`
	Sorting      string            `mapstructure:"sorting"`
	InputFormat  string            `mapstructure:"input_format"`
	OutputFormat string            `mapstructure:"output_format"`
	Months       []string          `mapstructure:"months"`
	Products     []string          `mapstructure:"products"`
	Rename       map[string]string `mapstructure:"rename"`
	OnError      string            `mapstructure:"on_error"`
	Display      bool              `mapstructure:"display"`
	ShowInput    bool              `mapstructure:"show_input"`

	Log      LogConfig      `mapstructure:"log"`
	S3       S3Config       `mapstructure:"s3"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	JSON     JSONConfig     `mapstructure:"json"`
	CSV      CSVConfig      `mapstructure:"csv"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type S3Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	Profile         string `mapstructure:"profile"`
	PathStyle       bool   `mapstructure:"path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
	Order           string `mapstructure:"order"`
}

type PostgresConfig struct {
	Table string `mapstructure:"table"`
}

type MongoConfig struct {
	Database   string   `mapstructure:"database"`
	Collection string   `mapstructure:"collection"`
	Limit      int64    `mapstructure:"limit"`
	Sort       []string `mapstructure:"sort"`
	Fields     []string `mapstructure:"fields"`
}

type JSONConfig struct {
	Lines bool `mapstructure:"lines"`
}

type CSVConfig struct {
	LazyQuotes bool `mapstructure:"lazy_quotes"`
	TrimSpace  bool `mapstructure:"trim_space"`
	CRLF       bool `mapstructure:"crlf"`
}

// flagKeys maps config keys to the flags that set them.
var flagKeys = map[string]string{
	"input":                "input",
	"output":               "output",
	"sorting":              "sorting",
	"input_format":         "input-format",
	"output_format":        "output-format",
	"months":               "month",
	"products":             "product",
	"rename":               "rename",
	"on_error":             "on-error",
	"display":              "display",
	"show_input":           "show-input",
	"log.level":            "log-level",
	"log.format":           "log-format",
	"s3.region":            "s3-region",
	"s3.endpoint":          "s3-endpoint",
	"s3.profile":           "s3-profile",
	"s3.path_style":        "s3-path-style",
	"s3.access_key_id":     "s3-access-key-id",
	"s3.secret_access_key": "s3-secret-access-key",
	"s3.session_token":     "s3-session-token",
	"s3.order":             "s3-order",
	"postgres.table":       "pg-table",
	"mongo.database":       "mongo-db",
	"mongo.collection":     "mongo-collection",
	"mongo.limit":          "mongo-limit",
	"mongo.sort":           "mongo-sort",
	"mongo.fields":         "mongo-fields",
	"json.lines":           "json-lines",
	"csv.lazy_quotes":      "csv-lazy-quotes",
	"csv.trim_space":       "csv-trim-space",
	"csv.crlf":             "csv-crlf",
}

// RegisterFlags defines every configuration flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	RegisterSourceFlags(fs)
	fs.String("input", "", "input location: file path, s3://bucket/key, s3://bucket/prefix/ or mongodb:// URI")
	fs.String("output", "", "output location: file path, s3://bucket/key or postgres:// DSN")
	fs.String("sorting", "", "statistic to rank by: min|max|sum|median")
	fs.String("output-format", "", "output format (json, csv, parquet); inferred when empty")
	fs.StringSlice("month", nil, "only aggregate rows of this MONTH (repeatable)")
	fs.StringSlice("product", nil, "only aggregate rows of this PRODUCT (repeatable)")
	fs.StringToString("rename", nil, "rename input columns before aggregation, e.g. item=PRODUCT")
	fs.String("on-error", "fail", "bad row handling: fail|skip|collect")
	fs.Bool("display", true, "print the ranked summaries as a table")
	fs.Bool("show-input", false, "print the input rows as a table")
	fs.String("pg-table", types.DefaultPostgresTable, "table for postgres output")
	fs.Bool("json-lines", false, "write JSON lines instead of a single array")
	fs.Bool("csv-crlf", false, "end CSV output lines with \\r\\n")
}

// RegisterSourceFlags defines the flags needed to open an input and log,
// shared by every command.
func RegisterSourceFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, json or toml)")
	fs.String("input-format", "", "input format (csv, json, parquet); inferred when empty")
	fs.String("log-level", "info", "log level: debug|info|warn|error")
	fs.String("log-format", "text", "log format: text|json")
	fs.String("s3-region", "", "AWS region for s3:// locations")
	fs.String("s3-endpoint", "", "custom S3 endpoint URL")
	fs.String("s3-profile", "", "shared AWS config profile")
	fs.Bool("s3-path-style", false, "use path-style S3 addressing")
	fs.String("mongo-db", "", "database for mongodb input; defaults to the URI path")
	fs.String("s3-access-key-id", "", "static AWS access key; overrides the default credential chain")
	fs.String("s3-secret-access-key", "", "static AWS secret key, paired with --s3-access-key-id")
	fs.String("s3-session-token", "", "session token for temporary static credentials")
	fs.String("s3-order", "name", "order objects under an s3 prefix are read: name|last_modified|size|none")
	fs.String("mongo-collection", "", "collection for mongodb input")
	fs.Int64("mongo-limit", 0, "read at most this many mongodb documents (0 reads all)")
	fs.StringSlice("mongo-sort", nil, "sort mongodb documents by these fields, -FIELD for descending")
	fs.StringSlice("mongo-fields", nil, "only fetch these mongodb fields")
	fs.Bool("csv-lazy-quotes", false, "accept bare quotes inside unquoted CSV fields")
	fs.Bool("csv-trim-space", true, "trim leading space in CSV fields")
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input", "")
	v.SetDefault("output", "")
	v.SetDefault("sorting", "")
	v.SetDefault("input_format", "")
	v.SetDefault("output_format", "")
	v.SetDefault("months", []string{})
	v.SetDefault("products", []string{})
	v.SetDefault("rename", map[string]string{})
	v.SetDefault("on_error", "fail")
	v.SetDefault("display", true)
	v.SetDefault("show_input", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.profile", "")
	v.SetDefault("s3.path_style", false)
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.session_token", "")
	v.SetDefault("s3.order", string(readers.SortByName))
	v.SetDefault("postgres.table", types.DefaultPostgresTable)
	v.SetDefault("mongo.database", "")
	v.SetDefault("mongo.collection", "")
	v.SetDefault("mongo.limit", 0)
	v.SetDefault("mongo.sort", []string{})
	v.SetDefault("mongo.fields", []string{})
	v.SetDefault("json.lines", false)
	v.SetDefault("csv.lazy_quotes", false)
	v.SetDefault("csv.trim_space", true)
	v.SetDefault("csv.crlf", false)
}

// Load resolves the configuration. Precedence, highest first: flags that
// were set, environment variables, the config file named by --config,
// defaults. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for key, name := range flagKeys {
			if flag := fs.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}

		if flag := fs.Lookup("config"); flag != nil && flag.Value.String() != "" {
			v.SetConfigFile(flag.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", flag.Value.String(), err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks required settings and enumerations. The messages for
// missing input, output and sorting double as usage hints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return errors.New("--input=inputfilename is required")
	}
	if strings.TrimSpace(c.Output) == "" {
		return errors.New("--output=outputfilename is required")
	}
	if _, err := sales.ParseKey(c.Sorting); err != nil {
		return fmt.Errorf("--sorting=min|max|sum|median is required: %w", err)
	}
	if _, err := core.ParseErrorStrategy(c.OnError); err != nil {
		return err
	}
	if _, err := types.ParseFormat(c.InputFormat); err != nil {
		return fmt.Errorf("input format: %w", err)
	}
	if _, err := types.ParseFormat(c.OutputFormat); err != nil {
		return fmt.Errorf("output format: %w", err)
	}
	return c.validateSource()
}

// validateSource checks the settings shared by every command that opens an input.
func (c *Config) validateSource() error {
	if _, err := readers.ParseSortOrder(c.S3.Order); err != nil {
		return err
	}
	if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		return errors.New("--s3-access-key-id and --s3-secret-access-key must be set together")
	}
	if c.Mongo.Limit < 0 {
		return fmt.Errorf("--mongo-limit must not be negative, got %d", c.Mongo.Limit)
	}
	if _, err := readers.ParseMongoSort(c.Mongo.Sort); err != nil {
		return err
	}
	return nil
}

// SortKey returns the validated ranking key.
func (c *Config) SortKey() (sales.Key, error) {
	return sales.ParseKey(c.Sorting)
}

// ErrorStrategy returns the parsed --on-error value.
func (c *Config) ErrorStrategy() (core.ErrorStrategy, error) {
	return core.ParseErrorStrategy(c.OnError)
}

// InputOptions converts the input related settings.
func (c *Config) InputOptions() (types.InputOptions, error) {
	format, err := types.ParseFormat(c.InputFormat)
	if err != nil {
		return types.InputOptions{}, err
	}
	if err := c.validateSource(); err != nil {
		return types.InputOptions{}, err
	}
	order, err := readers.ParseSortOrder(c.S3.Order)
	if err != nil {
		return types.InputOptions{}, err
	}
	return types.InputOptions{
		Format: format,
		CSV: types.CSVInputOptions{
			LazyQuotes:       c.CSV.LazyQuotes,
			KeepLeadingSpace: !c.CSV.TrimSpace,
		},
		S3:              c.s3Options(),
		S3Order:         order,
		MongoDatabase:   c.Mongo.Database,
		MongoCollection: c.Mongo.Collection,
		MongoLimit:      c.Mongo.Limit,
		MongoSort:       c.Mongo.Sort,
		MongoFields:     c.Mongo.Fields,
	}, nil
}

// OutputOptions converts the output related settings.
func (c *Config) OutputOptions() (types.OutputOptions, error) {
	format, err := types.ParseFormat(c.OutputFormat)
	if err != nil {
		return types.OutputOptions{}, err
	}
	return types.OutputOptions{
		Format:        format,
		JSONLines:     c.JSON.Lines,
		PostgresTable: c.Postgres.Table,
		CSVCRLF:       c.CSV.CRLF,
		S3:            c.s3Options(),
	}, nil
}

func (c *Config) s3Options() types.S3Options {
	return types.S3Options{
		Region:          c.S3.Region,
		Endpoint:        c.S3.Endpoint,
		Profile:         c.S3.Profile,
		PathStyle:       c.S3.PathStyle,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
		SessionToken:    c.S3.SessionToken,
	}
}
