/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package persist builds a datastore.Adapter from configuration.
package persist

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/datastore/badger"
	"github.com/suparena/storehub/datastore/ddb"
	"github.com/suparena/storehub/datastore/file"
	"github.com/suparena/storehub/datastore/sqlite"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendBadger   = "badger"
	BackendDynamoDB = "dynamodb"
)

// Backends lists the supported backend names.
var Backends = []string{BackendMemory, BackendFile, BackendSQLite, BackendBadger, BackendDynamoDB}

// Config selects a backend. Only the section matching Backend is decoded;
// each section is backend-specific and decoded with mapstructure.
type Config struct {
	Backend  string         `mapstructure:"backend" yaml:"backend" validate:"required,oneof=memory file sqlite badger dynamodb"`
	File     map[string]any `mapstructure:"file" yaml:"file,omitempty"`
	SQLite   map[string]any `mapstructure:"sqlite" yaml:"sqlite,omitempty"`
	Badger   map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`
	DynamoDB map[string]any `mapstructure:"dynamodb" yaml:"dynamodb,omitempty"`
}

// New returns the adapter for cfg.Backend. The memory backend yields a nil
// adapter, which keeps databases memory-only.
func New(ctx context.Context, cfg Config) (datastore.Adapter, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return nil, nil

	case BackendFile:
		var fileCfg file.Config
		if err := decode(cfg.File, &fileCfg); err != nil {
			return nil, fmt.Errorf("invalid file config: %w", err)
		}
		a, err := file.New(fileCfg)
		if err != nil {
			return nil, err
		}
		return a, nil

	case BackendSQLite:
		var sqliteCfg sqlite.Config
		if err := decode(cfg.SQLite, &sqliteCfg); err != nil {
			return nil, fmt.Errorf("invalid sqlite config: %w", err)
		}
		a, err := sqlite.New(sqliteCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return a, nil

	case BackendBadger:
		var badgerCfg badger.Config
		if err := decode(cfg.Badger, &badgerCfg); err != nil {
			return nil, fmt.Errorf("invalid badger config: %w", err)
		}
		a, err := badger.New(badgerCfg)
		if err != nil {
			return nil, err
		}
		return a, nil

	case BackendDynamoDB:
		var ddbCfg ddb.Config
		if err := decode(cfg.DynamoDB, &ddbCfg); err != nil {
			return nil, fmt.Errorf("invalid dynamodb config: %w", err)
		}
		a, err := ddb.New(ctx, ddbCfg)
		if err != nil {
			return nil, err
		}
		return a, nil

	default:
		return nil, fmt.Errorf("unknown persistence backend: %q (supported: %s)",
			cfg.Backend, strings.Join(Backends, ", "))
	}
}

func decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			emptyStringToZero,
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// emptyStringToZero lets env-sourced blanks leave numeric fields unset.
func emptyStringToZero(from, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && data == "" && to.Kind() != reflect.String {
		return reflect.Zero(to).Interface(), nil
	}
	return data, nil
}
