/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package persist

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemory(t *testing.T) {
	for _, backend := range []string{"", "memory", "MEMORY"} {
		a, err := New(context.Background(), Config{Backend: backend})
		require.NoError(t, err)
		assert.Nil(t, a)
	}
}

func TestNewFile(t *testing.T) {
	a, err := New(context.Background(), Config{
		Backend: BackendFile,
		File:    map[string]any{"dir": t.TempDir(), "indent": "true"},
	})
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "file", a.Name())
}

func TestNewSQLite(t *testing.T) {
	a, err := New(context.Background(), Config{
		Backend: BackendSQLite,
		SQLite:  map[string]any{"path": filepath.Join(t.TempDir(), "store.db")},
	})
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "sqlite", a.Name())
}

func TestNewBadger(t *testing.T) {
	a, err := New(context.Background(), Config{
		Backend: BackendBadger,
		Badger:  map[string]any{"in_memory": true},
	})
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "badger", a.Name())
}

func TestNewDynamoDBRequiresTable(t *testing.T) {
	_, err := New(context.Background(), Config{
		Backend:  BackendDynamoDB,
		DynamoDB: map[string]any{"region": "us-east-1", "retry_backoff": "50ms"},
	})
	assert.Error(t, err)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Config{Backend: "etcd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown persistence backend")
}

func TestDecodeHooks(t *testing.T) {
	var out struct {
		Backoff  time.Duration `mapstructure:"backoff"`
		PageSize int32         `mapstructure:"page_size"`
	}
	require.NoError(t, decode(map[string]any{"backoff": "250ms", "page_size": ""}, &out))
	assert.Equal(t, 250*time.Millisecond, out.Backoff)
	assert.Zero(t, out.PageSize)
}
