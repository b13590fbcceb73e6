/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/storehub/storagemodels"
)

func TestSaveLoad(t *testing.T) {
	a, err := New(Config{Path: filepath.Join(t.TempDir(), "data", "store.db")})
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	snap, err := a.Load(ctx, "users.db")
	require.NoError(t, err)
	assert.Nil(t, snap)

	first := &storagemodels.Snapshot{
		Path: "users.db", EngineVersion: "1.5", SavedAt: time.Now(),
		Collections: []storagemodels.CollectionSnapshot{{Name: "users", MaxID: 1,
			Data: []storagemodels.Record{{"$loki": float64(1), "name": "odin"}}}},
	}
	require.NoError(t, a.Save(ctx, "users.db", first))

	second := *first
	second.Collections = []storagemodels.CollectionSnapshot{{Name: "users", MaxID: 2,
		Data: []storagemodels.Record{{"$loki": float64(2), "name": "thor"}}}}
	require.NoError(t, a.Save(ctx, "users.db", &second))

	snap, err = a.Load(ctx, "users.db")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int64(2), snap.Collections[0].MaxID)
	assert.Equal(t, "thor", snap.Collections[0].Data[0]["name"])

	paths, err := a.Paths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"users.db"}, paths)
}

func TestInMemory(t *testing.T) {
	a, err := New(Config{Path: ":memory:"})
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	require.NoError(t, a.Save(ctx, "a", &storagemodels.Snapshot{Path: "a"}))
	snap, err := a.Load(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "a", snap.Path)
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
