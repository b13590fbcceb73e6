//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storehub_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/storehub"
	"github.com/suparena/storehub/datastore/persist"
	"github.com/suparena/storehub/initializers/users"
	"github.com/suparena/storehub/registry"
)

func TestDynamoDBBackedHub(t *testing.T) {
	if err := godotenv.Load(); err != nil {
		t.Log("No .env file found, proceeding with environment variables")
	}
	table := os.Getenv("AWS_DDB_TABLE")
	if table == "" {
		t.Skip("AWS_DDB_TABLE not set")
	}

	ctx := context.Background()
	adapter, err := persist.New(ctx, persist.Config{
		Backend: persist.BackendDynamoDB,
		DynamoDB: map[string]any{
			"table":      table,
			"region":     os.Getenv("AWS_REGION"),
			"access_key": os.Getenv("AWS_ACCESS_KEY"),
			"secret_key": os.Getenv("AWS_SECRET_KEY"),
			"endpoint":   os.Getenv("AWS_DDB_ENDPOINT"),
		},
	})
	require.NoError(t, err)
	defer adapter.Close()

	catalog := registry.NewCatalog()
	require.NoError(t, users.Register(catalog))
	key := storehub.Key{Service: users.Identity, Path: fmt.Sprintf("it-%d.db", time.Now().UnixNano())}

	hub := storehub.New(storehub.WithCatalog(catalog), storehub.WithAdapter(adapter))
	rec, err := hub.Insert(ctx, key, users.Collection, `{"name": "tyr", "age": 40}`)
	require.NoError(t, err)
	id, _ := rec.ID()

	_, err = hub.Shutdown(ctx)
	require.NoError(t, err, "shutdown flushes to DynamoDB")

	reopened := storehub.New(storehub.WithCatalog(catalog), storehub.WithAdapter(adapter))
	defer reopened.Shutdown(ctx)

	got, err := reopened.Get(ctx, key, users.Collection, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tyr", got["name"])

	all, err := reopened.Find(ctx, key, users.Collection, nil)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}
