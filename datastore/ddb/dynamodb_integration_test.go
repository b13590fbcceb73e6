//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

func getAdapter(t *testing.T) *Adapter {
	t.Helper()
	if err := godotenv.Load(); err != nil {
		t.Log("No .env file found, proceeding with environment variables")
	}

	table := os.Getenv("AWS_DDB_TABLE")
	if table == "" {
		t.Skip("AWS_DDB_TABLE not set")
	}

	adapter, err := New(context.Background(), Config{
		Region:    os.Getenv("AWS_REGION"),
		Table:     table,
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
		Endpoint:  os.Getenv("AWS_DDB_ENDPOINT"),
	})
	require.NoError(t, err)
	return adapter
}

func TestDynamoDBSaveLoad(t *testing.T) {
	ctx := context.Background()
	adapter := getAdapter(t)

	require.NoError(t, adapter.Save(ctx, "storehub-integration.db", sampleSnapshot("users", "groups")))

	loaded, err := adapter.Load(ctx, "storehub-integration.db")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Collections, 2)

	require.NoError(t, adapter.Save(ctx, "storehub-integration.db", sampleSnapshot()))
}
