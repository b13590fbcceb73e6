/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/datastore/mock"
	"github.com/suparena/storehub/errors"
)

func mockInitializer(_ context.Context, spec Spec) (datastore.Database, error) {
	return mock.New(spec.Path), nil
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()

	require.NoError(t, c.Register("users", mockInitializer, WithDoc("seeded users")))
	require.NoError(t, c.Register("audit", mockInitializer))

	t.Run("Lookup", func(t *testing.T) {
		fn, err := c.Lookup("users")
		require.NoError(t, err)
		db, err := fn(context.Background(), Spec{Path: "users.db"})
		require.NoError(t, err)
		assert.Equal(t, "users.db", db.Info().Path)
	})

	t.Run("Miss", func(t *testing.T) {
		_, err := c.Lookup("nope")
		assert.True(t, errors.IsInitializerNotFound(err))
		assert.Contains(t, err.Error(), "nope")
	})

	t.Run("Duplicate", func(t *testing.T) {
		err := c.Register("users", mockInitializer)
		assert.True(t, errors.IsAlreadyExists(err))
		assert.Panics(t, func() { c.MustRegister("users", mockInitializer) })
	})

	t.Run("Invalid", func(t *testing.T) {
		assert.True(t, errors.IsValidationError(c.Register("", mockInitializer)))
		assert.True(t, errors.IsValidationError(c.Register("x", nil)))
	})

	t.Run("Listing", func(t *testing.T) {
		assert.Equal(t, []string{"audit", "users"}, c.Identities())
		entries := c.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "seeded users", entries[1].Doc)
	})
}

func TestDefaultCatalog(t *testing.T) {
	RegisterInitializer("registry-test", mockInitializer)
	_, err := Default().Lookup("registry-test")
	require.NoError(t, err)
	assert.Panics(t, func() { RegisterInitializer("registry-test", mockInitializer) })
}

type testItem struct{ ID string }

func TestIndexMapRegistry(t *testing.T) {
	src := map[string]string{"PK": "ITEM#{ID}", "SK": "ITEM"}
	RegisterIndexMap[testItem](src)
	src["PK"] = "changed"

	m, ok := GetIndexMap[testItem]()
	require.True(t, ok)
	assert.Equal(t, "ITEM#{ID}", m["PK"])

	_, ok = GetIndexMap[struct{ Other int }]()
	assert.False(t, ok)
}

func TestTypeRegistry(t *testing.T) {
	RegisterType("RegistryTest", func(item map[string]types.AttributeValue) (interface{}, error) {
		return len(item), nil
	})

	fn, err := GetUnmarshalFunc("RegistryTest")
	require.NoError(t, err)
	v, err := fn(map[string]types.AttributeValue{"a": &types.AttributeValueMemberS{Value: "x"}})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = GetUnmarshalFunc("Unknown")
	assert.Error(t, err)
	assert.Panics(t, func() { RegisterType("RegistryTest", nil) })
}
