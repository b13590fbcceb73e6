/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memdb

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/storehub/errors"
	"github.com/suparena/storehub/storagemodels"
)

var seedAges = []struct {
	name string
	age  int
}{
	{"odin", 999}, {"frigga", 980}, {"thor", 35}, {"loki", 30},
	{"sif", 25}, {"balder", 24}, {"heimdall", 870},
}

func fixedClock() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

func seedUsers(t *testing.T) (*Database, *Collection) {
	t.Helper()
	db := New("users.db", Options{Clock: fixedClock})
	users, err := db.AddCollection("users", CollectionOptions{Unique: []string{"name"}, Indices: []string{"age"}})
	require.NoError(t, err)
	for _, u := range seedAges {
		_, err := users.Insert(storagemodels.Record{"name": u.name, "age": u.age})
		require.NoError(t, err)
	}
	return db, users
}

func ages(records []storagemodels.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		n, _ := storagemodels.ToInt64(r["age"])
		out = append(out, n)
	}
	return out
}

func TestInsertAssignsIdentityAndMeta(t *testing.T) {
	_, users := seedUsers(t)

	rec, err := users.Insert(storagemodels.Record{"name": "tyr", "age": 40, storagemodels.FieldID: 0})
	require.NoError(t, err)

	id, ok := rec.ID()
	require.True(t, ok)
	assert.Equal(t, int64(8), id)

	meta, ok := rec[storagemodels.FieldMeta].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(0), meta["revision"])
	assert.Equal(t, fixedClock().UnixMilli(), meta["created"])
	assert.Equal(t, 8, users.Count())
}

func TestInsertRejectsExistingIdentity(t *testing.T) {
	_, users := seedUsers(t)
	_, err := users.Insert(storagemodels.Record{storagemodels.FieldID: 3, "name": "x"})
	assert.True(t, errors.IsValidationError(err))
}

func TestUniqueIndex(t *testing.T) {
	_, users := seedUsers(t)

	_, err := users.Insert(storagemodels.Record{"name": "odin"})
	assert.True(t, errors.IsAlreadyExists(err))
	assert.Equal(t, 7, users.Count())

	// records without the field are not indexed
	_, err = users.Insert(storagemodels.Record{"age": 1})
	require.NoError(t, err)
	_, err = users.Insert(storagemodels.Record{"age": 2})
	require.NoError(t, err)

	// an update may keep its own value but not take another's
	odin, _ := users.FindOne(mustFilter(t, `{"name": "odin"}`))
	odin["age"] = 1000
	_, err = users.Update(odin)
	require.NoError(t, err)

	thor, _ := users.FindOne(mustFilter(t, `{"name": "thor"}`))
	thor["name"] = "odin"
	_, err = users.Update(thor)
	assert.True(t, errors.IsAlreadyExists(err))

	// removing frees the value
	id, _ := odin.ID()
	_, ok := users.Remove(id)
	require.True(t, ok)
	_, err = users.Update(thor)
	assert.NoError(t, err)
}

func TestEnsureUniqueIndexOnDuplicates(t *testing.T) {
	db := New("x", Options{})
	c, err := db.AddCollection("c", CollectionOptions{})
	require.NoError(t, err)
	_, _ = c.Insert(storagemodels.Record{"k": 1})
	_, _ = c.Insert(storagemodels.Record{"k": 1.0})

	assert.True(t, errors.IsAlreadyExists(c.EnsureUniqueIndex("k")))
}

func TestGetReturnsCopies(t *testing.T) {
	_, users := seedUsers(t)

	rec, ok := users.Get(3)
	require.True(t, ok)
	assert.Equal(t, "thor", rec["name"])
	rec["name"] = "changed"

	again, _ := users.Get(3)
	assert.Equal(t, "thor", again["name"])

	_, ok = users.Get(99)
	assert.False(t, ok)
}

func TestCloneOnInsert(t *testing.T) {
	db := New("x", Options{})
	c, err := db.AddCollection("c", CollectionOptions{Clone: true})
	require.NoError(t, err)

	nested := map[string]any{"city": "asgard"}
	_, err = c.Insert(storagemodels.Record{"address": nested})
	require.NoError(t, err)
	nested["city"] = "midgard"

	rec, _ := c.Get(1)
	assert.Equal(t, "asgard", rec["address"].(map[string]any)["city"])

	_, err = db.AddCollection("c", CollectionOptions{CloneMethod: "structured"})
	assert.True(t, errors.IsValidationError(err))
}

func TestFindKeepsInsertionOrder(t *testing.T) {
	_, users := seedUsers(t)

	young := users.Find(mustFilter(t, `{"age": {"$lt": 100}}`))
	assert.Equal(t, []int64{35, 30, 25, 24}, ages(young))

	assert.Len(t, users.Find(storagemodels.MatchAll()), 7)
	assert.Empty(t, users.Find(mustFilter(t, `{"name": "nobody"}`)))
}

func TestUpdateBumpsRevision(t *testing.T) {
	db := New("x", Options{Clock: fixedClock})
	c, _ := db.AddCollection("c", CollectionOptions{})
	rec, _ := c.Insert(storagemodels.Record{"n": 1})

	rec["n"] = 2
	updated, err := c.Update(rec)
	require.NoError(t, err)
	meta := updated[storagemodels.FieldMeta].(map[string]any)
	assert.Equal(t, int64(1), meta["revision"])
	assert.Equal(t, fixedClock().UnixMilli(), meta["updated"])
	assert.Equal(t, 2, updated["n"])

	_, err = c.Update(storagemodels.Record{storagemodels.FieldID: 42, "n": 3})
	assert.True(t, errors.IsRecordNotFound(err))

	_, err = c.Update(storagemodels.Record{"n": 3})
	assert.True(t, errors.IsValidationError(err))
}

func TestDisableMeta(t *testing.T) {
	db := New("x", Options{})
	c, _ := db.AddCollection("c", CollectionOptions{DisableMeta: true})
	rec, err := c.Insert(storagemodels.Record{"n": 1})
	require.NoError(t, err)
	assert.NotContains(t, rec, storagemodels.FieldMeta)
}

func TestRemoveAndFindAndRemove(t *testing.T) {
	_, users := seedUsers(t)

	removed, ok := users.Remove(1)
	require.True(t, ok)
	assert.Equal(t, "odin", removed["name"])
	_, ok = users.Remove(1)
	assert.False(t, ok)

	// identities of later records are unaffected
	rec, ok := users.Get(7)
	require.True(t, ok)
	assert.Equal(t, "heimdall", rec["name"])

	gone := users.FindAndRemove(mustFilter(t, `{"age": {"$gt": 500}}`))
	assert.Equal(t, []int64{980, 870}, ages(gone))
	assert.Equal(t, 4, users.Count())
	assert.Empty(t, users.FindAndRemove(mustFilter(t, `{"age": {"$gt": 500}}`)))

	// identities are never reused
	next, err := users.Insert(storagemodels.Record{"name": "tyr"})
	require.NoError(t, err)
	id, _ := next.ID()
	assert.Equal(t, int64(8), id)
}

func TestChain(t *testing.T) {
	_, users := seedUsers(t)
	require.NoError(t, users.AddTransform("OrderedByAge", []storagemodels.TransformStep{
		{Type: storagemodels.StepFind, Value: map[string]any{"age": map[string]any{"$lt": "[%lktxp]maxAge"}}},
		{Type: storagemodels.StepSimpleSort, Property: "age"},
	}))

	t.Run("Named", func(t *testing.T) {
		rs, err := users.Chain(storagemodels.TransformSpec{Name: "OrderedByAge"}, map[string]any{"maxAge": 31})
		require.NoError(t, err)
		assert.Equal(t, 3, rs.Count())
		assert.Equal(t, []int64{24, 25, 30}, ages(rs.Data()))
	})

	t.Run("Literal", func(t *testing.T) {
		spec, err := storagemodels.ParseTransform(`[
			{"type": "compoundsort", "value": [["age", true]]},
			{"type": "offset", "value": 1},
			{"type": "limit", "value": 2}
		]`)
		require.NoError(t, err)
		rs, err := users.Chain(spec, nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{980, 870}, ages(rs.Data()))
	})

	t.Run("UnknownName", func(t *testing.T) {
		_, err := users.Chain(storagemodels.TransformSpec{Name: "Nope"}, nil)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("DuplicateName", func(t *testing.T) {
		err := users.AddTransform("OrderedByAge", []storagemodels.TransformStep{{Type: storagemodels.StepLimit, Value: 1}})
		assert.True(t, errors.IsAlreadyExists(err))
		require.NoError(t, users.SetTransform("OrderedByAge", []storagemodels.TransformStep{{Type: storagemodels.StepLimit, Value: 1}}))
	})

	t.Run("UnresolvedParam", func(t *testing.T) {
		spec := storagemodels.TransformSpec{Steps: []storagemodels.TransformStep{{Type: storagemodels.StepLimit, Value: "[%lktxp]n"}}}
		_, err := users.Chain(spec, nil)
		assert.True(t, errors.IsMalformedInput(err))
	})

	t.Run("ResultSetJSON", func(t *testing.T) {
		rs, err := users.Chain(storagemodels.TransformSpec{Steps: []storagemodels.TransformStep{{Type: storagemodels.StepLimit, Value: 2}}}, nil)
		require.NoError(t, err)
		b, err := json.Marshal(rs)
		require.NoError(t, err)
		assert.JSONEq(t, `{"collection": "users", "count": 2}`, string(b))
	})
}

func TestDynamicView(t *testing.T) {
	_, users := seedUsers(t)
	view := users.AddDynamicView("Youngsters").
		ApplyFind(mustFilter(t, `{"age": {"$lt": 100}}`)).
		ApplySimpleSort("age", true)

	assert.Equal(t, []int64{35, 30, 25, 24}, ages(view.Data()))

	// cached until the collection changes
	_, err := users.Insert(storagemodels.Record{"name": "vali", "age": 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{35, 30, 25, 24, 1}, ages(view.Data()))

	got, ok := users.DynamicView("Youngsters")
	require.True(t, ok)
	assert.Equal(t, "Youngsters", got.Name())

	_, ok = users.DynamicView("Elders")
	assert.False(t, ok)

	require.NoError(t, users.AddTransform("TopTwo", []storagemodels.TransformStep{{Type: storagemodels.StepLimit, Value: 2}}))
	rs, err := view.Branch("TopTwo", nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{35, 30}, ages(rs.Data()))

	_, err = view.Branch("Missing", nil)
	assert.True(t, errors.IsNotFound(err))
}

func TestCollectionInfo(t *testing.T) {
	_, users := seedUsers(t)
	users.AddDynamicView("Youngsters")
	require.NoError(t, users.AddTransform("B", []storagemodels.TransformStep{{Type: storagemodels.StepLimit, Value: 1}}))
	require.NoError(t, users.AddTransform("A", []storagemodels.TransformStep{{Type: storagemodels.StepLimit, Value: 1}}))

	info := users.Info()
	assert.Equal(t, "users", info.Name)
	assert.Equal(t, 7, info.Count)
	assert.True(t, info.Dirty)
	assert.Equal(t, CloneDeep, info.CloneMethod)
	assert.Equal(t, []string{"age"}, info.BinaryIndices)
	assert.Equal(t, []string{"name"}, info.UniqueIndices)
	assert.Equal(t, []string{"A", "B"}, info.Transforms)
	assert.Equal(t, []string{"Youngsters"}, info.DynamicViews)
}

func mustFilter(t *testing.T, v any) storagemodels.Filter {
	t.Helper()
	f, err := storagemodels.ParseFilter(v)
	require.NoError(t, err)
	return f
}
