/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock_test

import (
	"context"
	"testing"

	"github.com/suparena/storehub/datastore/mock"
	"github.com/suparena/storehub/errors"
	"github.com/suparena/storehub/storagemodels"
)

func TestMockDatabase(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		db := mock.New("test.db").
			WithCollection("users", storagemodels.Record{"name": "odin"}, storagemodels.Record{"name": "thor"})

		users, err := db.Collection("users")
		if err != nil {
			t.Fatalf("Collection failed: %v", err)
		}

		rec, ok := users.Get(2)
		if !ok || rec["name"] != "thor" {
			t.Fatalf("Get mismatch: %+v", rec)
		}

		inserted, err := users.Insert(storagemodels.Record{"name": "loki"})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if id, _ := inserted.ID(); id != 3 {
			t.Fatalf("Expected id 3, got %d", id)
		}

		if _, ok := users.Remove(1); !ok {
			t.Fatal("Remove failed")
		}
		if _, ok := users.Get(1); ok {
			t.Fatal("Expected record 1 to be gone")
		}

		_, err = db.Collection("groups")
		if !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		insertErr := errors.NewValidationError("name", "required")
		coll := mock.NewCollection("users").WithInsertError(insertErr)
		db := mock.New("test.db").AddCollection(coll)

		users, _ := db.Collection("users")
		if _, err := users.Insert(storagemodels.Record{}); err != insertErr {
			t.Fatalf("Expected insert error, got: %v", err)
		}

		_, err := users.Update(storagemodels.Record{storagemodels.FieldID: 9})
		if !errors.IsRecordNotFound(err) {
			t.Fatalf("Expected record not found, got: %v", err)
		}
	})

	t.Run("CloseTracking", func(t *testing.T) {
		closeErr := errors.NewValidationError("", "flush failed")
		db := mock.New("test.db").WithCloseError(closeErr)

		if err := db.Close(ctx); err != closeErr {
			t.Fatalf("Expected close error, got: %v", err)
		}
		_ = db.Close(ctx)
		if db.CloseCalls() != 2 {
			t.Fatalf("Expected 2 close calls, got %d", db.CloseCalls())
		}
	})

	t.Run("ViewsAndChains", func(t *testing.T) {
		coll := mock.NewCollection("users").
			WithView("Youngsters", storagemodels.Record{"name": "sif"}).
			WithChainFunc(func(spec storagemodels.TransformSpec, params map[string]any) ([]storagemodels.Record, error) {
				return []storagemodels.Record{{"transform": spec.Name}}, nil
			})

		view, ok := coll.DynamicView("Youngsters")
		if !ok || len(view.Data()) != 1 {
			t.Fatal("Expected Youngsters view with one record")
		}
		rs, err := view.Branch("Top", nil)
		if err != nil || rs.Data()[0]["transform"] != "Top" {
			t.Fatalf("Branch mismatch: %v %v", rs, err)
		}
		if _, ok := coll.DynamicView("Elders"); ok {
			t.Fatal("Expected missing view")
		}
	})
}
