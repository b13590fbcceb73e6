/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("collection", "users")

	expected := `collection with key "users" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}

	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("users.email", "a@b.c")

	expected := `users.email with key "a@b.c" already exists`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsAlreadyExists(err) {
		t.Error("IsAlreadyExists should return true for AlreadyExistsError")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "$loki",
			message:  "document already has an identity",
			expected: `validation failed for field "$loki": document already has an identity`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "empty record",
			expected: "validation failed: empty record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestInitializationErrorUnwraps(t *testing.T) {
	cause := errors.New("disk on fire")
	err := NewInitializationError("examples/users", "/tmp/users.db", cause)

	if !IsInitializationFailed(err) {
		t.Error("InitializationError should match ErrInitializationFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("InitializationError should unwrap to its cause")
	}

	expected := `initializing examples/users at "/tmp/users.db": disk on fire`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestMalformedInputError(t *testing.T) {
	cause := fmt.Errorf("unexpected end of JSON input")
	err := NewMalformedInputError("predicate", "invalid JSON", cause)

	if !IsMalformedInput(err) {
		t.Error("MalformedInputError should match ErrMalformedInput")
	}
	if !errors.Is(err, cause) {
		t.Error("MalformedInputError should unwrap to its cause")
	}

	bare := NewMalformedInputError("transform", "unknown step type \"map\"", nil)
	if bare.Error() != `malformed transform: unknown step type "map"` {
		t.Errorf("unexpected message %q", bare.Error())
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{nil, ""},
		{NewInitializerNotFoundError("nope"), "InitializerNotFound"},
		{NewInitializationError("s", "p", errors.New("x")), "InitializationFailed"},
		{NewRecordNotFoundError("users", 9), "RecordNotFound"},
		{NewViewNotFoundError("users", "Youngsters"), "ViewNotFound"},
		{NewMalformedInputError("record", "bad", nil), "MalformedInput"},
		{NewInstanceClosedError("s", "p"), "InstanceClosed"},
		{NewNotFoundError("collection", "x"), "NotFound"},
		{NewAlreadyExistsError("idx", "k"), "AlreadyExists"},
		{NewValidationError("f", "m"), "InvalidInput"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		if got := Kind(fmt.Errorf("wrapped: %w", tt.err)); tt.err != nil && got != tt.kind {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.kind)
		}
		if tt.err == nil && Kind(nil) != "" {
			t.Errorf("Kind(nil) should be empty")
		}
	}
}

func TestErrorWrapping(t *testing.T) {
	original := NewRecordNotFoundError("users", 5)
	wrapped := fmt.Errorf("update failed: %w", original)

	if !IsRecordNotFound(wrapped) {
		t.Error("IsRecordNotFound should work with wrapped errors")
	}
	if IsNotFound(wrapped) {
		t.Error("RecordNotFoundError should not match ErrNotFound")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrNoIndexMap,
		ErrInitializerNotFound,
		ErrInitializationFailed,
		ErrRecordNotFound,
		ErrViewNotFound,
		ErrMalformedInput,
		ErrInstanceClosed,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}
