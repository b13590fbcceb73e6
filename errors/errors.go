/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a named store resource (e.g. a collection) is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when a unique constraint would be violated
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoIndexMap is returned when no index map is found for a type
	ErrNoIndexMap = errors.New("no index map found for type")

	// ErrInitializerNotFound is returned when a service name cannot be resolved to an initializer
	ErrInitializerNotFound = errors.New("initializer not found")

	// ErrInitializationFailed is returned when an initializer reports failure
	ErrInitializationFailed = errors.New("initialization failed")

	// ErrRecordNotFound is returned when an update targets a record that does not exist
	ErrRecordNotFound = errors.New("record not found")

	// ErrViewNotFound is returned when a named dynamic view does not exist
	ErrViewNotFound = errors.New("dynamic view not found")

	// ErrMalformedInput is returned when a serialized or structured parameter cannot be parsed
	ErrMalformedInput = errors.New("malformed input")

	// ErrInstanceClosed is returned for operations against an instance that was shut down
	ErrInstanceClosed = errors.New("instance closed")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// InitializerNotFoundError is returned when no initializer is registered under Identity
type InitializerNotFoundError struct {
	Identity string
}

func (e *InitializerNotFoundError) Error() string {
	return fmt.Sprintf("no initializer registered for service %q", e.Identity)
}

func (e *InitializerNotFoundError) Is(target error) bool {
	return target == ErrInitializerNotFound
}

// InitializationError wraps the failure reported by an initializer
type InitializationError struct {
	Service string
	Path    string
	Err     error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initializing %s at %q: %v", e.Service, e.Path, e.Err)
}

func (e *InitializationError) Is(target error) bool {
	return target == ErrInitializationFailed
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// RecordNotFoundError is returned when a record identity is absent from a collection
type RecordNotFoundError struct {
	Collection string
	ID         int64
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("record %d not found in collection %q", e.ID, e.Collection)
}

func (e *RecordNotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// ViewNotFoundError is returned when a collection has no dynamic view of that name
type ViewNotFoundError struct {
	Collection string
	View       string
}

func (e *ViewNotFoundError) Error() string {
	return fmt.Sprintf("dynamic view %q not found in collection %q", e.View, e.Collection)
}

func (e *ViewNotFoundError) Is(target error) bool {
	return target == ErrViewNotFound
}

// MalformedInputError describes a parameter that failed to parse
type MalformedInputError struct {
	Param   string
	Message string
	Err     error
}

func (e *MalformedInputError) Error() string {
	msg := fmt.Sprintf("malformed %s: %s", e.Param, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// InstanceClosedError is returned when the addressed instance has been shut down
type InstanceClosedError struct {
	Service string
	Path    string
}

func (e *InstanceClosedError) Error() string {
	return fmt.Sprintf("instance %s at %q is closed", e.Service, e.Path)
}

func (e *InstanceClosedError) Is(target error) bool {
	return target == ErrInstanceClosed
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewInitializerNotFoundError creates a new InitializerNotFoundError
func NewInitializerNotFoundError(identity string) error {
	return &InitializerNotFoundError{Identity: identity}
}

// NewInitializationError creates a new InitializationError
func NewInitializationError(service, path string, err error) error {
	return &InitializationError{Service: service, Path: path, Err: err}
}

// NewRecordNotFoundError creates a new RecordNotFoundError
func NewRecordNotFoundError(collection string, id int64) error {
	return &RecordNotFoundError{Collection: collection, ID: id}
}

// NewViewNotFoundError creates a new ViewNotFoundError
func NewViewNotFoundError(collection, view string) error {
	return &ViewNotFoundError{Collection: collection, View: view}
}

// NewMalformedInputError creates a new MalformedInputError
func NewMalformedInputError(param, message string, err error) error {
	return &MalformedInputError{Param: param, Message: message, Err: err}
}

// NewInstanceClosedError creates a new InstanceClosedError
func NewInstanceClosedError(service, path string) error {
	return &InstanceClosedError{Service: service, Path: path}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInitializerNotFound checks if an error is an initializer lookup miss
func IsInitializerNotFound(err error) bool {
	return errors.Is(err, ErrInitializerNotFound)
}

// IsInitializationFailed checks if an error is an initializer failure
func IsInitializationFailed(err error) bool {
	return errors.Is(err, ErrInitializationFailed)
}

// IsRecordNotFound checks if an error is a missing update target
func IsRecordNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}

// IsViewNotFound checks if an error is a missing dynamic view
func IsViewNotFound(err error) bool {
	return errors.Is(err, ErrViewNotFound)
}

// IsMalformedInput checks if an error is a parse failure
func IsMalformedInput(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}

// IsInstanceClosed checks if an error is an operation against a closed instance
func IsInstanceClosed(err error) bool {
	return errors.Is(err, ErrInstanceClosed)
}

// Kind returns a stable, caller-facing name for the error's category.
// Unclassified errors report "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsInitializationFailed(err):
		return "InitializationFailed"
	case IsMalformedInput(err):
		return "MalformedInput"
	case IsInitializerNotFound(err):
		return "InitializerNotFound"
	case IsRecordNotFound(err):
		return "RecordNotFound"
	case IsViewNotFound(err):
		return "ViewNotFound"
	case IsInstanceClosed(err):
		return "InstanceClosed"
	case IsNotFound(err):
		return "NotFound"
	case IsAlreadyExists(err):
		return "AlreadyExists"
	case IsValidationError(err):
		return "InvalidInput"
	default:
		return "internal"
	}
}
