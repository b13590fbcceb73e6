/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package server

import (
	"encoding/json"
	"net/http"

	"github.com/suparena/storehub/errors"
	"github.com/suparena/storehub/internal/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already sent
		logger.Debug("Response encoding failed", logger.Err(err))
	}
}

// writeError maps err to a status code and writes an ErrorResponse.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, StatusFor(err), ErrorResponse{
		Error:     err.Error(),
		Kind:      errors.Kind(err),
		RequestID: RequestIDFromContext(r.Context()),
	})
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.IsInitializationFailed(err):
		return http.StatusBadGateway
	case errors.IsMalformedInput(err), errors.IsValidationError(err):
		return http.StatusBadRequest
	case errors.IsInitializerNotFound(err), errors.IsRecordNotFound(err),
		errors.IsViewNotFound(err), errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsInstanceClosed(err), errors.IsAlreadyExists(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
