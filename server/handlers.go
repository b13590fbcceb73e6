/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/suparena/storehub"
	"github.com/suparena/storehub/errors"
)

// Request is the JSON body of every /v1 operation. Structured fields
// (predicate, record, transform, params) may be JSON values or JSON text
// embedded in a string.
type Request struct {
	ServiceName string          `json:"serviceName"`
	Path        string          `json:"path"`
	Collection  string          `json:"collection"`
	ID          any             `json:"id,omitempty"`
	Predicate   json.RawMessage `json:"predicate,omitempty"`
	Record      json.RawMessage `json:"record,omitempty"`
	Transform   json.RawMessage `json:"transform,omitempty"`
	Params      json.RawMessage `json:"params,omitempty"`
	Materialize *bool           `json:"materialize,omitempty"`

	ViewName      string `json:"viewName,omitempty"`
	TransformName string `json:"transformName,omitempty"`
}

func (req Request) key() storehub.Key {
	return storehub.Key{Service: req.ServiceName, Path: req.Path}
}

// Handler serves the operation endpoints.
type Handler struct {
	hub *storehub.Hub
}

// NewHandler creates a handler over hub.
func NewHandler(hub *storehub.Hub) *Handler {
	return &Handler{hub: hub}
}

func decodeRequest(r *http.Request) (Request, error) {
	var req Request
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		return Request{}, errors.NewMalformedInputError("body", "invalid JSON request body", err)
	}
	return req, nil
}

// structured turns a raw JSON field into the form the hub parses: nil when
// absent, the string contents for JSON strings, the raw text otherwise.
func structured(raw json.RawMessage) any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// params decodes transform parameters given as an object or JSON text.
func params(raw json.RawMessage) (map[string]any, error) {
	v := structured(raw)
	if v == nil {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(v.(string)), &out); err != nil {
		return nil, errors.NewMalformedInputError("params", "expected a JSON object", err)
	}
	return out, nil
}

// operation adapts a typed hub call to an HTTP handler.
func (h *Handler) operation(fn func(r *http.Request, req Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRequest(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := fn(r, req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// Get handles POST /v1/get.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.operation(func(r *http.Request, req Request) (any, error) {
		return h.hub.Get(r.Context(), req.key(), req.Collection, req.ID)
	})(w, r)
}

// Find handles POST /v1/find.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	h.operation(func(r *http.Request, req Request) (any, error) {
		return h.hub.Find(r.Context(), req.key(), req.Collection, structured(req.Predicate))
	})(w, r)
}

// Insert handles POST /v1/insert.
func (h *Handler) Insert(w http.ResponseWriter, r *http.Request) {
	h.operation(func(r *http.Request, req Request) (any, error) {
		return h.hub.Insert(r.Context(), req.key(), req.Collection, structured(req.Record))
	})(w, r)
}

// Update handles POST /v1/update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.operation(func(r *http.Request, req Request) (any, error) {
		return h.hub.Update(r.Context(), req.key(), req.Collection, structured(req.Record))
	})(w, r)
}

// Remove handles POST /v1/remove. The target is "record" when present,
// otherwise "predicate".
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	h.operation(func(r *http.Request, req Request) (any, error) {
		target := structured(req.Record)
		if target == nil {
			target = structured(req.Predicate)
		}
		if target == nil {
			return nil, errors.NewMalformedInputError("record", "record or predicate is required", nil)
		}
		return h.hub.Remove(r.Context(), req.key(), req.Collection, target)
	})(w, r)
}

// Transform handles POST /v1/transform.
func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	h.operation(func(r *http.Request, req Request) (any, error) {
		p, err := params(req.Params)
		if err != nil {
			return nil, err
		}
		return h.hub.Transform(r.Context(), req.key(), req.Collection, structured(req.Transform), p, req.Materialize)
	})(w, r)
}

// DynamicView handles POST /v1/dynamicView.
func (h *Handler) DynamicView(w http.ResponseWriter, r *http.Request) {
	h.operation(func(r *http.Request, req Request) (any, error) {
		p, err := params(req.Params)
		if err != nil {
			return nil, err
		}
		return h.hub.DynamicView(r.Context(), req.key(), req.Collection, req.ViewName, req.TransformName, p)
	})(w, r)
}

// InstanceStats handles POST /v1/instanceStats. An unknown instance yields
// a JSON null with status 200.
func (h *Handler) InstanceStats(w http.ResponseWriter, r *http.Request) {
	h.operation(func(r *http.Request, req Request) (any, error) {
		stats, ok := h.hub.InstanceStats(req.key())
		if !ok {
			return nil, nil
		}
		return stats, nil
	})(w, r)
}

// ProcessStats handles GET /v1/processStats.
func (h *Handler) ProcessStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.ProcessStats(r.Context()))
}

// ShutdownResponse lists the instances closed by POST /v1/shutdown.
type ShutdownResponse struct {
	Reports []storehub.ShutdownReport `json:"reports"`
	Error   string                    `json:"error,omitempty"`
}

// Shutdown handles POST /v1/shutdown. The process keeps serving; later
// operations on closed instances fail with InstanceClosed.
func (h *Handler) Shutdown(w http.ResponseWriter, r *http.Request) {
	reports, err := h.hub.Shutdown(r.Context())
	resp := ShutdownResponse{Reports: reports}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	uptime := h.hub.Uptime()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"service":    "storehub",
		"version":    storehub.Version,
		"instances":  len(h.hub.Keys()),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	})
}
