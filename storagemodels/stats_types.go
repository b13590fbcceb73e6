/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// OperationKind names one instrumented dispatcher operation.
type OperationKind string

const (
	OpGet         OperationKind = "get"
	OpFind        OperationKind = "find"
	OpInsert      OperationKind = "insert"
	OpUpdate      OperationKind = "update"
	OpRemove      OperationKind = "remove"
	OpTransform   OperationKind = "transform"
	OpDynamicView OperationKind = "dynamicView"
)

// OperationKinds lists every instrumented operation in reporting order.
var OperationKinds = []OperationKind{
	OpGet, OpFind, OpInsert, OpUpdate, OpRemove, OpTransform, OpDynamicView,
}

// OperationStats is the counter/time pair of one operation kind.
type OperationStats struct {
	Requests  uint64        `json:"requests"`
	TotalTime time.Duration `json:"totalTimeNs"`
}

// StatsSnapshot is a point-in-time copy of a stats bucket.
type StatsSnapshot struct {
	TotalRequests uint64                           `json:"totalRequests"`
	TotalTime     time.Duration                    `json:"totalTimeNs"`
	Operations    map[OperationKind]OperationStats `json:"operations"`
}

// MemoryStats reports process memory in bytes.
type MemoryStats struct {
	RSS       uint64 `json:"rss"`
	VMS       uint64 `json:"vms"`
	HeapAlloc uint64 `json:"heapAlloc"`
	HeapSys   uint64 `json:"heapSys"`
	Sys       uint64 `json:"sys"`
	NumGC     uint32 `json:"numGC"`
}

// CPUStats reports cumulative process CPU time in seconds.
type CPUStats struct {
	User   float64 `json:"user"`
	System float64 `json:"system"`
}

// InstanceKey identifies a live store instance.
type InstanceKey struct {
	Service string `json:"serviceName"`
	Path    string `json:"path"`
	Closed  bool   `json:"closed,omitempty"`
}

// ProcessStats is the processStats snapshot.
type ProcessStats struct {
	Version       string          `json:"version"`
	GoVersion     string          `json:"goVersion"`
	PID           int32           `json:"pid"`
	StartedAt     strfmt.DateTime `json:"startedAt"`
	UptimeSeconds float64         `json:"uptimeSeconds"`
	Goroutines    int             `json:"goroutines"`
	Memory        MemoryStats     `json:"memory"`
	CPU           CPUStats        `json:"cpu"`
	Global        StatsSnapshot   `json:"global"`
	Instances     []InstanceKey   `json:"instances"`
}

// DatabaseInfo echoes the configuration of one store instance.
type DatabaseInfo struct {
	Path             string        `json:"path"`
	EngineVersion    string        `json:"engineVersion"`
	Env              string        `json:"env,omitempty"`
	Persistence      string        `json:"persistence"`
	Autosave         bool          `json:"autosave"`
	AutosaveInterval time.Duration `json:"autosaveIntervalNs"`
	ThrottledSaves   bool          `json:"throttledSaves"`
}

// CollectionInfo describes one collection of a store instance.
type CollectionInfo struct {
	Name          string   `json:"name"`
	Count         int      `json:"count"`
	Dirty         bool     `json:"dirty"`
	CloneObjects  bool     `json:"cloneObjects"`
	CloneMethod   string   `json:"cloneMethod"`
	BinaryIndices []string `json:"binaryIndices"`
	UniqueIndices []string `json:"uniqueIndices"`
	Transforms    []string `json:"transforms"`
	DynamicViews  []string `json:"dynamicViews"`
}

// InstanceStats is the instanceStats snapshot.
type InstanceStats struct {
	Service     string           `json:"serviceName"`
	Path        string           `json:"path"`
	CreatedAt   strfmt.DateTime  `json:"createdAt"`
	Closed      bool             `json:"closed"`
	Config      DatabaseInfo     `json:"config"`
	Stats       StatsSnapshot    `json:"stats"`
	Collections []CollectionInfo `json:"collections"`
}
