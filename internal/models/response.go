// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package models

import "time"

// ErrorResponse is the JSON envelope for all error responses.
// Successful responses return their payload directly (the /recommend
// endpoint returns a bare JSON array of posts).
type ErrorResponse struct {
	Error     APIError  `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// APIError carries a machine-readable code and a human-readable message.
// Details is optional and only populated for validation failures.
type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Error codes shared across API responses.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidationFailed = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeDatabaseError    = "DATABASE_ERROR"
)

// HealthStatus is the payload for the /health endpoint.
type HealthStatus struct {
	Status        string      `json:"status"`
	Service       string      `json:"service"`
	Version       string      `json:"version"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	Memory        MemoryStats `json:"memory"`
	Cache         interface{} `json:"cache,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

// MemoryStats mirrors the subset of runtime.MemStats reported by /health.
type MemoryStats struct {
	AllocMB      float64 `json:"alloc_mb"`
	TotalAllocMB float64 `json:"total_alloc_mb"`
	SysMB        float64 `json:"sys_mb"`
	NumGC        uint32  `json:"num_gc"`
}
