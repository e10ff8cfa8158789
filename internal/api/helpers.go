// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/wonhongChang/jerrygram-recommend/internal/logging"
	"github.com/wonhongChang/jerrygram-recommend/internal/middleware"
	"github.com/wonhongChang/jerrygram-recommend/internal/models"
	"github.com/wonhongChang/jerrygram-recommend/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent
// log injection. Query parameters are attacker-controlled and must not
// be able to forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON writes any payload as JSON. Successful recommendation
// responses are a bare array; health and stats responses are objects.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondError writes the error envelope. The original error is logged
// but never echoed to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", sanitizeLogValue(code)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, status, &models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: middleware.GetRequestID(r.Context()),
		},
		Timestamp: time.Now().UTC(),
	})
}

// respondValidationError writes a VALIDATION_ERROR envelope with
// per-field details.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondJSON(w, http.StatusBadRequest, &models.ErrorResponse{
		Error: models.APIError{
			Code:      apiErr.Code,
			Message:   apiErr.Message,
			Details:   apiErr.Details,
			RequestID: middleware.GetRequestID(r.Context()),
		},
		Timestamp: time.Now().UTC(),
	})
}

// getIntParam extracts an integer query parameter with a default.
// Malformed values fall back to the default rather than erroring; the
// clamp afterwards keeps the result in range either way.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// clampInt forces v into [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
