// Package api provides the REST control API for Omega Mouse.
package api

import (
	"time"

	"github.com/Obvman/obv-Omega-Mouse/internal/actions"
	"github.com/Obvman/obv-Omega-Mouse/internal/eventlog"
)

// StatusResponse is the response for GET /status.
type StatusResponse struct {
	Status            string    `json:"status"`
	Version           string    `json:"version"`
	Uptime            string    `json:"uptime"`
	StartedAt         time.Time `json:"started_at"`
	Enabled           bool      `json:"enabled"`
	Mode              string    `json:"mode"`
	Tags              []string  `json:"tags"`
	AwaitingSecondPop bool      `json:"awaiting_second_pop"`
}

// ActionListResponse is the response for GET /actions.
type ActionListResponse struct {
	Actions []actions.Info `json:"actions"`
	Total   int            `json:"total"`
}

// ActionResponse is the response for POST /actions/{name}.
type ActionResponse struct {
	Action  string   `json:"action"`
	Result  any      `json:"result,omitempty"`
	Enabled bool     `json:"enabled"`
	Tags    []string `json:"tags"`
}

// EventListResponse is the response for GET /events.
type EventListResponse struct {
	Events []eventlog.Event `json:"events"`
	Total  int              `json:"total"`
	Offset int              `json:"offset"`
	Limit  int              `json:"limit"`
}

// ReloadResponse is the response for POST /settings/reload.
type ReloadResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}
