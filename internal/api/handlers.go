package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Obvman/obv-Omega-Mouse/internal/actions"
	"github.com/Obvman/obv-Omega-Mouse/internal/eventlog"
	"github.com/Obvman/obv-Omega-Mouse/internal/mode"
)

// Invoker runs and lists named actions.
type Invoker interface {
	Invoke(ctx context.Context, name string) (any, error)
	List() []actions.Info
}

// StateReader exposes the controller state.
type StateReader interface {
	Snapshot() mode.Snapshot
}

// EventLister pages through recorded transitions.
type EventLister interface {
	List(offset, limit int) ([]eventlog.Event, int)
}

// SettingsReloader re-reads the settings file.
type SettingsReloader interface {
	Reload() error
}

// Deps are the collaborators the handlers serve.
type Deps struct {
	Actions  Invoker
	State    StateReader
	Events   EventLister
	Settings SettingsReloader // optional
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	deps      Deps
	version   string
	startedAt time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps, version string) *Handlers {
	return &Handlers{
		deps:      deps,
		version:   version,
		startedAt: time.Now(),
	}
}

// StatusHandler handles GET /status.
func (h *Handlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap := h.deps.State.Snapshot()
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:            "operational",
		Version:           h.version,
		Uptime:            time.Since(h.startedAt).Round(time.Second).String(),
		StartedAt:         h.startedAt,
		Enabled:           snap.Enabled,
		Mode:              snap.ModeName,
		Tags:              snap.Tags,
		AwaitingSecondPop: snap.AwaitingSecondPop,
	})
}

// ListActionsHandler handles GET /actions.
func (h *Handlers) ListActionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	list := h.deps.Actions.List()
	writeJSON(w, http.StatusOK, ActionListResponse{
		Actions: list,
		Total:   len(list),
	})
}

// InvokeActionHandler handles POST /actions/{name}.
func (h *Handlers) InvokeActionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := actions.Qualify(strings.TrimPrefix(r.URL.Path, "/actions/"))
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "missing action name")
		return
	}

	result, err := h.deps.Actions.Invoke(r.Context(), name)
	if err != nil {
		if errors.Is(err, actions.ErrUnknownAction) {
			writeError(w, http.StatusNotFound, "action not found")
			return
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "action failed",
			Code:    http.StatusInternalServerError,
			Details: err.Error(),
		})
		return
	}

	snap := h.deps.State.Snapshot()
	writeJSON(w, http.StatusOK, ActionResponse{
		Action:  name,
		Result:  result,
		Enabled: snap.Enabled,
		Tags:    snap.Tags,
	})
}

// ListEventsHandler handles GET /events.
func (h *Handlers) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	events, total := h.deps.Events.List(offset, limit)
	writeJSON(w, http.StatusOK, EventListResponse{
		Events: events,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	})
}

// ReloadSettingsHandler handles POST /settings/reload.
func (h *Handlers) ReloadSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.deps.Settings == nil {
		writeError(w, http.StatusNotImplemented, "settings reload not available")
		return
	}

	if err := h.deps.Settings.Reload(); err != nil {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "reload failed",
			Code:    http.StatusConflict,
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, ReloadResponse{Message: "settings reloaded"})
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  status,
	})
}
