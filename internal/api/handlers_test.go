package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Obvman/obv-Omega-Mouse/internal/actions"
	"github.com/Obvman/obv-Omega-Mouse/internal/eventlog"
	"github.com/Obvman/obv-Omega-Mouse/internal/host"
	"github.com/Obvman/obv-Omega-Mouse/internal/mode"
	"github.com/Obvman/obv-Omega-Mouse/internal/settings"
)

type testEnv struct {
	handlers *Handlers
	sim      *host.Sim
	store    *settings.Store
	events   *eventlog.Store
}

func newTestEnv(t *testing.T, settingsPath string) *testEnv {
	t.Helper()

	sim := host.NewSim(nil)
	store, err := settings.NewStore(settingsPath, nil)
	if err != nil {
		t.Fatalf("settings store: %v", err)
	}
	c, err := mode.NewController(mode.Config{
		Tracker:  sim,
		Mouse:    sim,
		Keyboard: sim,
		Tags:     sim,
		Settings: store,
	})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	registry := actions.NewRegistry(sim)
	if err := mode.Bind(registry, c); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	events := eventlog.NewStore(10, nil)
	c.OnTransition(eventlog.NewRecorder(events).Record)

	h := NewHandlers(Deps{
		Actions:  registry,
		State:    c,
		Events:   events,
		Settings: store,
	}, "1.0.0")
	return &testEnv{handlers: h, sim: sim, store: store, events: events}
}

func TestStatusHandler(t *testing.T) {
	env := newTestEnv(t, "")

	t.Run("reports the off state", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		rec := httptest.NewRecorder()

		env.handlers.StatusHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var resp StatusResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Status != "operational" {
			t.Errorf("expected status 'operational', got %q", resp.Status)
		}
		if resp.Version != "1.0.0" {
			t.Errorf("expected version '1.0.0', got %q", resp.Version)
		}
		if resp.Enabled {
			t.Error("expected enabled false")
		}
		if len(resp.Tags) != 0 {
			t.Errorf("expected no tags, got %v", resp.Tags)
		}
	})

	t.Run("rejects non-GET methods", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/status", nil)
		rec := httptest.NewRecorder()

		env.handlers.StatusHandler(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestListActionsHandler(t *testing.T) {
	env := newTestEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/actions", nil)
	rec := httptest.NewRecorder()

	env.handlers.ListActionsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp ActionListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != len(resp.Actions) || resp.Total == 0 {
		t.Fatalf("unexpected total %d for %d actions", resp.Total, len(resp.Actions))
	}

	found := false
	for _, a := range resp.Actions {
		if a.Name == mode.ActionToggle {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s in %v", mode.ActionToggle, resp.Actions)
	}
}

func TestInvokeActionHandler(t *testing.T) {
	env := newTestEnv(t, "")

	t.Run("toggles on with a bare name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/actions/omega_mouse_toggle", nil)
		rec := httptest.NewRecorder()

		env.handlers.InvokeActionHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}

		var resp ActionResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Action != mode.ActionToggle {
			t.Errorf("expected action %q, got %q", mode.ActionToggle, resp.Action)
		}
		if !resp.Enabled {
			t.Error("expected enabled true")
		}
		want := []string{mode.TagOn, mode.TagFull}
		if !reflect.DeepEqual(resp.Tags, want) {
			t.Errorf("expected tags %v, got %v", want, resp.Tags)
		}
		if got := env.sim.Tags(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected published tags %v, got %v", want, got)
		}
	})

	t.Run("returns action results", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/actions/user.omega_mouse_relocate", nil)
		rec := httptest.NewRecorder()

		env.handlers.InvokeActionHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var resp ActionResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Result != mode.NoEffectMessage {
			t.Errorf("expected result %q, got %v", mode.NoEffectMessage, resp.Result)
		}
	})

	t.Run("returns 404 for unknown actions", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/actions/nonexistent", nil)
		rec := httptest.NewRecorder()

		env.handlers.InvokeActionHandler(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	t.Run("returns 400 without a name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/actions/", nil)
		rec := httptest.NewRecorder()

		env.handlers.InvokeActionHandler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("returns 500 when the host fails", func(t *testing.T) {
		env.sim.FailOn(host.OpClick, errors.New("no pointer"))
		defer env.sim.FailOn(host.OpClick, nil)

		req := httptest.NewRequest(http.MethodPost, "/actions/omega_mouse_left_click", nil)
		rec := httptest.NewRecorder()

		env.handlers.InvokeActionHandler(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
		}
		var resp ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Details == "" {
			t.Error("expected error details")
		}
	})

	t.Run("rejects non-POST methods", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/actions/omega_mouse_toggle", nil)
		rec := httptest.NewRecorder()

		env.handlers.InvokeActionHandler(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestListEventsHandler(t *testing.T) {
	env := newTestEnv(t, "")

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/actions/omega_mouse_toggle", nil)
		env.handlers.InvokeActionHandler(httptest.NewRecorder(), req)
	}

	t.Run("pages through events", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events?offset=1&limit=1", nil)
		rec := httptest.NewRecorder()

		env.handlers.ListEventsHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var resp EventListResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Total != 3 {
			t.Errorf("expected total 3, got %d", resp.Total)
		}
		if len(resp.Events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(resp.Events))
		}
		if resp.Events[0].Action != "toggle" {
			t.Errorf("expected toggle event, got %q", resp.Events[0].Action)
		}
	})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantEvents int
	}{
		{"non-numeric limit", "limit=abc", http.StatusBadRequest, 0},
		{"negative limit", "limit=-1", http.StatusBadRequest, 0},
		{"negative offset", "offset=-2", http.StatusBadRequest, 0},
		{"max int limit", "offset=1&limit=9223372036854775807", http.StatusOK, 2},
		{"max int offset", "offset=9223372036854775807", http.StatusOK, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/events?"+tt.query, nil)
			rec := httptest.NewRecorder()

			env.handlers.ListEventsHandler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp EventListResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(resp.Events) != tt.wantEvents {
				t.Errorf("expected %d events, got %d", tt.wantEvents, len(resp.Events))
			}
		})
	}
}

func TestReloadSettingsHandler(t *testing.T) {
	t.Run("fails without a settings file", func(t *testing.T) {
		env := newTestEnv(t, "")
		req := httptest.NewRequest(http.MethodPost, "/settings/reload", nil)
		rec := httptest.NewRecorder()

		env.handlers.ReloadSettingsHandler(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
		}
	})

	t.Run("picks up a new mode", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.yaml")
		if err := os.WriteFile(path, []byte("omega_mouse_mode: 0\n"), 0600); err != nil {
			t.Fatal(err)
		}
		env := newTestEnv(t, path)

		if err := os.WriteFile(path, []byte("omega_mouse_mode: 2\n"), 0600); err != nil {
			t.Fatal(err)
		}
		req := httptest.NewRequest(http.MethodPost, "/settings/reload", nil)
		rec := httptest.NewRecorder()

		env.handlers.ReloadSettingsHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}
		if got, _ := env.store.OmegaMouseMode(); got != 2 {
			t.Errorf("expected mode 2 after reload, got %d", got)
		}
	})
}
