// Package eventlog keeps a bounded history of controller transitions for
// diagnosis.
package eventlog

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Obvman/obv-Omega-Mouse/internal/mode"
)

const DefaultLimit = 1000

// Event is one recorded transition.
type Event struct {
	ID                string    `json:"id"`
	Action            string    `json:"action"`
	Enabled           bool      `json:"enabled"`
	Mode              string    `json:"mode"`
	Tags              []string  `json:"tags"`
	AwaitingSecondPop bool      `json:"awaiting_second_pop"`
	Capabilities      string    `json:"capabilities,omitempty"`
	Error             string    `json:"error,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Store holds the most recent events in memory.
type Store struct {
	mu     sync.RWMutex
	events []Event
	limit  int
	logger *slog.Logger
}

// NewStore creates a Store keeping at most limit events. Each added event
// is also written to logger as a JSON line; a nil logger disables that.
func NewStore(limit int, logger *slog.Logger) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		events: make([]Event, 0, limit),
		limit:  limit,
		logger: logger,
	}
}

// Add stores an event, dropping the oldest once the limit is reached.
func (s *Store) Add(event Event) {
	if s.logger != nil {
		if data, err := json.Marshal(event); err == nil {
			s.logger.Info("transition", "event", string(data))
		}
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	if len(s.events) > s.limit {
		s.events = s.events[len(s.events)-s.limit:]
	}
	s.mu.Unlock()
}

// List returns a page of events, oldest first, and the total held.
func (s *Store) List(offset, limit int) ([]Event, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.events)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = total
	}

	start := offset
	if start > total {
		start = total
	}
	end := total
	if limit < total-start {
		end = start + limit
	}

	result := make([]Event, end-start)
	copy(result, s.events[start:end])
	return result, total
}

// Recorder turns controller transitions into stored events.
type Recorder struct {
	store *Store
	now   func() time.Time
}

// NewRecorder creates a Recorder stamping events with the UTC wall clock.
func NewRecorder(store *Store) *Recorder {
	return NewRecorderWithClock(store, func() time.Time { return time.Now().UTC() })
}

// NewRecorderWithClock creates a Recorder with a custom clock.
func NewRecorderWithClock(store *Store, now func() time.Time) *Recorder {
	if store == nil {
		panic("eventlog: nil Store")
	}
	if now == nil {
		panic("eventlog: nil clock")
	}
	return &Recorder{store: store, now: now}
}

// Record stores t. It has the mode.Observer signature.
func (r *Recorder) Record(t mode.Transition) {
	event := Event{
		ID:                uuid.New().String(),
		Action:            t.Action,
		Enabled:           t.State.Enabled,
		Mode:              t.State.Mode.String(),
		Tags:              append([]string{}, t.Tags...),
		AwaitingSecondPop: t.State.AwaitingSecondPop,
		Timestamp:         r.now(),
	}
	if t.Capabilities != nil {
		event.Capabilities = t.Capabilities.String()
	}
	if t.Err != nil {
		event.Error = t.Err.Error()
	}
	r.store.Add(event)
}
