package host

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Operation names accepted by Sim.FailOn.
const (
	OpControl = "control"
	OpGaze    = "gaze"
	OpHead    = "head"
	OpZoom    = "zoom"
	OpClick   = "click"
	OpKey     = "key"
	OpButtons = "buttons"
	OpTags    = "tags"
)

// Sim is an in-process host. It records every call so the daemon can run
// without a real tracker and tests can assert on the effects.
// Thread-safe for concurrent access.
type Sim struct {
	mu      sync.Mutex
	caps    Capabilities
	tags    []string
	held    map[int]bool
	clicks  []int
	keys    []string
	failing map[string]error
	logger  *slog.Logger
}

// NewSim creates a host with every tracking switch off and no tags.
func NewSim(logger *slog.Logger) *Sim {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sim{
		held:    make(map[int]bool),
		failing: make(map[string]error),
		logger:  logger,
	}
}

// FailOn makes the named operation return err until cleared with a nil err.
func (s *Sim) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failing, op)
		return
	}
	s.failing[op] = err
}

func (s *Sim) ControlToggle(on bool) error {
	return s.toggle(OpControl, on, func(c *Capabilities) { c.Main = on })
}

func (s *Sim) ControlGazeToggle(on bool) error {
	return s.toggle(OpGaze, on, func(c *Capabilities) { c.Gaze = on })
}

func (s *Sim) ControlHeadToggle(on bool) error {
	return s.toggle(OpHead, on, func(c *Capabilities) { c.Head = on })
}

func (s *Sim) ControlZoomToggle(on bool) error {
	return s.toggle(OpZoom, on, func(c *Capabilities) { c.Zoom = on })
}

func (s *Sim) toggle(op string, on bool, set func(*Capabilities)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failing[op]; err != nil {
		return err
	}
	set(&s.caps)
	s.logger.Debug("tracking toggle", "switch", op, "on", on)
	return nil
}

// Capabilities returns the current tracking switch state.
func (s *Sim) Capabilities() Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caps
}

func (s *Sim) Click(button int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failing[OpClick]; err != nil {
		return err
	}
	s.clicks = append(s.clicks, button)
	s.logger.Debug("mouse click", "button", button)
	return nil
}

// Clicks returns a copy of every button clicked so far.
func (s *Sim) Clicks() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.clicks...)
}

// Press marks a button as held until Release.
func (s *Sim) Press(button int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held[button] = true
}

// Release clears a held button.
func (s *Sim) Release(button int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.held, button)
}

func (s *Sim) ButtonsDown() ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failing[OpButtons]; err != nil {
		return nil, err
	}
	down := make([]int, 0, len(s.held))
	for b := range s.held {
		down = append(down, b)
	}
	sort.Ints(down)
	return down, nil
}

func (s *Sim) Key(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failing[OpKey]; err != nil {
		return err
	}
	s.keys = append(s.keys, spec)
	s.logger.Debug("key", "spec", spec)
	return nil
}

// Keys returns a copy of every key spec sent so far.
func (s *Sim) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

func (s *Sim) SetTags(tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failing[OpTags]; err != nil {
		return err
	}
	s.tags = make([]string, len(tags))
	copy(s.tags, tags)
	return nil
}

// Tags returns the published tags, or nil if none were ever published.
func (s *Sim) Tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tags == nil {
		return nil
	}
	tags := make([]string, len(s.tags))
	copy(tags, s.tags)
	return tags
}

// SwitchControlMouse is the host's own control mouse activation, run when
// no override claims the action.
func (s *Sim) SwitchControlMouse(_ context.Context) (any, error) {
	if err := s.ControlToggle(true); err != nil {
		return nil, err
	}
	if err := s.ControlZoomToggle(false); err != nil {
		return nil, err
	}
	s.logger.Info("control mouse active")
	return nil, nil
}

// SwitchZoomMouse is the host's own zoom mouse activation.
func (s *Sim) SwitchZoomMouse(_ context.Context) (any, error) {
	if err := s.ControlToggle(false); err != nil {
		return nil, err
	}
	if err := s.ControlZoomToggle(true); err != nil {
		return nil, err
	}
	s.logger.Info("zoom mouse active")
	return nil, nil
}
