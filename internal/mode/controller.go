package mode

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Obvman/obv-Omega-Mouse/internal/host"
)

// NoEffectMessage is reported by actions that do nothing while the
// feature is off.
const NoEffectMessage = "Does nothing when Omega Mouse is off"

// Settings is the configuration the controller reads from the host.
type Settings interface {
	OmegaMouseMode() (int, error)
	GazeCaptureInterval() (string, error)
	HeadTrackLag() (string, error)
	ModifierKeys() ([]string, error)
}

// TagPublisher receives the tag set after every state change.
type TagPublisher interface {
	SetTags(tags []string) error
}

// Transition describes one completed (or failed) controller operation.
type Transition struct {
	Action       string
	State        State
	Tags         []string
	Capabilities *host.Capabilities // nil when no switch was touched
	Err          error
}

// Observer is notified after each transition, outside the controller lock.
type Observer func(Transition)

// Config wires the controller to its collaborators.
type Config struct {
	Tracker  host.Tracker
	Mouse    host.Mouse
	Keyboard host.Keyboard
	Tags     TagPublisher
	Settings Settings
	Logger   *slog.Logger
}

// Controller owns the Omega Mouse state and applies it to the host.
// Thread-safe for concurrent access.
type Controller struct {
	mu        sync.Mutex
	state     State
	observers []Observer

	tracker  host.Tracker
	mouse    host.Mouse
	keyboard host.Keyboard
	tags     TagPublisher
	settings Settings
	logger   *slog.Logger
}

// NewController creates a controller in the default (off) state.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Tracker == nil {
		return nil, errors.New("tracker required")
	}
	if cfg.Mouse == nil {
		return nil, errors.New("mouse required")
	}
	if cfg.Keyboard == nil {
		return nil, errors.New("keyboard required")
	}
	if cfg.Tags == nil {
		return nil, errors.New("tag publisher required")
	}
	if cfg.Settings == nil {
		return nil, errors.New("settings required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller{
		state:    DefaultState(),
		tracker:  cfg.Tracker,
		mouse:    cfg.Mouse,
		keyboard: cfg.Keyboard,
		tags:     cfg.Tags,
		settings: cfg.Settings,
		logger:   cfg.Logger,
	}, nil
}

// OnTransition registers an observer.
func (c *Controller) OnTransition(fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	State
	ModeName string   `json:"mode_name"`
	Tags     []string `json:"tags"`
}

// Snapshot returns the current state and its tags.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, ModeName: c.state.Mode.String(), Tags: Tags(c.state)}
}

// Toggle turns Omega Mouse on, reading the mode from settings, or off.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	var applied *host.Capabilities
	var err error
	if !c.state.Enabled {
		c.state.Enabled = true
		applied, err = c.enterModeLocked()
	} else {
		c.state.Enabled = false
		applied, err = c.leaveLocked(offCapabilities, true)
	}
	t := c.transitionLocked("toggle", applied, err)
	c.mu.Unlock()

	c.notify(t)
	return err
}

// Restart re-reads the mode and re-applies it. It does nothing while off.
func (c *Controller) Restart() error {
	c.mu.Lock()
	if !c.state.Enabled {
		c.mu.Unlock()
		return nil
	}
	applied, err := c.enterModeLocked()
	t := c.transitionLocked("restart", applied, err)
	c.mu.Unlock()

	c.notify(t)
	return err
}

// OnControlMouseSwitch turns Omega Mouse off ahead of Control Mouse so no
// Omega Mouse switches stay active.
func (c *Controller) OnControlMouseSwitch() error {
	return c.switchAway("control_mouse_switch", controlMouseCapabilities)
}

// OnZoomMouseSwitch turns Omega Mouse off ahead of Zoom Mouse.
func (c *Controller) OnZoomMouseSwitch() error {
	return c.switchAway("zoom_mouse_switch", zoomMouseCapabilities)
}

func (c *Controller) switchAway(action string, caps host.Capabilities) error {
	c.mu.Lock()
	c.state.Enabled = false
	applied, err := c.leaveLocked(caps, false)
	t := c.transitionLocked(action, applied, err)
	c.mu.Unlock()

	c.notify(t)
	return err
}

// BeginSecondPopWait marks that head tracking is running and the next pop
// finishes the move.
func (c *Controller) BeginSecondPopWait() error {
	return c.setAwaiting("second_pop_wait", true)
}

// EndSecondPopWait clears the second-pop wait.
func (c *Controller) EndSecondPopWait() error {
	return c.setAwaiting("second_pop_done", false)
}

func (c *Controller) setAwaiting(action string, awaiting bool) error {
	c.mu.Lock()
	c.state.AwaitingSecondPop = awaiting
	err := c.publishLocked()
	t := c.transitionLocked(action, nil, err)
	c.mu.Unlock()

	c.notify(t)
	return err
}

// enterModeLocked reads the mode and applies its switches (must hold mu).
// Unknown modes leave the switches untouched.
func (c *Controller) enterModeLocked() (*host.Capabilities, error) {
	raw, err := c.settings.OmegaMouseMode()
	if err != nil {
		return nil, fmt.Errorf("read omega_mouse_mode: %w", err)
	}
	c.state.Mode = Mode(raw)

	var applied *host.Capabilities
	if caps, ok := c.state.Mode.Capabilities(); ok {
		if err := caps.Apply(c.tracker); err != nil {
			return nil, err
		}
		applied = &caps
	} else {
		c.logger.Debug("ignoring unknown omega mouse mode", "mode", raw)
	}

	c.state.AwaitingSecondPop = false
	if err := c.publishLocked(); err != nil {
		return applied, err
	}
	return applied, nil
}

// leaveLocked applies caps and clears the second-pop wait (must hold mu).
// With recompute false the empty tag set is published directly.
func (c *Controller) leaveLocked(caps host.Capabilities, recompute bool) (*host.Capabilities, error) {
	if err := caps.Apply(c.tracker); err != nil {
		return nil, err
	}
	c.state.AwaitingSecondPop = false

	if recompute {
		return &caps, c.publishLocked()
	}
	if err := c.tags.SetTags([]string{}); err != nil {
		return &caps, fmt.Errorf("publish tags: %w", err)
	}
	return &caps, nil
}

func (c *Controller) publishLocked() error {
	if err := c.tags.SetTags(Tags(c.state)); err != nil {
		return fmt.Errorf("publish tags: %w", err)
	}
	return nil
}

func (c *Controller) transitionLocked(action string, applied *host.Capabilities, err error) Transition {
	t := Transition{
		Action:       action,
		State:        c.state,
		Tags:         Tags(c.state),
		Capabilities: applied,
		Err:          err,
	}
	if err != nil {
		c.logger.Warn("omega mouse transition failed", "action", action, "error", err)
		return t
	}

	attrs := []any{"action", action, "enabled", t.State.Enabled, "tags", t.Tags}
	if t.State.Enabled {
		attrs = append(attrs, "mode", t.State.Mode.String())
	}
	if applied != nil {
		attrs = append(attrs, "capabilities", applied.String())
	}
	c.logger.Info("omega mouse state", attrs...)
	return t
}

func (c *Controller) notify(t Transition) {
	c.mu.Lock()
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(t)
	}
}
