// Package actions dispatches named actions the way the automation host
// does: one invocation at a time, with overrides that only apply while a
// tag is active.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultNamespace is prefixed to action names given without one.
const DefaultNamespace = "user"

var (
	// ErrUnknownAction is returned when no action or active override matches.
	ErrUnknownAction = errors.New("unknown action")
	// ErrDuplicateAction is returned when an action name is registered twice.
	ErrDuplicateAction = errors.New("action already registered")
)

// Func is an action body. The result is reported back to remote callers
// and may be nil.
type Func func(ctx context.Context) (any, error)

// TagSource reports the tags currently published to the host context.
type TagSource interface {
	Tags() []string
}

// Info describes a registered action.
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Base        bool     `json:"base"`
	OverrideFor []string `json:"override_tags,omitempty"`
}

type action struct {
	description string
	fn          Func
}

type override struct {
	tag string
	fn  Func
}

// Registry maps action names to implementations.
// Thread-safe; invocations are serialized.
type Registry struct {
	dispatch sync.Mutex // held for the duration of one invocation

	mu        sync.RWMutex
	actions   map[string]action
	overrides map[string][]override
	ready     []Func

	tags   TagSource
	logger *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a registry whose overrides are matched against tags.
func NewRegistry(tags TagSource, opts ...Option) *Registry {
	if tags == nil {
		panic("actions: nil TagSource")
	}
	r := &Registry{
		actions:   make(map[string]action),
		overrides: make(map[string][]override),
		tags:      tags,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Qualify adds the default namespace to a bare action name.
func Qualify(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, ".") {
		return name
	}
	return DefaultNamespace + "." + name
}

// Register adds a base action.
func (r *Registry) Register(name, description string, fn Func) error {
	name = Qualify(name)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAction, name)
	}
	r.actions[name] = action{description: description, fn: fn}
	return nil
}

// Override replaces an action while tag is published. Overrides registered
// later win when several are active.
func (r *Registry) Override(name, tag string, fn Func) {
	name = Qualify(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[name] = append(r.overrides[name], override{tag: tag, fn: fn})
}

// OnReady registers a hook run by Ready.
func (r *Registry) OnReady(fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = append(r.ready, fn)
}

// Ready runs the ready hooks in registration order and stops at the first
// error. Hooks may call Invoke.
func (r *Registry) Ready(ctx context.Context) error {
	r.mu.RLock()
	hooks := append([]Func(nil), r.ready...)
	r.mu.RUnlock()

	for i, hook := range hooks {
		if _, err := hook(ctx); err != nil {
			return fmt.Errorf("ready hook %d: %w", i, err)
		}
	}
	return nil
}

// Invoke runs the named action, preferring an override whose tag is active.
// Actions must not call Invoke themselves.
func (r *Registry) Invoke(ctx context.Context, name string) (any, error) {
	name = Qualify(name)

	r.dispatch.Lock()
	defer r.dispatch.Unlock()

	fn, overridden, err := r.resolve(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := fn(ctx)
	if err != nil {
		r.logger.Warn("action failed", "action", name, "override", overridden, "error", err)
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	r.logger.Debug("action invoked", "action", name, "override", overridden, "duration", time.Since(start))
	return result, nil
}

func (r *Registry) resolve(name string) (Func, bool, error) {
	active := r.tags.Tags()

	r.mu.RLock()
	defer r.mu.RUnlock()

	ovs := r.overrides[name]
	for i := len(ovs) - 1; i >= 0; i-- {
		if slices.Contains(active, ovs[i].tag) {
			return ovs[i].fn, true, nil
		}
	}
	if a, ok := r.actions[name]; ok {
		return a.fn, false, nil
	}
	return nil, false, fmt.Errorf("%w: %s", ErrUnknownAction, name)
}

// List returns every known action name sorted alphabetically.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byName := make(map[string]*Info, len(r.actions))
	for name, a := range r.actions {
		byName[name] = &Info{Name: name, Description: a.description, Base: true}
	}
	for name, ovs := range r.overrides {
		info, ok := byName[name]
		if !ok {
			info = &Info{Name: name}
			byName[name] = info
		}
		for _, ov := range ovs {
			info.OverrideFor = append(info.OverrideFor, ov.tag)
		}
	}

	result := make([]Info, 0, len(byName))
	for _, info := range byName {
		result = append(result, *info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
