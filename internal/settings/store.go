package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Store serves the current settings and swaps them atomically on reload.
// Reads never block; reloads and updates are serialized.
type Store struct {
	path      string
	current   atomic.Pointer[Settings]
	mu        sync.Mutex
	listeners []func(Settings)
	logger    *slog.Logger
}

// NewStore loads settings from path. An empty path serves Default().
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, logger: logger}

	initial := Default()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		initial = loaded
	}
	s.current.Store(&initial)
	return s, nil
}

// Path returns the settings file path, empty when serving defaults.
func (s *Store) Path() string {
	return s.path
}

// Current returns a copy of the active settings.
func (s *Store) Current() Settings {
	return s.current.Load().clone()
}

// OnReload registers a callback invoked after every successful reload or
// update.
func (s *Store) OnReload(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reload re-reads the settings file. The previous settings stay active when
// the file is missing or invalid.
func (s *Store) Reload() error {
	if s.path == "" {
		return errors.New("no settings path set")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := LoadFromFile(s.path)
	if err != nil {
		return fmt.Errorf("reload settings: %w", err)
	}
	s.swapLocked(loaded)
	s.logger.Info("settings reloaded", "path", s.path, "omega_mouse_mode", loaded.OmegaMouseMode)
	return nil
}

// Update applies fn to a copy of the current settings and activates the
// result if it validates. The file on disk is not touched.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().clone()
	fn(&next)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	s.swapLocked(next)
	return nil
}

// swapLocked stores next and notifies listeners (must hold mu).
func (s *Store) swapLocked(next Settings) {
	s.current.Store(&next)
	for _, fn := range s.listeners {
		fn(next.clone())
	}
}

func (s *Store) OmegaMouseMode() (int, error) {
	return s.current.Load().OmegaMouseMode, nil
}

func (s *Store) GazeCaptureInterval() (string, error) {
	return s.current.Load().GazeCaptureInterval, nil
}

func (s *Store) HeadTrackLag() (string, error) {
	return s.current.Load().HeadTrackLag, nil
}

func (s *Store) ModifierKeys() ([]string, error) {
	return append([]string(nil), s.current.Load().ModifierKeys...), nil
}
