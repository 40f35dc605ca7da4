// Package settings holds the user-adjustable knobs of the mouse controller.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Settings mirrors the host settings the controller reads.
type Settings struct {
	// OmegaMouseMode selects the mode on enable: 0 = Full, 1 = Lite, 2 = Basic.
	// Other values are accepted and ignored by the controller.
	OmegaMouseMode int `yaml:"omega_mouse_mode"`

	// GazeCaptureInterval is the gaze window for cursor movement after a pop
	// or "relo" command.
	GazeCaptureInterval string `yaml:"gaze_capture_interval"`

	// HeadTrackLag is the delay after gaze capture before head tracking starts.
	HeadTrackLag string `yaml:"head_track_lag"`

	// ModifierKeys are released after a modifier-up click. macOS users
	// replace "alt" with "cmd".
	ModifierKeys []string `yaml:"modifier_keys"`
}

// Default returns the settings used when no file is supplied.
func Default() Settings {
	return Settings{
		OmegaMouseMode:      0,
		GazeCaptureInterval: "50ms",
		HeadTrackLag:        "50ms",
		ModifierKeys:        []string{"ctrl", "shift", "alt", "super"},
	}
}

// Validate checks that both durations parse and the modifier list is usable.
func (s Settings) Validate() error {
	if err := validateDuration("gaze_capture_interval", s.GazeCaptureInterval); err != nil {
		return err
	}
	if err := validateDuration("head_track_lag", s.HeadTrackLag); err != nil {
		return err
	}
	for i, key := range s.ModifierKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("modifier_keys[%d] must not be empty", i)
		}
	}
	return nil
}

// GazeCaptureDuration returns GazeCaptureInterval as a time.Duration.
func (s Settings) GazeCaptureDuration() (time.Duration, error) {
	return time.ParseDuration(s.GazeCaptureInterval)
}

// HeadTrackDuration returns HeadTrackLag as a time.Duration.
func (s Settings) HeadTrackDuration() (time.Duration, error) {
	return time.ParseDuration(s.HeadTrackLag)
}

func (s Settings) clone() Settings {
	s.ModifierKeys = append([]string(nil), s.ModifierKeys...)
	return s
}

func validateDuration(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(name + " must not be empty")
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 {
		return fmt.Errorf("%s must not be negative", name)
	}
	return nil
}
