package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/Obvman/obv-Omega-Mouse/internal/mode"
	"github.com/Obvman/obv-Omega-Mouse/internal/settings"
)

func newCheckCommand() *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "Validate the settings file and show what enabling would apply",
		Action: runCheck,
	}
}

func runCheck(_ context.Context, cmd *cli.Command) error {
	cfg := settings.Default()
	if path := cmd.String("settings"); path != "" {
		loaded, err := settings.LoadFromFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	gaze, err := cfg.GazeCaptureDuration()
	if err != nil {
		return fmt.Errorf("gaze_capture_interval: %w", err)
	}
	lag, err := cfg.HeadTrackDuration()
	if err != nil {
		return fmt.Errorf("head_track_lag: %w", err)
	}

	m := mode.Mode(cfg.OmegaMouseMode)
	w := cmd.Root().Writer

	fmt.Fprintf(w, "mode:                  %s\n", m)
	fmt.Fprintf(w, "gaze_capture_interval: %s\n", gaze)
	fmt.Fprintf(w, "head_track_lag:        %s\n", lag)
	fmt.Fprintf(w, "modifier_keys:         %s\n", strings.Join(cfg.ModifierKeys, " "))
	fmt.Fprintf(w, "tags:                  %s\n", strings.Join(mode.Tags(mode.State{Enabled: true, Mode: m}), " "))
	if caps, ok := m.Capabilities(); ok {
		fmt.Fprintf(w, "capabilities:          %s\n", caps)
	} else {
		fmt.Fprintf(w, "capabilities:          unchanged (unknown mode)\n")
	}
	return nil
}
