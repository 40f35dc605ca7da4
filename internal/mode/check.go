package mode

import "fmt"

// Report is the diagnostic printed by the state check action.
type Report struct {
	Enabled             bool     `json:"enabled"`
	Mode                string   `json:"mode"`
	Tags                []string `json:"tags"`
	GazeCaptureInterval string   `json:"gaze_capture_interval"`
	HeadTrackLag        string   `json:"head_track_lag"`
	AwaitingSecondPop   bool     `json:"awaiting_second_pop"`
	Dragging            bool     `json:"dragging"`
}

// StateCheck reports the controller state, the two timing settings and
// whether a mouse button is held.
//
// Reading the second-pop flag clears it, so AwaitingSecondPop is always
// false in the report and the published tags lose TagTracking. Tags holds
// the set as it was before the flag was cleared.
func (c *Controller) StateCheck() (Report, error) {
	gaze, err := c.settings.GazeCaptureInterval()
	if err != nil {
		return Report{}, fmt.Errorf("read gaze_capture_interval: %w", err)
	}
	lag, err := c.settings.HeadTrackLag()
	if err != nil {
		return Report{}, fmt.Errorf("read head_track_lag: %w", err)
	}

	c.mu.Lock()
	report := Report{
		Enabled:             c.state.Enabled,
		Mode:                c.state.Mode.String(),
		Tags:                Tags(c.state),
		GazeCaptureInterval: gaze,
		HeadTrackLag:        lag,
	}
	cleared := c.state.AwaitingSecondPop
	c.state.AwaitingSecondPop = false
	err = c.publishLocked()
	report.AwaitingSecondPop = c.state.AwaitingSecondPop
	var t Transition
	if cleared || err != nil {
		t = c.transitionLocked("state_check", nil, err)
	}
	c.mu.Unlock()

	if cleared || err != nil {
		c.notify(t)
	}
	if err != nil {
		return Report{}, err
	}

	down, err := c.mouse.ButtonsDown()
	if err != nil {
		return Report{}, fmt.Errorf("query mouse buttons: %w", err)
	}
	report.Dragging = len(down) != 0

	c.logger.Info("omega mouse state check",
		"enabled", report.Enabled,
		"tags", report.Tags,
		"gaze_capture_interval", report.GazeCaptureInterval,
		"head_track_lag", report.HeadTrackLag,
		"awaiting_second_pop", report.AwaitingSecondPop,
		"dragging", report.Dragging,
	)
	return report, nil
}
