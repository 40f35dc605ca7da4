// Package host describes the automation host the mouse controller runs
// inside: tracking toggles, click and key synthesis, and the tag context
// that activates other bindings.
package host

import "fmt"

// Tracker switches the eye/head tracking subsystems.
type Tracker interface {
	ControlToggle(on bool) error
	ControlGazeToggle(on bool) error
	ControlHeadToggle(on bool) error
	ControlZoomToggle(on bool) error
}

// Mouse synthesizes clicks and reports held buttons.
// Button 0 is left, 1 is right, 2 is middle.
type Mouse interface {
	Click(button int) error
	ButtonsDown() ([]int, error)
}

// Keyboard sends key events in host notation, e.g. "ctrl:up".
type Keyboard interface {
	Key(spec string) error
}

// TagContext holds the tags published by the controller.
// Bindings and overrides are matched against Tags.
type TagContext interface {
	SetTags(tags []string) error
	Tags() []string
}

// Capabilities is the on/off state of the four tracking switches.
type Capabilities struct {
	Main bool `json:"main"`
	Gaze bool `json:"gaze"`
	Head bool `json:"head"`
	Zoom bool `json:"zoom"`
}

func (c Capabilities) String() string {
	return fmt.Sprintf("main:%s gaze:%s head:%s zoom:%s",
		onOff(c.Main), onOff(c.Gaze), onOff(c.Head), onOff(c.Zoom))
}

// Apply sets every switch on t in the order main, gaze, head, zoom.
// It stops at the first failing toggle.
func (c Capabilities) Apply(t Tracker) error {
	if err := t.ControlToggle(c.Main); err != nil {
		return fmt.Errorf("control toggle: %w", err)
	}
	if err := t.ControlGazeToggle(c.Gaze); err != nil {
		return fmt.Errorf("gaze toggle: %w", err)
	}
	if err := t.ControlHeadToggle(c.Head); err != nil {
		return fmt.Errorf("head toggle: %w", err)
	}
	if err := t.ControlZoomToggle(c.Zoom); err != nil {
		return fmt.Errorf("zoom toggle: %w", err)
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
