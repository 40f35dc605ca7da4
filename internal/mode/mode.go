// Package mode implements the Omega Mouse on/off state machine: three
// tracking modes, the capability flags each one sets on the host, and the
// tags published while the feature is on.
package mode

import (
	"strconv"

	"github.com/Obvman/obv-Omega-Mouse/internal/host"
)

// Mode selects how Omega Mouse drives the tracker. Values match the
// omega_mouse_mode setting.
type Mode int

const (
	// Full moves the cursor with gaze then head on each pop.
	Full Mode = 0
	// Lite uses gaze only.
	Lite Mode = 1
	// Basic leaves head tracking running continuously.
	Basic Mode = 2
)

// Tags published to the host context.
const (
	TagOn       = "user.om_on"
	TagFull     = "user.omega_full"
	TagLite     = "user.omega_lite"
	TagBasic    = "user.omega_basic"
	TagTracking = "user.om_tracking"
)

var modeNames = map[Mode]string{
	Full:  "full",
	Lite:  "lite",
	Basic: "basic",
}

var modeTags = map[Mode]string{
	Full:  TagFull,
	Lite:  TagLite,
	Basic: TagBasic,
}

// modeCapabilities is the tracking switch state each mode applies on
// enable and restart. Modes missing from the table change nothing.
var modeCapabilities = map[Mode]host.Capabilities{
	Full:  {Main: true},
	Lite:  {Main: true},
	Basic: {Main: true, Head: true},
}

// Capability rows for leaving Omega Mouse.
var (
	offCapabilities          = host.Capabilities{Gaze: true, Head: true}
	controlMouseCapabilities = host.Capabilities{Main: true, Gaze: true, Head: true}
	zoomMouseCapabilities    = host.Capabilities{Gaze: true, Head: true, Zoom: true}
)

// String returns the mode name, or "unknown(N)" for values outside the table.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(m)) + ")"
}

// Known reports whether m is one of Full, Lite or Basic.
func (m Mode) Known() bool {
	_, ok := modeNames[m]
	return ok
}

// Tag returns the mode-specific tag.
func (m Mode) Tag() (string, bool) {
	tag, ok := modeTags[m]
	return tag, ok
}

// Capabilities returns the tracking switches the mode applies.
func (m Mode) Capabilities() (host.Capabilities, bool) {
	c, ok := modeCapabilities[m]
	return c, ok
}

// State is the controller's full mutable state.
type State struct {
	Enabled           bool `json:"enabled"`
	Mode              Mode `json:"mode"`
	AwaitingSecondPop bool `json:"awaiting_second_pop"`
}

// DefaultState is the state at process start.
func DefaultState() State {
	return State{Mode: Full}
}

// Tags derives the published tag set from s. The result is empty when the
// feature is off; otherwise it holds TagOn, the mode tag when the mode is
// known, and TagTracking while a second pop is awaited.
func Tags(s State) []string {
	if !s.Enabled {
		return []string{}
	}
	tags := []string{TagOn}
	if tag, ok := s.Mode.Tag(); ok {
		tags = append(tags, tag)
	}
	if s.AwaitingSecondPop {
		tags = append(tags, TagTracking)
	}
	return tags
}
