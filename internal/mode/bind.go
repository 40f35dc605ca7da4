package mode

import (
	"context"

	"github.com/Obvman/obv-Omega-Mouse/internal/actions"
)

// Action names registered by Bind.
const (
	ActionToggle        = "user.omega_mouse_toggle"
	ActionRestart       = "user.omega_mouse_restart"
	ActionStateCheck    = "user.omega_mouse_state_check"
	ActionLeftClick     = "user.omega_mouse_left_click"
	ActionLeftModUp     = "user.omega_mouse_left_modup_click"
	ActionDoubleClick   = "user.omega_mouse_double_click"
	ActionRelocate      = "user.omega_mouse_relocate"
	ActionWait          = "user.omega_mouse_wait"
	ActionTrackingBegin = "user.omega_mouse_enable_tracking"
	ActionTrackingEnd   = "user.omega_mouse_disable_tracking"
	ActionControlSwitch = "user.control_mouse_switch"
	ActionZoomSwitch    = "user.zoom_mouse_switch"
)

// Bind registers the controller's actions, the sibling-switch overrides
// scoped to TagOn, and a ready hook that turns Omega Mouse on at startup.
func Bind(r *actions.Registry, c *Controller) error {
	base := []struct {
		name string
		desc string
		fn   actions.Func
	}{
		{ActionToggle, "Toggles Omega Mouse on/off. When toggling on, checks for mode value.", noResult(c.Toggle)},
		{ActionRestart, "Resets Omega Mouse to initial state. Re-checks mode value.", noResult(c.Restart)},
		{ActionLeftClick, "Normal Left Click when Omega Mouse is off", noResult(c.LeftClick)},
		{ActionLeftModUp, "Left Click that releases modifier keys afterwards when Omega Mouse is off", noResult(c.LeftClickReleaseModifiers)},
		{ActionDoubleClick, "Normal Double Click when Omega Mouse is off", noResult(c.DoubleClick)},
		{ActionRelocate, "Does nothing when Omega Mouse is off", message(c.Relocate)},
		{ActionWait, "Does nothing when Omega Mouse is off", message(c.WaitForSecondPop)},
		{ActionTrackingBegin, "Marks that head tracking is running and the next pop finishes the move", noResult(c.BeginSecondPopWait)},
		{ActionTrackingEnd, "Clears the second pop wait", noResult(c.EndSecondPopWait)},
		{ActionStateCheck, "Checks state of Omega Mouse", func(context.Context) (any, error) {
			return c.StateCheck()
		}},
	}
	for _, a := range base {
		if err := r.Register(a.name, a.desc, a.fn); err != nil {
			return err
		}
	}

	r.Override(ActionControlSwitch, TagOn, noResult(c.OnControlMouseSwitch))
	r.Override(ActionZoomSwitch, TagOn, noResult(c.OnZoomMouseSwitch))

	r.OnReady(func(ctx context.Context) (any, error) {
		return r.Invoke(ctx, ActionToggle)
	})
	return nil
}

func noResult(fn func() error) actions.Func {
	return func(context.Context) (any, error) {
		return nil, fn()
	}
}

func message(fn func() string) actions.Func {
	return func(context.Context) (any, error) {
		return fn(), nil
	}
}
