package mode

import "fmt"

const leftButton = 0

// LeftClick clicks the left button. Bindings only route here while the
// feature is off.
func (c *Controller) LeftClick() error {
	return c.mouse.Click(leftButton)
}

// LeftClickReleaseModifiers clicks the left button then releases every
// configured modifier key.
func (c *Controller) LeftClickReleaseModifiers() error {
	if err := c.mouse.Click(leftButton); err != nil {
		return err
	}
	keys, err := c.settings.ModifierKeys()
	if err != nil {
		return fmt.Errorf("read modifier_keys: %w", err)
	}
	for _, key := range keys {
		if err := c.keyboard.Key(key + ":up"); err != nil {
			return fmt.Errorf("release %s: %w", key, err)
		}
	}
	return nil
}

// DoubleClick clicks the left button twice.
func (c *Controller) DoubleClick() error {
	if err := c.mouse.Click(leftButton); err != nil {
		return err
	}
	return c.mouse.Click(leftButton)
}

// Relocate has no effect while the feature is off.
func (c *Controller) Relocate() string {
	c.logger.Info(NoEffectMessage, "action", "relocate")
	return NoEffectMessage
}

// WaitForSecondPop has no effect while the feature is off.
func (c *Controller) WaitForSecondPop() string {
	c.logger.Info(NoEffectMessage, "action", "wait")
	return NoEffectMessage
}
