package automation

import (
	"errors"
	"fmt"
)

// ErrInvalidEvent is returned when a stage event is missing required fields.
// No automation work happens for an invalid event.
var ErrInvalidEvent = errors.New("invalid stage event")

// ErrAutomationLoad is returned when the active automation list cannot be
// read; the whole request aborts since matching cannot proceed.
var ErrAutomationLoad = errors.New("failed to load automations")

func invalidEventError(field string) error {
	return fmt.Errorf("%w: missing %s", ErrInvalidEvent, field)
}
