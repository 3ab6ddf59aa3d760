// Package protocol defines the contracts between the orchestrator and the
// action dispatchers.
package protocol

import (
	"context"
	"log/slog"

	"github.com/praxisflow/praxisflow/pkg/models"
)

// Action is one executable dispatcher instance, bound to its configuration.
// Execute performs the side effect and writes its EnrollmentStep records; the
// returned error is informational for the caller's log, while the step record
// is the authoritative outcome.
type Action interface {
	Execute(ctx context.Context, run models.RunContext, logger *slog.Logger) error
}

// ActionFactory creates Action instances for one action type.
type ActionFactory interface {
	// Type returns the action type this factory builds.
	Type() models.ActionType

	// Create builds an action from its configuration map.
	Create(ctx context.Context, config map[string]any) (Action, error)

	// Schema returns the JSON schema of the action configuration.
	Schema() map[string]any
}
