// Package registry holds the action factories the orchestrator dispatches
// through, keyed by action type.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

type Registry struct {
	logger          *slog.Logger
	actionFactories map[models.ActionType]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[models.ActionType]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.Type()] = factory
}

// CreateAction validates the configuration against the factory's schema and
// builds the action.
func (r *Registry) CreateAction(ctx context.Context, actionType models.ActionType, config map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type %q not registered", actionType)
	}

	if err := validateConfig(config, factory.Schema()); err != nil {
		return nil, fmt.Errorf("invalid %s configuration: %w", actionType, err)
	}

	return factory.Create(ctx, config)
}

// AvailableActions returns the registered action types.
func (r *Registry) AvailableActions() []models.ActionType {
	types := make([]models.ActionType, 0, len(r.actionFactories))
	for actionType := range r.actionFactories {
		types = append(types, actionType)
	}

	return types
}

// validateConfig validates an action config against its JSON schema.
func validateConfig(config, schema map[string]any) error {
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(descriptions, "; "))
	}

	return nil
}
