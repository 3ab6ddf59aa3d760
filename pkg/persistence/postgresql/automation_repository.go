package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/praxisflow/praxisflow/pkg/models"
)

// AutomationRepository reads automation configurations. Automations are
// written by the authoring tool; the engine only lists them.
type AutomationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAutomationRepository creates a new automation repository.
func NewAutomationRepository(db *sql.DB, logger *slog.Logger) *AutomationRepository {
	return &AutomationRepository{db: db, logger: logger}
}

// GetAll returns every automation, oldest first.
func (r *AutomationRepository) GetAll(ctx context.Context) ([]*models.Automation, error) {
	query := `
		SELECT id, name, trigger_type, active, config, created_at, updated_at
		FROM automations
		ORDER BY created_at
	`

	return r.queryAutomations(ctx, query)
}

// GetActiveByTrigger returns active automations with the given trigger type,
// in the datastore's creation order.
func (r *AutomationRepository) GetActiveByTrigger(ctx context.Context, triggerType string) ([]*models.Automation, error) {
	query := `
		SELECT id, name, trigger_type, active, config, created_at, updated_at
		FROM automations
		WHERE active AND trigger_type = $1
		ORDER BY created_at
	`

	return r.queryAutomations(ctx, query, triggerType)
}

func (r *AutomationRepository) queryAutomations(ctx context.Context, query string, args ...any) ([]*models.Automation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query automations: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	automations := make([]*models.Automation, 0)

	for rows.Next() {
		automation := &models.Automation{}

		var configJSON []byte

		err := rows.Scan(
			&automation.ID,
			&automation.Name,
			&automation.TriggerType,
			&automation.Active,
			&configJSON,
			&automation.CreatedAt,
			&automation.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation: %w", err)
		}

		if err := json.Unmarshal(configJSON, &automation.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config for automation %s: %w", automation.ID, err)
		}

		automations = append(automations, automation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating automations: %w", err)
	}

	for _, automation := range automations {
		if err := r.loadLegacyActions(ctx, automation); err != nil {
			return nil, err
		}
	}

	return automations, nil
}

func (r *AutomationRepository) loadLegacyActions(ctx context.Context, automation *models.Automation) error {
	query := `
		SELECT action_type, config, sort_key
		FROM automation_actions
		WHERE automation_id = $1
		ORDER BY sort_key
	`

	rows, err := r.db.QueryContext(ctx, query, automation.ID)
	if err != nil {
		return fmt.Errorf("failed to query automation actions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	for rows.Next() {
		var (
			item       models.ActionItem
			configJSON []byte
		)

		if err := rows.Scan(&item.Type, &configJSON, &item.SortKey); err != nil {
			return fmt.Errorf("failed to scan automation action: %w", err)
		}

		if err := json.Unmarshal(configJSON, &item.Config); err != nil {
			return fmt.Errorf("failed to unmarshal action config: %w", err)
		}

		automation.LegacyActions = append(automation.LegacyActions, item)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating automation actions: %w", err)
	}

	return nil
}
