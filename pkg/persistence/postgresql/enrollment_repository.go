package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
)

// EnrollmentRepository writes and reads the enrollment audit trail. Steps are
// append-only: there is no update path by design.
type EnrollmentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *sql.DB, logger *slog.Logger) *EnrollmentRepository {
	return &EnrollmentRepository{db: db, logger: logger}
}

func (r *EnrollmentRepository) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate enrollment ID: %w", err)
		}

		enrollment.ID = id.String()
	}

	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}

	snapshotJSON, err := json.Marshal(enrollment.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger snapshot: %w", err)
	}

	query := `
		INSERT INTO enrollments (id, automation_id, deal_id, patient_id, status, trigger_snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		enrollment.ID,
		enrollment.AutomationID,
		enrollment.DealID,
		enrollment.PatientID,
		enrollment.Status,
		snapshotJSON,
		enrollment.CreatedAt,
	)
	if err != nil {
		return persistence.NewStoreError("CreateEnrollment", enrollment.ID, err)
	}

	return nil
}

func (r *EnrollmentRepository) CreateStep(ctx context.Context, step *models.EnrollmentStep) error {
	if step.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate step ID: %w", err)
		}

		step.ID = id.String()
	}

	configJSON, err := json.Marshal(step.StepConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal step config: %w", err)
	}

	var resultJSON []byte
	if step.Result != nil {
		resultJSON, err = json.Marshal(step.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal step result: %w", err)
		}
	}

	query := `
		INSERT INTO enrollment_steps (id, enrollment_id, step_type, step_action, step_config, status, executed_at, result, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		step.ID,
		step.EnrollmentID,
		step.StepType,
		string(step.StepAction),
		configJSON,
		string(step.Status),
		step.ExecutedAt,
		resultJSON,
		step.ErrorMessage,
	)
	if err != nil {
		return persistence.NewStoreError("CreateEnrollmentStep", step.ID, err)
	}

	return nil
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `
		SELECT id, automation_id, deal_id, patient_id, status, trigger_snapshot, created_at
		FROM enrollments
		WHERE id = $1
	`

	enrollment, err := scanEnrollment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("EnrollmentByID", id, persistence.ErrEnrollmentNotFound)
		}

		return nil, err
	}

	return enrollment, nil
}

func (r *EnrollmentRepository) GetByAutomation(ctx context.Context, automationID string) ([]*models.Enrollment, error) {
	query := `
		SELECT id, automation_id, deal_id, patient_id, status, trigger_snapshot, created_at
		FROM enrollments
	`

	args := []any{}

	if automationID != "" {
		query += " WHERE automation_id = $1"

		args = append(args, automationID)
	}

	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	enrollments := make([]*models.Enrollment, 0)

	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}

		enrollments = append(enrollments, enrollment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}

	return enrollments, nil
}

func (r *EnrollmentRepository) StepsByEnrollment(ctx context.Context, enrollmentID string) ([]*models.EnrollmentStep, error) {
	query := `
		SELECT id, enrollment_id, step_type, step_action, step_config, status, executed_at, result, error_message
		FROM enrollment_steps
		WHERE enrollment_id = $1
		ORDER BY executed_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollment steps: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	steps := make([]*models.EnrollmentStep, 0)

	for rows.Next() {
		step := &models.EnrollmentStep{}

		var configJSON, resultJSON []byte

		err := rows.Scan(
			&step.ID,
			&step.EnrollmentID,
			&step.StepType,
			&step.StepAction,
			&configJSON,
			&step.Status,
			&step.ExecutedAt,
			&resultJSON,
			&step.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment step: %w", err)
		}

		if len(configJSON) > 0 {
			if err := json.Unmarshal(configJSON, &step.StepConfig); err != nil {
				return nil, fmt.Errorf("failed to unmarshal step config: %w", err)
			}
		}

		if len(resultJSON) > 0 {
			if err := json.Unmarshal(resultJSON, &step.Result); err != nil {
				return nil, fmt.Errorf("failed to unmarshal step result: %w", err)
			}
		}

		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment steps: %w", err)
	}

	return steps, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnrollment(row rowScanner) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{}

	var snapshotJSON []byte

	err := row.Scan(
		&enrollment.ID,
		&enrollment.AutomationID,
		&enrollment.DealID,
		&enrollment.PatientID,
		&enrollment.Status,
		&snapshotJSON,
		&enrollment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(snapshotJSON) > 0 {
		if err := json.Unmarshal(snapshotJSON, &enrollment.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger snapshot: %w", err)
		}
	}

	return enrollment, nil
}
