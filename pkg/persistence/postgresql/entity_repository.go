package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/praxisflow/praxisflow/pkg/persistence"
)

// EntityRepository reads the clinic entities the engine needs: deals,
// patients, stages, services, and users. All read-only; these tables are
// owned by other modules of the platform.
type EntityRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewEntityRepository creates a new entity repository.
func NewEntityRepository(db *sql.DB, logger *slog.Logger) *EntityRepository {
	return &EntityRepository{db: db, logger: logger}
}

func (r *EntityRepository) DealByID(ctx context.Context, id string) (*models.Deal, error) {
	query := `
		SELECT
			id
		  , title
		  , category
		  , notes
		  , COALESCE(service_id::text, '')
		  , COALESCE(stage_id::text, '')
		  , COALESCE(patient_id::text, '')
		  , created_at
		FROM deals
		WHERE id = $1
	`

	deal := &models.Deal{}

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&deal.ID,
		&deal.Title,
		&deal.Category,
		&deal.Notes,
		&deal.ServiceID,
		&deal.StageID,
		&deal.PatientID,
		&deal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("DealByID", id, persistence.ErrDealNotFound)
		}

		return nil, fmt.Errorf("failed to scan deal: %w", err)
	}

	return deal, nil
}

func (r *EntityRepository) PatientByID(ctx context.Context, id string) (*models.Patient, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, created_at
		FROM patients
		WHERE id = $1
	`

	patient := &models.Patient{}

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&patient.ID,
		&patient.FirstName,
		&patient.LastName,
		&patient.Email,
		&patient.Phone,
		&patient.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("PatientByID", id, persistence.ErrPatientNotFound)
		}

		return nil, fmt.Errorf("failed to scan patient: %w", err)
	}

	return patient, nil
}

func (r *EntityRepository) StageByID(ctx context.Context, id string) (*models.Stage, error) {
	stage := &models.Stage{}

	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM stages WHERE id = $1", id).
		Scan(&stage.ID, &stage.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("StageByID", id, persistence.ErrStageNotFound)
		}

		return nil, fmt.Errorf("failed to scan stage: %w", err)
	}

	return stage, nil
}

// ServiceNameByID resolves a service id to its name. An unknown or empty id
// resolves to "" rather than an error; condition evaluation treats a deal
// without a resolvable service as having none.
func (r *EntityRepository) ServiceNameByID(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", nil
	}

	var name string

	err := r.db.QueryRowContext(ctx, "SELECT name FROM services WHERE id = $1", id).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("failed to scan service: %w", err)
	}

	return name, nil
}

func (r *EntityRepository) UsersByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, email FROM users WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	users := make([]*models.User, 0, len(ids))

	for rows.Next() {
		user := &models.User{}

		if err := rows.Scan(&user.ID, &user.Name, &user.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
