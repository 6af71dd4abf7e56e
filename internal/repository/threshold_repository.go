package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

// ThresholdRepository reads and writes SLA threshold configuration rows.
type ThresholdRepository struct {
	db *sqlx.DB
}

// NewThresholdRepository creates a new threshold repository.
func NewThresholdRepository(db *sqlx.DB) *ThresholdRepository {
	return &ThresholdRepository{db: db}
}

// GetThreshold returns the row for the (case type, milestone, location type)
// triple, or ErrNotFound.
func (r *ThresholdRepository) GetThreshold(ctx context.Context, caseTypeID int64, milestone models.MilestoneType, locationTypeID *int64) (*models.SlaThreshold, error) {
	query := `
		SELECT id, case_type_id, milestone_type_id, location_type_id, time
		FROM sla_thresholds
		WHERE case_type_id = ? AND milestone_type_id = ?`
	args := []interface{}{caseTypeID, int64(milestone)}
	if locationTypeID != nil {
		query += ` AND location_type_id = ?`
		args = append(args, *locationTypeID)
	} else {
		query += ` AND location_type_id IS NULL`
	}
	query += ` LIMIT 1`

	var t models.SlaThreshold
	err := r.db.GetContext(ctx, &t, query, args...)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load threshold (%d, %d): %w", caseTypeID, milestone, err)
	}
	return &t, nil
}

// ListThresholds returns every configured threshold row.
func (r *ThresholdRepository) ListThresholds(ctx context.Context) ([]models.SlaThreshold, error) {
	var out []models.SlaThreshold
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, case_type_id, milestone_type_id, location_type_id, time
		FROM sla_thresholds
		ORDER BY case_type_id, milestone_type_id, location_type_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list thresholds: %w", err)
	}
	return out, nil
}

// UpsertThreshold inserts or replaces the row for the threshold's triple.
func (r *ThresholdRepository) UpsertThreshold(ctx context.Context, t *models.SlaThreshold) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sla_thresholds (case_type_id, milestone_type_id, location_type_id, time)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE time = VALUES(time)`,
		t.CaseTypeID, int64(t.MilestoneType), t.LocationTypeID, t.TimeSeconds)
	if err != nil {
		return fmt.Errorf("failed to upsert threshold (%d, %d): %w", t.CaseTypeID, t.MilestoneType, err)
	}
	return nil
}
