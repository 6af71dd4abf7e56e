package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

// SlaDetailRepository persists the per-case evaluation list produced by a
// run. Each run replaces the previous detail rows for the case so the stored
// picture always reflects the latest cycle.
type SlaDetailRepository struct {
	db *sqlx.DB
}

// NewSlaDetailRepository creates a new SLA detail repository.
func NewSlaDetailRepository(db *sqlx.DB) *SlaDetailRepository {
	return &SlaDetailRepository{db: db}
}

// RecordEvaluations replaces the stored detail rows for the case.
func (r *SlaDetailRepository) RecordEvaluations(ctx context.Context, caseID int64, activityID *int64, evaluations []models.SlaEvaluation) error {
	if len(evaluations) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin detail write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM case_sla_details WHERE case_id = ?`, caseID); err != nil {
		return fmt.Errorf("failed to clear details for case %d: %w", caseID, err)
	}

	now := time.Now().UTC()
	for _, ev := range evaluations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO case_sla_details
				(case_id, activity_id, milestone_type_id, milestone_name, status, severity, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			caseID, activityID, ev.MilestoneID, ev.MilestoneName, ev.Status, string(ev.Severity), now); err != nil {
			return fmt.Errorf("failed to insert detail for case %d: %w", caseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit details for case %d: %w", caseID, err)
	}
	return nil
}
