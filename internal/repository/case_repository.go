package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

// CaseRepository reads case snapshots and owns the escalation-flag and
// auto-cancel writes.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository creates a new case repository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

var tierColumns = map[models.EscalationTier]string{
	models.TierInitial:    "dealer_advance_initial_warning_sent",
	models.TierFinal:      "dealer_advance_final_warning_sent",
	models.TierEscalation: "dealer_advance_escalation_sent",
}

// FetchOpenCases loads in-flight cases with their current activity,
// transaction and prior-paying-dealer data attached.
func (r *CaseRepository) FetchOpenCases(ctx context.Context, limit int) ([]*models.Case, error) {
	query := `
		SELECT id, case_number, case_type_id, breakdown_location_type_id,
		       agent_id, agent_assigned_at, delivery_request_created_dealer_id,
		       COALESCE(pickup_date, '') AS pickup_date,
		       COALESCE(pickup_time_window, '') AS pickup_time_window,
		       created_at
		FROM cases
		WHERE status NOT IN ('closed', 'cancelled')
		ORDER BY id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var cases []*models.Case
	if err := r.db.SelectContext(ctx, &cases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch open cases: %w", err)
	}

	for _, c := range cases {
		activity, err := r.currentActivity(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Activity = activity

		prev, err := r.previousPaidDealer(ctx, c.ID, activity)
		if err != nil {
			return nil, err
		}
		c.PreviousPaidDealerID = prev
	}

	return cases, nil
}

// currentActivity returns the newest non-cancelled activity for the case,
// with its transaction attached, or nil when none exists.
func (r *CaseRepository) currentActivity(ctx context.Context, caseID int64) (*models.Activity, error) {
	var activity models.Activity
	err := r.db.GetContext(ctx, &activity, `
		SELECT id, case_id, asp_id, asp_service_accepted_at, sent_approval_at,
		       asp_reached_to_pickup_at,
		       dealer_advance_initial_warning_sent,
		       dealer_advance_final_warning_sent,
		       dealer_advance_escalation_sent
		FROM activities
		WHERE case_id = ? AND status != 'cancelled'
		ORDER BY id DESC
		LIMIT 1`, caseID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load activity for case %d: %w", caseID, err)
	}

	var txn models.ActivityTransaction
	err = r.db.GetContext(ctx, &txn, `
		SELECT id, activity_id, dealer_id, paid_at
		FROM activity_transactions
		WHERE activity_id = ?
		LIMIT 1`, activity.ID)
	if err == nil {
		activity.Transaction = &txn
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to load transaction for activity %d: %w", activity.ID, err)
	}

	return &activity, nil
}

// previousPaidDealer finds the dealer who paid the advance for an earlier
// activity on the same case, if any. That dealer takes precedence over the
// case-creating dealer for escalation recipients.
func (r *CaseRepository) previousPaidDealer(ctx context.Context, caseID int64, current *models.Activity) (*int64, error) {
	query := `
		SELECT t.dealer_id
		FROM activity_transactions t
		JOIN activities a ON a.id = t.activity_id
		WHERE a.case_id = ? AND t.paid_at IS NOT NULL AND t.dealer_id IS NOT NULL`
	args := []interface{}{caseID}
	if current != nil {
		query += ` AND a.id != ?`
		args = append(args, current.ID)
	}
	query += ` ORDER BY t.paid_at DESC LIMIT 1`

	var dealerID int64
	err := r.db.GetContext(ctx, &dealerID, query, args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve prior paying dealer for case %d: %w", caseID, err)
	}
	return &dealerID, nil
}

// SetWarningSent flips one tier flag false->true with a conditional update.
// The WHERE clause on the old value is the linearization point under
// overlapping scheduler runs: only one run observes an affected row.
func (r *CaseRepository) SetWarningSent(ctx context.Context, activityID int64, tier models.EscalationTier) (bool, error) {
	column, ok := tierColumns[tier]
	if !ok {
		return false, fmt.Errorf("unknown escalation tier %q", tier)
	}

	query := fmt.Sprintf(`UPDATE activities SET %s = 1, updated_at = ? WHERE id = ? AND %s = 0`, column, column)
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), activityID)
	if err != nil {
		return false, fmt.Errorf("failed to set %s for activity %d: %w", tier, activityID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// AutoCancel cancels the activity and its case in one transaction and
// returns the notice to mail to the responsible dealer. The status guards
// keep a concurrently cancelled case from being cancelled twice.
func (r *CaseRepository) AutoCancel(ctx context.Context, activityID int64) (*CancellationNotice, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin cancellation: %w", err)
	}
	defer tx.Rollback()

	var info struct {
		CaseID     int64  `db:"case_id"`
		CaseNumber string `db:"case_number"`
	}
	err = tx.GetContext(ctx, &info, `
		SELECT a.case_id, c.case_number
		FROM activities a
		JOIN cases c ON c.id = a.case_id
		WHERE a.id = ?`, activityID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load activity %d for cancellation: %w", activityID, err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		UPDATE activities SET status = 'cancelled', cancelled_at = ?, cancel_reason = 'dealer advance not paid'
		WHERE id = ? AND status != 'cancelled'`, now, activityID); err != nil {
		return nil, fmt.Errorf("failed to cancel activity %d: %w", activityID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE cases SET status = 'cancelled', updated_at = ?
		WHERE id = ? AND status NOT IN ('closed', 'cancelled')`, now, info.CaseID); err != nil {
		return nil, fmt.Errorf("failed to cancel case %d: %w", info.CaseID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	return &CancellationNotice{
		Subject: fmt.Sprintf("Case %s cancelled - advance payment overdue", info.CaseNumber),
		Body: fmt.Sprintf("Case %s has been cancelled automatically because the dealer advance payment "+
			"was not received before the final deadline.", info.CaseNumber),
	}, nil
}
