package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

// MemoryCaseRepository is an in-memory implementation of CaseReader,
// EscalationStateWriter, CaseMutator and SlaDetailWriter for tests.
type MemoryCaseRepository struct {
	mu        sync.Mutex
	cases     []*models.Case
	cancelled map[int64]bool
	details   map[int64][]models.SlaEvaluation

	// FailSetWarning makes SetWarningSent return an error, simulating a
	// state-writer outage.
	FailSetWarning bool
	// FailAutoCancel makes AutoCancel return an error.
	FailAutoCancel bool
}

// NewMemoryCaseRepository creates a new in-memory case repository.
func NewMemoryCaseRepository(cases ...*models.Case) *MemoryCaseRepository {
	return &MemoryCaseRepository{
		cases:     cases,
		cancelled: make(map[int64]bool),
		details:   make(map[int64][]models.SlaEvaluation),
	}
}

// FetchOpenCases returns the seeded cases.
func (r *MemoryCaseRepository) FetchOpenCases(_ context.Context, limit int) ([]*models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.cases
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SetWarningSent flips the tier flag under the repository lock, mirroring
// the conditional-update semantics of the SQL implementation.
func (r *MemoryCaseRepository) SetWarningSent(_ context.Context, activityID int64, tier models.EscalationTier) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailSetWarning {
		return false, fmt.Errorf("state writer unavailable")
	}

	activity := r.findActivity(activityID)
	if activity == nil {
		return false, ErrNotFound
	}

	switch tier {
	case models.TierInitial:
		if activity.DealerAdvanceInitialWarningSent {
			return false, nil
		}
		activity.DealerAdvanceInitialWarningSent = true
	case models.TierFinal:
		if activity.DealerAdvanceFinalWarningSent {
			return false, nil
		}
		activity.DealerAdvanceFinalWarningSent = true
	case models.TierEscalation:
		if activity.DealerAdvanceEscalationSent {
			return false, nil
		}
		activity.DealerAdvanceEscalationSent = true
	default:
		return false, fmt.Errorf("unknown escalation tier %q", tier)
	}
	return true, nil
}

// AutoCancel marks the activity cancelled and returns a notice.
func (r *MemoryCaseRepository) AutoCancel(_ context.Context, activityID int64) (*CancellationNotice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailAutoCancel {
		return nil, fmt.Errorf("case mutation service unavailable")
	}
	if r.findActivity(activityID) == nil {
		return nil, ErrNotFound
	}
	r.cancelled[activityID] = true
	return &CancellationNotice{
		Subject: fmt.Sprintf("Activity %d cancelled", activityID),
		Body:    "advance payment overdue",
	}, nil
}

// RecordEvaluations stores the evaluation list for the case.
func (r *MemoryCaseRepository) RecordEvaluations(_ context.Context, caseID int64, _ *int64, evaluations []models.SlaEvaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.details[caseID] = append([]models.SlaEvaluation(nil), evaluations...)
	return nil
}

// Cancelled reports whether AutoCancel ran for the activity.
func (r *MemoryCaseRepository) Cancelled(activityID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled[activityID]
}

// Details returns the recorded evaluations for the case.
func (r *MemoryCaseRepository) Details(caseID int64) []models.SlaEvaluation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.details[caseID]
}

func (r *MemoryCaseRepository) findActivity(activityID int64) *models.Activity {
	for _, c := range r.cases {
		if c.Activity != nil && c.Activity.ID == activityID {
			return c.Activity
		}
	}
	return nil
}
