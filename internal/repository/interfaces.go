// Package repository defines the storage collaborators of the SLA engine and
// their SQL and in-memory implementations.
package repository

import (
	"context"
	"errors"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// CaseReader supplies the immutable case snapshots for one evaluation cycle.
type CaseReader interface {
	// FetchOpenCases returns in-flight cases with their current activity,
	// transaction and prior-paying-dealer data attached. limit <= 0 means
	// no limit.
	FetchOpenCases(ctx context.Context, limit int) ([]*models.Case, error)
}

// ThresholdStore resolves configured SLA durations.
type ThresholdStore interface {
	// GetThreshold returns the configured row for the triple, or ErrNotFound.
	// locationTypeID is nil for milestones whose deadline does not vary by
	// breakdown-location category.
	GetThreshold(ctx context.Context, caseTypeID int64, milestone models.MilestoneType, locationTypeID *int64) (*models.SlaThreshold, error)
	ListThresholds(ctx context.Context) ([]models.SlaThreshold, error)
	UpsertThreshold(ctx context.Context, t *models.SlaThreshold) error
}

// DealerDirectory looks up dealer escalation settings.
type DealerDirectory interface {
	GetDealer(ctx context.Context, id int64) (*models.Dealer, error)
}

// AgentDirectory looks up the case handler for escalation notices.
type AgentDirectory interface {
	GetAgent(ctx context.Context, id int64) (*models.Agent, error)
}

// EscalationStateWriter persists the tier "sent" flags. SetWarningSent must
// be a conditional update keyed on the old flag value: it reports false when
// the flag was already set, which callers treat as "another run won the race,
// skip the side effect".
type EscalationStateWriter interface {
	SetWarningSent(ctx context.Context, activityID int64, tier models.EscalationTier) (bool, error)
}

// CancellationNotice is what the case-mutation collaborator hands back after
// a successful auto-cancel, ready to be mailed to the responsible dealer.
type CancellationNotice struct {
	Subject string
	Body    string
}

// CaseMutator performs the one conditional remediation the engine triggers.
type CaseMutator interface {
	AutoCancel(ctx context.Context, activityID int64) (*CancellationNotice, error)
}

// SlaDetailWriter persists the per-case evaluation list produced by a run.
type SlaDetailWriter interface {
	RecordEvaluations(ctx context.Context, caseID int64, activityID *int64, evaluations []models.SlaEvaluation) error
}
