package models

import (
	"fmt"
	"time"
)

// MilestoneType identifies a tracked case milestone with a configurable SLA.
type MilestoneType int64

const (
	MilestoneAgentAssignment MilestoneType = iota + 1
	MilestoneASPAssignment
	MilestoneDealerAdvanceInitialWarning
	MilestoneDealerAdvancePayment
	MilestoneDealerAdvanceEscalation
	MilestoneASPReachedPickup
)

// String returns the operator-facing milestone name.
func (m MilestoneType) String() string {
	switch m {
	case MilestoneAgentAssignment:
		return "Agent Assignment"
	case MilestoneASPAssignment:
		return "Service Provider Assignment"
	case MilestoneDealerAdvanceInitialWarning:
		return "Dealer Advance Initial Warning"
	case MilestoneDealerAdvancePayment:
		return "Dealer Advance Payment"
	case MilestoneDealerAdvanceEscalation:
		return "Dealer Advance Escalation"
	case MilestoneASPReachedPickup:
		return "Service Provider Reached Pickup"
	default:
		return fmt.Sprintf("Milestone %d", int64(m))
	}
}

// Severity is the traffic-light classification attached to an evaluation.
type Severity string

const (
	SeverityGreen  Severity = "green"
	SeverityOrange Severity = "orange"
	SeverityRed    Severity = "red"
)

// Evaluation statuses. Pending milestones carry a "<duration> left" status
// built by StatusTimeLeft instead of one of these constants.
const (
	StatusAchieved = "Achieved"
	StatusViolated = "Violated"
)

// StatusTimeLeft formats the remaining-time status for a pending milestone.
func StatusTimeLeft(remaining time.Duration) string {
	return fmt.Sprintf("%s left", FormatDuration(remaining))
}

// FormatDuration renders a duration the way case timelines display it,
// dropping zero components ("2h 30m", "45m", "30s").
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// SlaThreshold is one configured deadline row. LocationTypeID is set only for
// milestones whose deadline varies by breakdown-location category.
type SlaThreshold struct {
	ID             int64         `json:"id" db:"id"`
	CaseTypeID     int64         `json:"case_type_id" db:"case_type_id"`
	MilestoneType  MilestoneType `json:"milestone_type_id" db:"milestone_type_id"`
	LocationTypeID *int64        `json:"location_type_id,omitempty" db:"location_type_id"`
	TimeSeconds    int64         `json:"time" db:"time"`
}

// Duration returns the configured threshold as a time.Duration.
func (t SlaThreshold) Duration() time.Duration {
	return time.Duration(t.TimeSeconds) * time.Second
}

// SlaEvaluation is the engine's verdict for one (case, milestone) pair.
// Ephemeral; the orchestrator hands batches of these to the detail writer.
type SlaEvaluation struct {
	MilestoneID   int64    `json:"milestone_id"`
	MilestoneName string   `json:"milestone_name"`
	Status        string   `json:"status"`
	Severity      Severity `json:"severity"`
}

// EscalationTier is one band of the dealer-advance-payment ladder.
type EscalationTier string

const (
	TierInitial    EscalationTier = "initial"
	TierFinal      EscalationTier = "final"
	TierEscalation EscalationTier = "escalation"
)

// CaseResult aggregates one case's evaluations for a batch run. Err is set
// when the case's evaluation was aborted (threshold missing, lookup failure);
// a failed case never aborts the batch.
type CaseResult struct {
	CaseID      int64           `json:"case_id"`
	CaseNumber  string          `json:"case_number"`
	ActivityID  *int64          `json:"activity_id,omitempty"`
	Evaluations []SlaEvaluation `json:"evaluations"`
	Err         string          `json:"error,omitempty"`
}

// BatchReport summarizes one evaluation cycle.
type BatchReport struct {
	RunID         string       `json:"run_id"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
	CasesTotal    int          `json:"cases_total"`
	CasesFailed   int          `json:"cases_failed"`
	Notifications int          `json:"notifications_sent"`
	AutoCancels   int          `json:"auto_cancellations"`
	Results       []CaseResult `json:"results"`
}
