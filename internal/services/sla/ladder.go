package sla

import (
	"time"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

// TierThresholds holds the three ordered deadlines of the dealer-advance
// ladder, each measured from the moment the approval request was sent.
type TierThresholds struct {
	Initial    time.Duration
	Final      time.Duration
	Escalation time.Duration
}

// TierFlags mirrors the persisted "sent" booleans on the activity.
type TierFlags struct {
	InitialSent    bool
	FinalSent      bool
	EscalationSent bool
}

// LadderInput is everything AdvanceLadder needs. The caller resolves flags
// and thresholds; the function itself touches no storage.
type LadderInput struct {
	ActivityID           int64
	SentApprovalAt       time.Time
	PaidAt               *time.Time
	Thresholds           TierThresholds
	Flags                TierFlags
	MinRemainingForGreen time.Duration
	Now                  time.Time
}

// LadderResult carries the milestone evaluation plus the tier whose action
// fires on this call, if any. At most one tier is emitted per call: the band
// the elapsed time currently sits in, and only while its flag is unset.
type LadderResult struct {
	Evaluation models.SlaEvaluation
	Actions    []models.EscalationTier
}

// AdvanceLadder classifies the dealer-advance-payment milestone and decides
// which escalation action, if any, is due.
//
// The reported remaining time always counts down to the final threshold, not
// the initial one - final is the user-facing breach point. A payment closes
// the ladder: once PaidAt is set the verdict is Achieved or Violated and no
// warning fires regardless of outstanding flags.
//
// A run that first observes the elapsed time already past the initial band
// emits the final warning without an initial one ever having been sent; the
// flags guard repetition per tier, they do not force sequential traversal.
func AdvanceLadder(in LadderInput) LadderResult {
	res := LadderResult{
		Evaluation: models.SlaEvaluation{
			MilestoneID:   int64(models.MilestoneDealerAdvancePayment),
			MilestoneName: models.MilestoneDealerAdvancePayment.String(),
		},
	}

	if in.PaidAt != nil {
		elapsed := in.PaidAt.Sub(in.SentApprovalAt)
		if elapsed <= in.Thresholds.Final {
			res.Evaluation.Status = models.StatusAchieved
			res.Evaluation.Severity = models.SeverityGreen
		} else {
			res.Evaluation.Status = models.StatusViolated
			res.Evaluation.Severity = models.SeverityRed
		}
		return res
	}

	elapsed := in.Now.Sub(in.SentApprovalAt)

	switch {
	case elapsed < in.Thresholds.Initial:
		res.Evaluation = pendingToFinal(elapsed, in)

	case elapsed < in.Thresholds.Final:
		res.Evaluation = pendingToFinal(elapsed, in)
		if !in.Flags.InitialSent {
			res.Actions = append(res.Actions, models.TierInitial)
		}

	case elapsed < in.Thresholds.Escalation:
		res.Evaluation.Status = models.StatusViolated
		res.Evaluation.Severity = models.SeverityRed
		if !in.Flags.FinalSent {
			res.Actions = append(res.Actions, models.TierFinal)
		}

	default:
		res.Evaluation.Status = models.StatusViolated
		res.Evaluation.Severity = models.SeverityRed
		if !in.Flags.EscalationSent {
			res.Actions = append(res.Actions, models.TierEscalation)
		}
	}

	return res
}

func pendingToFinal(elapsed time.Duration, in LadderInput) models.SlaEvaluation {
	remaining := in.Thresholds.Final - elapsed
	ev := models.SlaEvaluation{
		MilestoneID:   int64(models.MilestoneDealerAdvancePayment),
		MilestoneName: models.MilestoneDealerAdvancePayment.String(),
		Status:        models.StatusTimeLeft(remaining),
	}
	if remaining > in.MinRemainingForGreen {
		ev.Severity = models.SeverityGreen
	} else {
		ev.Severity = models.SeverityOrange
	}
	return ev
}
