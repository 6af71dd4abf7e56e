package sla

import (
	"time"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

// EvaluateMilestone classifies one threshold-based milestone. Pure function
// of its inputs and the supplied clock; safe to call repeatedly.
//
// Pending (completedAt nil): elapsed runs from startedAt to now. Strictly
// exceeding the threshold is a violation; at exactly the threshold the
// milestone still has "0s left". Otherwise the remaining time is reported,
// green while more than minRemainingForGreen is left, orange below that.
//
// Completed: elapsed runs from startedAt to completedAt and the verdict is
// final - Achieved within the threshold, Violated beyond it.
func EvaluateMilestone(milestone models.MilestoneType, startedAt time.Time, completedAt *time.Time, threshold, minRemainingForGreen time.Duration, now time.Time) models.SlaEvaluation {
	ev := models.SlaEvaluation{
		MilestoneID:   int64(milestone),
		MilestoneName: milestone.String(),
	}

	if completedAt != nil {
		elapsed := completedAt.Sub(startedAt)
		if elapsed > threshold {
			ev.Status = models.StatusViolated
			ev.Severity = models.SeverityRed
		} else {
			ev.Status = models.StatusAchieved
			ev.Severity = models.SeverityGreen
		}
		return ev
	}

	elapsed := now.Sub(startedAt)
	if elapsed > threshold {
		ev.Status = models.StatusViolated
		ev.Severity = models.SeverityRed
		return ev
	}

	remaining := threshold - elapsed
	ev.Status = models.StatusTimeLeft(remaining)
	if remaining > minRemainingForGreen {
		ev.Severity = models.SeverityGreen
	} else {
		ev.Severity = models.SeverityOrange
	}
	return ev
}

// EvaluateDeadline classifies a milestone governed by an absolute deadline
// instead of startedAt+threshold (the provider-reached-pickup milestone,
// whose deadline comes from the parsed pickup window). Semantics match
// EvaluateMilestone with the sign convention inverted.
func EvaluateDeadline(milestone models.MilestoneType, deadline time.Time, completedAt *time.Time, minRemainingForGreen time.Duration, now time.Time) models.SlaEvaluation {
	ev := models.SlaEvaluation{
		MilestoneID:   int64(milestone),
		MilestoneName: milestone.String(),
	}

	if completedAt != nil {
		if completedAt.After(deadline) {
			ev.Status = models.StatusViolated
			ev.Severity = models.SeverityRed
		} else {
			ev.Status = models.StatusAchieved
			ev.Severity = models.SeverityGreen
		}
		return ev
	}

	if now.After(deadline) {
		ev.Status = models.StatusViolated
		ev.Severity = models.SeverityRed
		return ev
	}

	remaining := deadline.Sub(now)
	ev.Status = models.StatusTimeLeft(remaining)
	if remaining > minRemainingForGreen {
		ev.Severity = models.SeverityGreen
	} else {
		ev.Severity = models.SeverityOrange
	}
	return ev
}
