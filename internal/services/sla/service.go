package sla

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/notifications"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/repository"
)

var (
	casesEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sla_cases_evaluated_total",
		Help: "Cases processed by evaluation cycles",
	})
	casesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sla_cases_failed_total",
		Help: "Cases whose evaluation aborted with an error",
	})
	notificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sla_notifications_sent_total",
		Help: "Escalation notifications dispatched",
	})
	autoCancellations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sla_auto_cancellations_total",
		Help: "Cases cancelled by the auto-cancel policy",
	})
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sla_run_duration_seconds",
		Help:    "Wall time of evaluation cycles",
		Buckets: prometheus.DefBuckets,
	})
)

// Options tune a Service.
type Options struct {
	// WarningWindow is the minimum remaining time for a pending milestone to
	// stay green.
	WarningWindow time.Duration
	// NotifyTimeout bounds each outbound notification or cancellation call.
	NotifyTimeout time.Duration
	// BatchLimit caps the cases fetched per cycle. <= 0 means no cap.
	BatchLimit int
	// Location is the timezone pickup windows are interpreted in.
	Location *time.Location
	Logger   *log.Logger
	// Now overrides the clock. Tests only.
	Now func() time.Time
}

// Service is the case evaluation orchestrator: it walks a batch of open
// cases, classifies every applicable milestone, drives the escalation ladder
// side effects and hands the evaluation lists to the detail writer.
type Service struct {
	cases    repository.CaseReader
	resolver *Resolver
	dealers  repository.DealerDirectory
	agents   repository.AgentDirectory
	state    repository.EscalationStateWriter
	mutator  repository.CaseMutator
	details  repository.SlaDetailWriter
	sender   notifications.Sender

	warningWindow time.Duration
	notifyTimeout time.Duration
	batchLimit    int
	location      *time.Location
	logger        *log.Logger
	now           func() time.Time

	mu         sync.RWMutex
	lastReport *models.BatchReport
}

// NewService wires the orchestrator.
func NewService(
	cases repository.CaseReader,
	resolver *Resolver,
	dealers repository.DealerDirectory,
	agents repository.AgentDirectory,
	state repository.EscalationStateWriter,
	mutator repository.CaseMutator,
	details repository.SlaDetailWriter,
	sender notifications.Sender,
	opts Options,
) *Service {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		cases:         cases,
		resolver:      resolver,
		dealers:       dealers,
		agents:        agents,
		state:         state,
		mutator:       mutator,
		details:       details,
		sender:        sender,
		warningWindow: opts.WarningWindow,
		notifyTimeout: opts.NotifyTimeout,
		batchLimit:    opts.BatchLimit,
		location:      opts.Location,
		logger:        opts.Logger,
		now:           opts.Now,
	}
}

// Run executes one evaluation cycle. A per-case failure is recorded on that
// case's result and never aborts the batch; only a failure to fetch the
// batch itself is returned as an error.
func (s *Service) Run(ctx context.Context) (*models.BatchReport, error) {
	started := s.now()
	report := &models.BatchReport{
		RunID:     uuid.NewString(),
		StartedAt: started,
	}

	cases, err := s.cases.FetchOpenCases(ctx, s.batchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open cases: %w", err)
	}

	for _, c := range cases {
		result := s.evaluateCase(ctx, c, report)
		casesEvaluated.Inc()
		if result.Err != "" {
			casesFailed.Inc()
			report.CasesFailed++
		}
		report.Results = append(report.Results, result)
	}

	report.CasesTotal = len(cases)
	report.FinishedAt = s.now()
	runDuration.Observe(report.FinishedAt.Sub(started).Seconds())

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	s.logger.Printf("sla run %s: %d cases, %d failed, %d notifications, %d auto-cancellations",
		report.RunID, report.CasesTotal, report.CasesFailed, report.Notifications, report.AutoCancels)
	return report, nil
}

// LastReport returns the most recent batch report, or nil before any run.
func (s *Service) LastReport() *models.BatchReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

// evaluateCase produces the ordered evaluation list for one case and fires
// any escalation actions that fall due.
func (s *Service) evaluateCase(ctx context.Context, c *models.Case, report *models.BatchReport) models.CaseResult {
	result := models.CaseResult{CaseID: c.ID, CaseNumber: c.CaseNumber}
	if c.Activity != nil {
		id := c.Activity.ID
		result.ActivityID = &id
	}
	now := s.now()

	// Agent assignment runs unconditionally.
	threshold, err := s.resolver.Resolve(ctx, c.CaseTypeID, models.MilestoneAgentAssignment, nil)
	if err != nil {
		return s.failCase(result, c, err)
	}
	result.Evaluations = append(result.Evaluations,
		EvaluateMilestone(models.MilestoneAgentAssignment, c.CreatedAt, c.AgentAssignedAt, threshold, s.warningWindow, now))

	// Provider assignment only once an agent is on the case.
	if c.AgentAssignedAt != nil {
		threshold, err = s.resolver.Resolve(ctx, c.CaseTypeID, models.MilestoneASPAssignment, c.BreakdownLocationTypeID)
		if err != nil {
			return s.failCase(result, c, err)
		}
		var acceptedAt *time.Time
		if c.Activity != nil {
			acceptedAt = c.Activity.ASPServiceAcceptedAt
		}
		result.Evaluations = append(result.Evaluations,
			EvaluateMilestone(models.MilestoneASPAssignment, *c.AgentAssignedAt, acceptedAt, threshold, s.warningWindow, now))
	}

	// The advance-payment ladder needs an activity with an approval request.
	if c.Activity != nil && c.Activity.SentApprovalAt != nil {
		tiers, err := s.resolver.ResolveTiers(ctx, c.CaseTypeID)
		if err != nil {
			return s.failCase(result, c, err)
		}

		ladder := AdvanceLadder(LadderInput{
			ActivityID:     c.Activity.ID,
			SentApprovalAt: *c.Activity.SentApprovalAt,
			PaidAt:         c.Activity.PaidAt(),
			Thresholds:     tiers,
			Flags: TierFlags{
				InitialSent:    c.Activity.DealerAdvanceInitialWarningSent,
				FinalSent:      c.Activity.DealerAdvanceFinalWarningSent,
				EscalationSent: c.Activity.DealerAdvanceEscalationSent,
			},
			MinRemainingForGreen: s.warningWindow,
			Now:                  now,
		})
		result.Evaluations = append(result.Evaluations, ladder.Evaluation)

		for _, tier := range ladder.Actions {
			if err := s.executeTierAction(ctx, c, tier, report); err != nil {
				return s.failCase(result, c, err)
			}
		}

		// Provider arrival is tracked only once the advance is paid.
		if c.Activity.PaidAt() != nil {
			s.evaluatePickup(c, now, &result)
		}
	}

	if len(result.Evaluations) > 0 {
		if err := s.details.RecordEvaluations(ctx, c.ID, result.ActivityID, result.Evaluations); err != nil {
			s.logger.Printf("case %s: failed to persist sla details: %v", c.CaseNumber, err)
		}
	}
	return result
}

// evaluatePickup appends the provider-reached-pickup evaluation. A malformed
// window string is a data-quality defect: the milestone is skipped and
// logged, the rest of the case's evaluations stand.
func (s *Service) evaluatePickup(c *models.Case, now time.Time, result *models.CaseResult) {
	deadline, err := ParsePickupDeadline(c.PickupDate, c.PickupTimeWindow, s.location)
	if err != nil {
		s.logger.Printf("case %s: skipping pickup milestone: %v", c.CaseNumber, err)
		return
	}
	result.Evaluations = append(result.Evaluations,
		EvaluateDeadline(models.MilestoneASPReachedPickup, deadline, c.Activity.ASPReachedToPickupAt, s.warningWindow, now))
}

func (s *Service) failCase(result models.CaseResult, c *models.Case, err error) models.CaseResult {
	result.Err = err.Error()
	s.logger.Printf("case %s: evaluation aborted: %v", c.CaseNumber, err)
	return result
}

// executeTierAction performs the side effects of one newly crossed tier.
// Recipients are resolved first, and on the final tier the cancellation call
// runs first too, so any failure before the flag claim leaves the flag unset
// and the tier retried next cycle. A recipient lookup failure is a
// configuration error and is returned to mark the case failed. The
// conditional flag update is the linearization point: when it reports the
// flag was already set, a concurrent run owns the side effect and this one
// skips it.
func (s *Service) executeTierAction(ctx context.Context, c *models.Case, tier models.EscalationTier, report *models.BatchReport) error {
	activity := c.Activity

	switch tier {
	case models.TierInitial:
		dealer, err := s.responsibleDealer(ctx, c)
		if err != nil {
			return fmt.Errorf("initial warning: %w", err)
		}
		if !s.claimTier(ctx, c, activity.ID, tier) {
			return nil
		}
		s.send(ctx, report, notifications.Message{
			CaseID:      c.ID,
			Subject:     fmt.Sprintf("Advance payment reminder - case %s", c.CaseNumber),
			Recipients:  []string{dealer.Email},
			TemplateKey: notifications.TemplateDealerAdvanceInitialWarning,
			Body: fmt.Sprintf("The advance payment for case %s is still pending. "+
				"Please complete it before the deadline to avoid cancellation.", c.CaseNumber),
		})

	case models.TierFinal:
		dealer, err := s.responsibleDealer(ctx, c)
		if err != nil {
			return fmt.Errorf("final warning: %w", err)
		}
		var notice *repository.CancellationNotice
		if dealer.AutoCancelForDelivery {
			notice, err = s.tryAutoCancel(ctx, c)
			if err != nil {
				// Transient: the flag stays unclaimed so the next cycle
				// retries both the warning and the cancellation.
				s.logger.Printf("case %s: auto-cancel failed: %v", c.CaseNumber, err)
				return nil
			}
		}
		if !s.claimTier(ctx, c, activity.ID, tier) {
			return nil
		}
		s.send(ctx, report, notifications.Message{
			CaseID:      c.ID,
			Subject:     fmt.Sprintf("Final warning: advance payment overdue - case %s", c.CaseNumber),
			Recipients:  []string{dealer.Email},
			TemplateKey: notifications.TemplateDealerAdvanceFinalWarning,
			Body: fmt.Sprintf("The advance payment deadline for case %s has passed. "+
				"The case is now subject to cancellation.", c.CaseNumber),
		})
		if notice != nil {
			autoCancellations.Inc()
			report.AutoCancels++
			s.send(ctx, report, notifications.Message{
				CaseID:      c.ID,
				Subject:     notice.Subject,
				Recipients:  []string{dealer.Email},
				TemplateKey: notifications.TemplateCaseAutoCancelled,
				Body:        notice.Body,
			})
		}

	case models.TierEscalation:
		if c.AgentID == nil {
			return fmt.Errorf("escalation notice: no agent assigned to case %s", c.CaseNumber)
		}
		agent, err := s.agents.GetAgent(ctx, *c.AgentID)
		if err != nil {
			return fmt.Errorf("escalation notice: failed to resolve agent %d: %w", *c.AgentID, err)
		}
		if !s.claimTier(ctx, c, activity.ID, tier) {
			return nil
		}
		s.send(ctx, report, notifications.Message{
			CaseID:      c.ID,
			Subject:     fmt.Sprintf("Escalation: advance payment unresolved - case %s", c.CaseNumber),
			Recipients:  []string{agent.Email},
			TemplateKey: notifications.TemplateDealerAdvanceEscalation,
			Body: fmt.Sprintf("Case %s has exhausted the dealer advance warning ladder "+
				"and needs manual follow-up.", c.CaseNumber),
		})
	}
	return nil
}

// claimTier performs the atomic false->true flag transition. False means
// either a write failure (retry next cycle) or a concurrent run already
// claimed the tier.
func (s *Service) claimTier(ctx context.Context, c *models.Case, activityID int64, tier models.EscalationTier) bool {
	updated, err := s.state.SetWarningSent(ctx, activityID, tier)
	if err != nil {
		s.logger.Printf("case %s: failed to set %s flag: %v", c.CaseNumber, tier, err)
		return false
	}
	if !updated {
		s.logger.Printf("case %s: %s flag already set, skipping", c.CaseNumber, tier)
		return false
	}
	return true
}

// tryAutoCancel invokes the case-mutation collaborator under the notify
// timeout. Callers run it before claiming the final-tier flag so a failed
// call is retried on the next cycle; the collaborator's status guards make
// a repeated cancellation a no-op.
func (s *Service) tryAutoCancel(ctx context.Context, c *models.Case) (*repository.CancellationNotice, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	return s.mutator.AutoCancel(callCtx, c.Activity.ID)
}

// responsibleDealer applies the precedence rule: the dealer who paid an
// earlier activity on the case wins, else the case-creating dealer.
func (s *Service) responsibleDealer(ctx context.Context, c *models.Case) (*models.Dealer, error) {
	dealerID := c.PreviousPaidDealerID
	if dealerID == nil {
		dealerID = c.DeliveryRequestCreatedDealerID
	}
	if dealerID == nil {
		return nil, fmt.Errorf("no responsible dealer for case %s", c.CaseNumber)
	}
	dealer, err := s.dealers.GetDealer(ctx, *dealerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dealer %d: %w", *dealerID, err)
	}
	return dealer, nil
}

// send dispatches one notification under the configured timeout. Failures
// are logged, never escalated.
func (s *Service) send(ctx context.Context, report *models.BatchReport, msg notifications.Message) {
	sendCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	if err := s.sender.Send(sendCtx, msg); err != nil {
		s.logger.Printf("case %d: failed to send %s notification: %v", msg.CaseID, msg.TemplateKey, err)
		return
	}
	notificationsSent.Inc()
	report.Notifications++
}
