package models

import (
	"time"
)

// Case is a snapshot of a roadside-assistance service request as read at the
// start of an evaluation cycle. The engine never mutates it.
type Case struct {
	ID                            int64      `json:"id" db:"id"`
	CaseNumber                    string     `json:"case_number" db:"case_number"`
	CaseTypeID                    int64      `json:"case_type_id" db:"case_type_id"`
	BreakdownLocationTypeID       *int64     `json:"breakdown_location_type_id,omitempty" db:"breakdown_location_type_id"`
	AgentID                       *int64     `json:"agent_id,omitempty" db:"agent_id"`
	AgentAssignedAt               *time.Time `json:"agent_assigned_at,omitempty" db:"agent_assigned_at"`
	DeliveryRequestCreatedDealerID *int64    `json:"delivery_request_created_dealer_id,omitempty" db:"delivery_request_created_dealer_id"`
	// PreviousPaidDealerID is the dealer who paid the advance for an earlier
	// activity on this case, when one exists. It takes precedence over the
	// case-creating dealer when resolving escalation recipients.
	PreviousPaidDealerID *int64     `json:"previous_paid_dealer_id,omitempty" db:"previous_paid_dealer_id"`
	PickupDate           string     `json:"pickup_date" db:"pickup_date"`
	PickupTimeWindow     string     `json:"pickup_time_window" db:"pickup_time_window"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`

	Activity *Activity `json:"activity,omitempty"`
}

// Activity is the unit of work assigned to a service provider (ASP) for a
// case. Zero or one in-flight activity exists per case at a time.
type Activity struct {
	ID                   int64      `json:"id" db:"id"`
	CaseID               int64      `json:"case_id" db:"case_id"`
	ASPID                *int64     `json:"asp_id,omitempty" db:"asp_id"`
	ASPServiceAcceptedAt *time.Time `json:"asp_service_accepted_at,omitempty" db:"asp_service_accepted_at"`
	SentApprovalAt       *time.Time `json:"sent_approval_at,omitempty" db:"sent_approval_at"`
	ASPReachedToPickupAt *time.Time `json:"asp_reached_to_pickup_at,omitempty" db:"asp_reached_to_pickup_at"`

	// The three warning flags are the persisted escalation-ladder state.
	// Each transitions false->true exactly once, via a conditional update.
	DealerAdvanceInitialWarningSent bool `json:"dealer_advance_initial_warning_sent" db:"dealer_advance_initial_warning_sent"`
	DealerAdvanceFinalWarningSent   bool `json:"dealer_advance_final_warning_sent" db:"dealer_advance_final_warning_sent"`
	DealerAdvanceEscalationSent     bool `json:"dealer_advance_escalation_sent" db:"dealer_advance_escalation_sent"`

	Transaction *ActivityTransaction `json:"transaction,omitempty"`
}

// ActivityTransaction records the dealer advance payment for an activity.
type ActivityTransaction struct {
	ID         int64      `json:"id" db:"id"`
	ActivityID int64      `json:"activity_id" db:"activity_id"`
	DealerID   *int64     `json:"dealer_id,omitempty" db:"dealer_id"`
	PaidAt     *time.Time `json:"paid_at,omitempty" db:"paid_at"`
}

// PaidAt returns the advance payment time for the activity, if any.
func (a *Activity) PaidAt() *time.Time {
	if a == nil || a.Transaction == nil {
		return nil
	}
	return a.Transaction.PaidAt
}

// Dealer carries the per-dealer escalation settings the engine needs.
type Dealer struct {
	ID                    int64  `json:"id" db:"id"`
	Name                  string `json:"name" db:"name"`
	Email                 string `json:"email" db:"email"`
	AutoCancelForDelivery bool   `json:"auto_cancel_for_delivery" db:"auto_cancel_for_delivery"`
}

// Agent is the case handler notified on the escalation tier.
type Agent struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
}
