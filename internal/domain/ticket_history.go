package domain

import "time"

// HistoryAction captures what kind of mutation a history entry records.
type HistoryAction string

const (
	HistoryActionCreated       HistoryAction = "CREATED"
	HistoryActionStatusChanged HistoryAction = "STATUS_CHANGED"
	HistoryActionAssigned      HistoryAction = "ASSIGNED"
	HistoryActionReassigned    HistoryAction = "REASSIGNED"
	HistoryActionFieldUpdated  HistoryAction = "FIELD_UPDATED"
)

// TransitionTrigger names the workflow action that produced a status change.
type TransitionTrigger string

const (
	TriggerEstimate            TransitionTrigger = "estimate"
	TriggerSubmitForValidation TransitionTrigger = "submit_for_validation"
	TriggerValidate            TransitionTrigger = "validate"
	TriggerInvalidate          TransitionTrigger = "invalidate"
	TriggerClose               TransitionTrigger = "close"
	TriggerReopen              TransitionTrigger = "reopen"
	TriggerManualOverride      TransitionTrigger = "manual_override"
)

// TicketHistoryEvent is an immutable audit trail entry. Seq increases by one
// per ticket and is assigned by the store at append time.
type TicketHistoryEvent struct {
	ID        string
	TicketID  string
	Seq       int64
	ActorID   string
	Action    HistoryAction
	Trigger   TransitionTrigger
	FieldName string
	OldValue  string
	NewValue  string
	Timestamp time.Time
}
