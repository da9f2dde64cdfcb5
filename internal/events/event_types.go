package events

import (
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated                EventType = "ticket_created"
	EventTicketStatusChanged          EventType = "ticket_status_changed"
	EventTicketSubmittedForValidation EventType = "ticket_submitted_for_validation"
	EventTicketAssigned               EventType = "ticket_assigned"
	EventTicketFieldUpdated           EventType = "ticket_field_updated"
	EventTicketDeleted                EventType = "ticket_deleted"
)

// Event represents a domain event emitted after a mutation commits.
// Recipients lists the users a notifier should reach.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	TicketID   string      `json:"ticket_id"`
	ActorID    string      `json:"actor_id"`
	Recipients []string    `json:"recipients,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ExternalKey string                `json:"external_key"`
	Category    string                `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Title       string                `json:"title,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus      `json:"old_status"`
	NewStatus domain.TicketStatus      `json:"new_status"`
	Trigger   domain.TransitionTrigger `json:"trigger"`
}

// TicketSubmittedPayload is sent to the requester asking for validation.
type TicketSubmittedPayload struct {
	ExternalKey   string  `json:"external_key"`
	RequesterID   *string `json:"requester_id,omitempty"`
	RequesterName string  `json:"requester_name,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	UserIDs  []string `json:"user_ids"`
	LeadID   *string  `json:"lead_id,omitempty"`
	Previous []string `json:"previous,omitempty"`
}

// TicketFieldUpdatedPayload payload.
type TicketFieldUpdatedPayload struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value,omitempty"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	ExternalKey string `json:"external_key"`
}
