package dto

import (
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// CreateTicketRequest payload. Either requester_id or requester_name is required.
type CreateTicketRequest struct {
	Title               string                `json:"title"`
	Category            string                `json:"category"`
	Priority            domain.TicketPriority `json:"priority"`
	RequesterID         *string               `json:"requester_id"`
	RequesterName       string                `json:"requester_name"`
	RequesterDepartment string                `json:"requester_department"`
}

// UpdateTicketRequest carries optional field edits.
type UpdateTicketRequest struct {
	Title    *string                `json:"title"`
	Category *string                `json:"category"`
	Priority *domain.TicketPriority `json:"priority"`
}

// ChangeStatusRequest is the manual status override payload.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// AssignRequest replaces the assignee set. Omitting lead_id keeps the current
// lead if it stays assigned; an empty string clears it.
type AssignRequest struct {
	UserIDs []string `json:"user_ids"`
	LeadID  *string  `json:"lead_id"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID                  string                `json:"id"`
	ExternalKey         string                `json:"external_key"`
	Title               string                `json:"title"`
	Category            string                `json:"category"`
	Status              domain.TicketStatus   `json:"status"`
	Priority            domain.TicketPriority `json:"priority"`
	RequesterID         *string               `json:"requester_id"`
	RequesterName       string                `json:"requester_name,omitempty"`
	RequesterDepartment string                `json:"requester_department,omitempty"`
	CreatedBy           string                `json:"created_by"`
	EstimatedMinutes    *int                  `json:"estimated_minutes"`
	ActualMinutes       *int                  `json:"actual_minutes"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
	ResolvedAt          *time.Time            `json:"resolved_at"`
	ValidatedAt         *time.Time            `json:"validated_at"`
	ValidatedBy         *string               `json:"validated_by"`
	ClosedAt            *time.Time            `json:"closed_at"`
	Version             int64                 `json:"version"`
	Assignees           []AssigneeResponse    `json:"assignees,omitempty"`
}

// AssigneeResponse is one member of the assignee set.
type AssigneeResponse struct {
	UserID string `json:"user_id"`
	IsLead bool   `json:"is_lead"`
}

// HistoryEventResponse is one audit entry.
type HistoryEventResponse struct {
	ID        string               `json:"id"`
	Seq       int64                `json:"seq"`
	ActorID   string               `json:"actor_id"`
	Action    domain.HistoryAction `json:"action"`
	Trigger   string               `json:"trigger,omitempty"`
	FieldName string               `json:"field_name,omitempty"`
	OldValue  string               `json:"old_value,omitempty"`
	NewValue  string               `json:"new_value,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// TransitionResponse describes an action available from the current status.
type TransitionResponse struct {
	Trigger     domain.TransitionTrigger `json:"trigger"`
	To          domain.TicketStatus      `json:"to"`
	Description string                   `json:"description"`
}

// MemberResponse is a candidate assignee.
type MemberResponse struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id,omitempty"`
}

// NewTicketResponse maps a ticket and its optional assignment.
func NewTicketResponse(ticket *domain.Ticket, assignment *domain.Assignment) TicketResponse {
	resp := TicketResponse{
		ID:                  ticket.ID,
		ExternalKey:         ticket.ExternalKey,
		Title:               ticket.Title,
		Category:            ticket.Category,
		Status:              ticket.Status,
		Priority:            ticket.Priority,
		RequesterID:         ticket.RequesterID,
		RequesterName:       ticket.RequesterName,
		RequesterDepartment: ticket.RequesterDepartment,
		CreatedBy:           ticket.CreatedBy,
		EstimatedMinutes:    ticket.EstimatedMinutes,
		ActualMinutes:       ticket.ActualMinutes,
		CreatedAt:           ticket.CreatedAt,
		UpdatedAt:           ticket.UpdatedAt,
		ResolvedAt:          ticket.ResolvedAt,
		ValidatedAt:         ticket.ValidatedAt,
		ValidatedBy:         ticket.ValidatedBy,
		ClosedAt:            ticket.ClosedAt,
		Version:             ticket.Version,
	}
	if assignment != nil {
		resp.Assignees = NewAssigneeResponses(assignment)
	}
	return resp
}

// NewAssigneeResponses maps an assignee set.
func NewAssigneeResponses(assignment *domain.Assignment) []AssigneeResponse {
	out := []AssigneeResponse{}
	if assignment == nil {
		return out
	}
	for _, m := range assignment.Members {
		out = append(out, AssigneeResponse{UserID: m.UserID, IsLead: m.IsLead})
	}
	return out
}

// NewHistoryResponses maps audit entries.
func NewHistoryResponses(history []domain.TicketHistoryEvent) []HistoryEventResponse {
	out := make([]HistoryEventResponse, 0, len(history))
	for _, e := range history {
		out = append(out, HistoryEventResponse{
			ID:        e.ID,
			Seq:       e.Seq,
			ActorID:   e.ActorID,
			Action:    e.Action,
			Trigger:   string(e.Trigger),
			FieldName: e.FieldName,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			Timestamp: e.Timestamp,
		})
	}
	return out
}
