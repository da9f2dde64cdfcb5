package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	*Engine
}

// NewAssignmentService creates the service.
func NewAssignmentService(engine *Engine) *AssignmentService {
	return &AssignmentService{Engine: engine}
}

// Assign replaces the whole assignee set. A nil leadID keeps the current lead
// when it stays assigned; an empty one clears it.
func (s *AssignmentService) Assign(ctx context.Context, ticketID, callerID string, userIDs []string, leadID *string) (*domain.Ticket, *domain.Assignment, error) {
	var result *domain.Assignment
	ticket, err := s.mutate(ctx, ticketID, callerID, func(c *change) error {
		if err := s.gate.Check(c.caller, auth.ActionAssign, c.relation()); err != nil {
			return err
		}
		next, err := c.assignment.Reassign(userIDs, leadID)
		if err != nil {
			return assignmentError(err)
		}
		for _, id := range next.UserIDs() {
			ok, err := s.store.Directory.UserExists(ctx, id)
			if err != nil {
				return apperrors.NewInternalError(err)
			}
			if !ok {
				return apperrors.NewNotFound("assignee", map[string]any{"user_id": id})
			}
		}

		action := domain.HistoryActionReassigned
		if c.assignment.IsEmpty() {
			action = domain.HistoryActionAssigned
		}
		now := s.now()
		c.record(domain.TicketHistoryEvent{
			ID:        uuid.NewString(),
			TicketID:  c.ticket.ID,
			ActorID:   c.caller.ID,
			Action:    action,
			FieldName: "assignees",
			OldValue:  c.assignment.Summary(),
			NewValue:  next.Summary(),
			Timestamp: now,
		})
		c.ticket.UpdatedAt = now
		c.replacement = next

		payload := events.TicketAssignedPayload{UserIDs: next.UserIDs(), Previous: c.assignment.UserIDs()}
		if lead, ok := next.Lead(); ok {
			payload.LeadID = &lead
		}
		c.publish(events.Event{
			Type:       events.EventTicketAssigned,
			Recipients: next.UserIDs(),
			Payload:    payload,
		})
		result = next
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ticket, result, nil
}

// GetAssignment returns the ticket's assignee set.
func (s *AssignmentService) GetAssignment(ctx context.Context, ticketID string) (*domain.Assignment, error) {
	if _, err := s.loadTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	assignment, err := s.store.Tickets.GetAssignment(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return assignment, nil
}

// ListCandidates returns users that may be selected as assignees. Resolvers
// only see members of their own department; for them the restriction
// defaults to that department and may not name another one.
func (s *AssignmentService) ListCandidates(ctx context.Context, callerID string, restrictToDepartmentID *string) ([]domain.Member, error) {
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.IsResolver() {
		own := caller.Department.ID
		if restrictToDepartmentID != nil && *restrictToDepartmentID != own {
			return nil, apperrors.NewPermissionDenied("resolvers may only list their own department")
		}
		restrictToDepartmentID = &own
	}
	members, err := s.store.Directory.ListMembers(ctx, restrictToDepartmentID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return members, nil
}

func assignmentError(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptySelection):
		return apperrors.NewFieldError("userIds", apperrors.ReasonEmptySelection, err.Error())
	case errors.Is(err, domain.ErrLeadNotInSelection):
		return apperrors.NewFieldError("leadId", apperrors.ReasonLeadNotInSelection, err.Error())
	default:
		return apperrors.NewInternalError(err)
	}
}
