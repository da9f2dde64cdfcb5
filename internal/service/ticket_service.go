package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	*Engine
}

// NewTicketService constructs the service.
func NewTicketService(engine *Engine) *TicketService {
	return &TicketService{Engine: engine}
}

// TicketCreateInput describes ticket creation payload. Either RequesterID or
// RequesterName identifies the requester.
type TicketCreateInput struct {
	Title               string
	Category            string
	Priority            domain.TicketPriority
	RequesterID         *string
	RequesterName       string
	RequesterDepartment string
}

// TicketFieldsInput carries optional field edits.
type TicketFieldsInput struct {
	Title    *string
	Category *string
	Priority *domain.TicketPriority
}

// CreateTicket opens a new ticket.
func (s *TicketService) CreateTicket(ctx context.Context, callerID string, input TicketCreateInput) (*domain.Ticket, error) {
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	var subject string
	if input.RequesterID != nil {
		subject = strings.TrimSpace(*input.RequesterID)
	}
	if err := s.gate.Check(caller, auth.ActionCreate, auth.Relation{Subject: subject}); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, apperrors.NewFieldError("category", apperrors.ReasonRequired, "category is required")
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !input.Priority.IsValid() {
		return nil, apperrors.NewFieldError("priority", apperrors.ReasonInvalidValue, "unknown priority")
	}
	name := strings.TrimSpace(input.RequesterName)
	if subject == "" && name == "" {
		return nil, apperrors.NewFieldError("requester", apperrors.ReasonRequired, "requester id or name is required")
	}

	now := s.now()
	ticket := &domain.Ticket{
		ID:                  uuid.NewString(),
		ExternalKey:         generateTicketKey(),
		Title:               strings.TrimSpace(input.Title),
		Category:            category,
		Status:              domain.TicketStatusOpen,
		Priority:            input.Priority,
		RequesterName:       name,
		RequesterDepartment: strings.TrimSpace(input.RequesterDepartment),
		CreatedBy:           caller.ID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if subject != "" {
		ticket.RequesterID = &subject
	}

	created := domain.TicketHistoryEvent{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		ActorID:   caller.ID,
		Action:    domain.HistoryActionCreated,
		NewValue:  string(domain.TicketStatusOpen),
		Timestamp: now,
	}
	if err := s.store.Tickets.Create(ctx, ticket, created); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.TicketCreatedPayload{
			ExternalKey: ticket.ExternalKey,
			Category:    ticket.Category,
			Priority:    ticket.Priority,
			Title:       ticket.Title,
		},
	})
	return ticket, nil
}

// GetTicket returns the ticket with its assignees.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, *domain.Assignment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	assignment, err := s.store.Tickets.GetAssignment(ctx, ticketID)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return ticket, assignment, nil
}

// ListTickets returns tickets matching filter.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.store.Tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// History returns the audit trail ordered by sequence number. History of a
// deleted ticket stays readable.
func (s *TicketService) History(ctx context.Context, ticketID string) ([]domain.TicketHistoryEvent, error) {
	history, err := s.store.History.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if len(history) == 0 {
		if _, err := s.loadTicket(ctx, ticketID); err != nil {
			return nil, err
		}
	}
	return history, nil
}

// SubmitForValidation hands the ticket to its requester for validation.
func (s *TicketService) SubmitForValidation(ctx context.Context, ticketID, callerID string) (*domain.Ticket, error) {
	return s.mutate(ctx, ticketID, callerID, func(c *change) error {
		if err := s.gate.Check(c.caller, auth.ActionSubmitForValidation, c.relation()); err != nil {
			return err
		}
		plan, err := s.machine.Plan(c.ticket.Status, domain.TriggerSubmitForValidation)
		if err != nil {
			return err
		}
		s.transition(c, plan)
		c.publish(events.Event{
			Type:       events.EventTicketSubmittedForValidation,
			Recipients: requesterRecipients(c.ticket),
			Payload: events.TicketSubmittedPayload{
				ExternalKey:   c.ticket.ExternalKey,
				RequesterID:   c.ticket.RequesterID,
				RequesterName: c.ticket.RequesterName,
			},
		})
		return nil
	})
}

// Validate accepts the resolution.
func (s *TicketService) Validate(ctx context.Context, ticketID, callerID string) (*domain.Ticket, error) {
	return s.workflow(ctx, ticketID, callerID, auth.ActionValidate, domain.TriggerValidate)
}

// Invalidate rejects the resolution and sends the ticket back to open.
func (s *TicketService) Invalidate(ctx context.Context, ticketID, callerID string) (*domain.Ticket, error) {
	return s.workflow(ctx, ticketID, callerID, auth.ActionInvalidate, domain.TriggerInvalidate)
}

// Close closes the ticket from any non-closed status.
func (s *TicketService) Close(ctx context.Context, ticketID, callerID string) (*domain.Ticket, error) {
	return s.workflow(ctx, ticketID, callerID, auth.ActionClose, domain.TriggerClose)
}

// Reopen moves a resolved or closed ticket back to open.
func (s *TicketService) Reopen(ctx context.Context, ticketID, callerID string) (*domain.Ticket, error) {
	return s.workflow(ctx, ticketID, callerID, auth.ActionReopen, domain.TriggerReopen)
}

func (s *TicketService) workflow(ctx context.Context, ticketID, callerID string, action auth.Action, trigger domain.TransitionTrigger) (*domain.Ticket, error) {
	return s.mutate(ctx, ticketID, callerID, func(c *change) error {
		if err := s.gate.Check(c.caller, action, c.relation()); err != nil {
			return err
		}
		plan, err := s.machine.Plan(c.ticket.Status, trigger)
		if err != nil {
			return err
		}
		s.transition(c, plan)
		return nil
	})
}

// ChangeStatus is the administrative free-form status change.
func (s *TicketService) ChangeStatus(ctx context.Context, ticketID string, target domain.TicketStatus, callerID string) (*domain.Ticket, error) {
	return s.mutate(ctx, ticketID, callerID, func(c *change) error {
		if err := s.gate.Check(c.caller, auth.ActionOverrideStatus, c.relation()); err != nil {
			return err
		}
		plan, err := s.machine.PlanOverride(c.ticket.Status, target)
		if err != nil {
			return err
		}
		s.transition(c, plan)
		s.logger.Warn("manual status override",
			zap.String("ticket_id", c.ticket.ID),
			zap.String("actor_id", c.caller.ID),
			zap.String("from", string(plan.From)),
			zap.String("to", string(plan.To)))
		return nil
	})
}

// UpdateFields edits title, category and priority. Unchanged fields record
// nothing.
func (s *TicketService) UpdateFields(ctx context.Context, ticketID, callerID string, input TicketFieldsInput) (*domain.Ticket, error) {
	return s.mutate(ctx, ticketID, callerID, func(c *change) error {
		if err := s.gate.Check(c.caller, auth.ActionUpdateFields, c.relation()); err != nil {
			return err
		}
		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title != c.ticket.Title {
				s.fieldUpdated(c, "title", c.ticket.Title, title)
				c.ticket.Title = title
			}
		}
		if input.Category != nil {
			category := strings.TrimSpace(*input.Category)
			if category == "" {
				return apperrors.NewFieldError("category", apperrors.ReasonRequired, "category is required")
			}
			if category != c.ticket.Category {
				s.fieldUpdated(c, "category", c.ticket.Category, category)
				c.ticket.Category = category
			}
		}
		if input.Priority != nil {
			if !input.Priority.IsValid() {
				return apperrors.NewFieldError("priority", apperrors.ReasonInvalidValue, "unknown priority")
			}
			if *input.Priority != c.ticket.Priority {
				s.fieldUpdated(c, "priority", string(c.ticket.Priority), string(*input.Priority))
				c.ticket.Priority = *input.Priority
			}
		}
		return nil
	})
}

// DeleteTicket removes a ticket and its assignment. History is retained.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID, callerID string) error {
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return err
	}
	if err := s.gate.Check(caller, auth.ActionDelete, auth.Relation{}); err != nil {
		return err
	}

	release, err := s.acquire(ctx, ticketID)
	if err != nil {
		return err
	}
	defer release()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := s.store.Tickets.Delete(ctx, ticketID, ticket.Version); err != nil {
		return mapRepoError(err, ticketID)
	}

	s.logger.Warn("ticket deleted",
		zap.String("ticket_id", ticketID),
		zap.String("external_key", ticket.ExternalKey),
		zap.String("actor_id", caller.ID),
		zap.String("status", string(ticket.Status)))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		ActorID:  caller.ID,
		Payload:  events.TicketDeletedPayload{ExternalKey: ticket.ExternalKey},
	})
	return nil
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
