package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	"github.com/spec-kit/ticket-lifecycle/internal/lifecycle"
	"github.com/spec-kit/ticket-lifecycle/internal/lock"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

// Engine holds the collaborators shared by the ticket services.
type Engine struct {
	store      *repository.Store
	locker     lock.Locker
	gate       *auth.Gate
	callers    *auth.CallerResolver
	machine    *lifecycle.Machine
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// EngineDependencies bundles what the engine needs.
type EngineDependencies struct {
	Store      *repository.Store
	Locker     lock.Locker
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// OverridePermission guards the manual status change.
	OverridePermission domain.Permission
	Clock              func() time.Time
}

// NewEngine constructs the engine.
func NewEngine(deps EngineDependencies) *Engine {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locker := deps.Locker
	if locker == nil {
		locker = lock.NewLocal(0)
	}
	gate := auth.NewGate(deps.OverridePermission)
	return &Engine{
		store:      deps.Store,
		locker:     locker,
		gate:       gate,
		callers:    auth.NewCallerResolver(deps.Store.Permissions, deps.Store.Directory, gate.OverridePermission()),
		machine:    lifecycle.NewMachine(now),
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        now,
	}
}

// Machine exposes the state machine for read-only queries.
func (e *Engine) Machine() *lifecycle.Machine {
	return e.machine
}

// change is the working state of one mutation. Nothing in it is visible to
// other callers until commit succeeds.
type change struct {
	caller     *auth.Caller
	original   *domain.Ticket
	ticket     *domain.Ticket
	assignment *domain.Assignment
	// replacement is the new assignee set, nil when unchanged.
	replacement *domain.Assignment
	// entry is a time entry committed together with the ticket.
	entry   *domain.TimeEntry
	history []domain.TicketHistoryEvent
	outbox      []events.Event
}

func (c *change) relation() auth.Relation {
	return auth.Relation{
		IsRequester: c.ticket.IsRequester(c.caller.ID),
		IsAssignee:  c.assignment.Has(c.caller.ID),
	}
}

func (c *change) record(event domain.TicketHistoryEvent) {
	c.history = append(c.history, event)
}

func (c *change) publish(event events.Event) {
	c.outbox = append(c.outbox, event)
}

// fieldUpdated records a FieldUpdated history entry and event.
func (e *Engine) fieldUpdated(c *change, field, oldValue, newValue string) {
	now := e.now()
	c.record(domain.TicketHistoryEvent{
		ID:        uuid.NewString(),
		TicketID:  c.ticket.ID,
		ActorID:   c.caller.ID,
		Action:    domain.HistoryActionFieldUpdated,
		FieldName: field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Timestamp: now,
	})
	c.ticket.UpdatedAt = now
	c.publish(events.Event{
		Type:    events.EventTicketFieldUpdated,
		Payload: events.TicketFieldUpdatedPayload{Field: field, OldValue: oldValue, NewValue: newValue},
	})
}

// transition applies plan to the working ticket and records the status change.
func (e *Engine) transition(c *change, plan lifecycle.Plan) {
	event, changed := e.machine.Apply(c.ticket, plan, c.caller.ID)
	if !changed {
		return
	}
	c.record(event)
	recipients := requesterRecipients(c.ticket)
	if plan.Trigger == domain.TriggerSubmitForValidation {
		// the requester is told by the submitted-for-validation event
		recipients = nil
	}
	c.publish(events.Event{
		Type:       events.EventTicketStatusChanged,
		Recipients: recipients,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: plan.From,
			NewStatus: plan.To,
			Trigger:   plan.Trigger,
		},
	})
}

// mutate runs fn against a fresh copy of the ticket while holding the
// ticket's lock and commits the result atomically. Events queued by fn are
// published only after the commit succeeded.
func (e *Engine) mutate(ctx context.Context, ticketID, callerID string, fn func(c *change) error) (*domain.Ticket, error) {
	caller, err := e.resolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	release, err := e.acquire(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := e.store.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, ticketID)
	}
	assignment, err := e.store.Tickets.GetAssignment(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	c := &change{
		caller:     caller,
		original:   current,
		ticket:     current.Clone(),
		assignment: assignment,
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if len(c.history) == 0 && c.replacement == nil && c.entry == nil {
		return current, nil
	}

	mutation := &repository.TicketMutation{
		Ticket:          c.ticket,
		ExpectedVersion: current.Version,
		Assignment:      c.replacement,
		TimeEntry:       c.entry,
		Events:          c.history,
	}
	if err := e.store.Tickets.Apply(ctx, mutation); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			e.logger.Debug("ticket version conflict",
				zap.String("ticket_id", ticketID),
				zap.Int64("expected_version", current.Version))
		}
		return nil, mapRepoError(err, ticketID)
	}

	for _, event := range c.outbox {
		event.TicketID = ticketID
		event.ActorID = caller.ID
		e.publishEvent(ctx, event)
	}
	return c.ticket, nil
}

// acquire takes the ticket lock. A lock that stays busy past the wait
// budget surfaces as a retryable conflict.
func (e *Engine) acquire(ctx context.Context, ticketID string) (func(), error) {
	release, err := e.locker.Acquire(ctx, lock.TicketKey(ticketID))
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			e.logger.Debug("ticket lock busy", zap.String("ticket_id", ticketID))
			return nil, apperrors.NewConflict(map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return release, nil
}

func (e *Engine) resolveCaller(ctx context.Context, callerID string) (*auth.Caller, error) {
	caller, err := e.callers.Resolve(ctx, callerID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeUnauthorized) {
			return nil, err
		}
		return nil, apperrors.NewInternalError(err)
	}
	return caller, nil
}

func (e *Engine) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := e.store.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, ticketID)
	}
	return ticket, nil
}

// publishEvent hands the event to the dispatcher. Delivery problems never
// fail the operation that produced the event.
func (e *Engine) publishEvent(ctx context.Context, event events.Event) {
	if e.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}
	if err := e.dispatcher.Publish(context.WithoutCancel(ctx), event); err != nil {
		e.logger.Warn("failed to publish event",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func mapRepoError(err error, ticketID string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConflict(map[string]any{"ticket_id": ticketID})
	default:
		return apperrors.NewInternalError(err)
	}
}

func requesterRecipients(ticket *domain.Ticket) []string {
	if ticket.RequesterID == nil || *ticket.RequesterID == "" {
		return nil
	}
	return []string{*ticket.RequesterID}
}
