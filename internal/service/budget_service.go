package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/timebudget"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

// BudgetService owns estimates, time entries and variance.
type BudgetService struct {
	*Engine
	tracker *timebudget.Tracker
}

// NewBudgetService creates the service. includeUnvalidated decides whether
// unvalidated time entries count towards actual time.
func NewBudgetService(engine *Engine, includeUnvalidated bool) *BudgetService {
	return &BudgetService{
		Engine:  engine,
		tracker: timebudget.NewTracker(engine.store.TimeEntries, includeUnvalidated),
	}
}

// Duration is an amount of time in a unit; days are work days.
type Duration struct {
	Value float64
	Unit  domain.TimeUnit
}

// Minutes converts d, rejecting negative values.
func (d Duration) Minutes(field string) (int, error) {
	minutes, err := timebudget.ToMinutes(d.Value, d.Unit)
	if err != nil {
		return 0, apperrors.NewFieldError(field, apperrors.ReasonInvalidValue, err.Error())
	}
	if minutes < 0 {
		return 0, apperrors.NewFieldError(field, apperrors.ReasonNegativeMinutes, "time must not be negative")
	}
	return minutes, nil
}

// TimeEntryInput describes time logged by a user.
type TimeEntryInput struct {
	UserID    string
	Minutes   int
	Date      time.Time
	Validated bool
}

// SetEstimate sets the first estimate. An open ticket moves to in-progress.
func (s *BudgetService) SetEstimate(ctx context.Context, ticketID, callerID string, estimate Duration) (*domain.Ticket, error) {
	return s.mutate(ctx, ticketID, callerID, func(c *change) error {
		if err := s.gate.Check(c.caller, auth.ActionSetEstimate, c.relation()); err != nil {
			return err
		}
		minutes, err := estimate.Minutes("minutes")
		if err != nil {
			return err
		}
		if c.ticket.EstimatedMinutes != nil {
			return apperrors.NewFieldError("estimatedMinutes", apperrors.ReasonAlreadySet,
				"estimate already set, use update instead")
		}
		plan, err := s.machine.Plan(c.ticket.Status, domain.TriggerEstimate)
		if err != nil {
			return err
		}

		c.ticket.EstimatedMinutes = &minutes
		if plan.Changes() {
			s.transition(c, plan)
			return nil
		}
		s.fieldUpdated(c, "estimatedMinutes", "", strconv.Itoa(minutes))
		return nil
	})
}

// UpdateEstimate changes an existing estimate without touching status.
func (s *BudgetService) UpdateEstimate(ctx context.Context, ticketID, callerID string, estimate Duration) (*domain.Ticket, error) {
	return s.mutate(ctx, ticketID, callerID, func(c *change) error {
		if err := s.gate.Check(c.caller, auth.ActionUpdateEstimate, c.relation()); err != nil {
			return err
		}
		minutes, err := estimate.Minutes("minutes")
		if err != nil {
			return err
		}
		if c.ticket.EstimatedMinutes == nil {
			return apperrors.NewFieldError("estimatedMinutes", apperrors.ReasonRequired,
				"no estimate to update, set one first")
		}
		if c.ticket.Status == domain.TicketStatusClosed {
			return apperrors.NewInvalidTransition("cannot update the estimate of a closed ticket",
				map[string]any{"current_status": c.ticket.Status})
		}
		if *c.ticket.EstimatedMinutes == minutes {
			return nil
		}
		old := strconv.Itoa(*c.ticket.EstimatedMinutes)
		c.ticket.EstimatedMinutes = &minutes
		s.fieldUpdated(c, "estimatedMinutes", old, strconv.Itoa(minutes))
		return nil
	})
}

// RecordActual stores a time entry and refreshes the ticket's actual time.
func (s *BudgetService) RecordActual(ctx context.Context, ticketID, callerID string, input TimeEntryInput) (*domain.TimeEntry, *domain.Ticket, error) {
	var entry *domain.TimeEntry
	ticket, err := s.mutate(ctx, ticketID, callerID, func(c *change) error {
		if input.UserID == "" {
			input.UserID = c.caller.ID
		}
		if err := s.gate.Check(c.caller, auth.ActionRecordTime, auth.Relation{Subject: input.UserID}); err != nil {
			return err
		}
		switch {
		case input.Minutes < 0:
			return apperrors.NewFieldError("minutes", apperrors.ReasonNegativeMinutes, "time must not be negative")
		case input.Minutes == 0:
			return apperrors.NewFieldError("minutes", apperrors.ReasonInvalidValue, "time must be positive")
		case input.Minutes > timebudget.MaxMinutes:
			return apperrors.NewFieldError("minutes", apperrors.ReasonInvalidValue, "time out of range")
		}
		date := input.Date
		if date.IsZero() {
			date = s.now()
		}

		c.entry = &domain.TimeEntry{
			ID:           uuid.NewString(),
			TicketID:     c.ticket.ID,
			UserID:       input.UserID,
			MinutesSpent: input.Minutes,
			Date:         date,
			Validated:    input.Validated,
			CreatedAt:    s.now(),
		}
		entry = c.entry

		logged, err := s.tracker.Actual(ctx, c.ticket.ID)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		actual := logged + s.tracker.Counted(c.entry)
		old := ""
		if c.ticket.ActualMinutes != nil {
			if *c.ticket.ActualMinutes == actual {
				return nil
			}
			old = strconv.Itoa(*c.ticket.ActualMinutes)
		}
		c.ticket.ActualMinutes = &actual
		s.fieldUpdated(c, "actualMinutes", old, strconv.Itoa(actual))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return entry, ticket, nil
}

// Variance compares the estimate with the time logged so far.
func (s *BudgetService) Variance(ctx context.Context, ticketID string) (timebudget.Variance, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return timebudget.Variance{}, err
	}
	variance, err := s.tracker.Variance(ctx, ticket)
	if err != nil {
		return timebudget.Variance{}, apperrors.NewInternalError(err)
	}
	return variance, nil
}
