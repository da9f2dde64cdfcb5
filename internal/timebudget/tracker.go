package timebudget

import (
	"context"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// EntrySource is the external time-entry store.
type EntrySource interface {
	SumMinutes(ctx context.Context, ticketID string, includeUnvalidated bool) (int, error)
}

// Variance compares the estimate with the time actually logged.
// DeltaMinutes is nil without an estimate; PercentConsumed is nil unless the
// estimate is positive, so an unknown ratio is never reported as 0%.
type Variance struct {
	EstimatedMinutes *int
	ActualMinutes    int
	DeltaMinutes     *int
	PercentConsumed  *float64
}

// ComputeVariance derives a Variance from raw values.
func ComputeVariance(estimated *int, actual int) Variance {
	v := Variance{ActualMinutes: actual}
	if estimated == nil {
		return v
	}
	est := *estimated
	delta := actual - est
	v.EstimatedMinutes = &est
	v.DeltaMinutes = &delta
	if est > 0 {
		pct := float64(actual) / float64(est) * 100
		v.PercentConsumed = &pct
	}
	return v
}

// Tracker aggregates logged time. Whether unvalidated entries count toward
// the actual time is a policy decision made at construction.
type Tracker struct {
	entries            EntrySource
	includeUnvalidated bool
}

// NewTracker builds a tracker over an entry source.
func NewTracker(entries EntrySource, includeUnvalidated bool) *Tracker {
	return &Tracker{entries: entries, includeUnvalidated: includeUnvalidated}
}

// IncludesUnvalidated reports the configured policy.
func (t *Tracker) IncludesUnvalidated() bool {
	return t.includeUnvalidated
}

// Actual returns the aggregated minutes logged on a ticket.
func (t *Tracker) Actual(ctx context.Context, ticketID string) (int, error) {
	return t.entries.SumMinutes(ctx, ticketID, t.includeUnvalidated)
}

// Counted returns the minutes entry contributes to the actual time.
func (t *Tracker) Counted(entry *domain.TimeEntry) int {
	if entry.Validated || t.includeUnvalidated {
		return entry.MinutesSpent
	}
	return 0
}

// Variance computes the budget variance of a ticket.
func (t *Tracker) Variance(ctx context.Context, ticket *domain.Ticket) (Variance, error) {
	actual, err := t.Actual(ctx, ticket.ID)
	if err != nil {
		return Variance{}, err
	}
	return ComputeVariance(ticket.EstimatedMinutes, actual), nil
}
