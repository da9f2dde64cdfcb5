package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

func TestComplianceAcrossCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fast := f.pendingTicket(t)
	_, err := f.tickets.Validate(ctx, fast.ID, "req")
	require.NoError(t, err)

	slow := f.createTicket(t, "incident")
	other := f.createTicket(t, "hardware")
	f.clock.Advance(6 * time.Hour)
	_, err = f.tickets.Close(ctx, slow.ID, "lead")
	require.NoError(t, err)
	_, err = f.tickets.Close(ctx, other.ID, "lead")
	require.NoError(t, err)

	// Still open, never part of the report.
	f.createTicket(t, "incident")

	start, end := t0, t0.Add(24*time.Hour)

	report, err := f.sla.Compliance(ctx, start, end, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalTickets)
	assert.Equal(t, 2, report.TicketsWithRule)
	assert.Equal(t, 1, report.TotalViolations)
	assert.InDelta(t, 50.0, report.OverallCompliance, 0.001)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, slow.ID, report.Violations[0].TicketID)
	assert.Equal(t, 120, report.Violations[0].ViolationMinutes)
	assert.Equal(t, t0.Add(4*time.Hour), report.Violations[0].ViolatedAt)
	assert.Equal(t, f.clock.Now(), report.AsOf)

	hardware := "hardware"
	filtered, err := f.sla.Compliance(ctx, start, end, &hardware)
	require.NoError(t, err)
	assert.Equal(t, 1, filtered.TotalTickets)
	assert.Equal(t, 0, filtered.TicketsWithRule)
	assert.Equal(t, 100.0, filtered.OverallCompliance)

	_, err = f.sla.Compliance(ctx, end, start, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestRecomputeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t, "incident")
	f.clock.Advance(5 * time.Hour)
	_, err := f.tickets.Close(ctx, ticket.ID, "lead")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		result, err := f.sla.Recompute(ctx, t0, t0.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Written)
	}
	assert.Equal(t, 1, f.store.ViolationCount())

	violations, err := f.sla.Violations(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "sla-incident", violations[0].SLARuleID)
	assert.Equal(t, 60, violations[0].ViolationMinutes)
}

func TestRuleForCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rule, err := f.sla.RuleForCategory(ctx, "incident")
	require.NoError(t, err)
	assert.Equal(t, 240, rule.TargetMinutes)

	_, err = f.sla.RuleForCategory(ctx, "hardware")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	rules, err := f.sla.Rules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}
