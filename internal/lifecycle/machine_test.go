package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestMachine() *Machine {
	return NewMachine(func() time.Time { return fixedNow })
}

func TestPlanCoversEveryStatusTriggerPair(t *testing.T) {
	m := newTestMachine()
	open, inProgress, pending := domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusPending
	resolved, closed := domain.TicketStatusResolved, domain.TicketStatusClosed

	// Expected target per (trigger, from); missing entries must be rejected.
	expected := map[domain.TransitionTrigger]map[domain.TicketStatus]domain.TicketStatus{
		domain.TriggerEstimate:            {open: inProgress, inProgress: inProgress, pending: pending},
		domain.TriggerSubmitForValidation: {open: pending, inProgress: pending},
		domain.TriggerValidate:            {pending: resolved},
		domain.TriggerInvalidate:          {pending: open, resolved: open},
		domain.TriggerReopen:              {resolved: open, closed: open},
		domain.TriggerClose:               {open: closed, inProgress: closed, pending: closed, resolved: closed},
	}

	for trigger, targets := range expected {
		for _, from := range domain.AllTicketStatuses {
			plan, err := m.Plan(from, trigger)
			want, allowed := targets[from]
			if !allowed {
				require.Error(t, err, "%s from %s", trigger, from)
				assert.True(t, errorutil.IsCode(err, errorutil.CodeInvalidTransition))
				continue
			}
			require.NoError(t, err, "%s from %s", trigger, from)
			assert.Equal(t, want, plan.To, "%s from %s", trigger, from)
		}
	}
}

func TestPlanUnknownTrigger(t *testing.T) {
	_, err := newTestMachine().Plan(domain.TicketStatusOpen, "teleport")
	assert.True(t, errorutil.IsCode(err, errorutil.CodeInvalidTransition))
}

func TestPlanOverride(t *testing.T) {
	m := newTestMachine()

	plan, err := m.PlanOverride(domain.TicketStatusClosed, domain.TicketStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.TriggerManualOverride, plan.Trigger)

	_, err = m.PlanOverride(domain.TicketStatusOpen, domain.TicketStatusOpen)
	assert.True(t, errorutil.IsCode(err, errorutil.CodeInvalidTransition))

	_, err = m.PlanOverride(domain.TicketStatusOpen, "ARCHIVED")
	assert.True(t, errorutil.IsCode(err, errorutil.CodeValidationFailed))
}

func TestApplyValidateStampsResolution(t *testing.T) {
	m := newTestMachine()
	ticket := &domain.Ticket{ID: "t-1", Status: domain.TicketStatusPending}

	plan, err := m.Plan(ticket.Status, domain.TriggerValidate)
	require.NoError(t, err)
	event, changed := m.Apply(ticket, plan, "requester-1")
	require.True(t, changed)

	assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
	require.NotNil(t, ticket.ValidatedAt)
	require.NotNil(t, ticket.ValidatedBy)
	assert.Equal(t, "requester-1", *ticket.ValidatedBy)
	assert.Equal(t, fixedNow, *ticket.ResolvedAt)
	assert.Nil(t, ticket.ClosedAt)

	assert.Equal(t, domain.HistoryActionStatusChanged, event.Action)
	assert.Equal(t, domain.TriggerValidate, event.Trigger)
	assert.Equal(t, "PENDING", event.OldValue)
	assert.Equal(t, "RESOLVED", event.NewValue)
	assert.Equal(t, "t-1", event.TicketID)
}

func TestApplyClosedAtTracksClosedStatus(t *testing.T) {
	m := newTestMachine()
	ticket := &domain.Ticket{ID: "t-2", Status: domain.TicketStatusResolved}

	plan, err := m.Plan(ticket.Status, domain.TriggerClose)
	require.NoError(t, err)
	_, changed := m.Apply(ticket, plan, "agent")
	require.True(t, changed)
	require.NotNil(t, ticket.ClosedAt)

	plan, err = m.Plan(ticket.Status, domain.TriggerReopen)
	require.NoError(t, err)
	_, changed = m.Apply(ticket, plan, "agent")
	require.True(t, changed)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Nil(t, ticket.ClosedAt)
	assert.Nil(t, ticket.ResolvedAt)
}

func TestApplyInvalidateClearsValidation(t *testing.T) {
	m := newTestMachine()
	by := "requester-1"
	at := fixedNow.Add(-time.Hour)
	ticket := &domain.Ticket{
		ID:          "t-3",
		Status:      domain.TicketStatusResolved,
		ValidatedAt: &at,
		ValidatedBy: &by,
		ResolvedAt:  &at,
	}

	plan, err := m.Plan(ticket.Status, domain.TriggerInvalidate)
	require.NoError(t, err)
	m.Apply(ticket, plan, by)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Nil(t, ticket.ValidatedAt)
	assert.Nil(t, ticket.ValidatedBy)
	assert.Nil(t, ticket.ResolvedAt)
}

func TestApplyHoldIsNoop(t *testing.T) {
	m := newTestMachine()
	ticket := &domain.Ticket{ID: "t-4", Status: domain.TicketStatusPending}

	plan, err := m.Plan(ticket.Status, domain.TriggerEstimate)
	require.NoError(t, err)
	assert.False(t, plan.Changes())

	_, changed := m.Apply(ticket, plan, "agent")
	assert.False(t, changed)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.True(t, ticket.UpdatedAt.IsZero())
}

func TestValidTriggers(t *testing.T) {
	m := newTestMachine()
	assert.ElementsMatch(t,
		[]domain.TransitionTrigger{domain.TriggerReopen},
		m.ValidTriggers(domain.TicketStatusClosed))
	assert.ElementsMatch(t,
		[]domain.TransitionTrigger{domain.TriggerInvalidate, domain.TriggerReopen, domain.TriggerClose},
		m.ValidTriggers(domain.TicketStatusResolved))
}
