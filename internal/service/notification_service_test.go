package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
)

type deliveries struct {
	mu   sync.Mutex
	sent map[string][]events.EventType
}

func (d *deliveries) Notify(_ context.Context, userID string, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sent == nil {
		d.sent = make(map[string][]events.EventType)
	}
	d.sent[userID] = append(d.sent[userID], event.Type)
	return nil
}

func TestSubmitNotifiesRequesterOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.createTicket(t, "incident")
	_, err := f.budget.SetEstimate(ctx, ticket.ID, "res", Duration{Value: 1, Unit: domain.TimeUnitHours})
	require.NoError(t, err)
	_, _, err = f.assignments.Assign(ctx, ticket.ID, "lead", []string{"res"}, nil)
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher()
	sink := &deliveries{}
	NewNotificationService(dispatcher, zap.NewNop(), sink).RegisterHandlers()

	before := len(f.events.all())
	_, err = f.tickets.SubmitForValidation(ctx, ticket.ID, "res")
	require.NoError(t, err)
	for _, event := range f.events.all()[before:] {
		require.NoError(t, dispatcher.Publish(ctx, event))
	}

	assert.Equal(t, []events.EventType{events.EventTicketSubmittedForValidation}, sink.sent["req"])
}

func TestNotificationsSkipActor(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sink := &deliveries{}
	NewNotificationService(dispatcher, zap.NewNop(), sink).RegisterHandlers()
	ctx := context.Background()

	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:       events.EventTicketStatusChanged,
		ActorID:    "req",
		Recipients: []string{"req"},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:       events.EventTicketSubmittedForValidation,
		ActorID:    "req",
		Recipients: []string{"req"},
	}))

	assert.Equal(t, []events.EventType{events.EventTicketSubmittedForValidation}, sink.sent["req"])
}
