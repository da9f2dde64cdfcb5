package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
)

type recordingNotifier struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingNotifier) Notify(_ context.Context, userID string, _ events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
	return nil
}

func TestNotificationWorkerDeliversAndDrains(t *testing.T) {
	notifier := &recordingNotifier{}
	w := StartNotificationWorker(config.NotificationConfig{Workers: 2, QueueSize: 8}, zap.NewNop(), notifier)

	require.NoError(t, w.Dispatcher().Publish(context.Background(), events.Event{
		Type:       events.EventTicketSubmittedForValidation,
		TicketID:   "t-1",
		ActorID:    "res",
		Recipients: []string{"requester"},
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
	assert.Equal(t, []string{"requester"}, notifier.users)
}
