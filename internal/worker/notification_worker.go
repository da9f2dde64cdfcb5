package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
)

// NotificationWorker owns the asynchronous dispatcher that delivers
// notifications after mutations commit.
type NotificationWorker struct {
	dispatcher *events.AsyncDispatcher
	logger     *zap.Logger
}

// StartNotificationWorker starts the dispatcher workers and registers
// notification handlers.
func StartNotificationWorker(cfg config.NotificationConfig, logger *zap.Logger, notifiers ...service.Notifier) *NotificationWorker {
	dispatcher := events.NewAsyncDispatcher(cfg.Workers, cfg.QueueSize, logger)
	if len(notifiers) == 0 {
		notifiers = service.NotifiersFromConfig(cfg, logger)
	}
	service.NewNotificationService(dispatcher, logger, notifiers...).RegisterHandlers()
	logger.Info("notification worker started",
		zap.Int("workers", cfg.Workers),
		zap.Int("queue_size", cfg.QueueSize))
	return &NotificationWorker{dispatcher: dispatcher, logger: logger}
}

// Dispatcher is where services publish events.
func (w *NotificationWorker) Dispatcher() events.Dispatcher {
	return w.dispatcher
}

// Stop drains queued events until ctx expires.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	err := w.dispatcher.Close(ctx)
	w.logger.Info("notification worker stopped",
		zap.Int64("dropped", w.dispatcher.Dropped()),
		zap.Int64("failed", w.dispatcher.Failed()))
	return err
}
