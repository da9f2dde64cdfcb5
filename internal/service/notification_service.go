package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
)

// Notifier delivers an event to one user.
type Notifier interface {
	Notify(ctx context.Context, userID string, event events.Event) error
}

// NotificationService fans committed events out to notifiers.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifiers  []Notifier
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, notifiers ...Notifier) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		notifiers:  notifiers,
		logger:     logger,
	}
}

// NotifiersFromConfig builds the log notifier and, when a URL is configured,
// the webhook notifier.
func NotifiersFromConfig(cfg config.NotificationConfig, logger *zap.Logger) []Notifier {
	notifiers := []Notifier{NewLogNotifier(cfg.EmailFrom, logger)}
	if strings.TrimSpace(cfg.WebhookURL) != "" {
		notifiers = append(notifiers, NewWebhookNotifier(cfg.WebhookURL, 5*time.Second))
	}
	return notifiers
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketSubmittedForValidation, n.deliver)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.deliver)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.deliver)
}

func (n *NotificationService) deliver(ctx context.Context, event events.Event) error {
	var errs []error
	for _, userID := range event.Recipients {
		if userID == event.ActorID && event.Type != events.EventTicketSubmittedForValidation {
			continue
		}
		for _, notifier := range n.notifiers {
			if err := notifier.Notify(ctx, userID, event); err != nil {
				n.logger.Warn("notification failed",
					zap.String("user_id", userID),
					zap.String("event_type", string(event.Type)),
					zap.String("ticket_id", event.TicketID),
					zap.Error(err))
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to the log, standing in for mail delivery.
type LogNotifier struct {
	from   string
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(from string, logger *zap.Logger) *LogNotifier {
	return &LogNotifier{from: from, logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, userID string, event events.Event) error {
	l.logger.Info("notify",
		zap.String("from", l.from),
		zap.String("to", userID),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	return nil
}

// WebhookNotifier posts each notification as JSON to a URL.
type WebhookNotifier struct {
	url     string
	timeout time.Duration
}

// NewWebhookNotifier creates a WebhookNotifier.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{url: url, timeout: timeout}
}

type webhookBody struct {
	Recipient string       `json:"recipient"`
	Event     events.Event `json:"event"`
}

func (w *WebhookNotifier) Notify(_ context.Context, userID string, event events.Event) error {
	agent := fiber.Post(w.url).
		Timeout(w.timeout).
		JSON(webhookBody{Recipient: userID, Event: event})
	status, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if status >= fiber.StatusBadRequest {
		return fmt.Errorf("webhook responded with status %d", status)
	}
	return nil
}
