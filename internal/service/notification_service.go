package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/notes-service/internal/events"
)

// NotificationService emits audit notifications for domain events. It never
// sees OTP codes or tokens; payloads carry metadata only.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	webhookURL string
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, webhookURL string) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		webhookURL: webhookURL,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventOTPIssued, n.handleOTPIssued)
	n.dispatcher.Subscribe(events.EventSessionIssued, n.handleSessionIssued)
	n.dispatcher.Subscribe(events.EventNoteCreated, n.handleNoteCreated)
	n.dispatcher.Subscribe(events.EventNoteDeleted, n.handleNoteDeleted)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleOTPIssued(ctx context.Context, event events.Event) error {
	n.logger.Info("OTPIssued", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleSessionIssued(ctx context.Context, event events.Event) error {
	n.logger.Info("SessionIssued", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleNoteCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("NoteCreated", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleNoteDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("NoteDeleted", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.webhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.webhookURL),
		zap.String("user_id", event.UserID),
		zap.String("event_type", string(event.Type)))
}
