package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/config"
	"github.com/nsrz/intranet/internal/events"
)

// Notification is the rendered message for one event.
type Notification struct {
	Subject string
	Body    string
	// Audience is "staff" for portal-wide announcements, "admins" for structural changes.
	Audience string
}

// NotificationService turns domain events into notifications. Delivery is stubbed:
// email and webhook sends are logged only when the matching endpoint is configured.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{dispatcher: dispatcher, logger: logger, cfg: cfg}
}

// RegisterHandlers subscribes to every event the portal announces.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventDepartmentCreated,
		events.EventDepartmentDeleted,
		events.EventUserCreated,
		events.EventNewsPublished,
	} {
		n.dispatcher.Subscribe(t, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	msg, err := Render(event)
	if err != nil {
		return err
	}
	n.logger.Info("notification",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
		zap.Int64("entity_id", event.EntityID),
		zap.String("audience", msg.Audience),
		zap.String("subject", msg.Subject))

	if msg.Audience == "staff" || event.Type == events.EventUserCreated {
		n.sendEmail(ctx, event, msg)
	}
	n.sendWebhook(ctx, event, msg)
	return nil
}

// Render builds the message for an event. Unknown types and mismatched payloads are errors.
func Render(event events.Event) (Notification, error) {
	switch p := event.Payload.(type) {
	case events.DepartmentCreatedPayload:
		return Notification{
			Subject:  fmt.Sprintf("Новое подразделение: %s", p.Name),
			Body:     fmt.Sprintf("Создано подразделение %s (код ЗУП %s).", p.Name, p.CodeZup),
			Audience: "admins",
		}, nil
	case events.DepartmentDeletedPayload:
		return Notification{
			Subject:  fmt.Sprintf("Подразделение удалено: %s", p.Name),
			Body:     fmt.Sprintf("Подразделение %s удалено из структуры.", p.Name),
			Audience: "admins",
		}, nil
	case events.UserCreatedPayload:
		return Notification{
			Subject:  "Учётная запись на портале",
			Body:     fmt.Sprintf("Для %s создана учётная запись с ролью %s.", p.Email, p.Role),
			Audience: "admins",
		}, nil
	case events.NewsPublishedPayload:
		return Notification{
			Subject:  strings.TrimSpace(p.Title),
			Body:     fmt.Sprintf("На портале опубликована новость «%s».", strings.TrimSpace(p.Title)),
			Audience: "staff",
		}, nil
	}
	return Notification{}, fmt.Errorf("no notification template for %s (payload %T)", event.Type, event.Payload)
}

func (n *NotificationService) sendEmail(_ context.Context, event events.Event, msg Notification) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email notification queued",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("event_type", string(event.Type)),
		zap.String("subject", msg.Subject))
}

func (n *NotificationService) sendWebhook(_ context.Context, event events.Event, msg Notification) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification queued",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)),
		zap.String("body", msg.Body))
}
