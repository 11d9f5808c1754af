package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aether-base-be/internal/entity"
	"aether-base-be/internal/pkg/logger"
	"aether-base-be/pkg/events"
	pktNats "aether-base-be/pkg/nats"

	"github.com/google/uuid"
)

const notificationDurable = "aether-notifier"

// NotificationDelivery pushes real-time notices. Implemented by the websocket Hub.
type NotificationDelivery interface {
	Notify(sessionID uuid.UUID, notification entity.Notification)
}

type notificationTemplate struct {
	Title    string
	Template string
}

// templates maps event codes to the toast shown to the session owner.
var templates = map[string]notificationTemplate{
	events.TypeArtifactCreated: {Title: "Biblioteca atualizada", Template: "\"{title}\" foi salvo na sua biblioteca."},
	events.TypeUserLogin:       {Title: "Bem-vindo", Template: "Sessão iniciada como {display_name}."},
	events.TypeUserLogout:      {Title: "Até logo", Template: "Você saiu da sua conta."},
}

type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() error {
	if s.subscriber == nil {
		s.logger.Info("NotificationService", "No event bus configured, notifications disabled", nil)
		return nil
	}

	if err := s.subscriber.Subscribe(pktNats.SubjectPrefix+">", notificationDurable, s.HandleEvent); err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
	return nil
}

func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), pktNats.SubjectPrefix)
	s.logger.Info("NotificationService", fmt.Sprintf("Processing event: %s", typeCode), nil)

	tmpl, ok := templates[typeCode]
	if !ok {
		s.logger.Warn("NotificationService", fmt.Sprintf("No template for code: '%s'", typeCode), nil)
		return nil
	}

	sessionID, ok := events.SessionID(event)
	if !ok {
		s.logger.Warn("NotificationService", fmt.Sprintf("Event %s has no session_id", typeCode), nil)
		return nil
	}

	if s.delivery != nil {
		s.delivery.Notify(sessionID, buildNotification(sessionID, typeCode, tmpl, event))
	}
	return nil
}

func buildNotification(sessionID uuid.UUID, typeCode string, tmpl notificationTemplate, event events.Event) entity.Notification {
	msg := tmpl.Template
	payload := event.Payload()

	metadata := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{%s}", k), fmt.Sprintf("%v", v))
		metadata[k] = v
	}
	if id, ok := payload["artifact_id"].(string); ok {
		metadata["action_url"] = fmt.Sprintf("/api/library/%s/content", id)
	}

	return entity.Notification{
		ID:        uuid.New(),
		SessionID: sessionID,
		TypeCode:  typeCode,
		Title:     tmpl.Title,
		Message:   msg,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}
