package service

import (
	"context"
	"sync"
	"testing"

	"aether-base-be/internal/entity"
	"aether-base-be/internal/pkg/logger"
	"aether-base-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []entity.Notification
}

func (r *recordingNotifier) Notify(sessionID uuid.UUID, n entity.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func TestHandleEventBuildsNotification(t *testing.T) {
	sessionID, artifactID := uuid.New(), uuid.New()

	tests := []struct {
		name        string
		event       events.Event
		wantMessage string
	}{
		{
			name:        "artifact created",
			event:       events.NewArtifactCreated(sessionID, artifactID, "document", "GATOS"),
			wantMessage: "\"GATOS\" foi salvo na sua biblioteca.",
		},
		{
			name:        "login",
			event:       events.NewUserLogin(sessionID, "local", "Ana"),
			wantMessage: "Sessão iniciada como Ana.",
		},
		{
			name:        "logout",
			event:       events.NewUserLogout(sessionID),
			wantMessage: "Você saiu da sua conta.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delivery := &recordingNotifier{}
			svc := NewNotificationService(nil, delivery, logger.NewNopLogger())

			require.NoError(t, svc.HandleEvent(context.Background(), tt.event))
			require.Len(t, delivery.sent, 1)

			n := delivery.sent[0]
			assert.Equal(t, sessionID, n.SessionID)
			assert.Equal(t, tt.event.EventType(), n.TypeCode)
			assert.Equal(t, tt.wantMessage, n.Message)
		})
	}
}

func TestHandleEventArtifactLinksContent(t *testing.T) {
	delivery := &recordingNotifier{}
	svc := NewNotificationService(nil, delivery, logger.NewNopLogger())
	artifactID := uuid.New()

	require.NoError(t, svc.HandleEvent(context.Background(), events.NewArtifactCreated(uuid.New(), artifactID, "image", "gato...")))
	require.Len(t, delivery.sent, 1)
	assert.Equal(t, "/api/library/"+artifactID.String()+"/content", delivery.sent[0].Metadata["action_url"])
}

func TestHandleEventIgnoresUnknownOrOrphanEvents(t *testing.T) {
	delivery := &recordingNotifier{}
	svc := NewNotificationService(nil, delivery, logger.NewNopLogger())

	require.NoError(t, svc.HandleEvent(context.Background(), events.BaseEvent{Type: "SOMETHING_ELSE", Data: map[string]interface{}{}}))
	require.NoError(t, svc.HandleEvent(context.Background(), events.BaseEvent{Type: events.TypeUserLogout, Data: map[string]interface{}{}}))
	assert.Empty(t, delivery.sent)
}

func TestStartWithoutBusIsNoop(t *testing.T) {
	svc := NewNotificationService(nil, &recordingNotifier{}, logger.NewNopLogger())
	assert.NoError(t, svc.Start())
}
