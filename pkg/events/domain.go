package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeArtifactCreated = "ARTIFACT_CREATED"
	TypeUserLogin       = "USER_LOGIN"
	TypeUserLogout      = "USER_LOGOUT"
)

func NewArtifactCreated(sessionID, artifactID uuid.UUID, kind, title string) BaseEvent {
	return BaseEvent{
		Type: TypeArtifactCreated,
		Data: map[string]interface{}{
			"session_id":  sessionID.String(),
			"artifact_id": artifactID.String(),
			"kind":        kind,
			"title":       title,
		},
		OccurredAt: time.Now(),
	}
}

func NewUserLogin(sessionID uuid.UUID, provider, displayName string) BaseEvent {
	return BaseEvent{
		Type: TypeUserLogin,
		Data: map[string]interface{}{
			"session_id":   sessionID.String(),
			"provider":     provider,
			"display_name": displayName,
		},
		OccurredAt: time.Now(),
	}
}

func NewUserLogout(sessionID uuid.UUID) BaseEvent {
	return BaseEvent{
		Type: TypeUserLogout,
		Data: map[string]interface{}{
			"session_id": sessionID.String(),
		},
		OccurredAt: time.Now(),
	}
}

// SessionID reads the session_id field every domain event carries.
func SessionID(e Event) (uuid.UUID, bool) {
	raw, ok := e.Payload()["session_id"].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
