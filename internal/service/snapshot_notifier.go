package service

import (
	"context"
	"encoding/json"

	"aether-base-be/internal/dto"
	"aether-base-be/internal/mapper"
	"aether-base-be/internal/pkg/logger"
	"aether-base-be/internal/repository/memory"
	"aether-base-be/pkg/store"

	"github.com/google/uuid"
)

// snapshotNotifier publishes the full session view after every mutation.
type snapshotNotifier struct {
	publisher IPublisherService
	mapper    *mapper.ChatMapper
	logger    logger.ILogger
}

func (n *snapshotNotifier) notify(session *store.Session) {
	if n.publisher == nil {
		return
	}

	payload, err := json.Marshal(dto.WsEnvelope{
		Type: dto.WsTypeSessionSnapshot,
		Data: n.mapper.SnapshotToResponse(session.Snapshot()),
	})
	if err != nil {
		n.logger.Error("SnapshotNotifier", "Failed to encode snapshot", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
		return
	}

	if err := n.publisher.PublishSnapshot(context.Background(), session.Id, payload); err != nil {
		n.logger.Warn("SnapshotNotifier", "Failed to publish snapshot", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
	}
}

func findSession(repo *memory.SessionRepository, sessionID uuid.UUID) (*store.Session, error) {
	session, ok := repo.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
