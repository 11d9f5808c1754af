package service

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const metadataSessionID = "session_id"

// IPublisherService puts encoded session frames on the in-process bus.
type IPublisherService interface {
	PublishSnapshot(ctx context.Context, sessionID uuid.UUID, payload []byte) error
}

type publisherService struct {
	topicName string
	pubSub    message.Publisher
}

func NewPublisherService(topicName string, pubSub message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (ps *publisherService) PublishSnapshot(ctx context.Context, sessionID uuid.UUID, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataSessionID, sessionID.String())
	msg.SetContext(ctx)

	return ps.pubSub.Publish(ps.topicName, msg)
}
