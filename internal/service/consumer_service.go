package service

import (
	"context"

	"aether-base-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// SnapshotDelivery pushes an encoded frame to every socket of a session.
// Implemented by the websocket hub.
type SnapshotDelivery interface {
	Send(sessionID uuid.UUID, payload []byte)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    message.Subscriber
	topicName string
	delivery  SnapshotDelivery
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub message.Subscriber,
	topicName string,
	delivery SnapshotDelivery,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		delivery:  delivery,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	// Frames are best effort: a bad one is acked and dropped, never retried.
	defer msg.Ack()

	sessionID, err := uuid.Parse(msg.Metadata.Get(metadataSessionID))
	if err != nil {
		cs.logger.Warn("ConsumerService", "Frame without a valid session id", map[string]interface{}{"message_id": msg.UUID})
		return
	}

	cs.delivery.Send(sessionID, msg.Payload)
}
