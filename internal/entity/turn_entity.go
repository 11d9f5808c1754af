package entity

import (
	"time"

	"github.com/google/uuid"
)

type TurnSpeaker string

const (
	TurnSpeakerUser      TurnSpeaker = "user"
	TurnSpeakerAssistant TurnSpeaker = "assistant"
)

// Attachment is an image the user sent, or one the model produced.
type Attachment struct {
	Data     []byte
	MIMEType string
}

type Turn struct {
	Id         uuid.UUID
	Speaker    TurnSpeaker
	Text       string
	Attachment *Attachment
	Streaming  bool
	CreatedAt  time.Time
}
