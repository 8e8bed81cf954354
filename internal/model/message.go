package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleUser      = MessageRole("user")
	MessageRoleAssistant = MessageRole("assistant")
)

func ParseMessageRole(s string) (MessageRole, error) {
	switch MessageRole(s) {
	case MessageRoleUser, MessageRoleAssistant:
		return MessageRole(s), nil
	default:
		return "", fmt.Errorf("unknown message role %q", s)
	}
}

// ReplyOrigin tells which path produced an assistant message.
type ReplyOrigin string

const (
	ReplyOriginNone     = ReplyOrigin("")
	ReplyOriginRemote   = ReplyOrigin("remote")
	ReplyOriginFallback = ReplyOrigin("fallback")
)

type Message struct {
	MessageID uuid.UUID
	Role      MessageRole
	Text      string
	CreatedAt time.Time
	Origin    ReplyOrigin
}

// NewMessage stamps a message with a time-ordered id.
func NewMessage(role MessageRole, text string, createdAt time.Time, origin ReplyOrigin) Message {
	return Message{
		MessageID: uuid.Must(uuid.NewV7()),
		Role:      role,
		Text:      text,
		CreatedAt: createdAt,
		Origin:    origin,
	}
}

// Timestamp is the display form of CreatedAt, precise to the minute.
func (m Message) Timestamp() string {
	return m.CreatedAt.Format("15:04")
}
