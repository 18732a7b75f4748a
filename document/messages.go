package document

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who wrote a log message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry in the operator/assistant log.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// MessageLog is append-only; Clear is the only way to drop entries.
type MessageLog struct {
	messages []Message
	now      func() time.Time
}

func NewMessageLog() *MessageLog {
	return &MessageLog{now: time.Now}
}

// Append records a message and returns it.
func (l *MessageLog) Append(role Role, content string) Message {
	m := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: l.now(),
	}
	l.messages = append(l.messages, m)
	return m
}

// All returns a copy of the log.
func (l *MessageLog) All() []Message {
	return append([]Message(nil), l.messages...)
}

func (l *MessageLog) Len() int { return len(l.messages) }

// Replace installs a saved log.
func (l *MessageLog) Replace(msgs []Message) {
	l.messages = append([]Message(nil), msgs...)
}

func (l *MessageLog) Clear() { l.messages = nil }
