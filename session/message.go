package session

import (
	"time"

	"github.com/google/uuid"
)

// Role of a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a chat. The CTA and typing flags are UI hints;
// they are serialized with the history so a reload restores the exact
// conversation the user saw.
type Message struct {
	ID                string `json:"id"`
	ChatID            string `json:"chat_id"`
	Role              Role   `json:"role"`
	Content           string `json:"content"`
	Seq               int    `json:"seq"`
	CreationTimestamp int64  `json:"creation_timestamp"`

	// Typing marks an assistant message still being revealed by the
	// presentation layer's typing animation.
	Typing bool `json:"is_typing,omitempty"`
	// UpgradeCTA marks a synthetic plan-upgrade prompt.
	UpgradeCTA bool `json:"is_upgrade_cta,omitempty"`
	// CreditsCTA marks a synthetic buy-credits prompt.
	CreditsCTA bool `json:"is_credits_cta,omitempty"`
}

func newMessage(chatID string, role Role, content string, seq int) *Message {
	return &Message{
		ID:                uuid.New().String(),
		ChatID:            chatID,
		Role:              role,
		Content:           content,
		Seq:               seq,
		CreationTimestamp: time.Now().UnixMicro(),
	}
}
