package domain

import "time"

// SessionKey uniquely identifies a channel conversation.
type SessionKey struct {
	ChannelID string `json:"channelId"`
	ChatID    string `json:"chatId"`
	SenderID  string `json:"senderId,omitempty"`
}

// String returns a canonical string form of the session key.
func (k SessionKey) String() string {
	s := k.ChannelID + ":" + k.ChatID
	if k.SenderID != "" {
		s += ":" + k.SenderID
	}
	return s
}

// Role identifies who produced a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a thread's append-only history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Node      string    `json:"node,omitempty"` // graph node that produced it; empty for user input
	Timestamp time.Time `json:"timestamp"`
}

// ThreadInfo summarizes a persisted thread.
type ThreadInfo struct {
	ID        string    `json:"id"`
	Messages  int       `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}
