package routing

import (
	"strings"

	"github.com/soyeahso/prodbot/internal/domain"
)

// Session scopes.
const (
	ScopePerSender = "per-sender"
	ScopeGlobal    = "global"
)

// ResolveSessionKey builds a session key from an inbound message and the
// configured scope.
//
// Scopes:
//   - "per-sender": one thread per user per chat (default)
//   - "global": one thread per chat, shared by everyone in it
func ResolveSessionKey(msg domain.InboundMessage, scope string) domain.SessionKey {
	key := domain.SessionKey{
		ChannelID: msg.ChannelID,
		ChatID:    strings.ToLower(msg.ChatID),
	}
	if scope != ScopeGlobal {
		key.SenderID = strings.ToLower(msg.From)
	}
	return key
}

// ThreadID is the checkpoint thread a message belongs to, for example
// "irc:#shop:alice" or "irc:#shop".
func ThreadID(msg domain.InboundMessage, scope string) string {
	return ResolveSessionKey(msg, scope).String()
}
