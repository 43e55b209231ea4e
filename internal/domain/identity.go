// Package domain defines the identity and message value types the relay
// normalizes DingTalk traffic into.
package domain

import "strings"

// ConversationKind classifies a conversation.
type ConversationKind string

const (
	ConversationDirect ConversationKind = "direct"
	ConversationGroup  ConversationKind = "group"
)

// SenderIdentity identifies the platform-side author of a message.
// The ID is the opaque, platform-assigned sender id; StaffID and CorpID are
// only present for enterprise-internal groups. Values are immutable once built.
type SenderIdentity struct {
	ID      string `json:"id"`
	StaffID string `json:"staffId,omitempty"`
	Nick    string `json:"nick,omitempty"`
	CorpID  string `json:"corpId,omitempty"`
}

// Equal reports whether two identities refer to the same sender.
// Equality is by sender id only; nick and staff fields are display metadata.
func (s SenderIdentity) Equal(other SenderIdentity) bool {
	return s.ID == other.ID
}

// ConversationRef identifies a direct or group conversation.
// Title is only present for group conversations.
type ConversationRef struct {
	ID    string           `json:"id"`
	Kind  ConversationKind `json:"kind"`
	Title string           `json:"title,omitempty"`
}

// RobotIdentity is a robot scoped to a single conversation. The same logical
// robot holds independent credentials per conversation, so the conversation is
// part of its identity rather than routing metadata.
type RobotIdentity struct {
	ID           string          `json:"id"`
	Conversation ConversationRef `json:"conversation"`
}

// identityDelimiter separates fields in the canonical identity string.
const identityDelimiter = "@"

// FormatSenderConversation renders a sender and its conversation as the
// canonical "<senderId>@<nick>@<conversationId>" token. The inverse of
// ParseSenderConversation for fields containing no "@".
func FormatSenderConversation(s SenderIdentity, c ConversationRef) string {
	return s.ID + identityDelimiter + s.Nick + identityDelimiter + c.ID
}

// ParseSenderConversation parses a canonical identity token. It returns
// ok=false on malformed input; it never fails any other way.
func ParseSenderConversation(text string) (SenderIdentity, ConversationRef, bool) {
	parts := strings.Split(text, identityDelimiter)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return SenderIdentity{}, ConversationRef{}, false
	}
	sender := SenderIdentity{ID: parts[0], Nick: parts[1]}
	conv := ConversationRef{ID: parts[2]}
	return sender, conv, true
}
