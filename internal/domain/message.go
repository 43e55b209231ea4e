package domain

import "errors"

// Known Extras keys. Extras carries protocol-specific passthrough fields the
// relay needs after translation; everything with domain meaning lives in
// typed Message fields instead.
const (
	// ExtraRobotUserID is the raw chatbot user id from the wire payload,
	// kept for credential lookup on messages not built via BuildReply.
	ExtraRobotUserID = "chatbotUserId"
	// ExtraSessionWebhook is the per-session outbound URL issued with an
	// inbound delivery.
	ExtraSessionWebhook = "sessionWebhook"
	// ExtraSessionWebhookExpiry is the webhook expiry in epoch milliseconds,
	// as a decimal string.
	ExtraSessionWebhookExpiry = "sessionWebhookExpiredTime"
	// ExtraConversationType is the raw wire conversation type ("1" or "2").
	ExtraConversationType = "conversationType"
)

// Extras is a typed extension map for protocol-specific passthrough data.
type Extras map[string]string

// Mention is a user referenced with an @ in a group message.
type Mention struct {
	ExternalID string `json:"dingtalkId"`
	StaffID    string `json:"staffId,omitempty"`
}

// ErrConversationMismatch is returned by Validate when the message conversation
// and the recipient's conversation scope differ.
var ErrConversationMismatch = errors.New("message spans conversations")

// Message is a platform-neutral chat message. From is the author and To the
// recipient identity; for replies built with BuildReply the roles are swapped
// so the robot becomes the author.
type Message struct {
	ID           string          `json:"id,omitempty"`
	Body         string          `json:"body"`
	From         SenderIdentity  `json:"from"`
	To           RobotIdentity   `json:"to"`
	Conversation ConversationRef `json:"conversation"`
	ParentID     string          `json:"parentId,omitempty"`
	Mentions     []Mention       `json:"mentions,omitempty"`
	Markdown     bool            `json:"markdown,omitempty"`
	Extras       Extras          `json:"extras,omitempty"`
}

// Validate checks message invariants. A message cannot span conversations:
// when both the message conversation and the recipient's conversation scope
// are set, their ids must match.
func (m Message) Validate() error {
	if m.Conversation.ID == "" || m.To.Conversation.ID == "" {
		return nil
	}
	if m.Conversation.ID != m.To.Conversation.ID {
		return ErrConversationMismatch
	}
	return nil
}

// BuildReply constructs a reply to orig with the given body: the robot becomes
// the sender and the original sender the recipient, within the same
// conversation. Mentions, extras and the parent reference are reset; a reply
// does not inherit them.
func BuildReply(orig Message, body string) Message {
	return Message{
		Body: body,
		From: SenderIdentity{ID: orig.To.ID},
		To: RobotIdentity{
			ID:           orig.From.ID,
			Conversation: orig.Conversation,
		},
		Conversation: orig.Conversation,
	}
}
