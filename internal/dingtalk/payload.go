// Package dingtalk implements the DingTalk group-robot wire protocol:
// decoding inbound webhook payloads into domain messages, encoding outbound
// messages, and delivering them to robot send endpoints.
package dingtalk

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/dingrelay/dingrelay/internal/domain"
)

// ErrMalformedPayload is returned when a required inbound field is missing or
// of the wrong shape. Optional fields never trigger it.
var ErrMalformedPayload = errors.New("malformed payload")

// TextContent is the body container of an inbound text message.
type TextContent struct {
	Content string `json:"content"`
}

// AtUser is an @-mentioned user on the wire.
type AtUser struct {
	DingtalkID string `json:"dingtalkId"`
	StaffID    string `json:"staffId,omitempty"`
}

// Payload mirrors the inbound webhook JSON posted by the platform.
type Payload struct {
	MsgID                     string       `json:"msgId,omitempty"`
	MsgType                   string       `json:"msgtype,omitempty"`
	CreateAt                  int64        `json:"createAt,omitempty"`
	SenderID                  string       `json:"senderId"`
	SenderStaffID             string       `json:"senderStaffId,omitempty"`
	SenderNick                string       `json:"senderNick,omitempty"`
	SenderCorpID              string       `json:"senderCorpId,omitempty"`
	ConversationID            string       `json:"conversationId"`
	ConversationType          string       `json:"conversationType,omitempty"`
	ConversationTitle         string       `json:"conversationTitle,omitempty"`
	ChatbotUserID             string       `json:"chatbotUserId"`
	Text                      *TextContent `json:"text"`
	AtUsers                   []AtUser     `json:"atUsers,omitempty"`
	SessionWebhook            string       `json:"sessionWebhook,omitempty"`
	SessionWebhookExpiredTime int64        `json:"sessionWebhookExpiredTime,omitempty"`
}

// DecodeMessage parses raw webhook JSON into a normalized message.
func DecodeMessage(raw []byte) (domain.Message, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return PayloadToMessage(p)
}

// PayloadToMessage converts a decoded payload into a normalized message.
// Required fields: senderId, conversationId, chatbotUserId, text.content.
// Absent optional fields become zero values, never an error.
func PayloadToMessage(p Payload) (domain.Message, error) {
	switch {
	case p.SenderID == "":
		return domain.Message{}, fmt.Errorf("%w: missing senderId", ErrMalformedPayload)
	case p.ConversationID == "":
		return domain.Message{}, fmt.Errorf("%w: missing conversationId", ErrMalformedPayload)
	case p.ChatbotUserID == "":
		return domain.Message{}, fmt.Errorf("%w: missing chatbotUserId", ErrMalformedPayload)
	case p.Text == nil || p.Text.Content == "":
		return domain.Message{}, fmt.Errorf("%w: missing text.content", ErrMalformedPayload)
	}

	conv := domain.ConversationRef{
		ID:   p.ConversationID,
		Kind: conversationKind(p.ConversationType),
	}
	if conv.Kind == domain.ConversationGroup {
		conv.Title = p.ConversationTitle
	}

	mentions := make([]domain.Mention, 0, len(p.AtUsers))
	for _, at := range p.AtUsers {
		mentions = append(mentions, domain.Mention{ExternalID: at.DingtalkID, StaffID: at.StaffID})
	}

	extras := domain.Extras{domain.ExtraRobotUserID: p.ChatbotUserID}
	if p.ConversationType != "" {
		extras[domain.ExtraConversationType] = p.ConversationType
	}
	if p.SessionWebhook != "" {
		extras[domain.ExtraSessionWebhook] = p.SessionWebhook
		extras[domain.ExtraSessionWebhookExpiry] = strconv.FormatInt(p.SessionWebhookExpiredTime, 10)
	}

	id := p.MsgID
	if id == "" {
		id = uuid.New().String()
	}

	return domain.Message{
		ID:   id,
		Body: p.Text.Content,
		From: domain.SenderIdentity{
			ID:      p.SenderID,
			StaffID: p.SenderStaffID,
			Nick:    p.SenderNick,
			CorpID:  p.SenderCorpID,
		},
		To: domain.RobotIdentity{
			ID:           p.ChatbotUserID,
			Conversation: conv,
		},
		Conversation: conv,
		Mentions:     mentions,
		Extras:       extras,
	}, nil
}

// conversationKind maps the wire conversation type to the domain enum.
// Robots live in groups, so anything other than an explicit "1" is a group.
func conversationKind(wire string) domain.ConversationKind {
	if wire == "1" {
		return domain.ConversationDirect
	}
	return domain.ConversationGroup
}

// Variant selects the outbound wire rendering.
type Variant string

const (
	VariantText     Variant = "text"
	VariantMarkdown Variant = "markdown"
)

// defaultMarkdownTitle is used when the conversation has no title.
const defaultMarkdownTitle = "dingrelay"

type textBody struct {
	Content string `json:"content"`
}

type markdownBody struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type outboundText struct {
	MsgType string   `json:"msgtype"`
	Text    textBody `json:"text"`
}

type outboundMarkdown struct {
	MsgType  string       `json:"msgtype"`
	Markdown markdownBody `json:"markdown"`
}

// EncodeMessage renders a message body in the platform's outbound wire format.
// Shape conversion only; the body arrives with any keyword policy already
// applied.
func EncodeMessage(msg domain.Message, variant Variant) ([]byte, error) {
	if variant == VariantMarkdown {
		title := msg.Conversation.Title
		if title == "" {
			title = defaultMarkdownTitle
		}
		return json.Marshal(outboundMarkdown{
			MsgType:  "markdown",
			Markdown: markdownBody{Title: title, Text: msg.Body},
		})
	}
	return json.Marshal(outboundText{
		MsgType: "text",
		Text:    textBody{Content: msg.Body},
	})
}

// AckEmpty is the acknowledgement body for a successfully handed-off delivery.
func AckEmpty() []byte {
	return []byte(`{"msgtype":"empty"}`)
}
