package relay

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dingrelay/dingrelay/internal/dingtalk"
	"github.com/dingrelay/dingrelay/internal/domain"
	"github.com/dingrelay/dingrelay/internal/logging"
	"github.com/dingrelay/dingrelay/internal/store"
)

// Sender delivers an encoded payload to an endpoint.
type Sender interface {
	Send(ctx context.Context, endpoint dingtalk.Endpoint, payload []byte) error
}

// Options tune relay behavior.
type Options struct {
	// Keyword is appended to every outbound body; see ApplyKeywordSuffix.
	Keyword string
	// Markdown renders outbound messages as markdown even when the message
	// itself does not ask for it.
	Markdown bool
}

// Relay captures credentials from inbound deliveries and sends outbound
// messages through the best available endpoint.
type Relay struct {
	resolver *Resolver
	creds    CredentialStore
	sender   Sender
	opts     Options
	log      *logging.Logger
	now      func() time.Time
}

// New creates a relay over the given credential store and sender.
func New(creds CredentialStore, sender Sender, opts Options, log *logging.Logger) *Relay {
	return &Relay{
		resolver: NewResolver(creds),
		creds:    creds,
		sender:   sender,
		opts:     opts,
		log:      log.Sub("relay"),
		now:      time.Now,
	}
}

// HandleInbound decodes a raw webhook delivery and captures the session
// webhook it carries, keyed by (robot, conversation). Capture happens before
// the message is handed to any consumer, so a reply sent from the handler
// already sees the fresh webhook. A capture failure is logged but does not
// fail the delivery; the permanent token path may still work.
func (r *Relay) HandleInbound(raw []byte) (domain.Message, error) {
	msg, err := dingtalk.DecodeMessage(raw)
	if err != nil {
		return domain.Message{}, err
	}

	if url, ok := msg.Extras[domain.ExtraSessionWebhook]; ok {
		key := store.CredentialKey{RobotID: msg.To.ID, ConversationID: msg.Conversation.ID}
		expiresAt, err := strconv.ParseInt(msg.Extras[domain.ExtraSessionWebhookExpiry], 10, 64)
		if err != nil || expiresAt <= 0 {
			// A webhook with no usable deadline would be stored permanently
			// hidden; skip it and wait for the next delivery.
			r.log.Warn().Str("key", key.String()).Msg("ignoring session webhook with invalid expiry")
			return msg, nil
		}
		if err := r.creds.SetTemporaryWebhook(key, url, expiresAt); err != nil {
			r.log.Error().Err(err).Str("key", key.String()).Msg("failed to capture session webhook")
		} else {
			r.log.Debug().Str("key", key.String()).Int64("expiresAt", expiresAt).Msg("session webhook captured")
		}
	}

	return msg, nil
}

// Send validates the message, resolves a delivery endpoint for its robot and
// conversation, applies the keyword policy and posts the encoded payload.
func (r *Relay) Send(ctx context.Context, msg domain.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	key, err := r.credentialKey(msg)
	if err != nil {
		return err
	}

	endpoint, err := r.resolver.ResolveSendTarget(key, r.now())
	if err != nil {
		return err
	}

	out := msg
	out.Body = ApplyKeywordSuffix(msg.Body, r.opts.Keyword)

	variant := dingtalk.VariantText
	if msg.Markdown || r.opts.Markdown {
		variant = dingtalk.VariantMarkdown
	}
	payload, err := dingtalk.EncodeMessage(out, variant)
	if err != nil {
		return fmt.Errorf("encoding outbound message: %w", err)
	}

	if err := r.sender.Send(ctx, endpoint, payload); err != nil {
		return err
	}
	r.log.Info().
		Str("key", key.String()).
		Str("endpoint", string(endpoint.Kind)).
		Str("variant", string(variant)).
		Msg("message sent")
	return nil
}

// credentialKey derives the (robot, conversation) scope of an outbound
// message. On replies the robot is the sender; messages decoded straight off
// the wire instead carry the robot id in extras.
func (r *Relay) credentialKey(msg domain.Message) (store.CredentialKey, error) {
	robotID := msg.From.ID
	if robotID == "" {
		robotID = msg.Extras[domain.ExtraRobotUserID]
	}
	conversationID := msg.Conversation.ID
	if conversationID == "" {
		conversationID = msg.To.Conversation.ID
	}
	if robotID == "" || conversationID == "" {
		return store.CredentialKey{}, fmt.Errorf("message has no robot/conversation scope (robot=%q conversation=%q)", robotID, conversationID)
	}
	return store.CredentialKey{RobotID: robotID, ConversationID: conversationID}, nil
}
