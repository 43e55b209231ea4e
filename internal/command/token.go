// Package command implements in-conversation operator commands. The only one
// today is the token command, which lets a group member hand the relay a
// permanent access token by messaging the robot directly.
package command

import (
	"regexp"
	"strings"

	"github.com/dingrelay/dingrelay/internal/domain"
	"github.com/dingrelay/dingrelay/internal/logging"
	"github.com/dingrelay/dingrelay/internal/store"
)

// tokenPattern matches operator messages like "Token是xxxx", "token:xxxx",
// "本群机器人Token是xxxx". The prefixes are optional politeness; only the
// token value after 是/: matters.
var tokenPattern = regexp.MustCompile(`^(本群)?(机器人)?[Tt]oken(是|:)\s*(\S*)`)

const (
	promptReply  = "请发送「Token是<访问令牌>」为本群设置机器人 token。"
	confirmReply = "本群机器人 token 已更新。"
)

// MatchToken reports whether body is a token command and extracts the token
// value. matched=true with an empty token means the operator asked without
// supplying a value.
func MatchToken(body string) (token string, matched bool) {
	m := tokenPattern.FindStringSubmatch(strings.TrimSpace(body))
	if m == nil {
		return "", false
	}
	return m[4], true
}

// TokenStore reads and stores permanent tokens for a credential key.
type TokenStore interface {
	PermanentToken(key store.CredentialKey) (string, bool)
	SetPermanentToken(key store.CredentialKey, value string) error
}

// Responder handles token commands arriving as chat messages.
type Responder struct {
	tokens TokenStore
	log    *logging.Logger
}

// NewResponder creates a token command responder.
func NewResponder(tokens TokenStore, log *logging.Logger) *Responder {
	return &Responder{tokens: tokens, log: log.Sub("command")}
}

// Respond inspects an inbound message for a token command. The command only
// engages while the message's (robot, conversation) scope has no permanent
// token yet: once an operator has configured one, "Token是…" is just chat and
// flows on untouched, so group members cannot overwrite the credential.
// Non-command messages return handled=false and are the caller's problem.
func (r *Responder) Respond(msg domain.Message) (reply string, handled bool, err error) {
	token, matched := MatchToken(msg.Body)
	if !matched {
		return "", false, nil
	}

	key := store.CredentialKey{RobotID: msg.To.ID, ConversationID: msg.Conversation.ID}
	if existing, ok := r.tokens.PermanentToken(key); ok && existing != "" {
		return "", false, nil
	}
	if token == "" {
		return promptReply, true, nil
	}

	if err := r.tokens.SetPermanentToken(key, token); err != nil {
		return "", true, err
	}
	r.log.Info().Str("key", key.String()).Msg("permanent token set via chat command")
	return confirmReply, true, nil
}
