// Package relay bridges the webhook receiver and the outbound robot protocol:
// it captures session credentials from inbound traffic, resolves the delivery
// endpoint for outbound messages, and applies the group keyword policy.
package relay

import (
	"errors"
	"fmt"
	"time"

	"github.com/dingrelay/dingrelay/internal/dingtalk"
	"github.com/dingrelay/dingrelay/internal/store"
)

// ErrNoCredential is returned when neither a permanent token nor a usable
// session webhook exists for a credential key.
var ErrNoCredential = errors.New("no usable credential")

// CredentialStore is the persistence contract the relay needs. Both the
// sqlite-backed and the in-memory store satisfy it.
type CredentialStore interface {
	PermanentToken(key store.CredentialKey) (string, bool)
	SetPermanentToken(key store.CredentialKey, value string) error
	TemporaryWebhook(key store.CredentialKey, now time.Time) (string, bool)
	SetTemporaryWebhook(key store.CredentialKey, url string, expiresAt int64) error
}

// Resolver picks the outbound endpoint for a credential key.
type Resolver struct {
	creds CredentialStore
}

// NewResolver creates a resolver over the given credential store.
func NewResolver(creds CredentialStore) *Resolver {
	return &Resolver{creds: creds}
}

// ResolveSendTarget returns the delivery endpoint for the key. A non-empty
// permanent token always wins over a session webhook, even a fresh one:
// operator-supplied tokens do not expire and survive restarts. An empty stored
// token counts as absent. The webhook is the fallback, and only while its
// expiry leaves the skew margin unspent.
func (r *Resolver) ResolveSendTarget(key store.CredentialKey, now time.Time) (dingtalk.Endpoint, error) {
	if token, ok := r.creds.PermanentToken(key); ok && token != "" {
		return dingtalk.Endpoint{
			Kind: dingtalk.EndpointPermanent,
			URL:  dingtalk.PermanentSendURL(token),
		}, nil
	}
	if url, ok := r.creds.TemporaryWebhook(key, now); ok {
		return dingtalk.Endpoint{Kind: dingtalk.EndpointTemporary, URL: url}, nil
	}
	return dingtalk.Endpoint{}, fmt.Errorf("%w for %s", ErrNoCredential, key)
}

// ApplyKeywordSuffix appends the configured security keyword on its own line.
// Group robots configured with keyword filtering silently drop messages that
// do not contain the keyword; appending it keeps every relayed message
// deliverable. An empty keyword leaves the body untouched.
func ApplyKeywordSuffix(body, keyword string) string {
	if keyword == "" {
		return body
	}
	return body + "\n" + keyword
}
