package store

import (
	"sync"
	"time"
)

type webhookEntry struct {
	url       string
	expiresAt int64
}

// MemoryCredentialStore is an in-memory credential store with the same
// contract as SQLiteCredentialStore. Useful for tests and throwaway setups.
type MemoryCredentialStore struct {
	mu       sync.RWMutex
	tokens   map[CredentialKey]string
	webhooks map[CredentialKey]webhookEntry
}

// NewMemoryCredentialStore creates an empty in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		tokens:   make(map[CredentialKey]string),
		webhooks: make(map[CredentialKey]webhookEntry),
	}
}

// PermanentToken returns the stored access token for the key.
func (s *MemoryCredentialStore) PermanentToken(key CredentialKey) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[key]
	return token, ok
}

// SetPermanentToken stores or overwrites the access token for the key.
func (s *MemoryCredentialStore) SetPermanentToken(key CredentialKey, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[key] = value
	return nil
}

// TemporaryWebhook returns the session webhook URL for the key if still usable.
func (s *MemoryCredentialStore) TemporaryWebhook(key CredentialKey, now time.Time) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.webhooks[key]
	if !ok || !Usable(entry.expiresAt, now) {
		return "", false
	}
	return entry.url, true
}

// SetTemporaryWebhook stores or overwrites the session webhook for the key.
func (s *MemoryCredentialStore) SetTemporaryWebhook(key CredentialKey, url string, expiresAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooks[key] = webhookEntry{url: url, expiresAt: expiresAt}
	return nil
}
