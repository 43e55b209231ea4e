package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// SkewMargin is the safety window subtracted from a temporary webhook's expiry
// deadline, guarding against clock drift between the platform and this process.
const SkewMargin = 10 * time.Minute

// CredentialKey identifies the credential scope: one robot in one conversation.
type CredentialKey struct {
	RobotID        string `json:"robotId"`
	ConversationID string `json:"conversationId"`
}

// String returns a canonical string form of the key.
func (k CredentialKey) String() string {
	return k.RobotID + ":" + k.ConversationID
}

// keyLocks hands out one mutex per credential key so writes to the same key
// are serialized while writes to different keys never block each other.
// Entries are never removed; the keyspace is bounded by active conversations.
type keyLocks struct {
	mu    sync.Mutex
	locks map[CredentialKey]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[CredentialKey]*sync.Mutex)}
}

func (kl *keyLocks) get(key CredentialKey) *sync.Mutex {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	m, ok := kl.locks[key]
	if !ok {
		m = &sync.Mutex{}
		kl.locks[key] = m
	}
	return m
}

// SQLiteCredentialStore persists robot credentials in two independent
// namespaces: permanent access tokens and temporary session webhooks.
type SQLiteCredentialStore struct {
	db    *DB
	locks *keyLocks
}

// NewSQLiteCredentialStore creates a credential store using the given database.
func NewSQLiteCredentialStore(db *DB) *SQLiteCredentialStore {
	return &SQLiteCredentialStore{db: db, locks: newKeyLocks()}
}

// PermanentToken returns the stored access token for the key, or ok=false when
// none is stored (or the read failed; failures are logged, never raised).
func (s *SQLiteCredentialStore) PermanentToken(key CredentialKey) (string, bool) {
	var token string
	err := s.db.sql.QueryRow(
		`SELECT access_token FROM robot_tokens WHERE robot_id = ? AND conversation_id = ?`,
		key.RobotID, key.ConversationID,
	).Scan(&token)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.db.log.Error().Err(err).Str("key", key.String()).Msg("failed to read access token")
		}
		return "", false
	}
	return token, true
}

// SetPermanentToken stores or overwrites the access token for the key.
func (s *SQLiteCredentialStore) SetPermanentToken(key CredentialKey, value string) error {
	lock := s.locks.get(key)
	lock.Lock()
	defer lock.Unlock()

	_, err := s.db.sql.Exec(
		`INSERT INTO robot_tokens (robot_id, conversation_id, access_token, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(robot_id, conversation_id) DO UPDATE SET
		   access_token = excluded.access_token,
		   updated_at = excluded.updated_at`,
		key.RobotID, key.ConversationID, value, time.Now().Format(time.DateTime),
	)
	if err != nil {
		s.db.log.Error().Err(err).Str("key", key.String()).Msg("failed to store access token")
		return fmt.Errorf("storing access token for %s: %w", key, err)
	}
	return nil
}

// TemporaryWebhook returns the session webhook URL for the key if it is still
// usable at the given time, applying the skew margin. Expired entries are
// hidden, not purged; the platform re-issues webhooks on inbound traffic.
func (s *SQLiteCredentialStore) TemporaryWebhook(key CredentialKey, now time.Time) (string, bool) {
	var url string
	var expiresAt int64
	err := s.db.sql.QueryRow(
		`SELECT webhook_url, expires_at FROM session_webhooks WHERE robot_id = ? AND conversation_id = ?`,
		key.RobotID, key.ConversationID,
	).Scan(&url, &expiresAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.db.log.Error().Err(err).Str("key", key.String()).Msg("failed to read session webhook")
		}
		return "", false
	}
	if !Usable(expiresAt, now) {
		return "", false
	}
	return url, true
}

// SetTemporaryWebhook stores or overwrites the session webhook for the key.
// Overwrites are unconditional, even with an earlier expiry: the platform is
// the source of truth for freshness, not the store.
func (s *SQLiteCredentialStore) SetTemporaryWebhook(key CredentialKey, url string, expiresAt int64) error {
	lock := s.locks.get(key)
	lock.Lock()
	defer lock.Unlock()

	_, err := s.db.sql.Exec(
		`INSERT INTO session_webhooks (robot_id, conversation_id, webhook_url, expires_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(robot_id, conversation_id) DO UPDATE SET
		   webhook_url = excluded.webhook_url,
		   expires_at = excluded.expires_at,
		   updated_at = excluded.updated_at`,
		key.RobotID, key.ConversationID, url, expiresAt, time.Now().Format(time.DateTime),
	)
	if err != nil {
		s.db.log.Error().Err(err).Str("key", key.String()).Msg("failed to store session webhook")
		return fmt.Errorf("storing session webhook for %s: %w", key, err)
	}
	return nil
}

// Usable reports whether a webhook expiring at expiresAt (epoch millis) may
// still be used at the given time, leaving the skew margin unspent.
func Usable(expiresAt int64, now time.Time) bool {
	return now.UnixMilli()+SkewMargin.Milliseconds() < expiresAt
}
