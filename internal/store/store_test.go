package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dingrelay/dingrelay/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// credentialStore is the shared contract both implementations must satisfy.
type credentialStore interface {
	PermanentToken(key CredentialKey) (string, bool)
	SetPermanentToken(key CredentialKey, value string) error
	TemporaryWebhook(key CredentialKey, now time.Time) (string, bool)
	SetTemporaryWebhook(key CredentialKey, url string, expiresAt int64) error
}

func eachStore(t *testing.T, fn func(t *testing.T, s credentialStore)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewSQLiteCredentialStore(testDB(t)))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryCredentialStore())
	})
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	err := db.migrate()
	require.NoError(t, err)

	var count int
	err = db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestSchema_TablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"robot_tokens", "session_webhooks"}
	for _, table := range tables {
		var name string
		err := db.sql.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

// --- Credential key tests ---

func TestCredentialKeyString(t *testing.T) {
	key := CredentialKey{RobotID: "r1", ConversationID: "c1"}
	assert.Equal(t, "r1:c1", key.String())
}

// --- Permanent token tests ---

func TestPermanentToken_Missing(t *testing.T) {
	eachStore(t, func(t *testing.T, s credentialStore) {
		_, ok := s.PermanentToken(CredentialKey{RobotID: "r1", ConversationID: "c1"})
		assert.False(t, ok)
	})
}

func TestSetPermanentToken_Idempotent(t *testing.T) {
	eachStore(t, func(t *testing.T, s credentialStore) {
		key := CredentialKey{RobotID: "r1", ConversationID: "c1"}

		require.NoError(t, s.SetPermanentToken(key, "A"))
		require.NoError(t, s.SetPermanentToken(key, "A"))

		token, ok := s.PermanentToken(key)
		require.True(t, ok)
		assert.Equal(t, "A", token)
	})
}

func TestSetPermanentToken_Overwrites(t *testing.T) {
	eachStore(t, func(t *testing.T, s credentialStore) {
		key := CredentialKey{RobotID: "r1", ConversationID: "c1"}

		require.NoError(t, s.SetPermanentToken(key, "old"))
		require.NoError(t, s.SetPermanentToken(key, "new"))

		token, ok := s.PermanentToken(key)
		require.True(t, ok)
		assert.Equal(t, "new", token)
	})
}

func TestPermanentToken_KeysAreIndependent(t *testing.T) {
	eachStore(t, func(t *testing.T, s credentialStore) {
		k1 := CredentialKey{RobotID: "r1", ConversationID: "c1"}
		k2 := CredentialKey{RobotID: "r1", ConversationID: "c2"}

		require.NoError(t, s.SetPermanentToken(k1, "T1"))

		_, ok := s.PermanentToken(k2)
		assert.False(t, ok)
	})
}

// --- Temporary webhook tests ---

func TestTemporaryWebhook_Missing(t *testing.T) {
	eachStore(t, func(t *testing.T, s credentialStore) {
		_, ok := s.TemporaryWebhook(CredentialKey{RobotID: "r1", ConversationID: "c1"}, time.Now())
		assert.False(t, ok)
	})
}

func TestTemporaryWebhook_ExpiryBoundary(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	margin := SkewMargin.Milliseconds()

	tests := []struct {
		name      string
		expiresAt int64
		usable    bool
	}{
		{"well inside margin", now.UnixMilli() + margin + 500_000, true},
		{"one millisecond past margin", now.UnixMilli() + margin + 1, true},
		{"exactly at margin", now.UnixMilli() + margin, false},
		{"one millisecond short", now.UnixMilli() + margin - 1, false},
		{"inside margin", now.UnixMilli() + 500_000, false},
		{"already expired", now.UnixMilli() - 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eachStore(t, func(t *testing.T, s credentialStore) {
				key := CredentialKey{RobotID: "r1", ConversationID: "c1"}
				require.NoError(t, s.SetTemporaryWebhook(key, "https://example.com/hook", tt.expiresAt))

				url, ok := s.TemporaryWebhook(key, now)
				assert.Equal(t, tt.usable, ok)
				if tt.usable {
					assert.Equal(t, "https://example.com/hook", url)
				}
			})
		})
	}
}

func TestSetTemporaryWebhook_LastWriteWins(t *testing.T) {
	eachStore(t, func(t *testing.T, s credentialStore) {
		now := time.Now()
		key := CredentialKey{RobotID: "r1", ConversationID: "c1"}
		far := now.Add(2 * time.Hour).UnixMilli()
		near := now.Add(time.Hour).UnixMilli()

		require.NoError(t, s.SetTemporaryWebhook(key, "https://example.com/first", far))
		// Overwrite with an earlier expiry still wins
		require.NoError(t, s.SetTemporaryWebhook(key, "https://example.com/second", near))

		url, ok := s.TemporaryWebhook(key, now)
		require.True(t, ok)
		assert.Equal(t, "https://example.com/second", url)
	})
}

func TestCredentialNamespaces_Independent(t *testing.T) {
	eachStore(t, func(t *testing.T, s credentialStore) {
		now := time.Now()
		key := CredentialKey{RobotID: "r1", ConversationID: "c1"}

		require.NoError(t, s.SetPermanentToken(key, "T1"))
		require.NoError(t, s.SetTemporaryWebhook(key, "https://example.com/hook", now.Add(time.Hour).UnixMilli()))

		token, ok := s.PermanentToken(key)
		require.True(t, ok)
		assert.Equal(t, "T1", token)

		url, ok := s.TemporaryWebhook(key, now)
		require.True(t, ok)
		assert.Equal(t, "https://example.com/hook", url)
	})
}

func TestConcurrentWrites_SameKey(t *testing.T) {
	eachStore(t, func(t *testing.T, s credentialStore) {
		now := time.Now()
		key := CredentialKey{RobotID: "r1", ConversationID: "c1"}
		expiry := now.Add(time.Hour).UnixMilli()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				url := fmt.Sprintf("https://example.com/hook/%d", i)
				assert.NoError(t, s.SetTemporaryWebhook(key, url, expiry))
			}(i)
		}
		wg.Wait()

		// One of the writes won; the value is a complete URL, not a torn write.
		url, ok := s.TemporaryWebhook(key, now)
		require.True(t, ok)
		assert.Contains(t, url, "https://example.com/hook/")
	})
}

func TestUsable(t *testing.T) {
	now := time.UnixMilli(1_000_000)
	assert.True(t, Usable(now.UnixMilli()+SkewMargin.Milliseconds()+1, now))
	assert.False(t, Usable(now.UnixMilli()+SkewMargin.Milliseconds(), now))
	assert.False(t, Usable(0, now))
}
