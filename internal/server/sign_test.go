package server

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	secret := "app-secret"
	ts := strconv.FormatInt(now.UnixMilli(), 10)

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, VerifySignature(secret, ts, Signature(secret, ts), now))
	})

	t.Run("missing headers", func(t *testing.T) {
		assert.ErrorIs(t, VerifySignature(secret, "", "", now), ErrSignatureMissing)
		assert.ErrorIs(t, VerifySignature(secret, ts, "", now), ErrSignatureMissing)
	})

	t.Run("wrong secret", func(t *testing.T) {
		err := VerifySignature(secret, ts, Signature("other-secret", ts), now)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("tampered signature", func(t *testing.T) {
		err := VerifySignature(secret, ts, "bm90IGEgcmVhbCBzaWduYXR1cmU=", now)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("non-numeric timestamp", func(t *testing.T) {
		err := VerifySignature(secret, "yesterday", Signature(secret, "yesterday"), now)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		old := strconv.FormatInt(now.Add(-2*time.Hour).UnixMilli(), 10)
		err := VerifySignature(secret, old, Signature(secret, old), now)
		assert.ErrorIs(t, err, ErrSignatureStale)
	})

	t.Run("future timestamp", func(t *testing.T) {
		future := strconv.FormatInt(now.Add(2*time.Hour).UnixMilli(), 10)
		err := VerifySignature(secret, future, Signature(secret, future), now)
		assert.ErrorIs(t, err, ErrSignatureStale)
	})

	t.Run("within skew window", func(t *testing.T) {
		recent := strconv.FormatInt(now.Add(-30*time.Minute).UnixMilli(), 10)
		assert.NoError(t, VerifySignature(secret, recent, Signature(secret, recent), now))
	})
}
