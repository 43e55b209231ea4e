package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// signMaxSkew bounds how far a signed request's timestamp may drift from the
// local clock before the request is rejected as stale.
const signMaxSkew = time.Hour

var (
	ErrSignatureMissing = errors.New("missing signature headers")
	ErrSignatureStale   = errors.New("signature timestamp too old")
	ErrSignatureInvalid = errors.New("signature mismatch")
)

// VerifySignature checks the platform's outgoing-request signature: the
// timestamp header (epoch millis) joined with the app secret by a newline,
// HMAC-SHA256 signed with the secret and base64 encoded.
func VerifySignature(secret, timestamp, sign string, now time.Time) error {
	if timestamp == "" || sign == "" {
		return ErrSignatureMissing
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp %q", ErrSignatureInvalid, timestamp)
	}
	drift := now.Sub(time.UnixMilli(ts))
	if drift < 0 {
		drift = -drift
	}
	if drift > signMaxSkew {
		return ErrSignatureStale
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "\n" + secret))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(sign)) != 1 {
		return ErrSignatureInvalid
	}
	return nil
}

// Signature computes the signature value for a timestamp, the counterpart of
// VerifySignature. Exported for tests and local tooling.
func Signature(secret, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "\n" + secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
