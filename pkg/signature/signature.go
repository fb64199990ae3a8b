// Package signature signs and verifies request bodies exchanged between the
// processor and the ingestion service.
//
// The MAC is computed over the exact bytes that travel on the wire. Callers
// must sign the serialized body they send and verify the raw body they read,
// never a re-encoded copy.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

// Header carries the hex encoded HMAC-SHA256 of the request body.
const Header = "X-Shopify-Hmac-SHA256"

var (
	ErrMissingSignature = errors.New("missing_signature")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrMissingSecret    = errors.New("missing_secret")
)

// Sign returns the hex encoded HMAC-SHA256 of body keyed by secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is the signature of body under secret.
func Verify(body []byte, sig, secret string) bool {
	sig = strings.ToLower(strings.TrimSpace(sig))
	if sig == "" || secret == "" {
		return false
	}
	expected := Sign(body, secret)
	return hmac.Equal([]byte(sig), []byte(expected))
}

// SignRequest sets the signature header on req for body.
func SignRequest(req *http.Request, body []byte, secret string) error {
	if secret == "" {
		return ErrMissingSecret
	}
	req.Header.Set(Header, Sign(body, secret))
	return nil
}

// VerifyHeaders checks the signature header against the raw body.
func VerifyHeaders(body []byte, headers http.Header, secret string) error {
	if secret == "" {
		return ErrMissingSecret
	}
	sig := strings.TrimSpace(headers.Get(Header))
	if sig == "" {
		return ErrMissingSignature
	}
	if !Verify(body, sig, secret) {
		return ErrInvalidSignature
	}
	return nil
}
