// Package signx implements the keyed integrity tag over access-token
// payloads and the URL-safe wire encoding used to carry a payload and
// its signature as a single opaque token string.
package signx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrMalformed reports a token string that could not be decoded into a
// payload and signature pair.
var ErrMalformed = errors.New("signx: malformed token")

// Signer computes and checks HMAC-SHA256 tags under a process-wide
// secret. The secret is fixed for the lifetime of the Signer; rotating
// it invalidates every signature minted under the old secret.
type Signer struct {
	secret []byte
}

// New returns a Signer keyed with the given secret.
func New(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the hex-encoded HMAC-SHA256 digest of payload.
// Pure function of (payload, secret); never fails.
func (s *Signer) Sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the tag for payload and compares it to sig in
// constant time. A malformed sig simply fails the comparison.
func (s *Signer) Verify(payload, sig string) bool {
	expected := s.Sign(payload)
	return hmac.Equal([]byte(expected), []byte(sig))
}

// EncodeToken packs payload and sig into a single base64url token
// (no padding) suitable for a query parameter.
func EncodeToken(payload, sig string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(payload + ":" + sig))
}

// DecodeToken unpacks a token produced by EncodeToken. Input is
// accepted with or without base64 padding since ad networks and
// browsers are not consistent about preserving trailing '='.
//
// The signature is everything after the LAST colon; the payload itself
// contains a colon ("{subject}:{issuedAt}").
func DecodeToken(encoded string) (payload, sig string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return "", "", ErrMalformed
	}

	decoded := string(raw)
	i := strings.LastIndexByte(decoded, ':')
	if i <= 0 || i == len(decoded)-1 {
		return "", "", ErrMalformed
	}

	return decoded[:i], decoded[i+1:], nil
}
