package domain

import "time"

// AccessToken is one issuance cycle of the ad gate: minted as a pending
// record, redeemed exactly once, then acting as the subject's access
// grant until ExpiresAt.
type AccessToken struct {
	ID        string
	SubjectID string
	// Payload is the exact signed string "{subjectID}:{issuedAtUnix}".
	Payload string
	// Signature is the hex HMAC-SHA256 of Payload. It is re-derived at
	// verification time, never trusted from storage when validating
	// external input.
	Signature  string
	IssuedAt   time.Time
	Redeemed   bool
	RedeemedAt *time.Time // nil until redemption
	// ExpiresAt is issuedAt+pendingWindow while pending; replaced with
	// redeemedAt+accessWindow on redemption.
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
