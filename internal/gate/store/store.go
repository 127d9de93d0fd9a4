package store

import (
	"context"
	"errors"
	"time"

	"github.com/adflow/filegate/internal/gate/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. Sub-repositories keep concerns tidy and let
// transactional code reuse the same interface.
type Store interface {
	Tokens() Tokens
	Subjects() Subjects

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn
	// returns nil and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Tokens interface {
	// CreateToken inserts a new pending access token (id is ULID).
	CreateToken(ctx context.Context, t domain.AccessToken) error

	// GetTokenByPayloadSig fetches a token by its composite
	// (payload, signature) key. The payload alone is not unique.
	GetTokenByPayloadSig(ctx context.Context, payload, sig string) (domain.AccessToken, error)

	// MarkTokenRedeemed is the single serialization point of the gate:
	// a conditional update that flips redeemed 0->1, stamps redeemedAt
	// and replaces expiresAt, all in one statement guarded by
	// redeemed = 0. Returns false when no row matched, i.e. the token
	// was already redeemed (possibly by a concurrent request).
	MarkTokenRedeemed(ctx context.Context, payload, sig string, redeemedAt, expiresAt time.Time) (bool, error)

	// HasValidAccess reports whether a redeemed token exists for the
	// subject with expiresAt after now.
	HasValidAccess(ctx context.Context, subjectID string, now time.Time) (bool, error)

	// DeleteExpiredTokens removes tokens past expiresAt (housekeeping,
	// never a security guard - the read paths recheck expiry).
	DeleteExpiredTokens(ctx context.Context, now time.Time) error

	// CountTokens returns total issued and total redeemed counts.
	CountTokens(ctx context.Context) (issued, redeemed int64, err error)

	// CountActiveGrants returns the number of currently valid grants.
	CountActiveGrants(ctx context.Context, now time.Time) (int64, error)
}

type Subjects interface {
	// UpsertSubject records a subject's first contact; a no-op when the
	// subject is already known.
	UpsertSubject(ctx context.Context, subjectID string, seenAt time.Time) error

	// CountSubjects returns the number of known subjects.
	CountSubjects(ctx context.Context) (int64, error)
}
