package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adflow/filegate/internal/gate/cache"
	"github.com/adflow/filegate/internal/gate/domain"
	"github.com/adflow/filegate/internal/gate/shortener"
	"github.com/adflow/filegate/internal/gate/store"
	"github.com/adflow/filegate/pkg/idx"
	"github.com/adflow/filegate/pkg/signx"
	"github.com/adflow/filegate/pkg/slogx"
)

var (
	ErrInvalidSubject   = errors.New("invalid subject id")
	ErrMalformedToken   = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrTokenNotFound    = errors.New("token not found")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenAlreadyUsed = errors.New("token has already been used")
)

// TokenService owns the token lifecycle: minting pending tokens behind
// an ad-wrapped URL, redeeming them exactly once, and answering the
// standing-access question.
type TokenService struct {
	Store  store.Store
	Signer *signx.Signer

	// Shortener wraps the verification URL behind the ad network.
	// Optional; issuance returns the plain URL when unset.
	Shortener *shortener.Client

	// Cache holds positive access results. Optional; the store is
	// always authoritative.
	Cache *cache.AccessCache

	// BaseURL is the externally reachable origin of the verification
	// endpoints, without a trailing slash.
	BaseURL string

	// PendingWindow bounds how long an unredeemed token stays valid.
	PendingWindow time.Duration

	// AccessWindow is the grant duration applied at redemption.
	AccessWindow time.Duration

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue mints a new pending access token for subjectID and returns the
// outward-facing (ad-wrapped) verification URL.
//
// Re-issuing is always safe: each call creates an independent pending
// record. Callers wanting to spare a user who already holds access
// should check HasAccess first.
func (s *TokenService) Issue(ctx context.Context, subjectID string) (string, error) {
	log := slogx.FromContext(ctx)

	// Subject IDs are embedded in the "{subject}:{issuedAt}" payload,
	// so a colon would corrupt the wire format.
	if subjectID == "" || strings.ContainsRune(subjectID, ':') {
		return "", ErrInvalidSubject
	}

	issuedAt := s.now()
	payload := fmt.Sprintf("%s:%d", subjectID, issuedAt.Unix())
	sig := s.Signer.Sign(payload)

	token := domain.AccessToken{
		ID:        idx.New().String(),
		SubjectID: subjectID,
		Payload:   payload,
		Signature: sig,
		IssuedAt:  issuedAt,
		Redeemed:  false,
		ExpiresAt: issuedAt.Add(s.PendingWindow),
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tokens().CreateToken(ctx, token); err != nil {
			// Same subject in the same second builds the identical
			// payload and signature, so the existing row already IS
			// this token; issuing must stay safe to repeat.
			if !errors.Is(err, store.ErrAlreadyExists) {
				return err
			}
		}
		return tx.Subjects().UpsertSubject(ctx, subjectID, issuedAt)
	})
	if err != nil {
		log.Error("failed to persist pending token",
			slog.String("subject_id", subjectID),
			slog.Any("error", err),
		)
		return "", err
	}

	verifyURL := s.BaseURL + "/watch?data=" + signx.EncodeToken(payload, sig)

	// Shortening failures degrade to the unshortened URL; the ad
	// network being down must never block issuance.
	outwardURL := verifyURL
	if s.Shortener != nil {
		outwardURL = s.Shortener.Shorten(ctx, verifyURL)
	}

	log.Debug("pending token issued",
		slog.String("token_id", token.ID),
		slog.String("subject_id", subjectID),
		slog.Time("expires_at", token.ExpiresAt),
		slog.Bool("shortened", outwardURL != verifyURL),
	)

	return outwardURL, nil
}

// Inspect validates an encoded token without mutating it: signature,
// existence, expiry and redemption state. Used by the interstitial
// page before sending the user through the ad flow.
func (s *TokenService) Inspect(ctx context.Context, encodedToken string) (domain.AccessToken, error) {
	payload, sig, err := signx.DecodeToken(encodedToken)
	if err != nil {
		return domain.AccessToken{}, ErrMalformedToken
	}

	if !s.Signer.Verify(payload, sig) {
		return domain.AccessToken{}, ErrInvalidSignature
	}

	rec, err := s.Store.Tokens().GetTokenByPayloadSig(ctx, payload, sig)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AccessToken{}, ErrTokenNotFound
		}
		return domain.AccessToken{}, err
	}

	if s.now().After(rec.ExpiresAt) {
		return domain.AccessToken{}, ErrTokenExpired
	}
	if rec.Redeemed {
		return domain.AccessToken{}, ErrTokenAlreadyUsed
	}

	return rec, nil
}

// Redeem converts a pending token into an access grant, exactly once.
// It returns the subject the grant belongs to.
//
// The signature check runs before any store access so forged tokens are
// rejected without a storage round-trip. The state transition itself is
// a single conditional update: when two redemptions race, exactly one
// wins and the loser sees ErrTokenAlreadyUsed.
func (s *TokenService) Redeem(ctx context.Context, encodedToken string) (string, error) {
	log := slogx.FromContext(ctx)

	payload, sig, err := signx.DecodeToken(encodedToken)
	if err != nil {
		return "", ErrMalformedToken
	}

	if !s.Signer.Verify(payload, sig) {
		log.Warn("redemption attempted with forged or stale signature")
		return "", ErrInvalidSignature
	}

	// A correctly signed payload still has to carry a subject; a
	// payload without the separator never came from Issue.
	sep := strings.IndexByte(payload, ':')
	if sep < 0 {
		return "", ErrMalformedToken
	}
	subjectID := payload[:sep]

	rec, err := s.Store.Tokens().GetTokenByPayloadSig(ctx, payload, sig)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		log.Error("failed to fetch token", slog.Any("error", err))
		return "", err
	}

	now := s.now()
	if now.After(rec.ExpiresAt) {
		return "", ErrTokenExpired
	}
	if rec.Redeemed {
		return "", ErrTokenAlreadyUsed
	}

	// The redeemed=0 guard in the update is the only serialization
	// point; in-process locking would not survive multiple instances.
	newExpiry := now.Add(s.AccessWindow)
	ok, err := s.Store.Tokens().MarkTokenRedeemed(ctx, payload, sig, now, newExpiry)
	if err != nil {
		log.Error("failed to mark token redeemed", slog.Any("error", err))
		return "", err
	}
	if !ok {
		// Lost the race to a concurrent redemption.
		return "", ErrTokenAlreadyUsed
	}

	if s.Cache != nil {
		if err := s.Cache.GrantAccess(ctx, subjectID, s.AccessWindow); err != nil {
			log.Warn("failed to prime access cache", slog.Any("error", err))
		}
	}

	log.Info("token redeemed",
		slog.String("token_id", rec.ID),
		slog.String("subject_id", subjectID),
		slog.Time("access_until", newExpiry),
	)

	return subjectID, nil
}

// HasAccess reports whether subjectID currently holds a redeemed,
// unexpired grant. Pure read; the cache only ever short-circuits a
// positive answer that the store would also give.
func (s *TokenService) HasAccess(ctx context.Context, subjectID string) (bool, error) {
	if s.Cache != nil && s.Cache.HasAccess(ctx, subjectID) {
		return true, nil
	}
	return s.Store.Tokens().HasValidAccess(ctx, subjectID, s.now())
}
