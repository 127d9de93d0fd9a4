package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/adflow/filegate/internal/gate/domain"
	"github.com/adflow/filegate/internal/gate/store"
)

// isUniqueViolation reports whether err is the driver's uniqueness
// constraint error, matched by extended result code rather than by
// message text.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

type tokensRepo struct {
	db dbtx
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.AccessToken) error {
	now := time.Now().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_tokens (
			id, subject_id, payload, sig, issued_at,
			redeemed, redeemed_at, expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SubjectID, t.Payload, t.Signature, toUnix(t.IssuedAt),
		t.Redeemed, toNullUnix(t.RedeemedAt), toUnix(t.ExpiresAt), now, now,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *tokensRepo) GetTokenByPayloadSig(
	ctx context.Context,
	payload, sig string,
) (domain.AccessToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, subject_id, payload, sig, issued_at,
		       redeemed, redeemed_at, expires_at, created_at, updated_at
		FROM access_tokens
		WHERE payload = ? AND sig = ?`,
		payload, sig,
	)
	return scanToken(row)
}

func (r *tokensRepo) MarkTokenRedeemed(
	ctx context.Context,
	payload, sig string,
	redeemedAt, expiresAt time.Time,
) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE access_tokens
		SET redeemed = 1, redeemed_at = ?, expires_at = ?, updated_at = ?
		WHERE payload = ? AND sig = ? AND redeemed = 0`,
		toUnix(redeemedAt), toUnix(expiresAt), time.Now().Unix(),
		payload, sig,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *tokensRepo) HasValidAccess(
	ctx context.Context,
	subjectID string,
	now time.Time,
) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM access_tokens
		WHERE subject_id = ? AND redeemed = 1 AND expires_at > ?`,
		subjectID, toUnix(now),
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM access_tokens WHERE expires_at <= ?`, toUnix(now))
	return err
}

func (r *tokensRepo) CountTokens(ctx context.Context) (issued, redeemed int64, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(1), COALESCE(SUM(redeemed), 0) FROM access_tokens`,
	).Scan(&issued, &redeemed)
	return issued, redeemed, err
}

func (r *tokensRepo) CountActiveGrants(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM access_tokens
		WHERE redeemed = 1 AND expires_at > ?`,
		toUnix(now),
	).Scan(&n)
	return n, err
}

func scanToken(row *sql.Row) (domain.AccessToken, error) {
	var (
		t                    domain.AccessToken
		issuedAt, expiresAt  int64
		createdAt, updatedAt int64
		redeemedAt           sql.NullInt64
	)
	err := row.Scan(
		&t.ID, &t.SubjectID, &t.Payload, &t.Signature, &issuedAt,
		&t.Redeemed, &redeemedAt, &expiresAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.AccessToken{}, mapNotFound(err)
	}

	t.IssuedAt = fromUnix(issuedAt)
	t.RedeemedAt = fromNullUnix(redeemedAt)
	t.ExpiresAt = fromUnix(expiresAt)
	t.CreatedAt = fromUnix(createdAt)
	t.UpdatedAt = fromUnix(updatedAt)
	return t, nil
}
