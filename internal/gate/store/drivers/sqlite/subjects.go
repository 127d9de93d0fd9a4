package sqlite

import (
	"context"
	"time"
)

type subjectsRepo struct {
	db dbtx
}

func (r *subjectsRepo) UpsertSubject(ctx context.Context, subjectID string, seenAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subjects (subject_id, first_seen_at)
		VALUES (?, ?)
		ON CONFLICT(subject_id) DO NOTHING`,
		subjectID, toUnix(seenAt),
	)
	return err
}

func (r *subjectsRepo) CountSubjects(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM subjects`).Scan(&n)
	return n, err
}
