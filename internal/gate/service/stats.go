package service

import (
	"context"
	"time"

	"github.com/adflow/filegate/internal/gate/domain"
	"github.com/adflow/filegate/internal/gate/store"
)

// StatsService answers the operational snapshot queries behind the
// admin API.
type StatsService struct {
	Store store.Store

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func (s *StatsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Snapshot returns current subject and token counts.
func (s *StatsService) Snapshot(ctx context.Context) (domain.Stats, error) {
	subjects, err := s.Store.Subjects().CountSubjects(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	issued, redeemed, err := s.Store.Tokens().CountTokens(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	active, err := s.Store.Tokens().CountActiveGrants(ctx, s.now())
	if err != nil {
		return domain.Stats{}, err
	}

	return domain.Stats{
		Subjects:       subjects,
		TokensIssued:   issued,
		TokensRedeemed: redeemed,
		ActiveGrants:   active,
	}, nil
}
