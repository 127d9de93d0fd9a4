package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/adflow/filegate/internal/gate/domain"
	"github.com/adflow/filegate/internal/gate/store"
	"github.com/adflow/filegate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingSweepsOnStart(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// A token that expired an hour ago and one still pending.
	stale := domain.AccessToken{
		ID:        idx.New().String(),
		SubjectID: "12345",
		Payload:   "12345:1",
		Signature: "sig-stale",
		IssuedAt:  time.Now().Add(-13 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	fresh := domain.AccessToken{
		ID:        idx.New().String(),
		SubjectID: "67890",
		Payload:   "67890:2",
		Signature: "sig-fresh",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(12 * time.Hour),
	}
	require.NoError(t, st.Tokens().CreateToken(ctx, stale))
	require.NoError(t, st.Tokens().CreateToken(ctx, fresh))

	hk := NewHousekeepingService(st, slog.New(slog.DiscardHandler), time.Hour)
	hk.Start()
	hk.Stop()

	_, err := st.Tokens().GetTokenByPayloadSig(ctx, stale.Payload, stale.Signature)
	require.ErrorIs(t, err, store.ErrNotFound, "startup sweep should remove the expired token")

	_, err = st.Tokens().GetTokenByPayloadSig(ctx, fresh.Payload, fresh.Signature)
	require.NoError(t, err)
}

func TestHousekeepingDefaultsInterval(t *testing.T) {
	hk := NewHousekeepingService(newTestStore(t), slog.New(slog.DiscardHandler), 0)
	require.Equal(t, time.Hour, hk.Interval)
}
