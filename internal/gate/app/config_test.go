package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	require.Equal(t, 12*time.Hour, cfg.PendingWindow)
	require.Equal(t, 12*time.Hour, cfg.AccessWindow)
	require.Equal(t, "https://adrinolinks.in/api", cfg.ShortenerAPIURL)
	require.Equal(t, 10*time.Second, cfg.ShortenerTimeout)
	require.Equal(t, "gate.db", cfg.DatabaseFile)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("GATE_SIGNING_SECRET", "secret")
	t.Setenv("GATE_BASE_URL", "https://gate.example")
	t.Setenv("GATE_PENDING_WINDOW", "6h")
	t.Setenv("GATE_ACCESS_WINDOW", "86400") // plain seconds, manifest style
	t.Setenv("PORT", "9090")

	cfg := LoadConfig()

	require.Equal(t, "secret", cfg.SigningSecret)
	require.Equal(t, "https://gate.example", cfg.BaseURL)
	require.Equal(t, 6*time.Hour, cfg.PendingWindow)
	require.Equal(t, 24*time.Hour, cfg.AccessWindow)
	require.Equal(t, 9090, cfg.Port)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("GATE_PENDING_WINDOW", "not-a-duration")
	t.Setenv("PORT", "not-a-port")

	cfg := LoadConfig()

	require.Equal(t, 12*time.Hour, cfg.PendingWindow)
	require.Equal(t, 8080, cfg.Port)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{SigningSecret: "secret", BaseURL: "https://gate.example"}
	require.NoError(t, valid.Validate())

	t.Run("missing signing secret", func(t *testing.T) {
		cfg := valid
		cfg.SigningSecret = ""
		require.ErrorIs(t, cfg.Validate(), ErrMissingSigningSecret)
	})

	t.Run("missing base url", func(t *testing.T) {
		cfg := valid
		cfg.BaseURL = ""
		require.ErrorIs(t, cfg.Validate(), ErrMissingBaseURL)
	})
}
