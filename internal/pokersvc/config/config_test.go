package config

import (
	"testing"
	"time"

	"github.com/avvvet/poker-services/internal/pokersvc/engine"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "3000", cfg.Port)
	require.Equal(t, "secret", cfg.JWTSecret)
	require.Equal(t, engine.DefaultConfig(), cfg.Table)
	require.Equal(t, 30*time.Second, cfg.TurnTimeout)
	require.Equal(t, 5*time.Minute, cfg.MaxInactive)
	require.Equal(t, time.Minute, cfg.SweepInterval)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("POKER_SERVICE_PORT", "4100")
	t.Setenv("STARTING_BALANCE", "500")
	t.Setenv("MAX_PLAYERS", "6")
	t.Setenv("SMALL_BLIND", "5")
	t.Setenv("BIG_BLIND", "10")
	t.Setenv("MIN_BET", "10")
	t.Setenv("TURN_TIMEOUT_SECONDS", "15")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "4100", cfg.Port)
	require.Equal(t, int64(500), cfg.Table.StartingBalance)
	require.Equal(t, 6, cfg.Table.MaxPlayers)
	require.Equal(t, int64(5), cfg.Table.SmallBlind)
	require.Equal(t, int64(10), cfg.Table.BigBlind)
	require.Equal(t, 15*time.Second, cfg.TurnTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	tests := map[string]string{
		"MIN_PLAYERS":          "1",
		"MAX_PLAYERS":          "1",
		"BIG_BLIND":            "0",
		"STARTING_BALANCE":     "not-a-number",
		"TURN_TIMEOUT_SECONDS": "-3",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate_BlindOrder(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Table.SmallBlind = 4
	cfg.Table.BigBlind = 2
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	_, err := Load()
	require.ErrorIs(t, err, ErrInvalidConfig)
}
