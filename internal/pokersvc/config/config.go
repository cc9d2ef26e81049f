package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/poker-services/internal/pokersvc/engine"
	"github.com/spf13/viper"
)

// Config is everything the poker service reads from the environment.
type Config struct {
	Port          string
	RateLimit     int
	JWTSecret     string
	Table         engine.Config
	TurnTimeout   time.Duration
	MaxInactive   time.Duration
	SweepInterval time.Duration
}

func defaults(v *viper.Viper) {
	def := engine.DefaultConfig()
	v.SetDefault("POKER_SERVICE_PORT", "3000")
	v.SetDefault("RATE_LIMIT", 100)
	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("STARTING_BALANCE", def.StartingBalance)
	v.SetDefault("MIN_PLAYERS", def.MinPlayers)
	v.SetDefault("MAX_PLAYERS", def.MaxPlayers)
	v.SetDefault("SMALL_BLIND", def.SmallBlind)
	v.SetDefault("BIG_BLIND", def.BigBlind)
	v.SetDefault("MIN_BET", def.MinBet)
	v.SetDefault("TURN_TIMEOUT_SECONDS", 30)
	v.SetDefault("MAX_INACTIVE_SECONDS", 300)
	v.SetDefault("SWEEP_INTERVAL_SECONDS", 60)
}

// Load reads the process environment (already populated from .env by
// configs.LoadEnv) on top of the built-in defaults.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	cfg := Config{
		Port:      v.GetString("POKER_SERVICE_PORT"),
		RateLimit: v.GetInt("RATE_LIMIT"),
		JWTSecret: v.GetString("JWT_SECRET_KEY"),
		Table: engine.Config{
			StartingBalance: v.GetInt64("STARTING_BALANCE"),
			MinPlayers:      v.GetInt("MIN_PLAYERS"),
			MaxPlayers:      v.GetInt("MAX_PLAYERS"),
			SmallBlind:      v.GetInt64("SMALL_BLIND"),
			BigBlind:        v.GetInt64("BIG_BLIND"),
			MinBet:          v.GetInt64("MIN_BET"),
		},
		TurnTimeout:   time.Duration(v.GetInt("TURN_TIMEOUT_SECONDS")) * time.Second,
		MaxInactive:   time.Duration(v.GetInt("MAX_INACTIVE_SECONDS")) * time.Second,
		SweepInterval: time.Duration(v.GetInt("SWEEP_INTERVAL_SECONDS")) * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var ErrInvalidConfig = errors.New("invalid configuration")

func (c Config) Validate() error {
	t := c.Table
	switch {
	case c.Port == "":
		return fmt.Errorf("%w: POKER_SERVICE_PORT is empty", ErrInvalidConfig)
	case c.RateLimit <= 0:
		return fmt.Errorf("%w: RATE_LIMIT must be positive", ErrInvalidConfig)
	case c.JWTSecret == "":
		return fmt.Errorf("%w: JWT_SECRET_KEY is empty", ErrInvalidConfig)
	case t.StartingBalance <= 0:
		return fmt.Errorf("%w: STARTING_BALANCE must be positive", ErrInvalidConfig)
	case t.MinPlayers < 2:
		return fmt.Errorf("%w: MIN_PLAYERS must be at least 2", ErrInvalidConfig)
	case t.MaxPlayers < t.MinPlayers:
		return fmt.Errorf("%w: MAX_PLAYERS %d below MIN_PLAYERS %d", ErrInvalidConfig, t.MaxPlayers, t.MinPlayers)
	case t.SmallBlind <= 0 || t.BigBlind <= 0:
		return fmt.Errorf("%w: blinds must be positive", ErrInvalidConfig)
	case t.BigBlind < t.SmallBlind:
		return fmt.Errorf("%w: BIG_BLIND below SMALL_BLIND", ErrInvalidConfig)
	case t.MinBet <= 0:
		return fmt.Errorf("%w: MIN_BET must be positive", ErrInvalidConfig)
	case c.TurnTimeout <= 0 || c.MaxInactive <= 0 || c.SweepInterval <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}
