package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerURL        string        `env:"DUEL_SERVER_URL" envDefault:"ws://localhost:8080"`
	GameCode         string        `env:"DUEL_GAME_CODE"`
	PlayerName       string        `env:"DUEL_PLAYER"`
	StorePath        string        `env:"DUEL_STORE_PATH" envDefault:"duelclient.db"`
	ControlAddr      string        `env:"DUEL_CONTROL_ADDR" envDefault:"127.0.0.1:8090"`
	LogLevel         string        `env:"DUEL_LOG_LEVEL" envDefault:"info"`
	LogDev           bool          `env:"DUEL_LOG_DEV"`
	WriteTimeout     time.Duration `env:"DUEL_WRITE_TIMEOUT" envDefault:"3s"`
	HandshakeTimeout time.Duration `env:"DUEL_HANDSHAKE_TIMEOUT" envDefault:"5s"`
	BubbleFade       time.Duration `env:"DUEL_BUBBLE_FADE" envDefault:"1.5s"`
	BubbleHide       time.Duration `env:"DUEL_BUBBLE_HIDE" envDefault:"1.9s"`
	JoinLock         time.Duration `env:"DUEL_JOIN_LOCK" envDefault:"1s"`
}

// Load reads the given .env files (missing ones are skipped) and then the
// process environment. Variables already set win over file values.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("DUEL_SERVER_URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("DUEL_SERVER_URL: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("DUEL_SERVER_URL: missing host")
	}
	if c.BubbleHide < c.BubbleFade {
		return fmt.Errorf("DUEL_BUBBLE_HIDE (%s) must not be shorter than DUEL_BUBBLE_FADE (%s)", c.BubbleHide, c.BubbleFade)
	}
	if c.WriteTimeout <= 0 || c.HandshakeTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
