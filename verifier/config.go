// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	DefaultListenAddr     = ":8080"
	DefaultNonceTimeout   = 5 * time.Minute
	DefaultExpressTimeout = 8 * time.Hour
)

// Supported values of Config.Store
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds the verifier settings
type Config struct {
	ListenAddr      string
	Store           string
	RedisAddr       string
	SQLitePath      string
	PackageName     string
	CredentialsFile string
	NonceTimeout    time.Duration
	ExpressTimeout  time.Duration

	Logger *zerolog.Logger
}

// LoadConfig reads the configuration from VERIFIER_* environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ListenAddr:      getEnv("VERIFIER_LISTEN_ADDR", DefaultListenAddr),
		Store:           getEnv("VERIFIER_STORE", StoreMemory),
		RedisAddr:       getEnv("VERIFIER_REDIS_ADDR", "localhost:6379"),
		SQLitePath:      getEnv("VERIFIER_SQLITE_PATH", "verifier.db"),
		PackageName:     os.Getenv("VERIFIER_PACKAGE_NAME"),
		CredentialsFile: os.Getenv("VERIFIER_CREDENTIALS_FILE"),
	}

	var err error

	cfg.NonceTimeout, err = getDuration("VERIFIER_NONCE_TIMEOUT", DefaultNonceTimeout)
	if err != nil {
		return nil, err
	}

	cfg.ExpressTimeout, err = getDuration("VERIFIER_EXPRESS_TIMEOUT", DefaultExpressTimeout)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for consistency
func (o Config) Validate() error {
	if o.PackageName == "" {
		return fmt.Errorf("bad configuration: no package name")
	}

	switch o.Store {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("bad configuration: unknown store %q", o.Store)
	}

	return nil
}

// NewStore opens the store selected by the configuration
func (o Config) NewStore() (Store, error) {
	switch o.Store {
	case "", StoreMemory:
		return NewMemoryStore(), nil
	case StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: o.RedisAddr})
		return NewRedisStore(client, map[Kind]time.Duration{
			KindRandom:  o.nonceTimeout(),
			KindExpress: o.expressTimeout(),
		}), nil
	case StoreSQLite:
		return NewSQLiteStore(o.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store %q", o.Store)
	}
}

func (o Config) nonceTimeout() time.Duration {
	if o.NonceTimeout > 0 {
		return o.NonceTimeout
	}
	return DefaultNonceTimeout
}

func (o Config) expressTimeout() time.Duration {
	if o.ExpressTimeout > 0 {
		return o.ExpressTimeout
	}
	return DefaultExpressTimeout
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return d, nil
}
