package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// JWTConfig holds the token-signing parameters shared by the token
// endpoint and the websocket handshake.
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// Config is the full server configuration.
type Config struct {
	Mode string `mapstructure:"mode"`
	Port int    `mapstructure:"port"`

	PostgresDSN string `mapstructure:"postgres_dsn"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisDB     int    `mapstructure:"redis_db"`

	JWT JWTConfig `mapstructure:"jwt"`
}

// Load reads configuration from the environment (CHATRELAY_ prefix) with
// sane development defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("chatrelay")
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("postgres_dsn", "host=localhost user=user password=password dbname=chatrelay port=5432 sslmode=disable")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("jwt.issuer", "chatrelay")
	v.SetDefault("jwt.expiration", "72h")

	// no default on purpose: refuse to run with a guessable secret
	_ = v.BindEnv("jwt.secret", "CHATRELAY_JWT_SECRET")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// Unmarshal does not see env-only keys, so read the secret directly
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = v.GetString("jwt.secret")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("CHATRELAY_JWT_SECRET must be set")
	}
	return &cfg, nil
}
