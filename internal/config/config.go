// Package config contains the configuration loading of the storefront
// gateway.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains the configuration parameters of the gateway.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`
	ShopAddress string `env:"SHOP_ADDRESS"`
	RedisURL    string `env:"REDIS_URL"`
	AuthSecret  string `env:"AUTH_SECRET"`
}

// Parse reads the configuration from an optional .env file, command line
// flags and environment variables. Environment wins over flags.
func Parse() (*Config, error) {
	// Missing .env is fine, the environment is used directly.
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envShopAddress := cfg.ShopAddress
	envRedisURL := cfg.RedisURL
	envAuthSecret := cfg.AuthSecret

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.ShopAddress, "r", "", "shop backend address")
	flag.StringVar(&cfg.RedisURL, "c", "", "redis URL for the cart cache")
	flag.StringVar(&cfg.AuthSecret, "s", "", "token signing secret shared with the account service")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envShopAddress != "" {
		cfg.ShopAddress = envShopAddress
	}
	if envRedisURL != "" {
		cfg.RedisURL = envRedisURL
	}
	if envAuthSecret != "" {
		cfg.AuthSecret = envAuthSecret
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	// Without the shared secret every real token would fail with an
	// unexplained 401, so refuse to start instead.
	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("auth secret must be configured (AUTH_SECRET or -s)")
	}

	return cfg, nil
}
