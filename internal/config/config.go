package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type FeedConfig struct {
	Address           string        `yaml:"address"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
}

const (
	_requestsPerMinuteDefault = 300
	_feedTimeoutDefault       = 5 * time.Second
)

func (c *FeedConfig) Setup() error {
	if c.Address != "" {
		if _, err := url.Parse(c.Address); err != nil {
			return err
		}
	}

	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = _requestsPerMinuteDefault
	}
	if c.Timeout <= 0 {
		c.Timeout = _feedTimeoutDefault
	}

	return nil
}

type TradingConfig struct {
	Commission float64 `yaml:"commission"`
}

const (
	_commissionDefault = 2.5
)

func (c *TradingConfig) Setup() {
	if c.Commission <= 0 {
		c.Commission = _commissionDefault
	}
}

type LeaderboardConfig struct {
	Size            int           `yaml:"size"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

const (
	_leaderboardSizeDefault     = 20
	_leaderboardIntervalDefault = 5 * time.Minute
)

func (c *LeaderboardConfig) Setup() {
	if c.Size <= 0 {
		c.Size = _leaderboardSizeDefault
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = _leaderboardIntervalDefault
	}
}

type AuthConfig struct {
	TokenTTL time.Duration `yaml:"token_ttl"`

	// JWTSecret comes from the AUTH_JWT_SECRET env var, never from the file.
	JWTSecret string `yaml:"-"`
}

const (
	_tokenTTLDefault = 24 * time.Hour
)

func (c *AuthConfig) Setup() error {
	if c.TokenTTL <= 0 {
		c.TokenTTL = _tokenTTLDefault
	}

	c.JWTSecret = os.Getenv("AUTH_JWT_SECRET")
	if c.JWTSecret == "" {
		return fmt.Errorf("empty auth jwt secret")
	}

	return nil
}

type ServerConfig struct {
	Port        string            `yaml:"port"`
	Auth        AuthConfig        `yaml:"auth"`
	Feed        FeedConfig        `yaml:"feed"`
	Trading     TradingConfig     `yaml:"trading"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
}

const (
	_portDefault = "8080"
)

func (c *ServerConfig) ValidateAndSetup() error {
	if c.Port == "" {
		c.Port = _portDefault
	}

	if err := c.Auth.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup auth", err)
	}
	if err := c.Feed.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup feed", err)
	}
	c.Trading.Setup()
	c.Leaderboard.Setup()

	return nil
}

func LoadServerConfig(filename string) (ServerConfig, error) {
	var cfg ServerConfig
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
