package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GraphQL  GraphQLConfig  `yaml:"graphql"`
	Session  SessionConfig  `yaml:"session"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Images   ImagesConfig   `yaml:"images"`
	Admin    AdminConfig    `yaml:"admin"`
}

type HTTPConfig struct {
	Address      string `yaml:"address"`
	CookieName   string `yaml:"cookie_name"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

type GraphQLConfig struct {
	HTTPURL        string `yaml:"http_url"`
	WebsocketURL   string `yaml:"websocket_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (g GraphQLConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// SessionConfig selects where the per-browser token, user id and admin flag live.
// Backend is one of "memory", "redis" or "postgres". MaxClients and
// IdleMinutes bound the in-memory client bundles; persisted sessions are not
// affected by eviction.
type SessionConfig struct {
	Backend     string `yaml:"backend"`
	MaxClients  int    `yaml:"max_clients"`
	IdleMinutes int    `yaml:"idle_minutes"`
}

func (s SessionConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleMinutes) * time.Minute
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type ImagesConfig struct {
	BaseURL         string `yaml:"base_url"`
	AccessKey       string `yaml:"access_key"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
}

type AdminConfig struct {
	// PollIntervalMillis drives the admin listings when no subscription is open.
	PollIntervalMillis int `yaml:"poll_interval_millis"`
	// ReconcileSeconds is the fallback reconciliation tick next to the push channel.
	ReconcileSeconds int `yaml:"reconcile_seconds"`
}

func (a AdminConfig) PollInterval() time.Duration {
	return time.Duration(a.PollIntervalMillis) * time.Millisecond
}

func (a AdminConfig) ReconcileInterval() time.Duration {
	return time.Duration(a.ReconcileSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	if cfg.GraphQL.HTTPURL == "" {
		return nil, fmt.Errorf("graphql.http_url is required")
	}
	switch cfg.Session.Backend {
	case "memory", "redis", "postgres":
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.CookieName == "" {
		c.HTTP.CookieName = "travelstore_client"
	}
	if c.GraphQL.TimeoutSeconds == 0 {
		c.GraphQL.TimeoutSeconds = 30
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "memory"
	}
	if c.Session.MaxClients == 0 {
		c.Session.MaxClients = 10000
	}
	if c.Session.IdleMinutes == 0 {
		c.Session.IdleMinutes = 30
	}
	if c.Images.BaseURL == "" {
		c.Images.BaseURL = "https://api.unsplash.com"
	}
	if c.Images.CacheTTLMinutes == 0 {
		c.Images.CacheTTLMinutes = 60
	}
	if c.Admin.PollIntervalMillis == 0 {
		c.Admin.PollIntervalMillis = 1000
	}
	if c.Admin.ReconcileSeconds == 0 {
		c.Admin.ReconcileSeconds = 30
	}
}
