// Package config loads the application configuration on top of the core bot config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/scholarbot/core/config"
	"github.com/m3rciful/scholarbot/core/database"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type ResearchConfig struct {
	GroqAPIKey    string        `yaml:"groq_api_key" envconfig:"GROQ_API_KEY"`
	GroqModel     string        `yaml:"groq_model" envconfig:"GROQ_MODEL"`
	GroqBaseURL   string        `yaml:"groq_base_url" envconfig:"GROQ_BASE_URL"`
	GeminiAPIKey  string        `yaml:"gemini_api_key" envconfig:"GEMINI_API_KEY"`
	GeminiModel   string        `yaml:"gemini_model" envconfig:"GEMINI_MODEL"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"RESEARCH_TIMEOUT"`
	MaxHistory    int           `yaml:"max_history" envconfig:"RESEARCH_MAX_HISTORY"`
	SearxURL      string        `yaml:"searx_url" envconfig:"SEARXNG_URL"`
	SearchTimeout time.Duration `yaml:"search_timeout" envconfig:"SEARCH_TIMEOUT"`
}

type PaystackConfig struct {
	SecretKey   string `yaml:"secret_key" envconfig:"PAYSTACK_SECRET_KEY"`
	PublicKey   string `yaml:"public_key" envconfig:"PAYSTACK_PUBLIC_KEY"`
	BaseURL     string `yaml:"base_url" envconfig:"PAYSTACK_BASE_URL"`
	CallbackURL string `yaml:"callback_url" envconfig:"PAYSTACK_CALLBACK_URL"`
	Currency    string `yaml:"currency" envconfig:"PAYSTACK_CURRENCY"`
}

type PaymentsConfig struct {
	// Enabled is a pointer so an explicit "false" in YAML or env survives defaulting.
	Enabled *bool `yaml:"enabled" envconfig:"ENABLE_PAYMENTS"`
}

// On reports the effective switch value; unset means enabled.
func (p PaymentsConfig) On() bool {
	return p.Enabled == nil || *p.Enabled
}

type HTTPConfig struct {
	Listen      string        `yaml:"listen" envconfig:"HTTP_LISTEN"`
	ReadTimeout time.Duration `yaml:"read_timeout" envconfig:"HTTP_READ_TIMEOUT"`
}

// StorageConfig points at an S3-compatible bucket. Uploads are disabled when Bucket is empty.
type StorageConfig struct {
	Bucket        string `yaml:"bucket" envconfig:"S3_BUCKET"`
	Region        string `yaml:"region" envconfig:"S3_REGION"`
	Endpoint      string `yaml:"endpoint" envconfig:"S3_ENDPOINT"`
	AccessKey     string `yaml:"access_key" envconfig:"S3_ACCESS_KEY"`
	SecretKey     string `yaml:"secret_key" envconfig:"S3_SECRET_KEY"`
	PublicBaseURL string `yaml:"public_base_url" envconfig:"S3_PUBLIC_BASE_URL"`
}

// Enabled reports whether file hosting is configured.
func (s StorageConfig) Enabled() bool {
	return strings.TrimSpace(s.Bucket) != ""
}

type SessionsConfig struct {
	Backend        string        `yaml:"backend" envconfig:"SESSION_BACKEND"`
	RedisURL       string        `yaml:"redis_url" envconfig:"REDIS_URL"`
	PaymentTimeout time.Duration `yaml:"payment_timeout" envconfig:"PAYMENT_SESSION_TIMEOUT"`
	IdleTTL        time.Duration `yaml:"idle_ttl" envconfig:"SESSION_IDLE_TTL"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database database.Config `yaml:"database"`
	Research ResearchConfig  `yaml:"research"`
	Paystack PaystackConfig  `yaml:"paystack"`
	Payments PaymentsConfig  `yaml:"payments"`
	HTTP     HTTPConfig      `yaml:"http"`
	Storage  StorageConfig   `yaml:"storage"`
	Sessions SessionsConfig  `yaml:"sessions"`
}

// CoreConfig satisfies cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads .env, the optional YAML file at path and the environment, then
// fills defaults and validates. It fails fast on the first missing requirement.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDatabase loads only what the migrate command needs.
func LoadDatabase(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if !cfg.Database.Configured() {
		return nil, errors.New("database is not configured (DATABASE_URL or DB_HOST/DB_NAME)")
	}
	return &cfg, nil
}

// Normalize fills defaults without overriding explicit values.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	r := &c.Research
	if r.GroqModel == "" {
		r.GroqModel = "llama-3.3-70b-versatile"
	}
	if r.GroqBaseURL == "" {
		r.GroqBaseURL = "https://api.groq.com/openai/v1"
	}
	if r.GeminiModel == "" {
		r.GeminiModel = "gemini-2.0-flash"
	}
	if r.Timeout <= 0 {
		r.Timeout = 60 * time.Second
	}
	if r.MaxHistory <= 0 {
		r.MaxHistory = 20
	}
	if r.SearchTimeout <= 0 {
		r.SearchTimeout = 8 * time.Second
	}

	p := &c.Paystack
	if p.BaseURL == "" {
		p.BaseURL = "https://api.paystack.co"
	}
	p.BaseURL = strings.TrimRight(p.BaseURL, "/")
	if p.Currency == "" {
		p.Currency = "NGN"
	}

	if c.HTTP.Listen == "" {
		c.HTTP.Listen = ":8080"
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}

	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}

	s := &c.Sessions
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = SessionBackendMemory
		if s.RedisURL != "" {
			s.Backend = SessionBackendRedis
		}
	}
	if s.PaymentTimeout <= 0 {
		s.PaymentTimeout = 300 * time.Second
	}
	if s.IdleTTL <= 0 {
		s.IdleTTL = 24 * time.Hour
	}
	return nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.Telegram.AdminID == 0 {
		return errors.New("telegram admin id is required (TELEGRAM_ADMIN_ID)")
	}
	if !c.Database.Configured() {
		return errors.New("database is not configured (DATABASE_URL or DB_HOST/DB_NAME)")
	}
	if c.Research.GroqAPIKey == "" && c.Research.GeminiAPIKey == "" {
		return errors.New("at least one completion provider key is required (GROQ_API_KEY or GEMINI_API_KEY)")
	}
	if c.Paystack.SecretKey == "" {
		return errors.New("paystack secret key is required (PAYSTACK_SECRET_KEY)")
	}
	switch c.Sessions.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.Sessions.RedisURL == "" {
			return errors.New("sessions.backend is redis but REDIS_URL is empty")
		}
	default:
		return fmt.Errorf("invalid sessions.backend %q; allowed: memory, redis", c.Sessions.Backend)
	}
	if c.Storage.Enabled() && c.Storage.PublicBaseURL == "" && c.Storage.Endpoint == "" {
		return errors.New("storage.public_base_url or storage.endpoint is required when S3_BUCKET is set")
	}
	return nil
}
