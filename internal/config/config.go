// Package config loads the citychat runtime configuration from a YAML file
// and the environment.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/citychat/internal/logging"
	"github.com/aretw0/citychat/pkg/gateway"
)

// Environment variables overriding the file.
const (
	EnvBaseURL      = "CITYCHAT_BASE_URL"
	EnvRedisAddr    = "CITYCHAT_REDIS_ADDR"
	EnvLogLevel     = "CITYCHAT_LOG_LEVEL"
	EnvMaxInputSize = "CITYCHAT_MAX_INPUT_SIZE"
	EnvSessionKey   = "CITYCHAT_SESSION_KEY"
	EnvPort         = "CITYCHAT_PORT"
)

// Session store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreFile   = "file"
)

// Config is the complete runtime configuration.
type Config struct {
	Backend Backend `yaml:"backend"`
	Server  Server  `yaml:"server"`
	Session Session `yaml:"session"`
	Logging Logging `yaml:"logging"`
	Graph   Graph   `yaml:"graph"`
	Input   Input   `yaml:"input"`
}

// Backend locates the smart-city services.
type Backend struct {
	BaseURL    string `yaml:"base_url"`
	PasteURL   string `yaml:"paste_url"`
	ShareURL   string `yaml:"share_url"`
	QueryField string `yaml:"query_field"`

	// Timeout bounds every backend call; zero leaves calls unbounded.
	Timeout time.Duration `yaml:"timeout"`
}

// Server configures the widget host.
type Server struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Session configures persistence of conversations.
type Session struct {
	Store         string        `yaml:"store"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisPrefix   string        `yaml:"redis_prefix"`

	// Dir holds one JSON file per session for the file store.
	Dir string `yaml:"dir"`

	// EncryptionKey is a base64 AES-256 key sealing stored sessions.
	EncryptionKey string `yaml:"encryption_key"`
	// FallbackKeys are older keys still accepted when opening sessions.
	FallbackKeys []string `yaml:"fallback_keys"`

	// Redact lists regular expressions masked in stored user messages.
	Redact []string `yaml:"redact"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"`
}

// Graph points at an alternative conversation tree.
type Graph struct {
	Path string `yaml:"path"`
}

// Input bounds user submissions.
type Input struct {
	MaxSize int `yaml:"max_size"`
}

// ConfigError reports an invalid setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// Defaults returns the configuration of the public deployment.
func Defaults() *Config {
	return &Config{
		Backend: Backend{
			BaseURL:    gateway.DefaultBaseURL,
			PasteURL:   gateway.DefaultPasteURL,
			ShareURL:   gateway.DefaultShareURL,
			QueryField: gateway.DefaultQueryField,
		},
		Server: Server{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Session: Session{
			Store:       StoreMemory,
			TTL:         24 * time.Hour,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "citychat:session:",
		},
		Logging: Logging{Level: "info"},
		Input:   Input{MaxSize: 4096},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to open config: %w", err)
		default:
			defer f.Close()
			if err := cfg.Decode(f); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode merges a YAML document into cfg. An empty document changes nothing.
func (cfg *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides settings from the environment.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		cfg.Backend.BaseURL = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		cfg.Session.RedisAddr = v
		cfg.Session.Store = StoreRedis
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Logging.Level = v
	}
	if v, ok := lookup(EnvSessionKey); ok && v != "" {
		cfg.Session.EncryptionKey = v
	}
	if v, ok := lookup(EnvMaxInputSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: EnvMaxInputSize, Reason: "not a number"}
		}
		cfg.Input.MaxSize = n
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: EnvPort, Reason: "not a number"}
		}
		cfg.Server.Port = n
	}
	return nil
}

// Validate checks the configuration for settings that cannot work.
func (cfg *Config) Validate() error {
	var errs []error
	check := func(ok bool, field, reason string) {
		if !ok {
			errs = append(errs, &ConfigError{Field: field, Reason: reason})
		}
	}

	check(isHTTPURL(cfg.Backend.BaseURL), "backend.base_url", "must be an http(s) URL")
	check(isHTTPURL(cfg.Backend.PasteURL), "backend.paste_url", "must be an http(s) URL")
	check(isHTTPURL(cfg.Backend.ShareURL), "backend.share_url", "must be an http(s) URL")
	check(strings.TrimSpace(cfg.Backend.QueryField) != "", "backend.query_field", "must not be empty")
	check(cfg.Backend.Timeout >= 0, "backend.timeout", "must not be negative")
	check(cfg.Server.Port > 0 && cfg.Server.Port < 65536, "server.port", "must be between 1 and 65535")
	switch cfg.Session.Store {
	case StoreMemory, StoreRedis, StoreFile:
	default:
		check(false, "session.store", "must be memory, redis or file")
	}
	check(cfg.Session.TTL >= 0, "session.ttl", "must not be negative")
	check(cfg.Input.MaxSize > 0, "input.max_size", "must be positive")

	if cfg.Session.Store == StoreRedis {
		check(cfg.Session.RedisAddr != "", "session.redis_addr", "required for the redis store")
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, &ConfigError{Field: "logging.level", Reason: err.Error()})
	}
	if cfg.Session.EncryptionKey != "" {
		if _, err := cfg.Session.Keys(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Keys decodes the active and fallback session keys. The active key comes first.
func (s Session) Keys() ([][]byte, error) {
	raw := append([]string{s.EncryptionKey}, s.FallbackKeys...)
	keys := make([][]byte, 0, len(raw))
	for i, k := range raw {
		field := "session.encryption_key"
		if i > 0 {
			field = fmt.Sprintf("session.fallback_keys[%d]", i-1)
		}
		b, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, &ConfigError{Field: field, Reason: "not valid base64"}
		}
		if len(b) != 32 {
			return nil, &ConfigError{Field: field, Reason: "must decode to 32 bytes"}
		}
		keys = append(keys, b)
	}
	return keys, nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
