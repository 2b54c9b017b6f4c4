package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://smartcitylivinglab.iiit.ac.in", cfg.Backend.BaseURL)
	assert.Equal(t, "query", cfg.Backend.QueryField)
	assert.Equal(t, StoreMemory, cfg.Session.Store)
	assert.Equal(t, 4096, cfg.Input.MaxSize)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Backend, cfg.Backend)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citychat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  base_url: http://localhost:9000
  query_field: message
  timeout: 5s
server:
  port: 9090
  allowed_origins: [https://scrc.example]
session:
  store: redis
  ttl: 1h
  redact: ['\d{10}']
logging:
  level: debug
graph:
  path: tree.yaml
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.Backend.BaseURL)
	assert.Equal(t, "message", cfg.Backend.QueryField)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "https://api.stagb.in/dev/content", cfg.Backend.PasteURL, "unset keys keep their default")
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://scrc.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, StoreRedis, cfg.Session.Store)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{`\d{10}`}, cfg.Session.Redact)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "tree.yaml", cfg.Graph.Path)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citychat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  base_uri: http://x\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		EnvBaseURL:      "http://backend:8000",
		EnvRedisAddr:    "redis:6379",
		EnvLogLevel:     "warn",
		EnvMaxInputSize: "128",
		EnvPort:         "7070",
	})))

	assert.Equal(t, "http://backend:8000", cfg.Backend.BaseURL)
	assert.Equal(t, "redis:6379", cfg.Session.RedisAddr)
	assert.Equal(t, StoreRedis, cfg.Session.Store, "a redis address selects the redis store")
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 128, cfg.Input.MaxSize)
	assert.Equal(t, 7070, cfg.Server.Port)

	err := cfg.ApplyEnv(env(map[string]string{EnvMaxInputSize: "lots"}))
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, EnvMaxInputSize, cerr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"BaseURL", func(c *Config) { c.Backend.BaseURL = "ftp://x" }, "backend.base_url"},
		{"QueryField", func(c *Config) { c.Backend.QueryField = " " }, "backend.query_field"},
		{"Port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"Store", func(c *Config) { c.Session.Store = "sqlite" }, "session.store"},
		{"RedisAddr", func(c *Config) { c.Session.Store = StoreRedis; c.Session.RedisAddr = "" }, "session.redis_addr"},
		{"LogLevel", func(c *Config) { c.Logging.Level = "chatty" }, "logging.level"},
		{"MaxSize", func(c *Config) { c.Input.MaxSize = 0 }, "input.max_size"},
		{"Key", func(c *Config) { c.Session.EncryptionKey = "c2hvcnQ=" }, "session.encryption_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config "+tt.field)
		})
	}
}

func TestSessionKeys(t *testing.T) {
	active := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("a", 32)))
	old := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("b", 32)))

	keys, err := Session{EncryptionKey: active, FallbackKeys: []string{old}}.Keys()
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, []byte(strings.Repeat("a", 32)), keys[0])

	_, err = Session{EncryptionKey: active, FallbackKeys: []string{"!!"}}.Keys()
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "session.fallback_keys[0]", cerr.Field)
}
