// Package config exposes typed accessors over the service configuration.
//
// Values are layered: built-in defaults, then an optional TOML file, then
// environment variables. Environment keys use the REPOSCOUT_ prefix with a
// double underscore between section and key, e.g. REPOSCOUT_LLM__API_KEY.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix       = "REPOSCOUT_"
	envConfigPath   = "REPOSCOUT_CONFIG"
	defaultFilePath = "reposcout.toml"
)

// legacyEnv maps environment names used by earlier deployments.
var legacyEnv = map[string]string{
	"ASI_ONE_API_KEY": "llm.api_key",
	"GITHUB_TOKEN":    "github.token",
}

var defaults = map[string]any{
	"env":                         "development",
	"log.level":                   "",
	"server.port":                 5000,
	"server.cors_allowed_origins": []string{"*"},
	"llm.api_key":                 "",
	"llm.base_url":                "https://api.asi1.ai/v1",
	"llm.model":                   "asi1-agentic",
	"llm.timeout":                 "120s",
	"llm.max_retries":             0,
	"llm.requests_per_second":     0.0,
	"github.token":                "",
	"github.base_url":             "",
	"github.timeout":              "30s",
	"conversations.capacity":      1024,
	"analysis.max_turns":          2,
	"analysis.fetch_metadata":     true,
	"analysis.metadata_timeout":   "10s",
}

var (
	mu sync.RWMutex
	k  = newDefaults()
)

func newDefaults() *koanf.Koanf {
	kk := koanf.New(".")
	// confmap never fails to load
	_ = kk.Load(confmap.Provider(defaults, "."), nil)
	return kk
}

// Load rebuilds the configuration from defaults, the config file at path
// (or REPOSCOUT_CONFIG, or ./reposcout.toml when present) and the environment.
func Load(path string) error {
	kk := newDefaults()

	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path == "" {
		if _, err := os.Stat(defaultFilePath); err == nil {
			path = defaultFilePath
		}
	}
	if path != "" {
		if err := kk.Load(file.Provider(path), toml.Parser()); err != nil {
			return fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := kk.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return fmt.Errorf("loading legacy environment: %w", err)
	}

	if err := kk.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}

	mu.Lock()
	k = kk
	mu.Unlock()
	return nil
}

// envKey turns REPOSCOUT_LLM__API_KEY into llm.api_key.
func envKey(s string) string {
	if s == envConfigPath {
		return ""
	}
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func current() *koanf.Koanf {
	mu.RLock()
	defer mu.RUnlock()
	return k
}

// Env returns the deployment environment name.
func Env() string {
	return current().String("env")
}

// IsDev reports whether the service runs in development mode.
func IsDev() bool {
	return Env() == "development"
}

type logConfig struct{}

// Log holds logging settings.
var Log logConfig

func (logConfig) Level() string { return current().String("log.level") }

type serverConfig struct{}

// Server holds HTTP server settings.
var Server serverConfig

func (serverConfig) Port() int { return current().Int("server.port") }

func (serverConfig) CorsAllowedOrigins() []string {
	return current().Strings("server.cors_allowed_origins")
}

type llmConfig struct{}

// LLM holds settings for the chat-completion endpoint.
var LLM llmConfig

func (llmConfig) APIKey() string  { return current().String("llm.api_key") }
func (llmConfig) BaseURL() string { return current().String("llm.base_url") }
func (llmConfig) Model() string   { return current().String("llm.model") }
func (llmConfig) MaxRetries() int { return current().Int("llm.max_retries") }

func (llmConfig) Timeout() time.Duration { return current().Duration("llm.timeout") }

func (llmConfig) RequestsPerSecond() float64 {
	return current().Float64("llm.requests_per_second")
}

type githubConfig struct{}

// Github holds issue-tracker settings.
var Github githubConfig

func (githubConfig) Token() string   { return current().String("github.token") }
func (githubConfig) BaseURL() string { return current().String("github.base_url") }

func (githubConfig) Timeout() time.Duration { return current().Duration("github.timeout") }

type conversationsConfig struct{}

// Conversations holds conversation store settings.
var Conversations conversationsConfig

func (conversationsConfig) Capacity() int { return current().Int("conversations.capacity") }

type analysisConfig struct{}

// Analysis holds orchestrator settings.
var Analysis analysisConfig

func (analysisConfig) MaxTurns() int       { return current().Int("analysis.max_turns") }
func (analysisConfig) FetchMetadata() bool { return current().Bool("analysis.fetch_metadata") }
func (analysisConfig) MetadataTimeout() time.Duration {
	return current().Duration("analysis.metadata_timeout")
}

// Validate checks settings the service cannot start without.
func Validate() error {
	if LLM.APIKey() == "" {
		return fmt.Errorf("llm.api_key is required (set REPOSCOUT_LLM__API_KEY or ASI_ONE_API_KEY)")
	}
	if Server.Port() <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	return nil
}
