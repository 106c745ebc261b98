package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/shopdex/internal/resilience"
)

// Config holds the shopdex API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Index      IndexConfig      `yaml:"index"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Cache      CacheConfig      `yaml:"cache"`
	Chat       ChatConfig       `yaml:"chat"`
	Search     SearchConfig     `yaml:"search"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Index drivers.
const (
	DriverQdrant = "qdrant"
	DriverRedis  = "redis"
)

// IndexConfig holds vector index connection and schema settings.
type IndexConfig struct {
	Driver           string   `yaml:"driver"` // qdrant, redis (default: qdrant)
	Collection       string   `yaml:"collection"`
	KeyPrefix        string   `yaml:"key_prefix"` // redis hash prefix
	QdrantURL        string   `yaml:"qdrant_url"`
	QdrantAPIKey     string   `yaml:"qdrant_api_key"`
	QdrantTimeoutSec int      `yaml:"qdrant_timeout_sec"`
	Addrs            []string `yaml:"addrs"` // redis
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	Dimensions       int      `yaml:"dimensions"`
	EnsureSchema     bool     `yaml:"ensure_schema"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"` // metric label
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	QueryInstruction  string  `yaml:"query_instruction"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`
}

// CacheConfig holds the Redis embedding cache settings. Empty addrs disables the cache.
type CacheConfig struct {
	Addrs     []string `yaml:"addrs"`
	Password  string   `yaml:"password"`
	Namespace string   `yaml:"namespace"`
	TTLSec    int      `yaml:"ttl_sec"`
}

// Enabled reports whether the embedding cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// ChatConfig holds the intent extraction model. Empty model disables extraction.
type ChatConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// Enabled reports whether intent extraction is configured.
func (c ChatConfig) Enabled() bool { return c.Model != "" }

// SearchConfig tunes retrieval and pagination.
type SearchConfig struct {
	DefaultTopK     int     `yaml:"default_top_k"`
	MaxTopK         int     `yaml:"max_top_k"`
	KeywordBoost    float64 `yaml:"keyword_boost"`
	ShouldBoost     float64 `yaml:"should_boost"`
	DefaultPageSize int     `yaml:"default_page_size"`
	MaxPageSize     int     `yaml:"max_page_size"`
}

// ResilienceConfig holds retry and circuit breaker settings for index and provider calls.
type ResilienceConfig struct {
	RetryMaxAttempts     int     `yaml:"retry_max_attempts"`
	RetryInitialBackoff  int     `yaml:"retry_initial_backoff_ms"`
	RetryMaxBackoff      int     `yaml:"retry_max_backoff_ms"`
	BreakerMinRequests   uint32  `yaml:"breaker_min_requests"`
	BreakerFailureRatio  float64 `yaml:"breaker_failure_ratio"`
	BreakerOpenTimeoutMS int     `yaml:"breaker_open_timeout_ms"`
	BreakerDisabled      bool    `yaml:"breaker_disabled"`
}

// Policy converts the settings to an executor policy. Zero values keep executor defaults.
func (r ResilienceConfig) Policy() resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:    r.RetryMaxAttempts,
		RetryInitialBackoff: time.Duration(r.RetryInitialBackoff) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(r.RetryMaxBackoff) * time.Millisecond,
		BreakerEnabled:      !r.BreakerDisabled,
		BreakerMinRequests:  r.BreakerMinRequests,
		BreakerFailureRatio: r.BreakerFailureRatio,
		BreakerOpenTimeout:  time.Duration(r.BreakerOpenTimeoutMS) * time.Millisecond,
	}
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in a YAML document, then decodes, defaults and validates it.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Index.Driver == "" {
		c.Index.Driver = DriverQdrant
	}
	if c.Index.Collection == "" {
		c.Index.Collection = "products"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "product:"
	}
	if c.Index.QdrantTimeoutSec <= 0 {
		c.Index.QdrantTimeoutSec = 10
	}
	if c.Index.ReadinessTimeout <= 0 {
		c.Index.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = c.Index.Dimensions
	}
	if c.Index.Dimensions <= 0 {
		c.Index.Dimensions = c.Embedding.Dimensions
	}
	if c.Embedding.RequestsPerSecond > 0 && c.Embedding.Burst <= 0 {
		c.Embedding.Burst = 1
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
	if c.Chat.APIKey == "" {
		c.Chat.APIKey = c.Embedding.APIKey
	}
	if c.Chat.BaseURL == "" {
		c.Chat.BaseURL = c.Embedding.BaseURL
	}
	if c.Chat.MaxTokens <= 0 {
		c.Chat.MaxTokens = 256
	}
	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 10
	}
	if c.Search.MaxTopK <= 0 {
		c.Search.MaxTopK = 500
	}
	if c.Search.KeywordBoost <= 0 {
		c.Search.KeywordBoost = 1.5
	}
	if c.Search.ShouldBoost <= 0 {
		c.Search.ShouldBoost = 1.1
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 12
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Index.Driver {
	case DriverQdrant:
		if c.Index.QdrantURL == "" {
			return fmt.Errorf("index.qdrant_url is required for driver %q", DriverQdrant)
		}
	case DriverRedis:
		if len(c.Index.Addrs) == 0 {
			return fmt.Errorf("index.addrs is required for driver %q", DriverRedis)
		}
	default:
		return fmt.Errorf("index.driver must be %q or %q, got %q", DriverQdrant, DriverRedis, c.Index.Driver)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Index.Dimensions != c.Embedding.Dimensions {
		return fmt.Errorf("index.dimensions (%d) must equal embedding.dimensions (%d)",
			c.Index.Dimensions, c.Embedding.Dimensions)
	}
	if c.Index.EnsureSchema && c.Index.Dimensions <= 0 {
		return fmt.Errorf("index.dimensions is required when index.ensure_schema is set")
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("embedding.requests_per_second must not be negative")
	}
	if c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search.default_top_k (%d) exceeds search.max_top_k (%d)",
			c.Search.DefaultTopK, c.Search.MaxTopK)
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	if c.Resilience.BreakerFailureRatio < 0 || c.Resilience.BreakerFailureRatio > 1 {
		return fmt.Errorf("resilience.breaker_failure_ratio must be within [0, 1]")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
