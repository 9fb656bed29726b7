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
)

// Config holds the matchmate service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Matching  MatchingConfig  `yaml:"matching"`
	Budget    BudgetConfig    `yaml:"budget"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
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

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider and cache settings.
// An empty APIKey disables embeddings; matching then falls back to keywords.
type EmbeddingConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	CacheTTLHours    int    `yaml:"cache_ttl_hours"`
	RetryAttempts    int    `yaml:"retry_attempts"`
	RetryBaseDelayMs int    `yaml:"retry_base_delay_ms"`
	MemoryCacheSize  int    `yaml:"memory_cache_size"` // 0 = no in-process cache
	Concurrency      int    `yaml:"concurrency"`
}

// Enabled reports whether an embedding provider is configured.
func (e EmbeddingConfig) Enabled() bool { return e.APIKey != "" }

// CacheTTL returns the embedding freshness window.
func (e EmbeddingConfig) CacheTTL() time.Duration { return time.Duration(e.CacheTTLHours) * time.Hour }

// RetryBaseDelay returns the first backoff delay.
func (e EmbeddingConfig) RetryBaseDelay() time.Duration {
	return time.Duration(e.RetryBaseDelayMs) * time.Millisecond
}

// LLMConfig holds chat completion settings for reranking.
// An empty APIKey disables the AI strategy.
type LLMConfig struct {
	APIKey        string  `yaml:"api_key"`
	BaseURL       string  `yaml:"base_url"`
	Model         string  `yaml:"model"`
	MaxTokens     int     `yaml:"max_tokens"`
	Temperature   float32 `yaml:"temperature"`
	MaxCandidates int     `yaml:"max_candidates"`
}

// Enabled reports whether an LLM provider is configured.
func (l LLMConfig) Enabled() bool { return l.APIKey != "" }

// MatchingConfig holds ranking pipeline settings.
type MatchingConfig struct {
	DefaultTopN        int     `yaml:"default_top_n"`
	MaxTopN            int     `yaml:"max_top_n"`
	Strategy           string  `yaml:"strategy"` // ai, embedding, keyword (default: ai)
	MinStructuredScore float64 `yaml:"min_structured_score"`
	DefaultRadiusKm    float64 `yaml:"default_radius_km"` // location radius when a search names none
}

// BudgetConfig holds token budget settings, applied per provider.
type BudgetConfig struct {
	DailyTokens   int64  `yaml:"daily_tokens"`   // 0 = unlimited
	MonthlyTokens int64  `yaml:"monthly_tokens"` // 0 = unlimited
	Action        string `yaml:"action"`         // "reject" | "warn" (default)
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

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
		// LLM reranking can take several seconds.
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "matchmate:"
	}
	c.applyEmbeddingDefaults()
	c.applyLLMDefaults()
	if c.Matching.DefaultTopN <= 0 {
		c.Matching.DefaultTopN = 5
	}
	if c.Matching.MaxTopN <= 0 {
		c.Matching.MaxTopN = 50
	}
	if c.Matching.Strategy == "" {
		c.Matching.Strategy = "ai"
	}
	if c.Matching.MinStructuredScore <= 0 {
		c.Matching.MinStructuredScore = 0.1
	}
	if c.Matching.DefaultRadiusKm == 0 {
		c.Matching.DefaultRadiusKm = 10
	}
	if c.Budget.Action == "" {
		c.Budget.Action = "warn"
	}
}

func (c *Config) applyEmbeddingDefaults() {
	e := &c.Embedding
	if e.Model == "" {
		e.Model = "text-embedding-3-small"
	}
	if e.Dimensions <= 0 {
		e.Dimensions = 1536
	}
	if e.CacheTTLHours <= 0 {
		e.CacheTTLHours = 168
	}
	if e.RetryAttempts <= 0 {
		e.RetryAttempts = 3
	}
	if e.RetryBaseDelayMs <= 0 {
		e.RetryBaseDelayMs = 500
	}
	if e.Concurrency <= 0 {
		e.Concurrency = 8
	}
}

func (c *Config) applyLLMDefaults() {
	l := &c.LLM
	if l.Model == "" {
		l.Model = "gpt-4o-mini"
	}
	if l.MaxTokens <= 0 {
		l.MaxTokens = 1024
	}
	if l.Temperature == 0 {
		l.Temperature = 0.2
	}
	if l.MaxCandidates <= 0 {
		l.MaxCandidates = 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %g", c.LLM.Temperature)
	}
	switch c.Matching.Strategy {
	case "ai", "embedding", "keyword":
	default:
		return fmt.Errorf(
			"matching.strategy must be \"ai\", \"embedding\" or \"keyword\", got %q", c.Matching.Strategy,
		)
	}
	if c.Matching.DefaultTopN > c.Matching.MaxTopN {
		return fmt.Errorf("matching.default_top_n (%d) exceeds matching.max_top_n (%d)",
			c.Matching.DefaultTopN, c.Matching.MaxTopN)
	}
	if c.Matching.MinStructuredScore > 1 {
		return fmt.Errorf("matching.min_structured_score must be at most 1, got %g", c.Matching.MinStructuredScore)
	}
	if c.Matching.DefaultRadiusKm < 0 {
		return fmt.Errorf("matching.default_radius_km must not be negative, got %g", c.Matching.DefaultRadiusKm)
	}
	switch c.Budget.Action {
	case "warn", "reject":
	default:
		return fmt.Errorf("budget.action must be \"warn\" or \"reject\", got %q", c.Budget.Action)
	}
	if c.Budget.DailyTokens < 0 || c.Budget.MonthlyTokens < 0 {
		return fmt.Errorf("budget token limits must be non-negative")
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
