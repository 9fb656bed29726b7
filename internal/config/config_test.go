package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Database.Driver != "valkey" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Storage.KeyPrefix != "matchmate:" {
		t.Errorf("key prefix = %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Embedding.Dimensions != 1536 || cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("embedding defaults = %+v", cfg.Embedding)
	}
	if cfg.Embedding.CacheTTL() != 7*24*time.Hour {
		t.Errorf("cache ttl = %v", cfg.Embedding.CacheTTL())
	}
	if cfg.Embedding.RetryAttempts != 3 || cfg.Embedding.RetryBaseDelay() != 500*time.Millisecond {
		t.Errorf("retry defaults = %+v", cfg.Embedding)
	}
	if cfg.LLM.Model != "gpt-4o-mini" || cfg.LLM.MaxCandidates != 20 || cfg.LLM.MaxTokens != 1024 {
		t.Errorf("llm defaults = %+v", cfg.LLM)
	}
	if cfg.Matching.Strategy != "ai" || cfg.Matching.DefaultTopN != 5 || cfg.Matching.MinStructuredScore != 0.1 {
		t.Errorf("matching defaults = %+v", cfg.Matching)
	}
	if cfg.Matching.DefaultRadiusKm != 10 {
		t.Errorf("default radius = %g, want 10", cfg.Matching.DefaultRadiusKm)
	}
	if cfg.Budget.Action != "warn" {
		t.Errorf("budget action = %q", cfg.Budget.Action)
	}
	if cfg.Embedding.Enabled() || cfg.LLM.Enabled() {
		t.Error("providers without api keys must be disabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "memcached" }, "database.driver"},
		{"no addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"bad dimensions", func(c *Config) { c.Embedding.Dimensions = -1 }, "embedding.dimensions"},
		{"bad strategy", func(c *Config) { c.Matching.Strategy = "magic" }, "matching.strategy"},
		{"top n inverted", func(c *Config) { c.Matching.DefaultTopN = 60 }, "default_top_n"},
		{"bad min score", func(c *Config) { c.Matching.MinStructuredScore = 1.5 }, "min_structured_score"},
		{"negative radius", func(c *Config) { c.Matching.DefaultRadiusKm = -2 }, "default_radius_km"},
		{"bad temperature", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"bad budget action", func(c *Config) { c.Budget.Action = "invalid_action" }, "budget.action"},
		{"negative budget", func(c *Config) { c.Budget.DailyTokens = -5 }, "non-negative"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_BudgetActions(t *testing.T) {
	for _, action := range []string{"warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Budget.Action = action
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("MATCHMATE_TEST_KEY", "sk-test")
	data := []byte(`
http:
  port: ${MATCHMATE_TEST_PORT:-9090}
database:
  driver: redis
  addrs: ["localhost:6379"]
embedding:
  api_key: ${MATCHMATE_TEST_KEY}
llm:
  api_key: ${MATCHMATE_TEST_MISSING}
matching:
  strategy: embedding
  default_radius_km: 25
budget:
  daily_tokens: 100000
  action: reject
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want default from expansion", cfg.HTTP.Port)
	}
	if !cfg.Embedding.Enabled() || cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("embedding api key = %q", cfg.Embedding.APIKey)
	}
	if cfg.LLM.Enabled() {
		t.Error("unset variable must leave llm disabled")
	}
	if cfg.Database.Driver != "redis" || cfg.Matching.Strategy != "embedding" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Matching.DefaultRadiusKm != 25 {
		t.Errorf("default radius = %g, want 25", cfg.Matching.DefaultRadiusKm)
	}
	if cfg.Budget.DailyTokens != 100000 || cfg.Budget.Action != "reject" {
		t.Errorf("budget = %+v", cfg.Budget)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected yaml error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Fatal("expected validation error for missing addrs")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("MM_A", "x")
	got := string(expandEnvVars([]byte("${MM_A} ${MM_UNSET:-y} ${MM_UNSET}")))
	if got != "x y " {
		t.Errorf("got %q", got)
	}
}
