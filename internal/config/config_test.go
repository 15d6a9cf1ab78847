package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	if cfg.Port != defaultPort {
		t.Errorf("expected default port %d, got %d", defaultPort, cfg.Port)
	}
	if cfg.Analysis.ChunkMaxMessages != 15 {
		t.Errorf("analysis defaults not applied: %+v", cfg.Analysis)
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := []byte(`
port: 5000
env: production
analysis:
  chunk_max_messages: 20
  lookback_windows_hours: [24, 72]
ai:
  providers:
    - id: local
      type: openai-compatible
      endpoint: http://localhost:9000
      enabled: true
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "6000")
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != 6000 {
		t.Errorf("env PORT should override yaml, got %d", cfg.Port)
	}
	if cfg.IsDev() {
		t.Error("production env should not report dev")
	}
	if cfg.Analysis.ChunkMaxMessages != 20 {
		t.Errorf("yaml analysis value lost: %d", cfg.Analysis.ChunkMaxMessages)
	}
	if len(cfg.Analysis.LookbackWindowsHours) != 2 {
		t.Errorf("yaml windows lost: %v", cfg.Analysis.LookbackWindowsHours)
	}
	// Env key fills the provider's blank key.
	if cfg.AI.Providers[0].APIKey != "env-key" {
		t.Errorf("OPENAI_API_KEY should backfill blank provider key, got %q", cfg.AI.Providers[0].APIKey)
	}
}

func TestOpenAIKeyCreatesDefaultProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.AI.Providers) != 1 {
		t.Fatalf("expected auto provider, got %v", cfg.AI.Providers)
	}
	p := cfg.AI.Providers[0]
	if !p.Enabled || p.APIKey != "sk-test" || p.Type != "openai" {
		t.Errorf("unexpected auto provider: %+v", p)
	}
}

func TestAnalysisNormalizeFillsZeroesOnly(t *testing.T) {
	a := AnalysisConfig{ChunkMaxMessages: 7}
	a.Normalize()
	if a.ChunkMaxMessages != 7 {
		t.Errorf("explicit value overwritten: %d", a.ChunkMaxMessages)
	}
	if a.ChunkGapMinutes != 180 || a.SlowReplyMinutes != 30 || a.ImageSampleLimit != 10 {
		t.Errorf("defaults not filled: %+v", a)
	}
	if a.MinMessages != 3 || a.MessageFetchLimit != 500 || a.CommentMaxRunes != 400 || a.CacheTTLHours != 24 {
		t.Errorf("defaults not filled: %+v", a)
	}
	if len(a.LookbackWindowsHours) != 4 || a.LookbackWindowsHours[0] != 48 {
		t.Errorf("window ladder default wrong: %v", a.LookbackWindowsHours)
	}
}
