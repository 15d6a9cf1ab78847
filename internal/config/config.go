package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort     = 4100
	defaultEnv      = "development"
	defaultDSN      = "root:password@tcp(127.0.0.1:3306)/pawlink?charset=utf8mb4&parseTime=True&loc=Local"
	defaultRedisURL = "redis://localhost:6379/0"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	DSN            string         `yaml:"dsn"` // MySQL DSN
	RedisURL       string         `yaml:"redis_url"`
	Env            string         `yaml:"env"` // "development" | "production"
	JWTSecret      string         `yaml:"jwt_secret"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	AI             AIConfig       `yaml:"ai"`
	Analysis       AnalysisConfig `yaml:"analysis"`
}

// AIConfig selects the completion provider used for text and vision calls.
type AIConfig struct {
	// Provider optionally pins a provider by ID; otherwise the first
	// enabled provider wins.
	Provider  string       `yaml:"provider"`
	Providers []AIProvider `yaml:"providers"`
}

// AIProvider describes one chat-completions endpoint.
type AIProvider struct {
	ID           string `yaml:"id"`
	Type         string `yaml:"type"` // openai | openai-compatible
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint"`
	DefaultModel string `yaml:"default_model"`
	VisionModel  string `yaml:"vision_model"`
	Enabled      bool   `yaml:"enabled"`
}

// AnalysisConfig exposes the conversation-analysis tunables.
// Zero values are replaced with defaults in Normalize.
type AnalysisConfig struct {
	ChunkMaxMessages     int    `yaml:"chunk_max_messages"`
	ChunkGapMinutes      int    `yaml:"chunk_gap_minutes"`
	SlowReplyMinutes     int    `yaml:"slow_reply_minutes"`
	ImageSampleLimit     int    `yaml:"image_sample_limit"`
	LookbackWindowsHours []int  `yaml:"lookback_windows_hours"`
	MinMessages          int    `yaml:"min_messages"`
	MessageFetchLimit    int    `yaml:"message_fetch_limit"`
	CommentMaxRunes      int    `yaml:"comment_max_runes"`
	CacheTTLHours        int    `yaml:"cache_ttl_hours"`
}

// Normalize fills unset analysis tunables with their defaults.
func (a *AnalysisConfig) Normalize() {
	if a.ChunkMaxMessages <= 0 {
		a.ChunkMaxMessages = 15
	}
	if a.ChunkGapMinutes <= 0 {
		a.ChunkGapMinutes = 180
	}
	if a.SlowReplyMinutes <= 0 {
		a.SlowReplyMinutes = 30
	}
	if a.ImageSampleLimit <= 0 {
		a.ImageSampleLimit = 10
	}
	if len(a.LookbackWindowsHours) == 0 {
		a.LookbackWindowsHours = []int{48, 7 * 24, 30 * 24, 90 * 24}
	}
	if a.MinMessages <= 0 {
		a.MinMessages = 3
	}
	if a.MessageFetchLimit <= 0 {
		a.MessageFetchLimit = 500
	}
	if a.CommentMaxRunes <= 0 {
		a.CommentMaxRunes = 400
	}
	if a.CacheTTLHours <= 0 {
		a.CacheTTLHours = 24
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

// Load reads the YAML config file and applies environment overrides.
// A missing file is not an error; defaults plus environment apply.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{
		Port:     defaultPort,
		DSN:      defaultDSN,
		RedisURL: defaultRedisURL,
		Env:      defaultEnv,
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env/defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	cfg.Analysis.Normalize()

	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = defaultEnv
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Port = p
		}
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_DSN")); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_ENV")); v != "" {
		cfg.Env = v
	}

	// OPENAI_API_KEY fills in a default provider when none is configured,
	// or supplies the key for a configured provider that left it blank.
	key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if key == "" {
		return
	}
	if len(cfg.AI.Providers) == 0 {
		cfg.AI.Providers = []AIProvider{{
			ID:      "openai",
			Type:    "openai",
			APIKey:  key,
			Enabled: true,
		}}
		return
	}
	for i := range cfg.AI.Providers {
		if strings.TrimSpace(cfg.AI.Providers[i].APIKey) == "" {
			cfg.AI.Providers[i].APIKey = key
		}
	}
}
