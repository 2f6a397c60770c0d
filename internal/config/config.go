package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultModel           = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens       = 300
	DefaultTemperature     = 0.9
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 18891
	DefaultBufSize         = 100
	DefaultMessageCap      = 100
	DefaultPhraseCap       = 50
	DefaultSessionGap      = "6h"
	DefaultColdReentry     = true
	DefaultSobProbability  = 0.3
	DefaultGenerateTimeout = 30
)

type Config struct {
	Generation GenerationConfig `json:"generation"`
	Provider   ProviderConfig   `json:"provider"`
	Memory     MemoryConfig     `json:"memory"`
	Scenario   ScenarioConfig   `json:"scenario"`
	Channels   ChannelsConfig   `json:"channels"`
	Gateway    GatewayConfig    `json:"gateway"`
	Analytics  AnalyticsConfig  `json:"analytics"`
}

type GenerationConfig struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
	TimeoutSec  int     `json:"timeoutSec,omitempty"`
}

type ProviderConfig struct {
	Type    string `json:"type,omitempty"` // "anthropic" (default) or "openai"
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
}

type MemoryConfig struct {
	Dir         string `json:"dir,omitempty"`
	MessageCap  int    `json:"messageCap,omitempty"`
	PhraseCap   int    `json:"phraseCap,omitempty"`
	SessionGap  string `json:"sessionGap,omitempty"`
	ColdReentry *bool  `json:"coldReentry,omitempty"` // returning cold fans re-enter at small talk
}

type ScenarioConfig struct {
	Path           string  `json:"path,omitempty"` // YAML persona/scenario file
	SobProbability float64 `json:"sobProbability,omitempty"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Console  ConsoleConfig  `json:"console"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
}

type ConsoleConfig struct {
	Enabled bool `json:"enabled"`
}

type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type AnalyticsConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath,omitempty"`
}

func DefaultConfig() *Config {
	cold := DefaultColdReentry
	return &Config{
		Generation: GenerationConfig{
			Model:       DefaultModel,
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
			TimeoutSec:  DefaultGenerateTimeout,
		},
		Provider: ProviderConfig{},
		Memory: MemoryConfig{
			MessageCap:  DefaultMessageCap,
			PhraseCap:   DefaultPhraseCap,
			SessionGap:  DefaultSessionGap,
			ColdReentry: &cold,
		},
		Scenario: ScenarioConfig{
			SobProbability: DefaultSobProbability,
		},
		Channels: ChannelsConfig{},
		Gateway: GatewayConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Analytics: AnalyticsConfig{Enabled: true},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".chatter")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// SessionGapDuration parses the inactivity gap that separates sessions,
// falling back to the default on bad input.
func (m MemoryConfig) SessionGapDuration() time.Duration {
	if d, err := time.ParseDuration(m.SessionGap); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultSessionGap)
	return d
}

func (m MemoryConfig) ColdReentryEnabled() bool {
	if m.ColdReentry == nil {
		return DefaultColdReentry
	}
	return *m.ColdReentry
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if key := os.Getenv("CHATTER_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		if cfg.Provider.Type == "" {
			cfg.Provider.Type = "openai"
		}
	}
	if url := os.Getenv("CHATTER_BASE_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if model := os.Getenv("CHATTER_MODEL"); model != "" {
		cfg.Generation.Model = model
	}
	if token := os.Getenv("CHATTER_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
	}
	if dir := os.Getenv("CHATTER_MEMORY_DIR"); dir != "" {
		cfg.Memory.Dir = dir
	}
	if gap := os.Getenv("CHATTER_SESSION_GAP"); gap != "" {
		cfg.Memory.SessionGap = gap
	}
	if p := os.Getenv("CHATTER_SCENARIO_PATH"); p != "" {
		cfg.Scenario.Path = p
	}
	if prob := os.Getenv("CHATTER_SOB_PROBABILITY"); prob != "" {
		if parsed, err := strconv.ParseFloat(prob, 64); err == nil {
			cfg.Scenario.SobProbability = parsed
		}
	}
	if dbPath := os.Getenv("CHATTER_ANALYTICS_DB"); dbPath != "" {
		cfg.Analytics.DBPath = dbPath
	}

	if cfg.Memory.Dir == "" {
		cfg.Memory.Dir = filepath.Join(ConfigDir(), "data", "memories")
	}
	if cfg.Analytics.DBPath == "" {
		cfg.Analytics.DBPath = filepath.Join(ConfigDir(), "data", "analytics.db")
	}
	if cfg.Memory.MessageCap <= 0 {
		cfg.Memory.MessageCap = DefaultMessageCap
	}
	if cfg.Memory.PhraseCap <= 0 {
		cfg.Memory.PhraseCap = DefaultPhraseCap
	}
	if cfg.Memory.SessionGap == "" {
		cfg.Memory.SessionGap = DefaultSessionGap
	}
	if cfg.Scenario.SobProbability < 0 || cfg.Scenario.SobProbability > 1 {
		cfg.Scenario.SobProbability = DefaultSobProbability
	}
	if cfg.Generation.TimeoutSec <= 0 {
		cfg.Generation.TimeoutSec = DefaultGenerateTimeout
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
