package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Gemini    GeminiConfig    `json:"gemini"`
	CLI       CLIConfig       `json:"cli"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`
	Logging   LoggingConfig   `json:"logging"`
}

type TelegramConfig struct {
	Enabled   bool                `json:"enabled" env:"KRITIKA_TELEGRAM_ENABLED"`
	Token     string              `json:"token" env:"TELEGRAM_BOT_TOKEN"`
	Proxy     string              `json:"proxy" env:"KRITIKA_TELEGRAM_PROXY"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"KRITIKA_TELEGRAM_ALLOW_FROM"`
}

type GeminiConfig struct {
	APIKey          string  `json:"api_key" env:"GOOGLE_API_KEY"`
	APIBase         string  `json:"api_base" env:"KRITIKA_GEMINI_API_BASE"`
	Model           string  `json:"model" env:"KRITIKA_GEMINI_MODEL"`
	Temperature     float64 `json:"temperature" env:"KRITIKA_GEMINI_TEMPERATURE"`
	TopP            float64 `json:"top_p" env:"KRITIKA_GEMINI_TOP_P"`
	TopK            int     `json:"top_k" env:"KRITIKA_GEMINI_TOP_K"`
	MaxOutputTokens int     `json:"max_output_tokens" env:"KRITIKA_GEMINI_MAX_OUTPUT_TOKENS"`
	HTTPTimeout     int     `json:"http_timeout" env:"KRITIKA_GEMINI_HTTP_TIMEOUT"` // seconds
}

type CLIConfig struct {
	Enabled bool `json:"enabled" env:"KRITIKA_CLI_ENABLED"`
}

type HeartbeatConfig struct {
	Enabled bool   `json:"enabled" env:"KRITIKA_HEARTBEAT_ENABLED"`
	Cron    string `json:"cron" env:"KRITIKA_HEARTBEAT_CRON"`
	Prompt  string `json:"prompt" env:"KRITIKA_HEARTBEAT_PROMPT"`
}

type LoggingConfig struct {
	Debug       bool   `json:"debug" env:"KRITIKA_LOGGING_DEBUG"`
	FileEnabled bool   `json:"file_enabled" env:"KRITIKA_LOGGING_FILE_ENABLED"`
	FilePath    string `json:"file_path" env:"KRITIKA_LOGGING_FILE_PATH"`
	MaxSizeMB   int    `json:"max_size_mb" env:"KRITIKA_LOGGING_MAX_SIZE_MB"`
	MaxAgeDays  int    `json:"max_age_days" env:"KRITIKA_LOGGING_MAX_AGE_DAYS"`
}

func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Enabled:   true,
			Token:     "",
			AllowFrom: FlexibleStringSlice{},
		},
		Gemini: GeminiConfig{
			APIKey:          "",
			Model:           "gemini-1.5-flash-latest",
			Temperature:     0.9,
			TopP:            1,
			TopK:            1,
			MaxOutputTokens: 2500,
			HTTPTimeout:     120,
		},
		CLI: CLIConfig{
			Enabled: false,
		},
		Heartbeat: HeartbeatConfig{
			Enabled: false,
			Cron:    "0 7 * * *",
			Prompt:  "आज का daily practice task bhejiye.",
		},
		Logging: LoggingConfig{
			Debug:       false,
			FileEnabled: false,
			FilePath:    "~/.kritika/kritika.log",
			MaxSizeMB:   50,
			MaxAgeDays:  7,
		},
	}
}

// LoadConfig builds the config from defaults, an optional JSON file and
// environment overrides, in that order. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(expandHome(path))
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Telegram.Token = resolveEnvRef(cfg.Telegram.Token)
	cfg.Gemini.APIKey = resolveEnvRef(cfg.Gemini.APIKey)

	return cfg, nil
}

// Validate implements the fail-fast startup contract: both deployment
// secrets must be present before any event loop starts.
func (c *Config) Validate() error {
	if c.Telegram.Enabled && strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN not found in environment variables or config")
	}
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return fmt.Errorf("GOOGLE_API_KEY not found in environment variables or config")
	}
	return nil
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}

// resolveEnvRef resolves "$VAR" and "${VAR}" values so secrets can be
// referenced from a config file without being stored in it.
func resolveEnvRef(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return v
	}
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		key := strings.TrimSpace(s[2 : len(s)-1])
		if key == "" {
			return v
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return v
	}
	if strings.HasPrefix(s, "$") && len(s) > 1 {
		key := strings.TrimSpace(s[1:])
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
	}
	return v
}
