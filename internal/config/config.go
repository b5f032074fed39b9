// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.suno-architect/config.yaml)
//  3. Default values
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the Gemini API key is missing.
	ErrMissingAPIKey = errors.New("missing GEMINI_API_KEY")

	// ErrInvalidModelName indicates a model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidSunoModel indicates the render model is not a known version.
	ErrInvalidSunoModel = errors.New("invalid suno model")

	// ErrInvalidAddr indicates the listen address is empty.
	ErrInvalidAddr = errors.New("invalid listen address")
)

// sunoModels are the render model versions the API accepts.
var sunoModels = map[string]bool{
	"V3_5": true, "V4": true, "V4_5": true, "V4_5PLUS": true, "V5": true,
}

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// LLM model configuration. ProModel handles generation, critique and
	// rewriting; FlashModel the cheaper calls.
	ProModel    string  `mapstructure:"pro_model" json:"pro_model"`
	FlashModel  string  `mapstructure:"flash_model" json:"flash_model"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`

	// Cover art configuration.
	ImageModel string `mapstructure:"image_model" json:"image_model"`
	CoverArt   bool   `mapstructure:"cover_art" json:"cover_art"`

	// Music rendering. Rendering is disabled when SunoAPIKey is empty.
	SunoAPIKey  string `mapstructure:"suno_api_key" json:"suno_api_key"` // SENSITIVE: masked in MarshalJSON
	SunoBaseURL string `mapstructure:"suno_base_url" json:"suno_base_url"`
	SunoModel   string `mapstructure:"suno_model" json:"suno_model"`

	// Storage and server.
	DataDir string `mapstructure:"data_dir" json:"data_dir"`
	Addr    string `mapstructure:"addr" json:"addr"`

	// Logging.
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".suno-architect")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults(configDir)
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(configDir string) {
	viper.SetDefault("pro_model", "gemini-2.5-pro")
	viper.SetDefault("flash_model", "gemini-2.5-flash")
	viper.SetDefault("temperature", 0.9)

	viper.SetDefault("image_model", "imagen-4.0-generate-001")
	viper.SetDefault("cover_art", true)

	viper.SetDefault("suno_base_url", "https://api.sunoapi.org/api/v1")
	viper.SetDefault("suno_model", "V4")

	viper.SetDefault("data_dir", filepath.Join(configDir, "data"))
	viper.SetDefault("addr", ":8080")

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variables explicitly.
// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper; its
// presence is checked in Validate().
func bindEnvVariables() {
	// Hardcoded strings can't fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("suno_api_key", "SUNO_API_KEY")
	mustBind("pro_model", "ARCHITECT_PRO_MODEL")
	mustBind("flash_model", "ARCHITECT_FLASH_MODEL")
	mustBind("cover_art", "ARCHITECT_COVER_ART")
	mustBind("data_dir", "ARCHITECT_DATA_DIR")
	mustBind("addr", "ARCHITECT_ADDR")
	mustBind("log_level", "ARCHITECT_LOG_LEVEL")
	mustBind("log_json", "ARCHITECT_LOG_JSON")
}

// Validate performs range and presence checks. Fail-fast: a bad config
// never reaches the server.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if strings.TrimSpace(c.ProModel) == "" {
		return fmt.Errorf("%w: pro_model must not be empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.FlashModel) == "" {
		return fmt.Errorf("%w: flash_model must not be empty", ErrInvalidModelName)
	}
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}
	if c.SunoModel != "" && !sunoModels[c.SunoModel] {
		return fmt.Errorf("%w: %q", ErrInvalidSunoModel, c.SunoModel)
	}
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidAddr)
	}
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY in the environment", ErrMissingAPIKey)
	}
	return nil
}

// RenderEnabled reports whether music rendering is configured.
func (c *Config) RenderEnabled() bool {
	return c.SunoAPIKey != ""
}

// ProModelName returns the provider-qualified pro model name for Genkit.
func (c *Config) ProModelName() string {
	return qualify(c.ProModel)
}

// FlashModelName returns the provider-qualified flash model name.
func (c *Config) FlashModelName() string {
	return qualify(c.FlashModel)
}

// qualify prefixes bare Gemini model names with the googleai provider.
// Names that already carry a provider are returned as-is.
func qualify(model string) string {
	if strings.Contains(model, "/") {
		return model
	}
	return "googleai/" + model
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Shows first 2 and
// last 2 characters of long secrets, fully masks short ones to prevent
// substring matching.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field
// masking. When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.SunoAPIKey = maskSecret(a.SunoAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
