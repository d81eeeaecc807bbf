package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Credentials and addressing
	TelegramToken string `mapstructure:"telegram_token" validate:"required"`
	JulesToken    string `mapstructure:"jules_token" validate:"required"`
	AdminChatID   int64  `mapstructure:"admin_chat_id" validate:"required"`

	// Global settings
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	API     APIConfig     `mapstructure:"api"`
	Monitor MonitorConfig `mapstructure:"monitor"`
}

// APIConfig holds Jules API client settings
type APIConfig struct {
	BaseURL  string `mapstructure:"base_url" validate:"required,url"`
	PageSize int    `mapstructure:"page_size" validate:"min=1,max=100"`
	// DebugLog is a JSONL file receiving raw API responses; empty disables it.
	DebugLog string `mapstructure:"debug_log"`
}

// MonitorConfig holds Change Monitor settings
type MonitorConfig struct {
	// Interval between poll ticks.
	Interval time.Duration `mapstructure:"interval"`
	// Duration of a /monitor window; zero runs until shutdown.
	Duration time.Duration `mapstructure:"duration"`
	// Autostart runs an unbounded monitoring loop from process start.
	Autostart bool `mapstructure:"autostart"`
	// CriticalStates get an attention marker in notifications.
	CriticalStates []string `mapstructure:"critical_states"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		LogLevel: "info",
		API: APIConfig{
			BaseURL:  "https://jules.googleapis.com/v1alpha",
			PageSize: 10,
		},
		Monitor: MonitorConfig{
			Interval:       60 * time.Second,
			Duration:       time.Hour,
			Autostart:      false,
			CriticalStates: []string{"AWAITING_PLAN_APPROVAL", "AWAITING_USER_FEEDBACK"},
		},
	}
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("julesbot")
	v.SetConfigType("yaml")

	// Config paths (in order of precedence, lowest first)
	v.AddConfigPath("/etc/julesbot/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "julesbot"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".julesbot")
	}
	v.AddConfigPath(".")

	bindEnv(v)
	setDefaults(v)

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	bindEnv(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("JULESBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Legacy environment names from the original deployment recipe.
	v.BindEnv("telegram_token", "JULESBOT_TELEGRAM_TOKEN", "TG_TOKEN")
	v.BindEnv("jules_token", "JULESBOT_JULES_TOKEN", "JULES_TOKEN")
	v.BindEnv("admin_chat_id", "JULESBOT_ADMIN_CHAT_ID", "ADMIN_CHAT_ID")
	v.BindEnv("monitor.interval", "JULESBOT_MONITOR_INTERVAL")
	v.BindEnv("monitor.autostart", "JULESBOT_MONITOR_AUTOSTART")
}

func setDefaults(v *viper.Viper) {
	cfg := Default()
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.page_size", cfg.API.PageSize)
	v.SetDefault("monitor.interval", cfg.Monitor.Interval)
	v.SetDefault("monitor.duration", cfg.Monitor.Duration)
	v.SetDefault("monitor.autostart", cfg.Monitor.Autostart)
	v.SetDefault("monitor.critical_states", cfg.Monitor.CriticalStates)
}

// Validate checks that the configuration is complete enough to start.
// Missing credentials are fatal at startup, never discovered mid-run.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Monitor.Interval < time.Second {
		return fmt.Errorf("invalid configuration: monitor interval %s is below 1s", c.Monitor.Interval)
	}
	if c.Monitor.Duration < 0 {
		return fmt.Errorf("invalid configuration: monitor duration must not be negative")
	}
	return nil
}
