package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const (
	envPrefix = "RECPREFS"

	// ServiceName is the keyring service secrets are stored under
	ServiceName = "recprefs"
	// BotTokenKey is the keyring entry holding the Telegram bot token
	BotTokenKey = "telegram_bot_token"
)

type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	LoginItem LoginItemConfig `mapstructure:"login_item"`
	Desktop   DesktopConfig   `mapstructure:"desktop"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
	// DefaultSaveDirectory is where recordings go while no folder is chosen
	DefaultSaveDirectory string `mapstructure:"default_save_directory"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	JSONFormat bool   `mapstructure:"json_format"`
}

type HTTPConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	AllowOrigins []string      `mapstructure:"allow_origins"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
}

type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	AllowedUsers   []int64       `mapstructure:"allowed_users"`
	PollingTimeout int           `mapstructure:"polling_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LoginItemConfig struct {
	Label string `mapstructure:"label"`
	// Program is the executable started at login; empty means the running binary
	Program string `mapstructure:"program"`
}

// DesktopConfig selects the host integrations; headless hosts turn them off
type DesktopConfig struct {
	Notifications bool   `mapstructure:"notifications"`
	NotifyIcon    string `mapstructure:"notify_icon"`
	FolderDialog  bool   `mapstructure:"folder_dialog"`
}

// Load reads configuration from .env, an optional yaml file, RECPREFS_* environment
// variables and defaults. configFile overrides the search path when set.
func Load(configFile string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "recprefs"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found is OK, use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Telegram.Enabled && cfg.Telegram.BotToken == "" {
		token, err := BotToken()
		if err != nil {
			return nil, err
		}
		cfg.Telegram.BotToken = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.path", defaultStorePath())
	v.SetDefault("store.default_save_directory", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json_format", false)
	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", "127.0.0.1:7878")
	v.SetDefault("http.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.allowed_users", []int64{})
	v.SetDefault("telegram.polling_timeout", 60)
	v.SetDefault("telegram.request_timeout", "30s")
	v.SetDefault("login_item.label", "com.recprefs.prefsd")
	v.SetDefault("login_item.program", "")
	v.SetDefault("desktop.notifications", true)
	v.SetDefault("desktop.notify_icon", "")
	v.SetDefault("desktop.folder_dialog", true)
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "data", "prefs.db")
	}
	return filepath.Join(dir, "recprefs", "prefs.db")
}

// BotToken reads the Telegram bot token from the OS keyring. A missing entry is not an error.
func BotToken() (string, error) {
	token, err := keyring.Get(ServiceName, BotTokenKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read bot token from keyring: %w", err)
	}
	return token, nil
}

// StoreBotToken saves the Telegram bot token in the OS keyring
func StoreBotToken(token string) error {
	if err := keyring.Set(ServiceName, BotTokenKey, token); err != nil {
		return fmt.Errorf("store bot token in keyring: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if d := c.Store.DefaultSaveDirectory; d != "" && !filepath.IsAbs(d) {
		return fmt.Errorf("store.default_save_directory must be an absolute path")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required when http is enabled")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required (config, RECPREFS_TELEGRAM_BOT_TOKEN or keyring)")
		}
		if len(c.Telegram.AllowedUsers) == 0 {
			return fmt.Errorf("telegram.allowed_users must contain at least one user ID")
		}
		if c.Telegram.PollingTimeout < 1 {
			return fmt.Errorf("telegram.polling_timeout must be positive")
		}
	}
	if c.LoginItem.Label == "" {
		return fmt.Errorf("login_item.label is required")
	}
	return nil
}
