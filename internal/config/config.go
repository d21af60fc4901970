package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/medcenter/hms-vouchers/pkg/utils"
)

// EnvPrefix namespaces environment overrides, e.g. HMS_SERVER_PORT
const EnvPrefix = "HMS"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Lark     LarkConfig     `mapstructure:"lark"`
	Export   ExportConfig   `mapstructure:"export"`
	Client   ClientConfig   `mapstructure:"client"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	APIToken     string        `mapstructure:"api_token"`
	Version      string        `mapstructure:"version"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// LarkConfig holds the notification bot settings. Notifications are off
// while app_id is empty.
type LarkConfig struct {
	AppID            string `mapstructure:"app_id"`
	AppSecret        string `mapstructure:"app_secret"`
	BaseURL          string `mapstructure:"base_url"`
	ApproverChatID   string `mapstructure:"approver_chat_id"`
	AccountantChatID string `mapstructure:"accountant_chat_id"`
}

// Enabled reports whether Lark notifications are configured
func (c LarkConfig) Enabled() bool {
	return c.AppID != ""
}

// ExportConfig holds voucher register settings
type ExportConfig struct {
	SheetName   string `mapstructure:"sheet_name"`
	CompanyName string `mapstructure:"company_name"`
}

// ClientConfig holds the voucherctl connection settings
type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
	Actor   string        `mapstructure:"actor"`
}

// Load reads configPath (optional), a .env file in the working directory
// when present, and HMS_* environment overrides
func Load(configPath string) (*Config, error) {
	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadEnvFile exports the variables in path without overriding ones already
// set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.api_token", "")
	v.SetDefault("server.version", "1.0.0")

	v.SetDefault("database.path", "data/hms.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)
	v.SetDefault("database.busy_timeout", 5*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("lark.app_id", "")
	v.SetDefault("lark.app_secret", "")
	v.SetDefault("lark.base_url", "")
	v.SetDefault("lark.approver_chat_id", "")
	v.SetDefault("lark.accountant_chat_id", "")

	v.SetDefault("export.sheet_name", "Vouchers")
	v.SetDefault("export.company_name", "Private Medical Center")

	v.SetDefault("client.base_url", "http://localhost:8000")
	v.SetDefault("client.token", "")
	v.SetDefault("client.timeout", 15*time.Second)
	v.SetDefault("client.actor", "")
}

// bindEnvVars binds the unprefixed names operators already use for credentials
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("lark.app_id", "HMS_LARK_APP_ID", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "HMS_LARK_APP_SECRET", "LARK_APP_SECRET")
	_ = v.BindEnv("server.api_token", "HMS_SERVER_API_TOKEN", "HMS_API_TOKEN")
	_ = v.BindEnv("client.token", "HMS_CLIENT_TOKEN", "HMS_API_TOKEN")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns must not be negative")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	if c.Lark.Enabled() {
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required when lark.app_id is set")
		}
		if c.Lark.ApproverChatID == "" && c.Lark.AccountantChatID == "" {
			return fmt.Errorf("lark needs approver_chat_id or accountant_chat_id")
		}
		if c.Lark.BaseURL != "" {
			if err := utils.ValidateBaseURL(c.Lark.BaseURL); err != nil {
				return fmt.Errorf("lark.base_url: %w", err)
			}
		}
	}

	if err := utils.ValidateBaseURL(c.Client.BaseURL); err != nil {
		return fmt.Errorf("client.base_url: %w", err)
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive")
	}

	return nil
}
