package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "FOCUSLOOP"
	configName = "focusloop"
)

var validate = validator.New()

type RuntimeConfig struct {
	DataDir              string        `mapstructure:"data_dir" validate:"required"`
	Store                string        `mapstructure:"store" validate:"oneof=sqlite file"`
	LogFile              string        `mapstructure:"log_file"`
	LogLevel             string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	AlarmEnabled         bool          `mapstructure:"alarm_enabled"`
	DesktopNotifications bool          `mapstructure:"desktop_notifications"`
	Bell                 bool          `mapstructure:"bell"`
	TickInterval         time.Duration `mapstructure:"tick_interval" validate:"gte=100ms,lte=1m"`
	SchedulerBuffer      int           `mapstructure:"scheduler_buffer" validate:"gte=1"`
	GistID               string        `mapstructure:"gist_id"`
	GistToken            string        `mapstructure:"gist_token"`
	GistFile             string        `mapstructure:"gist_file" validate:"required"`
	GistAPI              string        `mapstructure:"gist_api" validate:"url"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DataDir:              defaultDataDir(),
		Store:                "sqlite",
		LogLevel:             "info",
		AlarmEnabled:         true,
		DesktopNotifications: false,
		Bell:                 true,
		TickInterval:         time.Second,
		SchedulerBuffer:      16,
		GistFile:             "focus-loops.json",
		GistAPI:              "https://api.github.com",
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "focusloop")
	}
	return ".focusloop"
}

// SetDefaults registers every key so that environment variables and bound
// flags are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := DefaultRuntimeConfig()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("store", d.Store)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("alarm_enabled", d.AlarmEnabled)
	v.SetDefault("desktop_notifications", d.DesktopNotifications)
	v.SetDefault("bell", d.Bell)
	v.SetDefault("tick_interval", d.TickInterval)
	v.SetDefault("scheduler_buffer", d.SchedulerBuffer)
	v.SetDefault("gist_id", d.GistID)
	v.SetDefault("gist_token", d.GistToken)
	v.SetDefault("gist_file", d.GistFile)
	v.SetDefault("gist_api", d.GistAPI)
}

// Load layers defaults, an optional config file, a .env file and FOCUSLOOP_*
// environment variables. configFile may be empty, in which case
// focusloop.yaml is looked up in the working directory and the data dir.
func Load(v *viper.Viper, configFile string) (RuntimeConfig, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		v.AddConfigPath(v.GetString("data_dir"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return RuntimeConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg RuntimeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return RuntimeConfig{}, err
	}
	return cfg, nil
}

func (c RuntimeConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c RuntimeConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, "focusloop.db")
}

func (c RuntimeConfig) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "focusloop.log")
}

func (c RuntimeConfig) SyncConfigured() bool {
	return strings.TrimSpace(c.GistID) != "" && strings.TrimSpace(c.GistToken) != ""
}
