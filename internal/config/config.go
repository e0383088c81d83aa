// Package config loads agent settings from a YAML file, EVENTLOG_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Chichichkin/EventLogAgent/internal/logging"
	"github.com/Chichichkin/EventLogAgent/internal/logging/eventlog"
)

const (
	EnvPrefix      = "EVENTLOG"
	configFileName = "eventlog"
	maskedSecret   = "****"
)

type Config struct {
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	APIKey          string        `mapstructure:"api_key"`
	EndpointURL     string        `mapstructure:"endpoint_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	DefaultType     string        `mapstructure:"default_type"`
	FlushInterval   time.Duration `mapstructure:"flush_interval"`
	ReportInterval  time.Duration `mapstructure:"report_interval"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Log             LogConfig     `mapstructure:"log"`
	ConfigPath      string        `mapstructure:"-"` // not from config file
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SetDefaults registers every key so environment variables are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("api_key", "")
	v.SetDefault("endpoint_url", eventlog.DefaultEndpointURL)
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("default_type", logging.General.String())
	v.SetDefault("flush_interval", 5*time.Second)
	v.SetDefault("report_interval", time.Duration(0))
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", false)
}

// Load reads configuration into a Config. An empty path searches ./eventlog.yaml
// and $HOME/.config/eventlog/eventlog.yaml; a missing file there is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/eventlog")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	return &cfg, nil
}

// Validate checks what is needed to talk to the service.
func (c *Config) Validate() error {
	var problems []string

	if c.APIKey == "" {
		problems = append(problems, "api_key is required")
	}
	if c.Username == "" {
		problems = append(problems, "username is required")
	}

	if u, err := url.Parse(c.EndpointURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("endpoint_url %q must be an absolute http(s) URL", c.EndpointURL))
	}

	if _, err := c.EventType(); err != nil {
		problems = append(problems, fmt.Sprintf("default_type: %v", err))
	}

	for name, d := range map[string]time.Duration{
		"timeout":          c.Timeout,
		"flush_interval":   c.FlushInterval,
		"report_interval":  c.ReportInterval,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		if d < 0 {
			problems = append(problems, fmt.Sprintf("%s must not be negative", name))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// EventType is the parsed default_type.
func (c *Config) EventType() (logging.EventType, error) {
	return logging.ParseEventType(c.DefaultType)
}

type renderedConfig struct {
	Username        string      `yaml:"username"`
	Password        string      `yaml:"password"`
	APIKey          string      `yaml:"api_key"`
	EndpointURL     string      `yaml:"endpoint_url"`
	Timeout         string      `yaml:"timeout"`
	DefaultType     string      `yaml:"default_type"`
	FlushInterval   string      `yaml:"flush_interval"`
	ReportInterval  string      `yaml:"report_interval"`
	ShutdownTimeout string      `yaml:"shutdown_timeout"`
	Log             renderedLog `yaml:"log"`
}

type renderedLog struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// RenderYAML renders the effective configuration with secrets masked.
func (c *Config) RenderYAML() ([]byte, error) {
	out := renderedConfig{
		Username:        c.Username,
		Password:        mask(c.Password),
		APIKey:          mask(c.APIKey),
		EndpointURL:     c.EndpointURL,
		Timeout:         c.Timeout.String(),
		DefaultType:     c.DefaultType,
		FlushInterval:   c.FlushInterval.String(),
		ReportInterval:  c.ReportInterval.String(),
		ShutdownTimeout: c.ShutdownTimeout.String(),
		Log: renderedLog{
			Level:      c.Log.Level,
			Format:     c.Log.Format,
			File:       c.Log.File,
			MaxSizeMB:  c.Log.MaxSizeMB,
			MaxBackups: c.Log.MaxBackups,
			MaxAgeDays: c.Log.MaxAgeDays,
			Compress:   c.Log.Compress,
		},
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return maskedSecret
}
