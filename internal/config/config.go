// Package config loads service configuration from defaults, an optional
// YAML file, DASHPANEL_* environment variables (optionally from .env) and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "DASHPANEL"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	RenderTimeout   time.Duration `mapstructure:"render_timeout"`
	ShowStackTraces bool          `mapstructure:"show_stack_traces"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig enables the panel cache when URL is set.
type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

type EngineConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"listen":            "server.listen",
	"render-timeout":    "server.render_timeout",
	"show-stack-traces": "server.show_stack_traces",
	"db":                "database.path",
	"redis-url":         "redis.url",
	"redis-ttl":         "redis.ttl",
	"max-depth":         "engine.max_depth",
	"log-level":         "log.level",
	"log-format":        "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":25600")
	v.SetDefault("server.render_timeout", 10*time.Second)
	v.SetDefault("server.show_stack_traces", false)
	v.SetDefault("database.path", "dashpanel.db")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl", 5*time.Minute)
	v.SetDefault("engine.max_depth", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load resolves the configuration. configFile may be empty, in which case
// $DASHPANEL_CONFIG or config.yaml in the usual directories is used if
// present. A .env file in the working directory is loaded into the
// environment first; variables already set take precedence. flags may be
// nil; only flags the user changed override other sources.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("/etc/dashpanel")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "dashpanel"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Listen) == "" {
		errs = append(errs, errors.New("server.listen must not be empty"))
	}
	if c.Server.RenderTimeout <= 0 {
		errs = append(errs, errors.New("server.render_timeout must be positive"))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}
	if c.Engine.MaxDepth < 1 {
		errs = append(errs, errors.New("engine.max_depth must be at least 1"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
