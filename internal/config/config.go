// Package config loads server settings from flags, the environment and an
// optional config file.
//
// Precedence, highest first: command-line flag, environment variable,
// config file, built-in default. Environment names are the upper-case keys
// below (PORT, DB_PATH, JWT_SECRET, ...).
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the fully resolved server configuration.
type Config struct {
	Port       int           `mapstructure:"PORT"`
	DBPath     string        `mapstructure:"DB_PATH"`
	JWTSecret  string        `mapstructure:"JWT_SECRET"`
	SessionTTL time.Duration `mapstructure:"SESSION_TTL"`
	LogLevel   string        `mapstructure:"LOG_LEVEL"`
	LogFormat  string        `mapstructure:"LOG_FORMAT"`
}

// defaultEnvFile is read when present and no --config is given.
const defaultEnvFile = ".env"

// flag name -> config key
var flagKeys = map[string]string{
	"port":        "PORT",
	"db-path":     "DB_PATH",
	"jwt-secret":  "JWT_SECRET",
	"session-ttl": "SESSION_TTL",
	"log-level":   "LOG_LEVEL",
	"log-format":  "LOG_FORMAT",
}

// Load parses args (without the program name) and resolves the config.
// It returns pflag.ErrHelp when -h or --help is passed.
func Load(args []string, lookupEnv func(string) (string, bool)) (Config, error) {
	fs := pflag.NewFlagSet("calendar-server", pflag.ContinueOnError)
	fs.Int("port", 8080, "HTTP listen port")
	fs.String("db-path", "data/calendar.db", "SQLite database file, or :memory:")
	fs.String("jwt-secret", "", "HMAC secret for session tokens (at least 16 characters)")
	fs.Duration("session-ttl", 7*24*time.Hour, "how long a login stays valid")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("log-format", "text", "text or json")
	configFile := fs.String("config", "", "optional config file (.env, .yaml, .json, .toml)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return Config{}, fmt.Errorf("config: binding flag %s: %w", flag, err)
		}
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("config: binding env %s: %w", key, err)
		}
	}

	if err := readConfigFile(v, *configFile); err != nil {
		return Config{}, err
	}

	// viper reads the process environment itself; a custom lookup lets
	// tests inject values without touching os.Environ.
	if lookupEnv != nil {
		for flag, key := range flagKeys {
			if fs.Changed(flag) {
				continue
			}
			if val, ok := lookupEnv(key); ok {
				v.Set(key, val)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		if _, err := os.Stat(defaultEnvFile); err != nil {
			return nil
		}
		path = defaultEnvFile
	}

	v.SetConfigFile(path)
	if strings.HasSuffix(path, ".env") {
		v.SetConfigType("env")
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: PORT %d out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("config: DB_PATH is required"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("config: JWT_SECRET must be at least 16 characters"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("config: SESSION_TTL must be positive"))
	}
	if _, err := c.level(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: LOG_FORMAT %q must be text or json", c.LogFormat))
	}
	return errors.Join(errs...)
}

func (c Config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// NewLogger builds the structured logger described by the config.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
