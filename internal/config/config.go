// Package config loads application configuration.
//
// Sources, lowest precedence first: built-in defaults, the YAML file
// (invoiceforge.yaml in the working directory unless a path is given), a
// .env file, INVOICEFORGE_* environment variables, and finally command-line
// flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up when no path is given.
const DefaultFile = "invoiceforge.yaml"

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "INVOICEFORGE_"

// Config is the application configuration.
type Config struct {
	DBPath        string        `yaml:"db_path"`
	AutosaveDelay time.Duration `yaml:"autosave_delay"`
	LogLevel      string        `yaml:"log_level"`
	LogoMaxWidth  int           `yaml:"logo_max_width"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:        DefaultDBPath(),
		AutosaveDelay: 500 * time.Millisecond,
		LogLevel:      "warn",
		LogoMaxWidth:  400,
	}
}

// DefaultDBPath is invoiceforge/invoiceforge.db under the user config
// directory, or the working directory when that is unknown.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "invoiceforge.db"
	}
	return filepath.Join(dir, "invoiceforge", "invoiceforge.db")
}

// Load builds the configuration. An explicit path must exist; the default
// file and .env are optional.
func Load(path string) (Config, error) {
	cfg := Default()

	file, required := path, true
	if file == "" {
		file, required = DefaultFile, false
	}
	if err := cfg.readFile(file, required); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvPrefix + "DB_PATH"); ok && v != "" {
		c.DBPath = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "AUTOSAVE_DELAY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sAUTOSAVE_DELAY: %w", EnvPrefix, err)
		}
		c.AutosaveDelay = d
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOGO_MAX_WIDTH"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sLOGO_MAX_WIDTH: %w", EnvPrefix, err)
		}
		c.LogoMaxWidth = n
	}
	return nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("config: db_path is required")
	}
	if c.AutosaveDelay <= 0 {
		return fmt.Errorf("config: autosave_delay must be positive, got %s", c.AutosaveDelay)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.LogoMaxWidth < 16 || c.LogoMaxWidth > 4096 {
		return fmt.Errorf("config: logo_max_width must be between 16 and 4096, got %d", c.LogoMaxWidth)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("config: log_level: %w", err)
	}
	return lvl, nil
}
