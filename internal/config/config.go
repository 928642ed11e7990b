package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/rx/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "rx.yaml"

	// DefaultAddr is the default server address.
	DefaultAddr = ":3000"

	// DefaultBudget is the default per-tick run limit of a binding.
	DefaultBudget = 100

	// DefaultSnapshotName is the snapshot name used when none is configured.
	DefaultSnapshotName = "default"

	// DefaultBoltPath is the default bbolt database file.
	DefaultBoltPath = "rx.db"
)

// Backend names accepted by persist.backend.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendS3     = "s3"
)

// Config represents the complete rx.yaml configuration.
type Config struct {
	// Name is the application name.
	Name string `yaml:"name,omitempty"`

	// Debug enables debug logging and development checks.
	Debug bool `yaml:"debug,omitempty"`

	// Server contains HTTP server configuration.
	Server ServerConfig `yaml:"server,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `yaml:"log,omitempty"`

	// Runtime contains reactive runtime configuration.
	Runtime RuntimeConfig `yaml:"runtime,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `yaml:"metrics,omitempty"`

	// Persist contains snapshot persistence configuration.
	Persist PersistConfig `yaml:"persist,omitempty"`

	// InitialState seeds the state store.
	InitialState map[string]any `yaml:"initialState,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr,omitempty"`

	// Devtools mounts the live state inspector.
	Devtools bool `yaml:"devtools,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Format is text, json, or auto (text on a terminal, json otherwise).
	Format string `yaml:"format,omitempty"`
}

// RuntimeConfig contains reactive runtime settings.
type RuntimeConfig struct {
	// Budget limits binding re-runs per tick. Zero uses DefaultBudget;
	// a negative value disables the limit.
	Budget int `yaml:"budget,omitempty"`

	// Placeholder is the default async placeholder.
	Placeholder PlaceholderConfig `yaml:"placeholder,omitempty"`
}

// PlaceholderConfig describes the default async placeholder.
type PlaceholderConfig struct {
	Text  string `yaml:"text,omitempty"`
	Class string `yaml:"class,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
}

// PersistConfig contains snapshot persistence settings.
type PersistConfig struct {
	// Backend is memory, bolt, or s3.
	Backend string `yaml:"backend,omitempty"`

	// Name is the snapshot name.
	Name string `yaml:"name,omitempty"`

	// AutoSave is the autosave delay (e.g. "2s"). Empty disables autosave.
	AutoSave string `yaml:"autosave,omitempty"`

	Bolt BoltConfig `yaml:"bolt,omitempty"`
	S3   S3Config   `yaml:"s3,omitempty"`
}

// BoltConfig configures the bbolt backend.
type BoltConfig struct {
	Path string `yaml:"path,omitempty"`
}

// S3Config configures the S3 backend.
type S3Config struct {
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"accessKey,omitempty"`
	SecretKey string `yaml:"secretKey,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory.
// It looks for rx.yaml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path, then applies
// defaults and environment overrides and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfig).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults")
		}
		return nil, errors.New(errors.CodeConfig).Wrap(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes configuration from YAML, then applies defaults and
// environment overrides and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfig).
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid YAML")
	}
	cfg.applyDefaults()
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New(errors.CodeConfig).Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfig).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "rx"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "auto"
	}
	if c.Runtime.Budget == 0 {
		c.Runtime.Budget = DefaultBudget
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "rx"
	}
	if c.Persist.Backend == "" {
		c.Persist.Backend = BackendMemory
	}
	if c.Persist.Name == "" {
		c.Persist.Name = DefaultSnapshotName
	}
	if c.Persist.Bolt.Path == "" {
		c.Persist.Bolt.Path = DefaultBoltPath
	}
	if c.InitialState == nil {
		c.InitialState = map[string]any{}
	}
}

// ApplyEnv applies RX_ADDR and RX_DEBUG from getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if addr := getenv("RX_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if debug := getenv("RX_DEBUG"); debug != "" {
		if v, err := strconv.ParseBool(debug); err == nil {
			c.Debug = v
		}
	}
	if c.Debug {
		c.Log.Level = "debug"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New(errors.CodeConfig).
			WithDetail("log.level must be debug, info, warn or error, got " + strconv.Quote(c.Log.Level))
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		return errors.New(errors.CodeConfig).
			WithDetail("log.format must be auto, text or json, got " + strconv.Quote(c.Log.Format))
	}
	switch c.Persist.Backend {
	case BackendMemory, BackendBolt:
	case BackendS3:
		if c.Persist.S3.Bucket == "" {
			return errors.New(errors.CodeConfig).
				WithDetail("persist.s3.bucket is required for the s3 backend")
		}
	default:
		return errors.New(errors.CodeConfig).
			WithDetail("persist.backend must be memory, bolt or s3, got " + strconv.Quote(c.Persist.Backend))
	}
	if c.Persist.AutoSave != "" {
		if d, err := time.ParseDuration(c.Persist.AutoSave); err != nil || d <= 0 {
			return errors.New(errors.CodeConfig).
				WithDetail("persist.autosave must be a positive duration, got " + strconv.Quote(c.Persist.AutoSave))
		}
	}
	return nil
}

// AutoSaveDelay returns the parsed autosave delay, or zero if disabled.
func (c *Config) AutoSaveDelay() time.Duration {
	d, _ := time.ParseDuration(c.Persist.AutoSave)
	return d
}

// BoltPath returns the bbolt database path resolved against the config
// directory.
func (c *Config) BoltPath() string {
	if filepath.IsAbs(c.Persist.Bolt.Path) {
		return c.Persist.Bolt.Path
	}
	return filepath.Join(c.Dir(), c.Persist.Bolt.Path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// rx.yaml.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfig).
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
