package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"toponav/internal/application"
	"toponav/internal/application/commands"
)

const (
	DefaultDBPath   = "~/.local/share/toponav/graph.db"
	DefaultLogLevel = "info"

	EnvConfig   = "TOPONAV_CONFIG"
	EnvDB       = "TOPONAV_DB"
	EnvLogLevel = "TOPONAV_LOG_LEVEL"
)

// DBPath returns the graph database path from TOPONAV_DB,
// falling back to DefaultDBPath.
func DBPath() string {
	if env := os.Getenv(EnvDB); env != "" {
		return env
	}
	return DefaultDBPath
}

// Features configures the reference detector, matcher and blur filter
type Features struct {
	MaxKeypoints  int     `yaml:"max_keypoints"`
	Width         int     `yaml:"width"`
	Ratio         float64 `yaml:"ratio"`
	BlurThreshold float64 `yaml:"blur_threshold"`
	// CrossCheck keeps only mutual nearest neighbours
	CrossCheck bool `yaml:"cross_check"`
	// MaxDistance rejects matches at or beyond this many bits (0 disables)
	MaxDistance int `yaml:"max_distance"`
}

// Config is the full toponav configuration
type Config struct {
	DB       string `yaml:"db"`
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	Features  Features                  `yaml:"features"`
	Extractor commands.ExtractorOptions `yaml:"extractor"`
	Tracker   commands.TrackerOptions   `yaml:"tracker"`
	Localize  commands.LocalizeOptions  `yaml:"localize"`
	Overlap   commands.OverlapOptions   `yaml:"overlap"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		DB:       DefaultDBPath,
		LogLevel: DefaultLogLevel,
		Features: Features{
			MaxKeypoints:  500,
			Width:         320,
			Ratio:         0.7,
			BlurThreshold: 120,
		},
		Extractor: commands.DefaultExtractorOptions(),
		Tracker:   commands.DefaultTrackerOptions(),
		Localize:  commands.DefaultLocalizeOptions(),
		Overlap:   commands.DefaultOverlapOptions(),
	}
}

// Load builds the configuration: defaults, then the YAML file at path (or
// TOPONAV_CONFIG when path is empty), then environment overrides. A .env
// file in the working directory is loaded first if present.
func Load(path string) (Config, error) {
	// Load .env file if present (don't error if missing)
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return cfg, err
		}
	}

	if env := os.Getenv(EnvDB); env != "" {
		cfg.DB = env
	}
	if env := os.Getenv(EnvLogLevel); env != "" {
		cfg.LogLevel = strings.ToLower(env)
	}

	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks every section
func (c Config) Validate() error {
	if err := application.ValidateRequired("db", c.DB); err != nil {
		return err
	}
	if err := application.ValidatePositive("maxKeypoints", c.Features.MaxKeypoints); err != nil {
		return err
	}
	if err := application.ValidateUnit("ratio", c.Features.Ratio); err != nil {
		return err
	}
	if err := application.ValidateNonNegative("maxDistance", float64(c.Features.MaxDistance)); err != nil {
		return err
	}
	if err := application.ValidateNonNegative("blurThreshold", c.Features.BlurThreshold); err != nil {
		return err
	}

	var errs []error
	for name, v := range map[string]interface{ Validate() error }{
		"extractor": c.Extractor,
		"tracker":   c.Tracker,
		"localize":  c.Localize,
		"overlap":   c.Overlap,
	} {
		if err := v.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
