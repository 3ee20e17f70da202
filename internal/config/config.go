package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"propensity/internal/scoring"
	"propensity/internal/signals"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Matching MatchingConfig `yaml:"matching" envconfig:"MATCHING"`
	Scoring  ScoringConfig  `yaml:"scoring" envconfig:"SCORING"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths. Feed extracts and reference tables
// are conventional file names under DataDir.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// Conventional file names under DataDir.
const (
	PermitsFile      = "permits.csv"
	WARNFile         = "warn_notices.csv"
	JobsFile         = "job_postings.csv"
	ReviewsFile      = "reviews.csv"
	InventoryFile    = "inventory.csv"
	ZipAreasFile     = "zip_areas.csv"
	EconomicFile     = "economic_series.csv"
	UnemploymentFile = "unemployment.csv"
)

// Feed returns the path of a feed or reference file under DataDir.
func (p PathsConfig) Feed(name string) string {
	return filepath.Join(p.DataDir, name)
}

// MatchingConfig tunes entity resolution.
type MatchingConfig struct {
	// Threshold is the minimum similarity to accept a fuzzy match.
	Threshold float64 `yaml:"threshold" envconfig:"THRESHOLD" validate:"gt=0,lte=1"`
	// TieEpsilon is the window within which two candidates count as tied.
	TieEpsilon float64 `yaml:"tie_epsilon" envconfig:"TIE_EPSILON" validate:"gte=0,lt=1"`
}

// ScoringConfig carries the weight table and the per-signal curve parameters.
type ScoringConfig struct {
	Weights   scoring.Weights          `yaml:"weights" envconfig:"WEIGHTS"`
	Expansion signals.ExpansionParams  `yaml:"expansion" envconfig:"EXPANSION"`
	Distress  signals.DistressParams   `yaml:"distress" envconfig:"DISTRESS"`
	Velocity  signals.VelocityParams   `yaml:"velocity" envconfig:"VELOCITY"`
	Sentiment signals.SentimentParams  `yaml:"sentiment" envconfig:"SENTIMENT"`
	Turnover  signals.TurnoverParams   `yaml:"turnover" envconfig:"TURNOVER"`
	Tightness signals.TightnessParams  `yaml:"tightness" envconfig:"TIGHTNESS"`
	Macro     signals.MacroParams      `yaml:"macro" envconfig:"MACRO"`
}

// Load builds the configuration: defaults, then the YAML file if one exists,
// then PROPENSITY_* environment variables. Later layers win.
func Load() (*Config, error) {
	cfg := Default()

	if path := findConfigFile(); path != "" {
		if err := overlayFile(cfg, path); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("PROPENSITY", cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// overlayFile merges a YAML file onto cfg. Keys absent from the file leave
// the existing values untouched.
func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// findConfigFile returns the first config file found in the conventional
// locations, or "" to run on defaults and environment only.
func findConfigFile() string {
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Validate checks structural constraints and the scoring invariants. A weight
// table that does not sum to one is rejected here, before any scoring runs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if !c.Scoring.Weights.IsValid() {
		return fmt.Errorf("scoring weights must be non-negative and sum to 1.0 (got %.4f)", c.Scoring.Weights.Sum())
	}
	for name, ok := range map[string]bool{
		"expansion": c.Scoring.Expansion.IsValid(),
		"distress":  c.Scoring.Distress.IsValid(),
		"velocity":  c.Scoring.Velocity.IsValid(),
		"sentiment": c.Scoring.Sentiment.IsValid(),
		"turnover":  c.Scoring.Turnover.IsValid(),
		"tightness": c.Scoring.Tightness.IsValid(),
		"macro":     c.Scoring.Macro.IsValid(),
	} {
		if !ok {
			return fmt.Errorf("invalid %s curve parameters", name)
		}
	}

	if c.Matching.TieEpsilon >= c.Matching.Threshold {
		return fmt.Errorf("matching tie_epsilon (%.2f) must be below threshold (%.2f)", c.Matching.TieEpsilon, c.Matching.Threshold)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file_path required for output %q", c.Logging.Output)
	}
	return nil
}

// Default returns the production defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:   "data",
			OutputDir: "out",
			LogsDir:   "logs",
		},
		Matching: MatchingConfig{
			Threshold:  0.85,
			TieEpsilon: 0.02,
		},
		Scoring: ScoringConfig{
			Weights:   scoring.DefaultWeights(),
			Expansion: signals.DefaultExpansionParams(),
			Distress:  signals.DefaultDistressParams(),
			Velocity:  signals.DefaultVelocityParams(),
			Sentiment: signals.DefaultSentimentParams(),
			Turnover:  signals.DefaultTurnoverParams(),
			Tightness: signals.DefaultTightnessParams(),
			Macro:     signals.DefaultMacroParams(),
		},
	}
}
