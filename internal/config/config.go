// Package config loads taskdeps settings from a YAML file, the process
// environment and an optional .env file, in increasing order of precedence
// for the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no explicit path is given and it exists.
const DefaultFile = "taskdeps.yaml"

// Environment variables that override file settings.
const (
	EnvDatabaseURL     = "TASKDEPS_DATABASE_URL"
	EnvLogLevel        = "TASKDEPS_LOG_LEVEL"
	EnvLogFormat       = "TASKDEPS_LOG_FORMAT"
	EnvMaxTasks        = "TASKDEPS_MAX_TASKS"
	EnvMaxDependencies = "TASKDEPS_MAX_DEPENDENCIES"
	EnvModel           = "TASKDEPS_MODEL"
	EnvAnthropicKey    = "ANTHROPIC_API_KEY"
)

type Config struct {
	Snapshot string         `yaml:"snapshot"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Engine   EngineConfig   `yaml:"engine"`
	Planner  PlannerConfig  `yaml:"planner"`
	Claude   ClaudeConfig   `yaml:"claude"`
	Viewer   ViewerConfig   `yaml:"viewer"`
}

type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Project string `yaml:"project"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// EngineConfig bounds snapshot size. Zero means unlimited.
type EngineConfig struct {
	MaxTasks        int `yaml:"maxTasks" validate:"gte=0"`
	MaxDependencies int `yaml:"maxDependencies" validate:"gte=0"`
}

type PlannerConfig struct {
	ReportTemplate string `yaml:"reportTemplate"`
	HoursPerDay    int    `yaml:"hoursPerDay" validate:"gte=1,lte=24"`
}

// ViewerConfig configures `taskdeps serve`. MaxBodyBytes caps a posted
// snapshot before it is parsed.
type ViewerConfig struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"maxBodyBytes" validate:"gte=1"`
}

type ClaudeConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"-"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Engine:  EngineConfig{MaxTasks: 10000, MaxDependencies: 50000},
		Planner: PlannerConfig{HoursPerDay: 8},
		Viewer:  ViewerConfig{Addr: ":7171", MaxBodyBytes: 8 << 20},
	}
}

var validate = validator.New()

// Load reads path (or DefaultFile when path is empty and the file exists),
// applies .env and environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read config: %w", err)
	}

	_ = godotenv.Load()

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := env(EnvDatabaseURL); v != "" {
		cfg.Database.URL = v
	}
	if v := env(EnvLogLevel); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := env(EnvLogFormat); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := env(EnvModel); v != "" {
		cfg.Claude.Model = v
	}
	cfg.Claude.APIKey = env(EnvAnthropicKey)

	for name, dst := range map[string]*int{
		EnvMaxTasks:        &cfg.Engine.MaxTasks,
		EnvMaxDependencies: &cfg.Engine.MaxDependencies,
	} {
		v := env(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}
