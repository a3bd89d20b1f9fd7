// Package config loads the server configuration file. The station
// name is the one value the pipeline cannot run without; a file that
// fails to resolve it is rejected at load time.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"omitempty,gt=0"`
}

// StationConfig names the tracked station and optional line filter
type StationConfig struct {
	Name string `yaml:"name" validate:"required"`
	Line string `yaml:"line"`
}

// APIConfig contains vendor API configuration. The credential usually
// comes from the environment instead; the field exists for dev setups.
type APIConfig struct {
	BaseURL string `yaml:"baseURL" validate:"omitempty,url"`
	Key     string `yaml:"key"`
}

// HistoryConfig contains the durable history settings
type HistoryConfig struct {
	Path     string `yaml:"path"`
	Capacity int    `yaml:"capacity" validate:"gte=0"`
}

// PollConfig contains the cycle cadence and retry policy
type PollConfig struct {
	IntervalMS  int `yaml:"intervalMS" validate:"gte=0"`
	RetryWaitMS int `yaml:"retryWaitMS" validate:"gte=0"`
	MaxRetries  int `yaml:"maxRetries" validate:"gte=0"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Station StationConfig `yaml:"station" validate:"required"`
	API     APIConfig     `yaml:"api"`
	History HistoryConfig `yaml:"history"`
	Poll    PollConfig    `yaml:"poll"`
}

// Load reads and validates a configuration file, applying defaults for
// unset optional values
func Load(path string) (AppConfig, error) {
	var cfg AppConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.History.Path == "" {
		cfg.History.Path = "logs/subway_history.json"
	}
	if cfg.History.Capacity == 0 {
		cfg.History.Capacity = 100
	}
	if cfg.Poll.IntervalMS == 0 {
		cfg.Poll.IntervalMS = 30000
	}
	if cfg.Poll.RetryWaitMS == 0 {
		cfg.Poll.RetryWaitMS = 60000
	}
	if cfg.Poll.MaxRetries == 0 {
		cfg.Poll.MaxRetries = 3
	}
}
