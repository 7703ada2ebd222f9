package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/foxxcyber/trail-guide/internal/models"
)

// Config is the trailctl settings file
type Config struct {
	APIURL   string                    `yaml:"api_url"`
	Token    string                    `yaml:"token,omitempty"`
	Units    models.UnitSystem         `yaml:"units"`
	Name     string                    `yaml:"name,omitempty"`
	Contacts []models.EmergencyContact `yaml:"contacts,omitempty"`
	Queue    QueueConfig               `yaml:"queue"`
}

// QueueConfig selects where pending SOS alerts are kept
type QueueConfig struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "trailctl.yaml"
	}
	return filepath.Join(dir, "trailguide", "config.yaml")
}

func defaultConfig(path string) *Config {
	return &Config{
		APIURL: "http://localhost:8080",
		Units:  models.UnitsImperial,
		Queue: QueueConfig{
			Backend: "sqlite",
			Path:    filepath.Join(filepath.Dir(path), "queue.db"),
		},
	}
}

// loadConfig reads path over the defaults. A missing file is not an error.
// Environment variables are expanded so tokens can live outside the file.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig(path)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.Units {
	case models.UnitsImperial, models.UnitsMetric:
	default:
		return fmt.Errorf("units must be imperial or metric, got %q", c.Units)
	}
	switch c.Queue.Backend {
	case "sqlite":
		if c.Queue.Path == "" {
			return errors.New("queue.path is required for the sqlite backend")
		}
	case "redis":
		if c.Queue.RedisAddr == "" {
			return errors.New("queue.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("queue.backend must be sqlite or redis, got %q", c.Queue.Backend)
	}
	return nil
}

func saveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
