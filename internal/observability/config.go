package observability

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config controls the metrics pipeline. It lives in its own small YAML file
// so operators can change scrape settings without touching server config.
type Config struct {
	Enabled        bool `yaml:"enabled"`
	PrometheusPort int  `yaml:"prometheus_port"`
}

// DefaultConfig returns the disabled-by-default configuration.
func DefaultConfig() Config {
	return Config{Enabled: false, PrometheusPort: 9464}
}

// LoadConfig reads the observability config file; an empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read observability config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse observability config: %w", err)
	}
	if cfg.PrometheusPort <= 0 {
		cfg.PrometheusPort = 9464
	}
	return cfg, nil
}
