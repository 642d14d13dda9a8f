package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/i5heu/typecanon/pkg/repository"
)

type Config struct {
	LogLevel        string `yaml:"logLevel"`
	NoColor         bool   `yaml:"noColor"`
	ProbeLimit      int    `yaml:"probeLimit"`
	DisableProbe    bool   `yaml:"disableProbe"`
	Check           bool   `yaml:"check"`
	ValidateWorkers int    `yaml:"validateWorkers"`
}

func Default() Config {
	return Config{
		LogLevel:   "info",
		ProbeLimit: repository.DefaultProbeLimit,
	}
}

// Load reads a YAML config file. Missing fields keep their defaults; unknown
// fields are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	config := Default()
	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	if config.ProbeLimit < 0 {
		return Config{}, fmt.Errorf("config: probeLimit %d is negative", config.ProbeLimit)
	}

	if config.ProbeLimit == 0 {
		config.ProbeLimit = repository.DefaultProbeLimit
	}

	if config.ValidateWorkers < 0 {
		return Config{}, fmt.Errorf("config: validateWorkers %d is negative", config.ValidateWorkers)
	}

	return config, nil
}
