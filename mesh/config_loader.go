package mesh

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the service configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

func validateConfig(config *Config) error {
	if config.Fitting.MaxIterations < 0 {
		return fmt.Errorf("fitting.maxIterations must be positive, got %d", config.Fitting.MaxIterations)
	}
	if config.Fitting.Tolerance < 0 {
		return fmt.Errorf("fitting.tolerance must be positive, got %g", config.Fitting.Tolerance)
	}
	for tag, coeff := range config.Fitting.GenderScales {
		if coeff <= 0 {
			return fmt.Errorf("fitting.genderScales[%s] must be positive, got %g", tag, coeff)
		}
	}
	return nil
}
