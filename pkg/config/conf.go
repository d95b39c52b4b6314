// Package config reads and writes the pipeline configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/supplysight/sctl/pkg/risk"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600
)

// AnomalyConfig holds the outlier-model knobs.
type AnomalyConfig struct {
	Trees         int     `yaml:"trees"`
	SampleSize    int     `yaml:"sampleSize"`
	Contamination float64 `yaml:"contamination"`
}

// ClusterConfig holds the segmentation knobs.
type ClusterConfig struct {
	Clusters      int `yaml:"clusters"`
	Inits         int `yaml:"inits"`
	MaxIterations int `yaml:"maxIterations"`
}

// ModelConfig holds the retraining knobs. Aggregation selects how supplier
// history features are computed: "full" or "leave-one-out".
type ModelConfig struct {
	TestFraction         float64 `yaml:"testFraction"`
	Aggregation          string  `yaml:"aggregation"`
	ForestTrees          int     `yaml:"forestTrees"`
	ForestMaxDepth       int     `yaml:"forestMaxDepth"`
	LogisticIterations   int     `yaml:"logisticIterations"`
	LogisticLearningRate float64 `yaml:"logisticLearningRate"`
}

// Config is the full pipeline configuration.
type Config struct {
	Seed    int64         `yaml:"seed"`
	Risk    risk.Policy   `yaml:"risk"`
	Anomaly AnomalyConfig `yaml:"anomaly"`
	Cluster ClusterConfig `yaml:"cluster"`
	Model   ModelConfig   `yaml:"model"`
}

// Default returns the production configuration.
func Default() *Config {
	return &Config{
		Seed: 42,
		Risk: risk.DefaultPolicy(),
		Anomaly: AnomalyConfig{
			Trees:         200,
			SampleSize:    256,
			Contamination: 0.08,
		},
		Cluster: ClusterConfig{
			Clusters:      3,
			Inits:         10,
			MaxIterations: 300,
		},
		Model: ModelConfig{
			TestFraction:         0.2,
			Aggregation:          "full",
			ForestTrees:          200,
			ForestMaxDepth:       10,
			LogisticIterations:   2000,
			LogisticLearningRate: 0.1,
		},
	}
}

// Save writes the config into the given directory.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// ReadOrCreate reads the config from the directory, creating the directory
// and a default config on first use.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("failed to create dir %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, configFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(dirPath, Default()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}
	return &c, nil
}
