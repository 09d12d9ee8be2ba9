package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// JudgeConfig describes one external judge command.
type JudgeConfig struct {
	Name        string   `yaml:"name" json:"name"`
	Command     string   `yaml:"command" json:"command"`
	Args        []string `yaml:"args" json:"args"`
	Description string   `yaml:"description" json:"description"`
}

// ConfigFile is the structure of judges.yaml.
type ConfigFile struct {
	Judges []JudgeConfig `yaml:"judges" json:"judges"`
}

// LoadJudges reads a judge configuration file (YAML or JSON) and returns a
// map of judge names to configs. A missing file means no judges configured.
func LoadJudges(path string) (map[string]JudgeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]JudgeConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read judges config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse judges config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse judges config: %w", err)
		}
	}

	judges := make(map[string]JudgeConfig)
	for _, judge := range cfg.Judges {
		if judge.Name == "" {
			continue
		}
		judges[judge.Name] = judge
	}
	return judges, nil
}
