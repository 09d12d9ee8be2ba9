// Package config loads agent and server configuration from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/parleylabs/parley/pkg/graph"
)

// Defaults applied when the server block leaves fields unset.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 3000
)

// Server holds the transport-side settings for the serve command.
type Server struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	// SummaryWebhook, when set, receives end-of-session reports via POST
	// instead of local logging.
	SummaryWebhook string `yaml:"summary_webhook" json:"summary_webhook"`

	// RedisAddr enables the Redis session store and distributed locks.
	// Empty keeps sessions in memory.
	RedisAddr string `yaml:"redis_addr" json:"redis_addr"`

	// Oracle configures the completion judge. An empty APIKey disables it;
	// callers then drive turns with explicit verdicts.
	Oracle Oracle `yaml:"oracle" json:"oracle"`

	// JudgesFile and Judge select a local judge command as the oracle
	// instead of the generative one. Takes precedence over Oracle.
	JudgesFile string `yaml:"judges_file" json:"judges_file"`
	Judge      string `yaml:"judge" json:"judge"`
}

// Oracle holds the generative judge settings.
type Oracle struct {
	APIKey string `yaml:"api_key" json:"api_key"`
	Model  string `yaml:"model" json:"model"`
}

// File is the root of a configuration file: the agent definition plus the
// server settings.
type File struct {
	Agent  graph.Definition `yaml:"agent" json:"agent"`
	Server Server           `yaml:"server" json:"server"`
}

// Load reads a configuration file, YAML by default with JSON fallback by
// extension, and applies server defaults.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg File
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (f *File) applyDefaults() {
	if f.Server.Host == "" {
		f.Server.Host = DefaultHost
	}
	if f.Server.Port == 0 {
		f.Server.Port = DefaultPort
	}
}

// Addr returns the listen address in host:port form.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
