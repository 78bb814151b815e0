// Package config handles desk-agent configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/deskagent/config.yaml, /etc/deskagent/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "deskagent", "config.yaml"))
	}

	paths = append(paths, "/etc/deskagent/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all desk-agent configuration.
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Model     ModelConfig     `yaml:"model"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Agent     AgentConfig     `yaml:"agent"`
	DataDir   string          `yaml:"data_dir"`
	LogLevel  string          `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// ModelConfig defines the reasoning engine connection.
type ModelConfig struct {
	// Name is the model passed to Ollama (e.g., gpt-oss:20b).
	Name string `yaml:"name"`
	// OllamaURL is the base URL of the Ollama server.
	OllamaURL string `yaml:"ollama_url"`
	// TimeoutSec bounds a single generate call. Zero means the
	// built-in default (large local models need minutes).
	TimeoutSec int `yaml:"timeout_sec"`
}

// WorkspaceConfig defines the root for file-reading tools.
type WorkspaceConfig struct {
	// Path is the root directory for read_file. All tool paths resolve
	// relative to this directory and may not escape it.
	// If empty, read_file is disabled.
	Path string `yaml:"path"`
}

// WorkflowConfig defines the external workflow engine (n8n-style webhooks).
type WorkflowConfig struct {
	// PipelineURL serves the live pipeline snapshot. If empty, the
	// pipeline tool returns a canned snapshot instead.
	PipelineURL string `yaml:"pipeline_url"`
	// CreateWorkItemURL receives work-item creation requests.
	CreateWorkItemURL string `yaml:"create_work_item_url"`
	// TimeoutSec bounds each webhook call (default 10).
	TimeoutSec int `yaml:"timeout_sec"`
}

// AgentConfig tunes the turn controller.
type AgentConfig struct {
	// MaxToolSteps is the hard ceiling on tool round-trips per user
	// turn. Zero means the default of 5.
	MaxToolSteps int `yaml:"max_tool_steps"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8080},
		Model: ModelConfig{
			Name:      "gpt-oss:20b",
			OllamaURL: "http://localhost:11434",
		},
		Workflow: WorkflowConfig{
			CreateWorkItemURL: "http://localhost:5678/webhook/create_work_item/",
			TimeoutSec:        10,
		},
		Agent:   AgentConfig{MaxToolSteps: 5},
		DataDir: ".",
	}
}
