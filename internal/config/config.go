package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete agent configuration, loaded from YAML.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Model     ModelConfig     `yaml:"model"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Agent     AgentConfig     `yaml:"agent"`
	Vector    VectorConfig    `yaml:"vector"`
	Server    ServerConfig    `yaml:"server"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// ServerConfig holds settings for the serve command.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig locates the transaction record store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ModelConfig selects the chat and embedding models.
type ModelConfig struct {
	Name           string  `yaml:"name"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float32 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	// TimeoutSeconds bounds a single chat completion call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// RetrievalConfig tunes the semantic context step.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// AgentConfig bounds the conversation loop.
type AgentConfig struct {
	MaxTurns     int `yaml:"max_turns"`
	HistoryLimit int `yaml:"history_limit"`
}

// VectorConfig selects the vector index backend.
type VectorConfig struct {
	// Backend is "memory" or "qdrant".
	Backend string       `yaml:"backend"`
	Qdrant  QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds connection settings for a Qdrant deployment.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
	UseTLS     bool   `yaml:"use_tls"`
}

// MCPConfig lists optional external MCP tool servers.
type MCPConfig struct {
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig defines a single MCP server.
type MCPServerConfig struct {
	Name     string            `yaml:"name"`
	Command  string            `yaml:"command"`
	Args     []string          `yaml:"args"`
	Env      map[string]string `yaml:"env"` // values support ${VAR} expansion
	Disabled bool              `yaml:"disabled"`
}

// Load reads and parses the YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with fallback to default locations.
// Checks ./txnagent.yaml, ./configs/txnagent.yaml, ~/.config/txnagent/txnagent.yaml.
func LoadWithDefaults() (*Config, error) {
	locations := []string{
		"./txnagent.yaml",
		"./configs/txnagent.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "txnagent", "txnagent.yaml"))
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return Load(loc)
		}
	}

	// No config file found - run with defaults.
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "data/transactions.db"
	}
	if c.Model.Name == "" {
		c.Model.Name = "gpt-4o-mini"
	}
	if c.Model.EmbeddingModel == "" {
		c.Model.EmbeddingModel = "text-embedding-3-small"
	}
	if c.Model.Temperature == 0 {
		c.Model.Temperature = 0.6
	}
	if c.Model.MaxTokens == 0 {
		c.Model.MaxTokens = 4096
	}
	if c.Model.TimeoutSeconds == 0 {
		c.Model.TimeoutSeconds = 60
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 50
	}
	if c.Agent.MaxTurns == 0 {
		c.Agent.MaxTurns = 10
	}
	if c.Agent.HistoryLimit == 0 {
		c.Agent.HistoryLimit = 8
	}
	if c.Vector.Backend == "" {
		c.Vector.Backend = "memory"
	}
	if c.Vector.Qdrant.Port == 0 {
		c.Vector.Qdrant.Port = 6334
	}
	if c.Vector.Qdrant.Collection == "" {
		c.Vector.Qdrant.Collection = "transactions"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate checks config correctness.
func (c *Config) Validate() error {
	switch c.Vector.Backend {
	case "memory", "qdrant":
	default:
		return fmt.Errorf("unsupported vector backend: %s", c.Vector.Backend)
	}

	if c.Vector.Backend == "qdrant" && c.Vector.Qdrant.Host == "" {
		return fmt.Errorf("vector.qdrant.host is required for the qdrant backend")
	}

	if c.Retrieval.TopK < 0 {
		return fmt.Errorf("retrieval.top_k cannot be negative")
	}

	names := make(map[string]bool)
	for i, server := range c.MCP.Servers {
		if err := server.Validate(); err != nil {
			return fmt.Errorf("mcp server #%d: %w", i+1, err)
		}
		if names[server.Name] {
			return fmt.Errorf("duplicate mcp server name: %s", server.Name)
		}
		names[server.Name] = true
	}

	return nil
}

// Validate checks a single MCP server config.
func (s *MCPServerConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	// Server names become tool-name prefixes and must match the
	// OpenAI tool name pattern ^[a-zA-Z0-9_-]+$.
	for _, ch := range s.Name {
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-') {
			return fmt.Errorf("server name %q contains invalid character %q", s.Name, ch)
		}
	}

	if s.Command == "" && !s.Disabled {
		return fmt.Errorf("command is required")
	}

	if strings.ContainsAny(s.Command, "\n\r") {
		return fmt.Errorf("command must be a single line")
	}

	return nil
}
