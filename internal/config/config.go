// Package config loads the service configuration with priority:
// defaults -> TOML file -> environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Models    ModelsConfig    `toml:"models"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Sessions  SessionsConfig  `toml:"sessions"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ModelsConfig names the upstream model endpoints. The API key is read
// from the environment rather than the file so it never lands on disk.
type ModelsConfig struct {
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"-"`
	ChatModel      string  `toml:"chat_model"`
	EmbeddingModel string  `toml:"embedding_model"`
	RerankerURL    string  `toml:"reranker_url"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
}

type RetrievalConfig struct {
	ChunkSize       int `toml:"chunk_size"`
	ChunkOverlap    int `toml:"chunk_overlap"`
	TopK            int `toml:"top_k"`
	TopN            int `toml:"top_n"`
	MaxHistoryTurns int `toml:"max_history_turns"`
}

// SessionsConfig selects the conversation history backend.
// Backend is one of "memory", "sqlite" or "badger".
type SessionsConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Models: ModelsConfig{
			BaseURL:        "https://api.together.xyz/v1",
			ChatModel:      "meta-llama/Llama-3.3-70B-Instruct-Turbo",
			EmbeddingModel: "BAAI/bge-large-en-v1.5",
			RerankerURL:    "http://localhost:8081",
			Temperature:    0.1,
			MaxTokens:      1024,
		},
		Retrieval: RetrievalConfig{
			ChunkSize:       1000,
			ChunkOverlap:    150,
			TopK:            15,
			TopN:            4,
			MaxHistoryTurns: 12,
		},
		Sessions: SessionsConfig{
			Backend: "memory",
			Path:    "data/sessions",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// An empty path skips the file layer.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("ADVISOR_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("ADVISOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if url := os.Getenv("ADVISOR_MODELS_BASE_URL"); url != "" {
		cfg.Models.BaseURL = url
	}
	if url := os.Getenv("ADVISOR_RERANKER_URL"); url != "" {
		cfg.Models.RerankerURL = url
	}
	if level := os.Getenv("ADVISOR_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if key := os.Getenv("ADVISOR_API_KEY"); key != "" {
		cfg.Models.APIKey = key
	} else if key := os.Getenv("TOGETHER_API_KEY"); key != "" {
		cfg.Models.APIKey = key
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d",
			c.Retrieval.ChunkOverlap, c.Retrieval.ChunkSize)
	}
	switch c.Sessions.Backend {
	case "memory", "sqlite", "badger":
	default:
		return fmt.Errorf("unknown sessions backend %q", c.Sessions.Backend)
	}
	return nil
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
