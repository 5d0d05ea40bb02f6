package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Default values shared by Defaults and applyDefaults.
const (
	DefaultPort          = 8003
	DefaultThread        = "default_thread"
	DefaultMCPServerName = "hybrid_search"
	DefaultMCPServerURL  = "http://localhost:8000/mcp"
	DefaultNATSSubject   = "prodbot.events"
	DefaultKeyPrefix     = "prodbot:"
)

// DefaultKeywords are the product-query keywords that route to retrieval.
var DefaultKeywords = []string{"price", "review", "product"}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultPort
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "loopback"
	}
	if cfg.Gateway.Auth.Mode == "" {
		cfg.Gateway.Auth.Mode = "token"
	}
	if len(cfg.Gateway.AllowedOrigins) == 0 {
		cfg.Gateway.AllowedOrigins = []string{"*"}
	}
	if cfg.Gateway.RunTimeout == 0 {
		cfg.Gateway.RunTimeout = 300
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
	if len(cfg.Agent.Keywords) == 0 {
		cfg.Agent.Keywords = append([]string(nil), DefaultKeywords...)
	}
	if cfg.Agent.DefaultThread == "" {
		cfg.Agent.DefaultThread = DefaultThread
	}
	if cfg.Models.Provider == "" {
		cfg.Models.Provider = "ollama"
	}
	if cfg.MCP.Servers == nil {
		cfg.MCP.Servers = map[string]MCPServerConfig{
			DefaultMCPServerName: {Transport: "streamable_http", URL: DefaultMCPServerURL},
		}
	}
	if cfg.MCP.ConnectTimeout == 0 {
		cfg.MCP.ConnectTimeout = 30
	}
	if cfg.Checkpoint.Store == "" {
		cfg.Checkpoint.Store = "memory"
	}
	if cfg.Checkpoint.KeyPrefix == "" {
		cfg.Checkpoint.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultNATSSubject
	}
	if cfg.Session.Scope == "" {
		cfg.Session.Scope = "per-sender"
	}
}
