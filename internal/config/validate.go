package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	oneOf := func(path, got string, valid []string) {
		if got != "" && !slices.Contains(valid, got) {
			issues = append(issues, ValidationIssue{
				Path:    path,
				Message: fmt.Sprintf("must be one of %v, got %q", valid, got),
			})
		}
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}
	oneOf("gateway.bind", cfg.Gateway.Bind, []string{"auto", "lan", "loopback", "custom"})
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.customBindHost",
			Message: "required when bind is custom",
		})
	}
	oneOf("gateway.auth.mode", cfg.Gateway.Auth.Mode, []string{"token", "password"})
	if cfg.Gateway.TLS.Enabled && (cfg.Gateway.TLS.CertPath == "" || cfg.Gateway.TLS.KeyPath == "") {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.tls",
			Message: "certPath and keyPath are required when TLS is enabled",
		})
	}

	// Logging validation
	oneOf("logging.level", cfg.Logging.Level, []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"})
	oneOf("logging.consoleStyle", cfg.Logging.ConsoleStyle, []string{"pretty", "json"})

	// Agent validation
	for i, kw := range cfg.Agent.Keywords {
		if strings.TrimSpace(kw) == "" {
			issues = append(issues, ValidationIssue{
				Path:    fmt.Sprintf("agent.keywords[%d]", i),
				Message: "keyword must not be blank",
			})
		}
	}
	if cfg.Agent.MaxTokens < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "agent.maxTokens",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Agent.MaxTokens),
		})
	}

	// Model validation
	providers := []string{"ollama", "openai", "anthropic", "gemini"}
	oneOf("models.provider", cfg.Models.Provider, providers)
	for i, fb := range cfg.Models.Fallbacks {
		oneOf(fmt.Sprintf("models.fallbacks[%d]", i), fb, providers)
	}

	// MCP validation
	for name, srv := range cfg.MCP.Servers {
		path := "mcp.servers." + name
		switch srv.Transport {
		case "streamable_http", "sse":
			if srv.URL == "" {
				issues = append(issues, ValidationIssue{Path: path + ".url", Message: "url is required for " + srv.Transport})
			}
		case "stdio":
			if srv.Command == "" {
				issues = append(issues, ValidationIssue{Path: path + ".command", Message: "command is required for stdio"})
			}
		default:
			issues = append(issues, ValidationIssue{
				Path:    path + ".transport",
				Message: fmt.Sprintf("must be one of [streamable_http sse stdio], got %q", srv.Transport),
			})
		}
	}

	// Checkpoint validation
	oneOf("checkpoint.store", cfg.Checkpoint.Store, []string{"memory", "sqlite", "redis"})
	if cfg.Checkpoint.Store == "redis" && cfg.Checkpoint.RedisURL == "" {
		issues = append(issues, ValidationIssue{
			Path:    "checkpoint.redisUrl",
			Message: "required when store is redis",
		})
	}

	// Session validation
	oneOf("session.scope", cfg.Session.Scope, []string{"per-sender", "global"})

	// IRC validation (only if configured)
	if cfg.Channels.IRC != nil {
		irc := cfg.Channels.IRC
		if irc.Server == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.irc.server",
				Message: "server is required",
			})
		}
		if irc.Nick == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.irc.nick",
				Message: "nick is required",
			})
		}
		if irc.Port < 0 || irc.Port > 65535 {
			issues = append(issues, ValidationIssue{
				Path:    "channels.irc.port",
				Message: fmt.Sprintf("port must be 0-65535, got %d", irc.Port),
			})
		}
		if irc.SASL && irc.Password == "" {
			issues = append(issues, ValidationIssue{
				Path:    "channels.irc.sasl",
				Message: "SASL requires a password to be set",
			})
		}
	}

	return issues
}
