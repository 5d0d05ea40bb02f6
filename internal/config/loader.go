package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envFiles are loaded in order; variables already set are never overwritten.
var envFiles = []string{".env.local", ".env"}

// LoadEnvFiles loads dotenv files from the working directory and the base
// directory. Missing files are ignored.
func LoadEnvFiles(dirs ...string) error {
	candidates := append([]string(nil), envFiles...)
	for _, d := range dirs {
		if d == "" {
			continue
		}
		for _, f := range envFiles {
			candidates = append(candidates, d+string(os.PathSeparator)+f)
		}
	}
	for _, f := range candidates {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &ConfigError{Message: "loading " + f + ": " + err.Error()}
		}
	}
	return nil
}

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields resolves ${VAR} references in credential fields.
func expandSensitiveFields(cfg *Config) {
	cfg.Gateway.Auth.Token = expandEnvVars(cfg.Gateway.Auth.Token)
	cfg.Gateway.Auth.Password = expandEnvVars(cfg.Gateway.Auth.Password)
	cfg.Models.APIKey = expandEnvVars(cfg.Models.APIKey)
	for name, p := range cfg.Models.Providers {
		p.APIKey = expandEnvVars(p.APIKey)
		cfg.Models.Providers[name] = p
	}
	cfg.Checkpoint.RedisURL = expandEnvVars(cfg.Checkpoint.RedisURL)
	cfg.Events.NATSURL = expandEnvVars(cfg.Events.NATSURL)
	if cfg.Channels.IRC != nil {
		cfg.Channels.IRC.Password = expandEnvVars(cfg.Channels.IRC.Password)
	}
	for name, srv := range cfg.MCP.Servers {
		for k, v := range srv.Env {
			srv.Env[k] = expandEnvVars(v)
		}
		cfg.MCP.Servers[name] = srv
	}
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			applyDefaults(&cfg)
			return cfg, nil
		}
		return Defaults(), err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Defaults(), &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// FromRaw decodes a raw config map the way Load decodes a file, with
// defaults applied but without environment overrides.
func FromRaw(raw map[string]any) (Config, error) {
	var cfg Config
	data, err := yaml.Marshal(raw)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to decode config: " + err.Error()}
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// SaveRaw writes a generic map back to a YAML config file, creating its
// directory if needed.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyEnvOverrides reads PRODBOT_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PRODBOT_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("PRODBOT_GATEWAY_BIND"); v != "" {
		cfg.Gateway.Bind = v
	}
	if v := os.Getenv("PRODBOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("PRODBOT_PROVIDER"); v != "" {
		cfg.Models.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("PRODBOT_MODEL"); v != "" {
		cfg.Models.Model = v
	}
	if v := os.Getenv("PRODBOT_API_KEY"); v != "" {
		cfg.Models.APIKey = v
	}
	if v := os.Getenv("PRODBOT_CHECKPOINT_STORE"); v != "" {
		cfg.Checkpoint.Store = strings.ToLower(v)
	}
	if v := os.Getenv("PRODBOT_REDIS_URL"); v != "" {
		cfg.Checkpoint.RedisURL = v
	}
	if v := os.Getenv("PRODBOT_NATS_URL"); v != "" {
		cfg.Events.NATSURL = v
	}
}
