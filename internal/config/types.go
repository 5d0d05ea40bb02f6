package config

// Config is the root configuration for prodbot.
type Config struct {
	Gateway    GatewayConfig    `yaml:"gateway,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Agent      AgentConfig      `yaml:"agent,omitempty"`
	Models     ModelsConfig     `yaml:"models,omitempty"`
	MCP        MCPConfig        `yaml:"mcp,omitempty"`
	Checkpoint CheckpointConfig `yaml:"checkpoint,omitempty"`
	Events     EventsConfig     `yaml:"events,omitempty"`
	Channels   ChannelsConfig   `yaml:"channels,omitempty"`
	Session    SessionConfig    `yaml:"session,omitempty"`
}

// GatewayConfig controls the HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	TLS            GatewayTLS  `yaml:"tls,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
	RunTimeout     int         `yaml:"runTimeoutSeconds,omitempty"`
}

// GatewayAuth configures websocket RPC authentication.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "token" | "password"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// AgentConfig tunes the agent graph.
type AgentConfig struct {
	// Keywords route a question to the retriever when any appears in it.
	Keywords      []string `yaml:"keywords,omitempty"`
	DefaultThread string   `yaml:"defaultThread,omitempty"`
	MaxTokens     int      `yaml:"maxTokens,omitempty"`
	Temperature   *float64 `yaml:"temperature,omitempty"`
}

// ModelsConfig selects the language model provider.
type ModelsConfig struct {
	Provider  string   `yaml:"provider,omitempty"` // "ollama" | "openai" | "anthropic" | "gemini"
	Model     string   `yaml:"model,omitempty"`
	APIKey    string   `yaml:"apiKey,omitempty"`
	Endpoint  string   `yaml:"endpoint,omitempty"`
	Fallbacks []string `yaml:"fallbacks,omitempty"` // extra providers tried on retryable errors

	// Providers holds per-provider credentials for fallbacks.
	Providers map[string]ProviderEntry `yaml:"providers,omitempty"`
}

// ProviderEntry configures one additional provider.
type ProviderEntry struct {
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"apiKey,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// MCPConfig lists the MCP servers tools are discovered from.
type MCPConfig struct {
	Servers map[string]MCPServerConfig `yaml:"servers,omitempty"`
	// ConnectTimeout bounds each server's connect + list, in seconds.
	ConnectTimeout int `yaml:"connectTimeoutSeconds,omitempty"`
}

// MCPServerConfig describes how to reach one MCP server.
type MCPServerConfig struct {
	Transport string            `yaml:"transport"` // "streamable_http" | "sse" | "stdio"
	URL       string            `yaml:"url,omitempty"`
	Command   string            `yaml:"command,omitempty"`
	Args      []string          `yaml:"args,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`
}

// CheckpointConfig selects where thread history is persisted.
type CheckpointConfig struct {
	Store     string `yaml:"store,omitempty"` // "memory" | "sqlite" | "redis"
	Path      string `yaml:"path,omitempty"`  // sqlite file; defaults under the data dir
	RedisURL  string `yaml:"redisUrl,omitempty"`
	KeyPrefix string `yaml:"keyPrefix,omitempty"`
}

// EventsConfig configures the optional NATS event sink.
type EventsConfig struct {
	NATSURL string `yaml:"natsUrl,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// ChannelsConfig defines channel-specific configurations.
type ChannelsConfig struct {
	IRC *IRCConfig `yaml:"irc,omitempty"`
}

// IRCConfig defines IRC channel settings.
type IRCConfig struct {
	Server   string   `yaml:"server"`
	Port     int      `yaml:"port,omitempty"`
	Nick     string   `yaml:"nick"`
	Password string   `yaml:"password,omitempty"`
	Channels []string `yaml:"channels"`
	UseTLS   bool     `yaml:"useTLS,omitempty"`
	SASL     bool     `yaml:"sasl,omitempty"`
	OpOnly   bool     `yaml:"opOnly,omitempty"` // restrict to channel operators
	Owner    string   `yaml:"owner,omitempty"`  // only accept messages from this nick when set
}

// SessionConfig maps channel conversations onto agent threads.
type SessionConfig struct {
	Scope string `yaml:"scope,omitempty"` // "per-sender" | "global"
}
