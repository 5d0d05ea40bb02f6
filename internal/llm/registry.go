package llm

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/soyeahso/prodbot/internal/config"
	"github.com/soyeahso/prodbot/internal/logging"
)

// ProviderError is returned when an LLM provider fails.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP-like status code (401, 429, 500, etc.)
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Registry manages LLM provider clients and resolves model references to clients.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]Client // provider name → client
	aliases  map[string]string // model alias → provider name
	fallback string            // default provider name
	log      *logging.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		clients: make(map[string]Client),
		aliases: make(map[string]string),
		log:     log.Sub("llm.registry"),
	}
}

// Register adds a client under the given provider name.
func (r *Registry) Register(name string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	r.log.Info().Str("provider", name).Msg("registered LLM provider")
}

// Alias maps a model name to a provider, so Resolve("gpt-4o-mini") finds
// the "openai" client.
func (r *Registry) Alias(model, provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[model] = provider
}

// SetFallback sets the default provider used when no model/provider match is found.
func (r *Registry) SetFallback(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = provider
}

// Resolve returns the Client for the given model reference.
// Resolution order: exact provider name → alias → fallback.
func (r *Registry) Resolve(model string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Direct provider name match
	if c, ok := r.clients[model]; ok {
		return c, nil
	}

	// Alias lookup
	if provider, ok := r.aliases[model]; ok {
		if c, ok := r.clients[provider]; ok {
			return c, nil
		}
	}

	// Fallback
	if r.fallback != "" {
		if c, ok := r.clients[r.fallback]; ok {
			return c, nil
		}
	}

	return nil, fmt.Errorf("no LLM provider for model %q", model)
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for n := range r.clients {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// envKeys lists the variables consulted when a provider has no apiKey.
var envKeys = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

func apiKeyFor(provider, configured string) string {
	if configured != "" {
		return configured
	}
	for _, k := range envKeys[provider] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// NewClient constructs the SDK-backed client for a provider name.
func NewClient(ctx context.Context, provider string, entry config.ProviderEntry) (Client, error) {
	apiKey := apiKeyFor(provider, entry.APIKey)
	switch provider {
	case "ollama":
		return NewOllamaClient(entry.Endpoint, entry.Model)
	case "openai":
		return NewOpenAIClient(apiKey, entry.Endpoint, entry.Model), nil
	case "anthropic":
		return NewAnthropicClient(apiKey, entry.Endpoint, entry.Model), nil
	case "gemini":
		return NewGeminiClient(ctx, apiKey, entry.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

// NewRegistryFromConfig registers the primary provider and every fallback.
// The primary is also the registry fallback. Providers that fail to construct
// are logged and skipped; Resolve reports them missing later.
func NewRegistryFromConfig(ctx context.Context, models config.ModelsConfig, log *logging.Logger) *Registry {
	reg := NewRegistry(log)

	names := append([]string{models.Provider}, models.Fallbacks...)
	for i, name := range names {
		if name == "" || reg.has(name) {
			continue
		}
		entry := models.Providers[name]
		if i == 0 {
			entry = config.ProviderEntry{
				Model:    modelOr(models.Model, entry.Model),
				APIKey:   modelOr(models.APIKey, entry.APIKey),
				Endpoint: modelOr(models.Endpoint, entry.Endpoint),
			}
		}

		client, err := NewClient(ctx, name, entry)
		if err != nil {
			reg.log.Warn().Str("provider", name).Err(err).Msg("skipping LLM provider")
			continue
		}
		reg.Register(name, client)
		if entry.Model != "" {
			reg.Alias(entry.Model, name)
		}
	}

	if models.Provider != "" {
		reg.SetFallback(models.Provider)
	}
	return reg
}

func (r *Registry) has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[name]
	return ok
}
