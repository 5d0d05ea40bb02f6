package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaModel is used when no model is configured.
const DefaultOllamaModel = "llama3.2"

// OllamaClient talks to a local or remote Ollama server.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient creates a client for endpoint, or from OLLAMA_HOST when
// endpoint is empty.
func NewOllamaClient(endpoint, model string) (*OllamaClient, error) {
	var client *api.Client
	if endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama endpoint: %w", err)
		}
		client = api.NewClient(u, &http.Client{Timeout: 5 * time.Minute})
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
	}
	return &OllamaClient{client: client, model: modelOr(model, DefaultOllamaModel)}, nil
}

func (o *OllamaClient) Name() string { return "ollama" }

func (o *OllamaClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	msgs := make([]api.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, api.Message{Role: RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Content})
	}

	options := map[string]any{}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    modelOr(req.Model, o.model),
		Messages: msgs,
		Options:  options,
		Stream:   &stream,
	}

	var out CompletionResponse
	err := o.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		out.Content += resp.Message.Content
		out.Model = resp.Model
		if resp.Done {
			out.Usage = Usage{InputTokens: resp.PromptEvalCount, OutputTokens: resp.EvalCount}
		}
		return nil
	})
	if err != nil {
		var se api.StatusError
		if errors.As(err, &se) {
			return nil, &ProviderError{Provider: "ollama", Code: se.StatusCode, Message: se.ErrorMessage}
		}
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	out.Duration = time.Since(start)
	return &out, nil
}
