package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/soyeahso/prodbot/internal/version"
)

const braveSearchURL = "https://api.search.brave.com/res/v1/web/search"

// errNoAPIKey is returned when web search runs without credentials.
var errNoAPIKey = errors.New("BRAVE_API_KEY is not set")

type braveResponse struct {
	Query struct {
		Original string `json:"original"`
	} `json:"query"`
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Age         string `json:"age,omitempty"`
		} `json:"results"`
	} `json:"web"`
}

// BraveSearch queries the Brave web search API.
type BraveSearch struct {
	APIKey  string
	BaseURL string
	Count   int
	HTTP    *http.Client
}

// NewBraveSearch creates a client with default endpoint and timeout.
func NewBraveSearch(apiKey string) *BraveSearch {
	return &BraveSearch{
		APIKey:  apiKey,
		BaseURL: braveSearchURL,
		Count:   5,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Search returns formatted web results for query.
func (b *BraveSearch) Search(ctx context.Context, query string) (string, error) {
	if b.APIKey == "" {
		return "", errNoAPIKey
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", fmt.Sprintf("%d", b.Count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Subscription-Token", b.APIKey)

	resp, err := b.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return formatBrave(parsed), nil
}

// formatBrave renders results as numbered entries; no results yields "".
func formatBrave(resp braveResponse) string {
	var b strings.Builder
	for i, r := range resp.Web.Results {
		fmt.Fprintf(&b, "%d. %s\n   URL: %s\n", i+1, r.Title, r.URL)
		if r.Age != "" {
			fmt.Fprintf(&b, "   Age: %s\n", r.Age)
		}
		fmt.Fprintf(&b, "   %s\n\n", r.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
