// Package llm is the provider gateway: one uniform request/response
// contract over the heterogeneous chat-completion HTTP APIs the app
// supports. Every call is a single request/response, no retries and no
// streaming; retry policy, if any, belongs to callers.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Request is the internal completion request shape each adapter
// translates into its provider's payload format.
type Request struct {
	Model        string
	SystemPrompt string
	UserText     string
	MaxTokens    int
}

// ErrMissingCredential is returned before any network call when no API
// key could be resolved for the selected provider.
var ErrMissingCredential = errors.New("no API key configured")

// HTTPError carries a non-success status and a truncated response body.
type HTTPError struct {
	Provider string
	Status   int
	Body     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, e.Body)
}

const (
	maxErrorBody    = 300
	maxListedModels = 50
	requestTimeout  = 60 * time.Second
)

// Adapter owns one provider's request shape and response extraction.
type Adapter interface {
	ID() string
	Complete(ctx context.Context, apiKey string, req Request) (string, error)
	ListModels(ctx context.Context, apiKey string) ([]string, error)
}

// Gateway dispatches to the adapter registered for a provider id and
// serves model listings through a TTL cache.
type Gateway struct {
	adapters map[string]Adapter
	cache    *ModelCache
}

// NewGateway builds a gateway with the five stock adapters.
func NewGateway(cache *ModelCache) *Gateway {
	if cache == nil {
		cache = NewModelCache(nil)
	}
	g := &Gateway{adapters: map[string]Adapter{}, cache: cache}
	for _, a := range []Adapter{
		newOpenAIAdapter(),
		newGroqAdapter(),
		newGrokAdapter(),
		newAnthropicAdapter(),
		newGeminiAdapter(),
	} {
		g.adapters[a.ID()] = a
	}
	return g
}

// RegisterAdapter replaces the adapter for its provider id. Tests use
// this to point a provider at a fixture server.
func (g *Gateway) RegisterAdapter(a Adapter) {
	g.adapters[a.ID()] = a
}

// Complete performs one non-streaming chat completion.
func (g *Gateway) Complete(ctx context.Context, providerID, apiKey string, req Request) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", ErrMissingCredential
	}
	adapter, ok := g.adapters[providerID]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", providerID)
	}
	return adapter.Complete(ctx, apiKey, req)
}

// ListModels fetches a provider's chat-capable model identifiers,
// filtered and capped, honoring the 10 minute cache.
func (g *Gateway) ListModels(ctx context.Context, providerID, apiKey string) ([]string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}
	adapter, ok := g.adapters[providerID]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerID)
	}
	if models, ok := g.cache.Get(providerID, apiKey); ok {
		return models, nil
	}
	models, err := adapter.ListModels(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	g.cache.Put(providerID, apiKey, models)
	return models, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// decodeJSON enforces the shared error contract: non-2xx becomes an
// HTTPError with a truncated body, parse failures are wrapped.
func decodeJSON(provider string, resp *http.Response, out any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{Provider: provider, Status: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: parse response: %w", provider, err)
	}
	return nil
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// deniedFamilies filters out model families that cannot serve a text
// chat completion.
var deniedFamilies = []string{
	"embed", "audio", "whisper", "tts", "vision", "moderation",
	"image", "dall-e", "realtime", "transcribe",
}

// filterModels keeps ids matching any allow keyword, drops denied
// families, sorts and caps the result.
func filterModels(ids, allow []string) []string {
	var out []string
	for _, id := range ids {
		lower := strings.ToLower(id)
		allowed := false
		for _, keyword := range allow {
			if strings.Contains(lower, keyword) {
				allowed = true
				break
			}
		}
		if !allowed {
			continue
		}
		denied := false
		for _, keyword := range deniedFamilies {
			if strings.Contains(lower, keyword) {
				denied = true
				break
			}
		}
		if denied {
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	if len(out) > maxListedModels {
		out = out[:maxListedModels]
	}
	return out
}
