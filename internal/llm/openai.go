package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// openAICompatible serves the three providers that speak the OpenAI chat
// completions dialect; only the base URL and model families differ.
type openAICompatible struct {
	id      string
	baseURL string
	allow   []string
	client  *http.Client
}

func newOpenAIAdapter() *openAICompatible {
	return &openAICompatible{
		id:      "openai",
		baseURL: "https://api.openai.com/v1",
		allow:   []string{"gpt", "o1", "o3", "o4", "chatgpt"},
		client:  newHTTPClient(),
	}
}

func newGroqAdapter() *openAICompatible {
	return &openAICompatible{
		id:      "groq",
		baseURL: "https://api.groq.com/openai/v1",
		allow:   []string{"llama", "mixtral", "gemma", "qwen", "deepseek"},
		client:  newHTTPClient(),
	}
}

func newGrokAdapter() *openAICompatible {
	return &openAICompatible{
		id:      "grok",
		baseURL: "https://api.x.ai/v1",
		allow:   []string{"grok"},
		client:  newHTTPClient(),
	}
}

func (a *openAICompatible) ID() string { return a.id }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *openAICompatible) Complete(ctx context.Context, apiKey string, req Request) (string, error) {
	payload := chatCompletionRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserText},
		},
		MaxTokens: req.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", a.id, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.id, err)
	}

	var parsed chatCompletionResponse
	if err := decodeJSON(a.id, resp, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: response contained no choices", a.id)
	}
	return parsed.Choices[0].Message.Content, nil
}

type modelListResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (a *openAICompatible) ListModels(ctx context.Context, apiKey string) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.id, err)
	}

	var parsed modelListResponse
	if err := decodeJSON(a.id, resp, &parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		ids = append(ids, m.ID)
	}
	return filterModels(ids, a.allow), nil
}
