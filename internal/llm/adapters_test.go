package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAITestAdapter(url string) *openAICompatible {
	a := newOpenAIAdapter()
	a.baseURL = url
	return a
}

func TestOpenAICompatibleCompleteShapesRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody chatCompletionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"choices":[{"message":{"content":"a short summary"}}]}`))
	}))
	defer srv.Close()

	adapter := openAITestAdapter(srv.URL)
	out, err := adapter.Complete(context.Background(), "sk-test", Request{
		Model:        "gpt-4o-mini",
		SystemPrompt: "Summarize.",
		UserText:     "some selected text",
		MaxTokens:    256,
	})
	require.NoError(t, err)

	assert.Equal(t, "a short summary", out)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody.Model)
	assert.Equal(t, 256, gotBody.MaxTokens)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "Summarize.", gotBody.Messages[0].Content)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
}

func TestAnthropicCompleteShapesRequest(t *testing.T) {
	var gotHeaders http.Header
	var gotBody anthropicRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		require.Equal(t, "/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"content":[{"type":"text","text":"claude says hi"}]}`))
	}))
	defer srv.Close()

	adapter := newAnthropicAdapter()
	adapter.baseURL = srv.URL
	out, err := adapter.Complete(context.Background(), "ak-test", Request{
		Model:        "claude-3-5-haiku-latest",
		SystemPrompt: "Summarize.",
		UserText:     "text",
		MaxTokens:    512,
	})
	require.NoError(t, err)

	assert.Equal(t, "claude says hi", out)
	assert.Equal(t, "ak-test", gotHeaders.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, gotHeaders.Get("anthropic-version"))
	assert.Empty(t, gotHeaders.Get("Authorization"))
	assert.Equal(t, "Summarize.", gotBody.System)
	assert.Equal(t, 512, gotBody.MaxTokens)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
}

func TestAnthropicDefaultsMaxTokens(t *testing.T) {
	var gotBody anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer srv.Close()

	adapter := newAnthropicAdapter()
	adapter.baseURL = srv.URL
	_, err := adapter.Complete(context.Background(), "k", Request{Model: "claude-3-5-haiku-latest"})
	require.NoError(t, err)
	assert.Positive(t, gotBody.MaxTokens)
}

func TestGeminiCompleteUsesKeyQueryAndModelPath(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"part one "},{"text":"part two"}]}}]}`))
	}))
	defer srv.Close()

	adapter := newGeminiAdapter()
	adapter.baseURL = srv.URL
	out, err := adapter.Complete(context.Background(), "gk-test", Request{
		Model:    "gemini-2.0-flash",
		UserText: "text",
	})
	require.NoError(t, err)

	assert.Equal(t, "part one part two", out)
	assert.Contains(t, gotURL, "/models/gemini-2.0-flash:generateContent")
	assert.Contains(t, gotURL, "key=gk-test")
}

func TestCompleteUnauthorizedSurfacesStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	openai := openAITestAdapter(srv.URL)
	anthropic := newAnthropicAdapter()
	anthropic.baseURL = srv.URL
	gemini := newGeminiAdapter()
	gemini.baseURL = srv.URL

	for _, adapter := range []Adapter{openai, anthropic, gemini} {
		_, err := adapter.Complete(context.Background(), "bad-key", Request{Model: "m", UserText: "t"})
		require.Error(t, err, adapter.ID())
		assert.Contains(t, err.Error(), "401", adapter.ID())

		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr, adapter.ID())
		assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
		assert.Contains(t, httpErr.Body, "invalid api key")
	}
}

func TestHTTPErrorBodyTruncated(t *testing.T) {
	long := strings.Repeat("x", 2000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(long))
	}))
	defer srv.Close()

	adapter := openAITestAdapter(srv.URL)
	_, err := adapter.Complete(context.Background(), "k", Request{Model: "m", UserText: "t"})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Len(t, httpErr.Body, maxErrorBody)
}

func TestOpenAIListModelsFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		w.Write([]byte(`{"data":[
			{"id":"gpt-4o"},
			{"id":"gpt-4o-mini"},
			{"id":"text-embedding-3-small"},
			{"id":"whisper-1"},
			{"id":"dall-e-3"},
			{"id":"gpt-4o-audio-preview"},
			{"id":"omni-moderation-latest"}
		]}`))
	}))
	defer srv.Close()

	adapter := openAITestAdapter(srv.URL)
	ids, err := adapter.ListModels(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, ids)
}

func TestGeminiListModelsStripsPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[
			{"name":"models/gemini-2.0-flash"},
			{"name":"models/gemini-embedding-001"},
			{"name":"models/imagen-3"}
		]}`))
	}))
	defer srv.Close()

	adapter := newGeminiAdapter()
	adapter.baseURL = srv.URL
	ids, err := adapter.ListModels(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"gemini-2.0-flash"}, ids)
}

func TestFilterModelsCapsCount(t *testing.T) {
	var ids []string
	for i := 0; i < 80; i++ {
		ids = append(ids, "gpt-variant-"+string(rune('a'+i%26))+string(rune('a'+i/26)))
	}
	out := filterModels(ids, []string{"gpt"})
	assert.Len(t, out, maxListedModels)
	assert.True(t, sortedStrings(out))
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}
