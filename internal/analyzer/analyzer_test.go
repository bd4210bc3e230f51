package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristic_Traits(t *testing.T) {
	profiles := []Profile{
		{Platform: "GitHub", Bio: "I build compilers"},
		{Platform: "LinkedIn"},
		{Platform: "Instagram"},
		{Platform: "Patreon"},
	}

	result := Heuristic(profiles)

	assert.Contains(t, result.Traits, "developer/tech footprint")
	assert.Contains(t, result.Traits, "professional identity")
	assert.Contains(t, result.Traits, "social presence")
	assert.Contains(t, result.Traits, "creator/monetization signals")
	assert.Equal(t, "heuristic", result.Mode)
	assert.False(t, result.LLMUsed)
	assert.Contains(t, result.Summary, "4 profiles across 4 platforms")
}

func TestHeuristic_Risks(t *testing.T) {
	reused := []Profile{
		{Platform: "GitHub"},
		{Platform: "GitHub"},
		{Platform: "github"},
	}
	result := Heuristic(reused)
	assert.Contains(t, result.Risks, "identity reuse across few platforms")

	privacy := Heuristic([]Profile{{Platform: "Reddit", Bio: "always behind a VPN"}})
	assert.Contains(t, privacy.Risks, "privacy tooling mentioned")
}

func TestHeuristic_LongBio(t *testing.T) {
	result := Heuristic([]Profile{{Platform: "Mastodon", Bio: strings.Repeat("x", 300)}})

	assert.Contains(t, result.Traits, "long-form bio detected")
}

func TestAnalyze_HeuristicOnly(t *testing.T) {
	a := New(nil, "", "", zerolog.Nop())

	result := a.Analyze(context.Background(), Request{
		Profiles: []Profile{{Platform: "GitHub"}},
	})

	assert.Equal(t, "heuristic", result.Mode)
	assert.Empty(t, result.LLMError)
}

func TestAnalyze_NoModelHostFallsBack(t *testing.T) {
	a := New(nil, "llama3", "ollama", zerolog.Nop())

	result := a.Analyze(context.Background(), Request{
		Profiles: []Profile{{Platform: "GitHub"}},
		UseLLM:   true,
	})

	assert.Equal(t, "heuristic_fallback", result.Mode)
	assert.False(t, result.LLMUsed)
	assert.Equal(t, "llama3", result.LLMModel)
	assert.NotEmpty(t, result.LLMError)
	assert.NotEmpty(t, result.Summary, "heuristic summary remains authoritative")
}

func TestAnalyze_GenerateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Contains(t, req.Prompt, "GitHub")
		assert.False(t, req.Stream)

		_ = json.NewEncoder(w).Encode(generateResponse{Response: "  a focused developer persona  "})
	}))
	defer server.Close()

	ollama := NewOllamaClient(server.URL, server.Client(), zerolog.Nop())
	a := New(ollama, "llama3", "ollama", zerolog.Nop())

	result := a.Analyze(context.Background(), Request{
		Profiles: []Profile{{Platform: "GitHub", URL: "https://github.com/alice"}},
		UseLLM:   true,
	})

	assert.True(t, result.LLMUsed)
	assert.Equal(t, "ollama", result.Mode)
	assert.Equal(t, "a focused developer persona", result.Summary)
	assert.Empty(t, result.LLMError)
}

func TestAnalyze_GenerateFallsBackToChatOn404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			http.NotFound(w, r)
		case "/v1/chat/completions":
			_ = json.NewEncoder(w).Encode(chatResponse{
				Choices: []struct {
					Message chatMessage `json:"message"`
				}{{Message: chatMessage{Role: "assistant", Content: "chat summary"}}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	ollama := NewOllamaClient(server.URL, server.Client(), zerolog.Nop())
	a := New(ollama, "llama3", "ollama", zerolog.Nop())

	result := a.Analyze(context.Background(), Request{
		Profiles: []Profile{{Platform: "GitHub"}},
		UseLLM:   true,
	})

	assert.True(t, result.LLMUsed)
	assert.Equal(t, "openai", result.Mode)
	assert.Equal(t, "chat summary", result.Summary)
}

func TestAnalyze_ModelErrorFallsBackToHeuristic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	ollama := NewOllamaClient(server.URL, server.Client(), zerolog.Nop())
	a := New(ollama, "llama3", "ollama", zerolog.Nop())

	result := a.Analyze(context.Background(), Request{
		Profiles: []Profile{{Platform: "GitHub"}},
		UseLLM:   true,
	})

	assert.Equal(t, "heuristic_fallback", result.Mode)
	assert.False(t, result.LLMUsed)
	assert.Contains(t, result.LLMError, "500")
	assert.Contains(t, result.Summary, "profiles across")
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3"},{"name":"mistral"},{"name":""}]}`))
	}))
	defer server.Close()

	ollama := NewOllamaClient(server.URL, server.Client(), zerolog.Nop())

	models, err := ollama.ListModels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"llama3", "mistral"}, models)
}

func TestBuildPrompt_Override(t *testing.T) {
	prompt := buildPrompt(Request{
		Profiles: []Profile{{Platform: "GitHub", Bio: strings.Repeat("b", 300)}},
		Prompt:   "Custom instruction.",
		Username: "alice",
	})

	assert.True(t, strings.HasPrefix(prompt, "Custom instruction."))
	assert.Contains(t, prompt, "Username pivot: alice")
	assert.NotContains(t, prompt, strings.Repeat("b", 221), "bio must be truncated")
}
