package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// OllamaClient talks to a local Ollama host over either its native generate
// API or its OpenAI-compatible chat API.
type OllamaClient struct {
	host   string
	client *http.Client
	logger zerolog.Logger
}

// NewOllamaClient builds a client for the given host, e.g.
// "http://localhost:11434".
func NewOllamaClient(host string, client *http.Client, logger zerolog.Logger) *OllamaClient {
	return &OllamaClient{
		host:   strings.TrimRight(host, "/"),
		client: client,
		logger: logger.With().Str("component", "OllamaClient").Logger(),
	}
}

// Host returns the configured host.
func (c *OllamaClient) Host() string {
	return c.host
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Summarize generates a profile summary with the requested API mode,
// falling back to the other mode when the preferred endpoint is missing
// (404), since older and newer Ollama builds expose different surfaces.
// The returned mode names the API that actually produced the text.
func (c *OllamaClient) Summarize(ctx context.Context, req Request, model, apiMode string) (string, string, error) {
	prompt := buildPrompt(req)

	if apiMode == "openai" {
		text, err := c.chat(ctx, model, prompt)
		if err == nil {
			return text, "openai", nil
		}
		if !isNotFound(err) {
			return "", "", err
		}
		text, err = c.generate(ctx, model, prompt)
		if err != nil {
			return "", "", err
		}
		return text, "ollama", nil
	}

	text, err := c.generate(ctx, model, prompt)
	if err == nil {
		return text, "ollama", nil
	}
	if !isNotFound(err) {
		return "", "", err
	}
	text, err = c.chat(ctx, model, prompt)
	if err != nil {
		return "", "", err
	}
	return text, "openai", nil
}

// ListModels returns the model names available on the host.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/api/tags")
	if err != nil {
		return nil, err
	}

	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names, nil
}

func (c *OllamaClient) generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := c.post(ctx, "/api/generate", generateRequest{Model: model, Prompt: prompt})
	if err != nil {
		return "", err
	}
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}
	return strings.TrimSpace(resp.Response), nil
}

func (c *OllamaClient) chat(ctx context.Context, model, prompt string) (string, error) {
	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a concise profile analyst."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	}
	body, err := c.post(ctx, "/v1/chat/completions", payload)
	if err != nil {
		return "", err
	}
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// statusError carries an HTTP status so 404 can trigger the API fallback.
type statusError struct {
	status int
	path   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("model host returned status %d for %s", e.status, e.path)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

func (c *OllamaClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path)
}

func (c *OllamaClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, path)
}

func (c *OllamaClient) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach model host: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read model response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{status: resp.StatusCode, path: path}
	}
	return body, nil
}

// buildPrompt renders the profile list into the analysis prompt. A caller
// supplied prompt overrides the default instruction block.
func buildPrompt(req Request) string {
	var lines []string
	if trimmed := strings.TrimSpace(req.Prompt); trimmed != "" {
		lines = append(lines, trimmed)
	} else {
		lines = append(lines,
			"You are a concise profile analyst.",
			"Given multi-platform profile hits, infer persona, interests, and risk signals.",
			"Keep it under 140 words.",
		)
	}
	if req.Username != "" {
		lines = append(lines, "Username pivot: "+req.Username)
	}
	if req.Email != "" {
		lines = append(lines, "Email pivot: "+req.Email)
	}
	lines = append(lines, "Profiles:")
	for _, p := range req.Profiles {
		line := fmt.Sprintf("- %s: %s | %s", p.Platform, p.DisplayName, p.URL)
		if p.Bio != "" {
			bio := p.Bio
			if len(bio) > 220 {
				bio = bio[:220]
			}
			line += " | bio: " + bio
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
