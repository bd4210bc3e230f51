// Package analyzer summarizes found profiles: a heuristic pass over
// platform mix and bios, optionally upgraded by a local LLM. The model is a
// collaborator, not a dependency: any model failure falls back to the
// heuristic result with the failure reason carried as metadata.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Profile is one found-profile record submitted for analysis.
type Profile struct {
	Platform    string `json:"platform" validate:"required"`
	URL         string `json:"url,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Request asks for an analysis of a profile set.
type Request struct {
	Profiles []Profile `json:"profiles" validate:"required,min=1,dive"`
	UseLLM   bool      `json:"use_llm,omitempty"`
	Model    string    `json:"llm_model,omitempty"`
	Host     string    `json:"ollama_host,omitempty"`
	APIMode  string    `json:"api_mode,omitempty" validate:"omitempty,oneof=ollama openai"`
	Username string    `json:"username,omitempty"`
	Email    string    `json:"email,omitempty"`
	Prompt   string    `json:"prompt,omitempty"`
}

// Result is the analysis payload.
type Result struct {
	Summary  string   `json:"summary"`
	Traits   []string `json:"traits"`
	Risks    []string `json:"risks"`
	Mode     string   `json:"mode"`
	LLMUsed  bool     `json:"llm_used"`
	LLMModel string   `json:"llm_model,omitempty"`
	LLMError string   `json:"llm_error,omitempty"`
}

// Analyzer runs profile analysis.
type Analyzer struct {
	logger zerolog.Logger
	ollama *OllamaClient

	defaultModel   string
	defaultAPIMode string
}

// New builds an analyzer. ollama may be nil when no model host is reachable
// at all; requests asking for the model then fall back immediately.
func New(ollama *OllamaClient, defaultModel, defaultAPIMode string, logger zerolog.Logger) *Analyzer {
	if defaultModel == "" {
		defaultModel = "llama3"
	}
	if defaultAPIMode == "" {
		defaultAPIMode = "ollama"
	}
	return &Analyzer{
		logger:         logger.With().Str("component", "Analyzer").Logger(),
		ollama:         ollama,
		defaultModel:   defaultModel,
		defaultAPIMode: defaultAPIMode,
	}
}

// Analyze produces the heuristic result and, when requested, replaces its
// summary with a model-generated one. The heuristic result is authoritative
// whenever the model path fails.
func (a *Analyzer) Analyze(ctx context.Context, req Request) Result {
	result := Heuristic(req.Profiles)

	if !req.UseLLM {
		return result
	}

	model := req.Model
	if model == "" {
		model = a.defaultModel
	}
	apiMode := strings.ToLower(req.APIMode)
	if apiMode == "" {
		apiMode = a.defaultAPIMode
	}

	if a.ollama == nil {
		result.Mode = "heuristic_fallback"
		result.LLMModel = model
		result.LLMError = "no model host configured"
		return result
	}

	summary, usedMode, err := a.ollama.Summarize(ctx, req, model, apiMode)
	if err != nil {
		a.logger.Warn().Err(err).Str("model", model).Msg("Model analysis failed, using heuristic result")
		result.Mode = "heuristic_fallback"
		result.LLMModel = model
		result.LLMError = err.Error()
		return result
	}

	if summary != "" {
		result.Summary = summary
	}
	result.Mode = usedMode
	result.LLMUsed = true
	result.LLMModel = model
	return result
}

// Heuristic derives traits and risks from the platform mix and bios alone.
func Heuristic(profiles []Profile) Result {
	platforms := make([]string, 0, len(profiles))
	distinct := make(map[string]struct{})
	var bios []string
	for _, p := range profiles {
		name := strings.ToLower(p.Platform)
		platforms = append(platforms, name)
		distinct[name] = struct{}{}
		if p.Bio != "" {
			bios = append(bios, p.Bio)
		}
	}

	traits := []string{}
	risks := []string{}

	if anyContains(platforms, "github", "gitlab", "bitbucket") {
		traits = append(traits, "developer/tech footprint")
	}
	if anyContains(platforms, "linkedin") {
		traits = append(traits, "professional identity")
	}
	if anyContains(platforms, "instagram", "facebook", "tiktok") {
		traits = append(traits, "social presence")
	}
	if anyContains(platforms, "patreon", "ko-fi", "venmo", "cash app") {
		traits = append(traits, "creator/monetization signals")
	}
	for _, bio := range bios {
		if len(bio) > 240 {
			traits = append(traits, "long-form bio detected")
			break
		}
	}

	if len(distinct) <= 2 && len(profiles) >= 3 {
		risks = append(risks, "identity reuse across few platforms")
	}
	for _, bio := range bios {
		lowered := strings.ToLower(bio)
		if strings.Contains(lowered, "vpn") || strings.Contains(lowered, "proxy") {
			risks = append(risks, "privacy tooling mentioned")
			break
		}
	}

	summary := fmt.Sprintf(
		"Found %d profiles across %d platforms. Signals combined into high-level traits and risks.",
		len(profiles), len(distinct),
	)

	return Result{
		Summary: summary,
		Traits:  traits,
		Risks:   risks,
		Mode:    "heuristic",
	}
}

func anyContains(haystack []string, needles ...string) bool {
	for _, item := range haystack {
		for _, needle := range needles {
			if strings.Contains(item, needle) {
				return true
			}
		}
	}
	return false
}
