package solution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/stepwise/internal/apperr"
	"github.com/abhisek/stepwise/internal/llm"
)

// Purpose labels recorded on LLM request events.
const (
	PurposeInitial  = "solution-initial"
	PurposeRevision = "solution-revision"
)

var errNoSteps = errors.New("model returned no steps")

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	return &LLMGenerator{provider: provider, config: cfg}
}

// Initial produces the first solution for problemText.
func (g *LLMGenerator) Initial(ctx context.Context, problemText string) ([]string, error) {
	ctx = llm.WithPurpose(ctx, PurposeInitial)
	steps, err := g.generate(ctx, initialSystemPrompt, buildInitialMessage(problemText))
	if err != nil {
		return nil, &apperr.UpstreamError{Op: "generate initial solution", Err: err}
	}
	return steps, nil
}

// Revise produces a corrected solution following reviewer guidance.
func (g *LLMGenerator) Revise(ctx context.Context, rev Revision) ([]string, error) {
	ctx = llm.WithPurpose(ctx, PurposeRevision)
	steps, err := g.generate(ctx, revisionSystemPrompt, buildRevisionMessage(rev))
	if err != nil {
		return nil, &apperr.UpstreamError{Op: "generate revised solution", Err: err}
	}
	return steps, nil
}

type stepsOutput struct {
	Steps []string `json:"steps"`
}

func (g *LLMGenerator) generate(ctx context.Context, system, user string) ([]string, error) {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	req := llm.Request{
		System: system,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: user},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}
	if g.config.Structured {
		req.System += structuredSuffix
		req.Schema = StepsSchema
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var steps []string
	if g.config.Structured {
		var out stepsOutput
		if err := json.Unmarshal(resp.Content, &out); err != nil {
			return nil, fmt.Errorf("parse steps: %w", err)
		}
		for _, s := range out.Steps {
			if s = strings.TrimSpace(s); s != "" {
				steps = append(steps, s)
			}
		}
	} else {
		steps = ParseSteps(resp.Text())
	}

	if len(steps) == 0 {
		return nil, errNoSteps
	}
	return steps, nil
}
