// Package solution produces step-by-step solutions and guided revisions
// from a language model.
package solution

import (
	"context"
	"time"
)

// Generator produces solution steps for a problem.
type Generator interface {
	// Initial solves the problem from scratch.
	Initial(ctx context.Context, problemText string) ([]string, error)

	// Revise asks for a corrected solution given reviewer guidance.
	Revise(ctx context.Context, rev Revision) ([]string, error)
}

// Revision is the input to Generator.Revise.
type Revision struct {
	ProblemText   string
	PreviousSteps []string
	ErrorIndex    int // 0-based index of the first wrong step
	Guidance      string
	Level         GuidanceLevel
}

// GuidanceLevel is how explicit the correction prompt is.
type GuidanceLevel string

const (
	LevelDirectional        GuidanceLevel = "directional"
	LevelTargeted           GuidanceLevel = "targeted"
	LevelCompleteCorrection GuidanceLevel = "complete_correction"
)

// LevelForAttempt maps a 1-based attempt number to its escalation level.
// Attempts past the third stay at complete_correction.
func LevelForAttempt(attempt int) GuidanceLevel {
	switch {
	case attempt <= 1:
		return LevelDirectional
	case attempt == 2:
		return LevelTargeted
	default:
		return LevelCompleteCorrection
	}
}

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// MaxTokens is the token budget for each response.
	MaxTokens int

	// Temperature controls output randomness (0.0-1.0).
	Temperature float64

	// Timeout bounds a single generator call. Zero means no bound.
	Timeout time.Duration

	// Structured requests {"steps": [...]} JSON instead of free text.
	Structured bool
}

// DefaultConfig returns the generator defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens: 4000,
		Timeout:   120 * time.Second,
	}
}
