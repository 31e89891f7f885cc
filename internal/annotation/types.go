// Package annotation runs the guided-correction workflow: an initial model
// solution, up to three rounds of reviewer guidance and revision, and a
// final verdict.
package annotation

import (
	"time"

	"github.com/abhisek/stepwise/internal/apperr"
	"github.com/abhisek/stepwise/internal/problem"
	"github.com/abhisek/stepwise/internal/solution"
	"github.com/abhisek/stepwise/internal/store"
	"github.com/go-playground/validator/v10"
)

// MaxRounds is the number of guidance rounds an annotation can hold.
const MaxRounds = 3

// Round is one guidance-and-revision cycle. The third round carries no
// error classification of its own.
type Round struct {
	Number           int                    `json:"number"`
	ErrorIndex       *int                   `json:"error_index,omitempty"`
	ErrorStepContent string                 `json:"error_step_content,omitempty"`
	ErrorType        ErrorType              `json:"error_type,omitempty"`
	Guidance         string                 `json:"guidance_provided"`
	GuidanceType     GuidanceType           `json:"guidance_type"`
	GuidanceLevel    solution.GuidanceLevel `json:"guidance_level"`
	RevisedSteps     []string               `json:"revised_solution_steps"`
	Outcome          Outcome                `json:"revision_outcome"`
}

// Annotation is one reviewer session over a single problem.
type Annotation struct {
	ID                string             `json:"id"`
	ProblemID         string             `json:"problem_id"`
	Category          problem.Category   `json:"category"`
	Difficulty        problem.Difficulty `json:"difficulty"`
	ProblemText       string             `json:"problem_text"`
	InitialSteps      []string           `json:"initial_solution_steps"`
	InterventionCount int                `json:"intervention_count"`
	Rounds            []Round            `json:"rounds"`
	FinalSteps        []string           `json:"final_solution_steps"`
	IsComplete        bool               `json:"is_complete"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// State names the workflow state for display.
func (a *Annotation) State() string {
	if a.IsComplete {
		return "complete"
	}
	return "in_progress"
}

// Round returns round n (1-based), or nil if it has not happened.
func (a *Annotation) Round(n int) *Round {
	if n < 1 || n > len(a.Rounds) {
		return nil
	}
	return &a.Rounds[n-1]
}

// CanSubmitGuidance reports whether another round may be added.
func (a *Annotation) CanSubmitGuidance() bool {
	return !a.IsComplete && a.InterventionCount < MaxRounds
}

// CanFinalize reports whether a verdict may be recorded.
func (a *Annotation) CanFinalize() bool {
	return !a.IsComplete && a.InterventionCount >= 1
}

// StepsToRevise returns the steps the next guidance round will revise and
// against which its error index is checked.
func (a *Annotation) StepsToRevise() []string {
	return stepsForAttempt(a, a.InterventionCount+1)
}

// LatestSteps returns the most recent solution shown to the reviewer.
func (a *Annotation) LatestSteps() []string {
	if a.IsComplete && len(a.FinalSteps) > 0 {
		return a.FinalSteps
	}
	for i := len(a.Rounds) - 1; i >= 0; i-- {
		if len(a.Rounds[i].RevisedSteps) > 0 {
			return a.Rounds[i].RevisedSteps
		}
	}
	return a.InitialSteps
}

// Guidance is the reviewer input for one round.
type Guidance struct {
	ErrorIndex       *int         `json:"error_index" validate:"required,gte=0"`
	ErrorStepContent string       `json:"error_step_content" validate:"required,max=20000"`
	ErrorType        ErrorType    `json:"error_type" validate:"required,error_type"`
	Text             string       `json:"guidance_provided" validate:"required,max=20000"`
	Type             GuidanceType `json:"guidance_type" validate:"required,guidance_type"`
}

// Filter narrows List.
type Filter struct {
	ProblemID string
	Complete  *bool
}

func (f Filter) toStore() store.Filter {
	sf := store.Filter{}
	if f.ProblemID != "" {
		sf["problem_id"] = f.ProblemID
	}
	if f.Complete != nil {
		sf["is_complete"] = *f.Complete
	}
	return sf
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := apperr.NewValidator()
	apperr.MustRegister(v, "error_type", func(fl validator.FieldLevel) bool {
		return ErrorType(fl.Field().String()).Valid()
	})
	apperr.MustRegister(v, "guidance_type", func(fl validator.FieldLevel) bool {
		return GuidanceType(fl.Field().String()).Valid()
	})
	return v
}

func fromRecord(r *store.AnnotationRecord) *Annotation {
	a := &Annotation{
		ID:                r.ID,
		ProblemID:         r.ProblemID,
		Category:          problem.Category(r.Category),
		Difficulty:        problem.Difficulty(r.Difficulty),
		ProblemText:       r.ProblemText,
		InitialSteps:      nonNil(r.InitialSteps),
		InterventionCount: r.InterventionCount,
		Rounds:            make([]Round, len(r.Rounds)),
		FinalSteps:        nonNil(r.FinalSteps),
		IsComplete:        r.IsComplete,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	for i, rr := range r.Rounds {
		a.Rounds[i] = Round{
			Number:           rr.Number,
			ErrorIndex:       rr.ErrorIndex,
			ErrorStepContent: rr.ErrorStepContent,
			ErrorType:        ErrorType(rr.ErrorType),
			Guidance:         rr.Guidance,
			GuidanceType:     GuidanceType(rr.GuidanceType),
			GuidanceLevel:    solution.GuidanceLevel(rr.GuidanceLevel),
			RevisedSteps:     nonNil(rr.RevisedSteps),
			Outcome:          Outcome(rr.Outcome),
		}
	}
	return a
}

func roundsToStore(rounds []Round) []store.RoundRecord {
	out := make([]store.RoundRecord, len(rounds))
	for i, r := range rounds {
		out[i] = store.RoundRecord{
			Number:           r.Number,
			ErrorIndex:       r.ErrorIndex,
			ErrorStepContent: r.ErrorStepContent,
			ErrorType:        string(r.ErrorType),
			Guidance:         r.Guidance,
			GuidanceType:     string(r.GuidanceType),
			GuidanceLevel:    string(r.GuidanceLevel),
			RevisedSteps:     r.RevisedSteps,
			Outcome:          string(r.Outcome),
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
