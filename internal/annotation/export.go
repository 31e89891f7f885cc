package annotation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// LegacyRecord is the flat, numbered-suffix shape of an annotation used
// by the dataset export.
type LegacyRecord struct {
	ID                   string   `json:"id"`
	ProblemID            string   `json:"problem_id"`
	ProblemCategory      string   `json:"problem_category"`
	DifficultyLevel      string   `json:"difficulty_level"`
	ProblemText          string   `json:"problem_text"`
	InitialSolutionSteps []string `json:"initial_solution_steps"`

	ErrorIndex           int      `json:"error_index"`
	ErrorStepContent     string   `json:"error_step_content"`
	ErrorType            string   `json:"error_type"`
	GuidanceProvided     string   `json:"guidance_provided"`
	GuidanceType         string   `json:"guidance_type"`
	RevisedSolutionSteps []string `json:"revised_solution_steps"`
	RevisionOutcome      string   `json:"revision_outcome"`

	ErrorIndex2            *int     `json:"error_index_2"`
	ErrorStepContent2      *string  `json:"error_step_content_2"`
	ErrorType2             *string  `json:"error_type_2"`
	GuidanceProvided2      *string  `json:"guidance_provided_2"`
	GuidanceType2          *string  `json:"guidance_type_2"`
	RevisedSolutionSteps2  []string `json:"revised_solution_steps_2"`
	RevisionOutcome2       *string  `json:"revision_outcome_2"`
	AdditionalGuidance2    *string  `json:"additional_guidance_2"`
	AdditionalGuidanceType *string  `json:"additional_guidance_type_2"`
	RevisedSolutionSteps3  []string `json:"revised_solution_steps_3"`
	RevisionOutcome3       *string  `json:"revision_outcome_3"`

	FinalSolutionSteps []string  `json:"final_solution_steps"`
	InterventionCount  int       `json:"intervention_count"`
	IsComplete         bool      `json:"is_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Flatten converts an annotation to its legacy record. A missing first
// round takes the defaults of a freshly started annotation; missing later
// rounds are null.
func Flatten(a *Annotation) LegacyRecord {
	rec := LegacyRecord{
		ID:                   a.ID,
		ProblemID:            a.ProblemID,
		ProblemCategory:      string(a.Category),
		DifficultyLevel:      string(a.Difficulty),
		ProblemText:          a.ProblemText,
		InitialSolutionSteps: nonNil(a.InitialSteps),
		RevisedSolutionSteps: []string{},
		RevisionOutcome:      string(OutcomeStillWrong),
		FinalSolutionSteps:   nonNil(a.FinalSteps),
		InterventionCount:    a.InterventionCount,
		IsComplete:           a.IsComplete,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}

	if r := a.Round(1); r != nil {
		if r.ErrorIndex != nil {
			rec.ErrorIndex = *r.ErrorIndex
		}
		rec.ErrorStepContent = r.ErrorStepContent
		rec.ErrorType = string(r.ErrorType)
		rec.GuidanceProvided = r.Guidance
		rec.GuidanceType = string(r.GuidanceType)
		rec.RevisedSolutionSteps = nonNil(r.RevisedSteps)
		rec.RevisionOutcome = string(r.Outcome)
	}

	if r := a.Round(2); r != nil {
		rec.ErrorIndex2 = r.ErrorIndex
		rec.ErrorStepContent2 = strPtr(r.ErrorStepContent)
		rec.ErrorType2 = strPtr(string(r.ErrorType))
		rec.GuidanceProvided2 = strPtr(r.Guidance)
		rec.GuidanceType2 = strPtr(string(r.GuidanceType))
		rec.RevisedSolutionSteps2 = nonNil(r.RevisedSteps)
		rec.RevisionOutcome2 = strPtr(string(r.Outcome))
	}

	if r := a.Round(3); r != nil {
		rec.AdditionalGuidance2 = strPtr(r.Guidance)
		rec.AdditionalGuidanceType = strPtr(string(r.GuidanceType))
		rec.RevisedSolutionSteps3 = nonNil(r.RevisedSteps)
		rec.RevisionOutcome3 = strPtr(string(r.Outcome))
	}

	return rec
}

func strPtr(s string) *string { return &s }

// Export writes matching annotations to w as JSON Lines of legacy
// records and returns how many were written.
func (s *Service) Export(ctx context.Context, w io.Writer, f Filter) (int, error) {
	list, err := s.List(ctx, f)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, a := range list {
		if err := enc.Encode(Flatten(a)); err != nil {
			return i, fmt.Errorf("write annotation %s: %w", a.ID, err)
		}
	}
	return len(list), nil
}
