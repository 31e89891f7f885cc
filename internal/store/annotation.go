package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// AnnotationRecord is a row of the annotations table. Step lists and
// rounds are stored as JSON columns.
type AnnotationRecord struct {
	ID                string
	ProblemID         string
	Category          string
	Difficulty        string
	ProblemText       string
	InitialSteps      []string
	InterventionCount int
	Rounds            []RoundRecord
	FinalSteps        []string
	IsComplete        bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RoundRecord is the persisted shape of one guidance round.
type RoundRecord struct {
	Number           int      `json:"number"`
	ErrorIndex       *int     `json:"error_index,omitempty"`
	ErrorStepContent string   `json:"error_step_content,omitempty"`
	ErrorType        string   `json:"error_type,omitempty"`
	Guidance         string   `json:"guidance_provided"`
	GuidanceType     string   `json:"guidance_type"`
	GuidanceLevel    string   `json:"guidance_level"`
	RevisedSteps     []string `json:"revised_solution_steps"`
	Outcome          string   `json:"revision_outcome"`
}

type annotationRepo struct {
	c *collection[AnnotationRecord]
}

func newAnnotationRepo(q querier) *annotationRepo {
	return &annotationRepo{c: &collection[AnnotationRecord]{
		table: "annotations",
		key:   "id",
		columns: []string{
			"id", "problem_id", "category", "difficulty", "problem_text",
			"initial_solution_steps", "intervention_count", "rounds",
			"final_solution_steps", "is_complete", "created_at", "updated_at",
		},
		json: map[string]bool{
			"initial_solution_steps": true, "rounds": true, "final_solution_steps": true,
		},
		mutable: map[string]bool{
			"intervention_count": true, "rounds": true,
			"final_solution_steps": true, "is_complete": true,
		},
		scan:   scanAnnotation,
		values: annotationValues,
		q:      q,
		now:    time.Now,
	}}
}

func scanAnnotation(rows *sql.Rows) (*AnnotationRecord, error) {
	var (
		r                      AnnotationRecord
		initial, rounds, final string
	)
	err := rows.Scan(&r.ID, &r.ProblemID, &r.Category, &r.Difficulty, &r.ProblemText,
		&initial, &r.InterventionCount, &rounds, &final, &r.IsComplete,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(initial, &r.InitialSteps); err != nil {
		return nil, err
	}
	if err := decodeJSON(rounds, &r.Rounds); err != nil {
		return nil, err
	}
	if err := decodeJSON(final, &r.FinalSteps); err != nil {
		return nil, err
	}
	return &r, nil
}

func annotationValues(r *AnnotationRecord) []any {
	rounds := r.Rounds
	if rounds == nil {
		rounds = []RoundRecord{}
	}
	return []any{r.ID, r.ProblemID, r.Category, r.Difficulty, r.ProblemText,
		r.InitialSteps, r.InterventionCount, rounds, r.FinalSteps, r.IsComplete,
		r.CreatedAt, r.UpdatedAt}
}

func (r *annotationRepo) Find(ctx context.Context, f Filter) ([]*AnnotationRecord, error) {
	return r.c.find(ctx, f, 0)
}

func (r *annotationRepo) FindOne(ctx context.Context, f Filter) (*AnnotationRecord, error) {
	return r.c.findOne(ctx, f)
}

func (r *annotationRepo) Get(ctx context.Context, id string) (*AnnotationRecord, error) {
	return r.c.findOne(ctx, Filter{"id": id})
}

// Create assigns a fresh UUID and timestamps, then inserts.
func (r *annotationRepo) Create(ctx context.Context, rec *AnnotationRecord) (*AnnotationRecord, error) {
	now := r.c.now().UTC()
	out := *rec
	out.ID = uuid.NewString()
	out.CreatedAt, out.UpdatedAt = now, now
	if err := r.c.create(ctx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *annotationRepo) UpdateByID(ctx context.Context, id string, p Patch) (*AnnotationRecord, error) {
	return r.c.updateByID(ctx, id, p)
}
