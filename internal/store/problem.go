package store

import (
	"context"
	"database/sql"
	"time"
)

// ProblemRecord is a row of the problems table.
type ProblemRecord struct {
	ProblemID   string
	Category    string
	Difficulty  string
	Text        string
	IsAnnotated bool
	IsDiscarded bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type problemRepo struct {
	c *collection[ProblemRecord]
}

func newProblemRepo(q querier) *problemRepo {
	return &problemRepo{c: &collection[ProblemRecord]{
		table: "problems",
		key:   "problem_id",
		columns: []string{
			"problem_id", "category", "difficulty", "text",
			"is_annotated", "is_discarded", "created_at", "updated_at",
		},
		mutable: map[string]bool{
			"category": true, "difficulty": true, "text": true,
			"is_annotated": true, "is_discarded": true,
		},
		scan: func(rows *sql.Rows) (*ProblemRecord, error) {
			var r ProblemRecord
			err := rows.Scan(&r.ProblemID, &r.Category, &r.Difficulty, &r.Text,
				&r.IsAnnotated, &r.IsDiscarded, &r.CreatedAt, &r.UpdatedAt)
			return &r, err
		},
		values: func(r *ProblemRecord) []any {
			return []any{r.ProblemID, r.Category, r.Difficulty, r.Text,
				r.IsAnnotated, r.IsDiscarded, r.CreatedAt, r.UpdatedAt}
		},
		q:   q,
		now: time.Now,
	}}
}

func (r *problemRepo) Find(ctx context.Context, f Filter) ([]*ProblemRecord, error) {
	return r.c.find(ctx, f, 0)
}

func (r *problemRepo) FindOne(ctx context.Context, f Filter) (*ProblemRecord, error) {
	return r.c.findOne(ctx, f)
}

func (r *problemRepo) Get(ctx context.Context, problemID string) (*ProblemRecord, error) {
	return r.c.findOne(ctx, Filter{"problem_id": problemID})
}

func (r *problemRepo) Create(ctx context.Context, rec *ProblemRecord) (*ProblemRecord, error) {
	now := r.c.now().UTC()
	out := *rec
	out.CreatedAt, out.UpdatedAt = now, now
	if err := r.c.create(ctx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *problemRepo) UpdateByID(ctx context.Context, problemID string, p Patch) (*ProblemRecord, error) {
	return r.c.updateByID(ctx, problemID, p)
}
