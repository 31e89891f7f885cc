// Package problem manages the problem catalogue and the random selection
// of problems that are still eligible for annotation.
package problem

import (
	"regexp"
	"slices"
	"time"

	"github.com/abhisek/stepwise/internal/apperr"
	"github.com/abhisek/stepwise/internal/store"
	"github.com/go-playground/validator/v10"
)

// Category is the mathematical area of a problem.
type Category string

const (
	CategoryAlgebra       Category = "Algebra"
	CategoryCalculus      Category = "Calculus"
	CategoryGeometry      Category = "Geometry"
	CategoryProbability   Category = "Probability"
	CategoryStatistics    Category = "Statistics"
	CategoryNumberTheory  Category = "Number Theory"
	CategoryCombinatorics Category = "Combinatorics"
	CategoryOther         Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryAlgebra, CategoryCalculus, CategoryGeometry, CategoryProbability,
	CategoryStatistics, CategoryNumberTheory, CategoryCombinatorics, CategoryOther,
}

func (c Category) Valid() bool { return slices.Contains(Categories, c) }

// Difficulty is the reviewer-facing difficulty tier.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
	DifficultyExpert       Difficulty = "Expert"
)

// Difficulties lists every difficulty from easiest to hardest.
var Difficulties = []Difficulty{
	DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert,
}

func (d Difficulty) Valid() bool { return slices.Contains(Difficulties, d) }

// Problem is a math problem awaiting or having received annotation.
type Problem struct {
	ID          string     `json:"problem_id" validate:"required,max=64,problem_id"`
	Category    Category   `json:"category" validate:"required,category"`
	Difficulty  Difficulty `json:"difficulty" validate:"required,difficulty"`
	Text        string     `json:"text" validate:"required,max=20000"`
	IsAnnotated bool       `json:"is_annotated"`
	IsDiscarded bool       `json:"is_discarded"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Eligible reports whether the problem can still be annotated.
func (p *Problem) Eligible() bool {
	return !p.IsAnnotated && !p.IsDiscarded
}

// Filter narrows List and RandomEligible. Zero values match anything.
type Filter struct {
	Category   Category   `json:"category" validate:"omitempty,category"`
	Difficulty Difficulty `json:"difficulty" validate:"omitempty,difficulty"`
	Annotated  *bool      `json:"annotated"`
	Discarded  *bool      `json:"discarded"`
}

func (f Filter) toStore() store.Filter {
	sf := store.Filter{}
	if f.Category != "" {
		sf["category"] = string(f.Category)
	}
	if f.Difficulty != "" {
		sf["difficulty"] = string(f.Difficulty)
	}
	if f.Annotated != nil {
		sf["is_annotated"] = *f.Annotated
	}
	if f.Discarded != nil {
		sf["is_discarded"] = *f.Discarded
	}
	return sf
}

// Patch is a partial update of a problem's editable fields.
type Patch struct {
	Category   *Category   `json:"category" validate:"omitempty,category"`
	Difficulty *Difficulty `json:"difficulty" validate:"omitempty,difficulty"`
	Text       *string     `json:"text" validate:"omitempty,min=1,max=20000"`
}

func (p Patch) empty() bool {
	return p.Category == nil && p.Difficulty == nil && p.Text == nil
}

func (p Patch) toStore() store.Patch {
	sp := store.Patch{}
	if p.Category != nil {
		sp["category"] = string(*p.Category)
	}
	if p.Difficulty != nil {
		sp["difficulty"] = string(*p.Difficulty)
	}
	if p.Text != nil {
		sp["text"] = *p.Text
	}
	return sp
}

var problemIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := apperr.NewValidator()
	apperr.MustRegister(v, "category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
	apperr.MustRegister(v, "difficulty", func(fl validator.FieldLevel) bool {
		return Difficulty(fl.Field().String()).Valid()
	})
	apperr.MustRegister(v, "problem_id", func(fl validator.FieldLevel) bool {
		return problemIDPattern.MatchString(fl.Field().String())
	})
	return v
}

func fromRecord(r *store.ProblemRecord) *Problem {
	return &Problem{
		ID:          r.ProblemID,
		Category:    Category(r.Category),
		Difficulty:  Difficulty(r.Difficulty),
		Text:        r.Text,
		IsAnnotated: r.IsAnnotated,
		IsDiscarded: r.IsDiscarded,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toRecord(p *Problem) *store.ProblemRecord {
	return &store.ProblemRecord{
		ProblemID:  p.ID,
		Category:   string(p.Category),
		Difficulty: string(p.Difficulty),
		Text:       p.Text,
	}
}
