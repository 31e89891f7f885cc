package annotation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/stepwise/internal/apperr"
	"github.com/abhisek/stepwise/internal/logger"
	"github.com/abhisek/stepwise/internal/metrics"
	"github.com/abhisek/stepwise/internal/problem"
	"github.com/abhisek/stepwise/internal/solution"
	"github.com/abhisek/stepwise/internal/store"
)

// Backend is the persistence the service needs. *store.Store satisfies it.
type Backend interface {
	Problems() store.ProblemRepo
	Annotations() store.AnnotationRepo
	InTx(ctx context.Context, fn func(store.Repos) error) error
}

// Service drives annotations through Start, SubmitGuidance and Finalize.
type Service struct {
	backend  Backend
	problems *problem.Service
	gen      solution.Generator
	log      *logger.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides the clock used to time generator calls.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an annotation Service.
func NewService(backend Backend, problems *problem.Service, gen solution.Generator, opts ...Option) *Service {
	s := &Service{
		backend:  backend,
		problems: problems,
		gen:      gen,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	return s
}

// Start generates an initial solution for an eligible problem and opens
// an annotation over it.
func (s *Service) Start(ctx context.Context, problemID string) (a *Annotation, err error) {
	defer func() { metrics.RecordTransition("start", err) }()

	if problemID == "" {
		return nil, apperr.Invalid("problem_id", "is required")
	}
	p, err := s.problems.Get(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if p.IsAnnotated {
		return nil, apperr.Conflictf("problem is already annotated")
	}
	if p.IsDiscarded {
		return nil, apperr.Conflictf("problem is already discarded")
	}

	started := s.now()
	steps, err := s.gen.Initial(ctx, p.Text)
	if err != nil {
		s.log.Error("initial solution failed", "problem_id", problemID, "error", err)
		return nil, asUpstream("generate initial solution", err)
	}
	if len(steps) == 0 {
		return nil, &apperr.UpstreamError{Op: "generate initial solution", Err: errors.New("model returned no steps")}
	}

	rec, err := s.backend.Annotations().Create(ctx, &store.AnnotationRecord{
		ProblemID:    p.ID,
		Category:     string(p.Category),
		Difficulty:   string(p.Difficulty),
		ProblemText:  p.Text,
		InitialSteps: steps,
		Rounds:       []store.RoundRecord{},
		FinalSteps:   []string{},
	})
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "create annotation", Err: err}
	}

	s.log.Info("annotation started",
		"annotation_id", rec.ID, "problem_id", p.ID,
		"steps", len(steps), "elapsed", s.now().Sub(started))
	return fromRecord(rec), nil
}

// SubmitGuidance records one round of reviewer guidance and the model's
// revision. At most three rounds are accepted.
func (s *Service) SubmitGuidance(ctx context.Context, id string, g Guidance) (a *Annotation, err error) {
	defer func() { metrics.RecordTransition("guidance", err) }()

	if err := validate.Struct(g); err != nil {
		return nil, apperr.FromValidator(err)
	}

	a, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsComplete {
		return nil, apperr.Conflictf("annotation is already complete")
	}
	if a.InterventionCount >= MaxRounds {
		return nil, apperr.Conflictf("annotation already has %d guidance rounds", MaxRounds)
	}

	attempt := a.InterventionCount + 1
	steps := stepsForAttempt(a, attempt)
	if *g.ErrorIndex >= len(steps) {
		return nil, apperr.Invalid("error_index", fmt.Sprintf("must be less than %d", len(steps)))
	}

	level := solution.LevelForAttempt(attempt)
	started := s.now()
	revised, err := s.gen.Revise(ctx, solution.Revision{
		ProblemText:   a.ProblemText,
		PreviousSteps: steps,
		ErrorIndex:    *g.ErrorIndex,
		Guidance:      g.Text,
		Level:         level,
	})
	if err != nil {
		s.log.Error("revision failed", "annotation_id", id, "attempt", attempt, "error", err)
		return nil, asUpstream("generate revised solution", err)
	}
	if len(revised) == 0 {
		return nil, &apperr.UpstreamError{Op: "generate revised solution", Err: errors.New("model returned no steps")}
	}

	rounds := append(a.Rounds, slotFor[attempt-1](attempt, g, revised))
	rec, err := s.backend.Annotations().UpdateByID(ctx, id, store.Patch{
		"rounds":             roundsToStore(rounds),
		"intervention_count": attempt,
	})
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "update annotation", Err: err}
	}
	if rec == nil {
		return nil, &apperr.NotFoundError{Kind: "annotation", ID: id}
	}

	s.log.Info("guidance applied",
		"annotation_id", id, "attempt", attempt, "level", level,
		"steps", len(revised), "elapsed", s.now().Sub(started))
	return fromRecord(rec), nil
}

// Finalize records the verdict on the latest revision, completes the
// annotation and marks its problem annotated in one transaction.
func (s *Service) Finalize(ctx context.Context, id string, outcome Outcome) (a *Annotation, err error) {
	defer func() { metrics.RecordTransition("finalize", err) }()

	if !outcome.Valid() {
		return nil, apperr.Invalid("outcome", "must be one of CORRECTED, STILL_WRONG, DIFFERENT_ERROR")
	}

	a, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsComplete {
		return nil, apperr.Conflictf("annotation is already complete")
	}
	if a.InterventionCount == 0 {
		return nil, apperr.Conflictf("annotation has no guidance rounds to finalize")
	}

	k := a.InterventionCount
	rounds := append([]Round(nil), a.Rounds...)
	rounds[k-1].Outcome = outcome
	final := finalSteps(rounds[:k])

	var rec *store.AnnotationRecord
	err = s.backend.InTx(ctx, func(tx store.Repos) error {
		var err error
		rec, err = tx.Annotations.UpdateByID(ctx, id, store.Patch{
			"rounds":               roundsToStore(rounds),
			"final_solution_steps": final,
			"is_complete":          true,
		})
		if err != nil {
			return fmt.Errorf("update annotation: %w", err)
		}
		if rec == nil {
			return fmt.Errorf("annotation %s vanished", id)
		}
		p, err := tx.Problems.UpdateByID(ctx, a.ProblemID, store.Patch{"is_annotated": true})
		if err != nil {
			return fmt.Errorf("mark problem annotated: %w", err)
		}
		if p == nil {
			return fmt.Errorf("problem %s vanished", a.ProblemID)
		}
		return nil
	})
	if err != nil {
		s.log.Error("finalize failed", "annotation_id", id, "problem_id", a.ProblemID, "error", err)
		return nil, &apperr.PersistenceError{Op: "finalize annotation", Err: err}
	}

	s.log.Info("annotation finalized",
		"annotation_id", id, "problem_id", a.ProblemID, "rounds", k, "outcome", outcome)
	return fromRecord(rec), nil
}

// Discard abandons a problem so it is no longer offered for annotation.
func (s *Service) Discard(ctx context.Context, problemID string) (p *problem.Problem, err error) {
	defer func() { metrics.RecordTransition("discard", err) }()

	if problemID == "" {
		return nil, apperr.Invalid("problem_id", "is required")
	}
	return s.problems.Discard(ctx, problemID)
}

// Get returns an annotation, repairing its problem's annotated flag if a
// previous completion left it unset.
func (s *Service) Get(ctx context.Context, id string) (*Annotation, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsComplete {
		if _, err := s.repair(ctx, a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// List returns annotations newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]*Annotation, error) {
	recs, err := s.backend.Annotations().Find(ctx, f.toStore())
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "list annotations", Err: err}
	}
	out := make([]*Annotation, len(recs))
	for i, r := range recs {
		out[i] = fromRecord(r)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id string) (*Annotation, error) {
	rec, err := s.backend.Annotations().Get(ctx, id)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "get annotation", Err: err}
	}
	if rec == nil {
		return nil, &apperr.NotFoundError{Kind: "annotation", ID: id}
	}
	return fromRecord(rec), nil
}

// asUpstream keeps generator errors that are already typed and wraps the
// rest.
func asUpstream(op string, err error) error {
	var up *apperr.UpstreamError
	if errors.As(err, &up) {
		return err
	}
	return &apperr.UpstreamError{Op: op, Err: err}
}
