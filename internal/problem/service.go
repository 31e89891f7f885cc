package problem

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/abhisek/stepwise/internal/apperr"
	"github.com/abhisek/stepwise/internal/logger"
	"github.com/abhisek/stepwise/internal/metrics"
	"github.com/abhisek/stepwise/internal/store"
)

// Service implements the problem catalogue over a ProblemRepo.
type Service struct {
	repo store.ProblemRepo
	log  *logger.Logger

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithRand injects the random source used by RandomEligible.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rnd = r }
}

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a problem Service.
func NewService(repo store.ProblemRepo, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// List returns matching problems, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]*Problem, error) {
	if err := validate.Struct(f); err != nil {
		return nil, apperr.FromValidator(err)
	}
	recs, err := s.repo.Find(ctx, f.toStore())
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "list problems", Err: err}
	}
	out := make([]*Problem, len(recs))
	for i, r := range recs {
		out[i] = fromRecord(r)
	}
	return out, nil
}

// Get returns one problem or a NotFoundError.
func (s *Service) Get(ctx context.Context, id string) (*Problem, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "get problem", Err: err}
	}
	if rec == nil {
		return nil, &apperr.NotFoundError{Kind: "problem", ID: id}
	}
	return fromRecord(rec), nil
}

// Create validates and inserts a new problem. New problems always start
// unannotated and undiscarded.
func (s *Service) Create(ctx context.Context, p Problem) (*Problem, error) {
	if err := validate.Struct(p); err != nil {
		return nil, apperr.FromValidator(err)
	}

	rec, err := s.repo.Create(ctx, toRecord(&p))
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflictf("problem %q already exists", p.ID)
	}
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "create problem", Err: err}
	}

	s.log.Info("problem created", "problem_id", rec.ProblemID, "category", rec.Category)
	return fromRecord(rec), nil
}

// Update applies a partial update to a problem's editable fields.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*Problem, error) {
	if p.empty() {
		return nil, apperr.Invalid("body", "must set at least one of category, difficulty, text")
	}
	if err := validate.Struct(p); err != nil {
		return nil, apperr.FromValidator(err)
	}

	rec, err := s.repo.UpdateByID(ctx, id, p.toStore())
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "update problem", Err: err}
	}
	if rec == nil {
		return nil, &apperr.NotFoundError{Kind: "problem", ID: id}
	}
	return fromRecord(rec), nil
}

// Discard marks a problem as abandoned. Discarding an annotated problem
// is a conflict; discarding twice is a no-op.
func (s *Service) Discard(ctx context.Context, id string) (*Problem, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsAnnotated {
		return nil, apperr.Conflictf("problem %q is already annotated", id)
	}
	if p.IsDiscarded {
		return p, nil
	}

	rec, err := s.repo.UpdateByID(ctx, id, store.Patch{"is_discarded": true})
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "discard problem", Err: err}
	}
	if rec == nil {
		return nil, &apperr.NotFoundError{Kind: "problem", ID: id}
	}

	s.log.Info("problem discarded", "problem_id", id)
	return fromRecord(rec), nil
}

// RandomEligible picks uniformly among problems that are neither
// annotated nor discarded and match the optional category/difficulty.
func (s *Service) RandomEligible(ctx context.Context, f Filter) (*Problem, error) {
	eligible := false
	f.Annotated, f.Discarded = &eligible, &eligible

	candidates, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	metrics.RecordSelection(len(candidates) > 0)
	if len(candidates) == 0 {
		return nil, &apperr.NotFoundError{Kind: "problem", Message: "no unannotated problems"}
	}

	s.mu.Lock()
	i := s.rnd.IntN(len(candidates))
	s.mu.Unlock()
	return candidates[i], nil
}
