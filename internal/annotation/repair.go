package annotation

import (
	"context"

	"github.com/abhisek/stepwise/internal/apperr"
	"github.com/abhisek/stepwise/internal/store"
)

// repair marks the problem of a complete annotation as annotated when the
// flag is missing. It reports whether a write was made.
func (s *Service) repair(ctx context.Context, a *Annotation) (bool, error) {
	p, err := s.backend.Problems().Get(ctx, a.ProblemID)
	if err != nil {
		return false, &apperr.PersistenceError{Op: "get problem", Err: err}
	}
	if p == nil || p.IsAnnotated {
		return false, nil
	}

	s.log.Warn("repairing problem left unannotated by a completed annotation",
		"annotation_id", a.ID, "problem_id", a.ProblemID)
	if _, err := s.backend.Problems().UpdateByID(ctx, a.ProblemID, store.Patch{"is_annotated": true}); err != nil {
		return false, &apperr.PersistenceError{Op: "repair problem", Err: err}
	}
	return true, nil
}

// Reconcile repairs every completed annotation whose problem is not marked
// annotated and returns the number of problems fixed.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	done := true
	list, err := s.List(ctx, Filter{Complete: &done})
	if err != nil {
		return 0, err
	}

	n := 0
	for _, a := range list {
		fixed, err := s.repair(ctx, a)
		if err != nil {
			return n, err
		}
		if fixed {
			n++
		}
	}
	s.log.Info("reconcile finished", "checked", len(list), "repaired", n)
	return n, nil
}
