package annotation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/abhisek/stepwise/internal/apperr"
	"github.com/abhisek/stepwise/internal/problem"
	"github.com/abhisek/stepwise/internal/solution"
	"github.com/abhisek/stepwise/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator returns scripted steps and records every revision request.
type stubGenerator struct {
	initial    []string
	initialErr error
	revisions  [][]string
	reviseErr  error
	calls      []solution.Revision
}

func (g *stubGenerator) Initial(context.Context, string) ([]string, error) {
	return g.initial, g.initialErr
}

func (g *stubGenerator) Revise(_ context.Context, rev solution.Revision) ([]string, error) {
	g.calls = append(g.calls, rev)
	if g.reviseErr != nil {
		return nil, g.reviseErr
	}
	if len(g.revisions) == 0 {
		return nil, nil
	}
	out := g.revisions[0]
	g.revisions = g.revisions[1:]
	return out, nil
}

type fixture struct {
	st       *store.Store
	problems *problem.Service
	gen      *stubGenerator
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "annotations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	gen := &stubGenerator{
		initial: []string{"Write the sum", "2+2=5", "Answer 5"},
		revisions: [][]string{
			{"Write the sum", "2+2=4", "Answer 4"},
			{"Write the sum", "2+2=4 (checked)", "Answer 4"},
			{"2+2=4"},
		},
	}
	problems := problem.NewService(st.Problems())
	return &fixture{st: st, problems: problems, gen: gen, svc: NewService(st, problems, gen)}
}

func (f *fixture) addProblem(t *testing.T, id string) {
	t.Helper()
	_, err := f.problems.Create(context.Background(), problem.Problem{
		ID: id, Category: problem.CategoryAlgebra, Difficulty: problem.DifficultyBeginner, Text: "2+2=?",
	})
	require.NoError(t, err)
}

func (f *fixture) start(t *testing.T, id string) *Annotation {
	t.Helper()
	f.addProblem(t, id)
	a, err := f.svc.Start(context.Background(), id)
	require.NoError(t, err)
	return a
}

func intPtr(n int) *int { return &n }

func guidance(idx int) Guidance {
	return Guidance{
		ErrorIndex:       intPtr(idx),
		ErrorStepContent: "2+2=5",
		ErrorType:        ErrorCalculation,
		Text:             "check addition",
		Type:             GuidanceCalculation,
	}
}

func TestStart(t *testing.T) {
	f := newFixture(t)
	a := f.start(t, "P1")

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "P1", a.ProblemID)
	assert.Equal(t, "2+2=?", a.ProblemText)
	assert.Equal(t, problem.CategoryAlgebra, a.Category)
	assert.Equal(t, f.gen.initial, a.InitialSteps)
	assert.Zero(t, a.InterventionCount)
	assert.Empty(t, a.Rounds)
	assert.False(t, a.IsComplete)
	assert.True(t, a.CanSubmitGuidance())
	assert.False(t, a.CanFinalize())
}

func TestStartGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProblem(t, "DONE")
	f.addProblem(t, "GONE")
	_, err := f.st.Problems().UpdateByID(ctx, "DONE", store.Patch{"is_annotated": true})
	require.NoError(t, err)
	_, err = f.problems.Discard(ctx, "GONE")
	require.NoError(t, err)

	var ve *apperr.ValidationError
	var nf *apperr.NotFoundError
	var ce *apperr.ConflictError

	_, err = f.svc.Start(ctx, "")
	assert.ErrorAs(t, err, &ve)
	_, err = f.svc.Start(ctx, "MISSING")
	assert.ErrorAs(t, err, &nf)
	_, err = f.svc.Start(ctx, "DONE")
	assert.ErrorAs(t, err, &ce)
	_, err = f.svc.Start(ctx, "GONE")
	assert.ErrorAs(t, err, &ce)

	list, err := f.svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStartGeneratorFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProblem(t, "P1")

	f.gen.initialErr = errors.New("boom")
	_, err := f.svc.Start(ctx, "P1")
	var up *apperr.UpstreamError
	require.ErrorAs(t, err, &up)

	f.gen.initialErr = nil
	f.gen.initial = nil
	_, err = f.svc.Start(ctx, "P1")
	require.ErrorAs(t, err, &up)

	list, err := f.svc.List(ctx, Filter{ProblemID: "P1"})
	require.NoError(t, err)
	assert.Empty(t, list, "failed starts must not persist")
}

func TestAttemptRouting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.start(t, "P1")

	// Round 1.
	a, err := f.svc.SubmitGuidance(ctx, a.ID, guidance(1))
	require.NoError(t, err)
	assert.Equal(t, 1, a.InterventionCount)
	require.Len(t, a.Rounds, 1)
	r1 := a.Rounds[0]
	assert.Equal(t, 1, r1.Number)
	require.NotNil(t, r1.ErrorIndex)
	assert.Equal(t, 1, *r1.ErrorIndex)
	assert.Equal(t, ErrorCalculation, r1.ErrorType)
	assert.Equal(t, solution.LevelDirectional, r1.GuidanceLevel)
	assert.Equal(t, OutcomeStillWrong, r1.Outcome)
	assert.Equal(t, []string{"Write the sum", "2+2=4", "Answer 4"}, r1.RevisedSteps)
	assert.Nil(t, a.Round(2))
	assert.Equal(t, a.InitialSteps, f.gen.calls[0].PreviousSteps)

	// Round 2 revises round 1's output.
	g2 := guidance(1)
	g2.ErrorType = ErrorConceptual
	a, err = f.svc.SubmitGuidance(ctx, a.ID, g2)
	require.NoError(t, err)
	assert.Equal(t, 2, a.InterventionCount)
	require.Len(t, a.Rounds, 2)
	assert.Equal(t, ErrorConceptual, a.Rounds[1].ErrorType)
	assert.Equal(t, solution.LevelTargeted, a.Rounds[1].GuidanceLevel)
	assert.Equal(t, r1.RevisedSteps, f.gen.calls[1].PreviousSteps)
	assert.Nil(t, a.Round(3))

	// Round 3 keeps revising round 1's output and records no classification.
	a, err = f.svc.SubmitGuidance(ctx, a.ID, guidance(0))
	require.NoError(t, err)
	assert.Equal(t, 3, a.InterventionCount)
	require.Len(t, a.Rounds, 3)
	r3 := a.Rounds[2]
	assert.Nil(t, r3.ErrorIndex)
	assert.Empty(t, r3.ErrorType)
	assert.Empty(t, r3.ErrorStepContent)
	assert.Equal(t, "check addition", r3.Guidance)
	assert.Equal(t, solution.LevelCompleteCorrection, r3.GuidanceLevel)
	assert.Equal(t, r1.RevisedSteps, f.gen.calls[2].PreviousSteps)
	assert.Equal(t, 0, f.gen.calls[2].ErrorIndex)
	assert.False(t, a.CanSubmitGuidance())

	// A fourth round is rejected without calling the generator.
	_, err = f.svc.SubmitGuidance(ctx, a.ID, guidance(0))
	var ce *apperr.ConflictError
	assert.ErrorAs(t, err, &ce)
	assert.Len(t, f.gen.calls, 3)
}

func TestSubmitGuidanceValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.start(t, "P1")

	tests := []struct {
		name  string
		g     Guidance
		field string
	}{
		{"missing index", Guidance{ErrorStepContent: "x", ErrorType: ErrorOther, Text: "t", Type: GuidanceOther}, "error_index"},
		{"negative index", Guidance{ErrorIndex: intPtr(-1), ErrorStepContent: "x", ErrorType: ErrorOther, Text: "t", Type: GuidanceOther}, "error_index"},
		{"index out of range", guidance(3), "error_index"},
		{"bad error type", Guidance{ErrorIndex: intPtr(0), ErrorStepContent: "x", ErrorType: "typo", Text: "t", Type: GuidanceOther}, "error_type"},
		{"bad guidance type", Guidance{ErrorIndex: intPtr(0), ErrorStepContent: "x", ErrorType: ErrorOther, Text: "t", Type: "nudge"}, "guidance_type"},
		{"missing guidance", Guidance{ErrorIndex: intPtr(0), ErrorStepContent: "x", ErrorType: ErrorOther, Type: GuidanceOther}, "guidance_provided"},
		{"missing step content", Guidance{ErrorIndex: intPtr(0), ErrorType: ErrorOther, Text: "t", Type: GuidanceOther}, "error_step_content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitGuidance(ctx, a.ID, tt.g)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
	assert.Empty(t, f.gen.calls, "validation runs before generation")

	_, err := f.svc.SubmitGuidance(ctx, "no-such-id", guidance(0))
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestSubmitGuidanceUpstreamLeavesRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.start(t, "P1")

	f.gen.reviseErr = errors.New("model down")
	_, err := f.svc.SubmitGuidance(ctx, a.ID, guidance(1))
	var up *apperr.UpstreamError
	require.ErrorAs(t, err, &up)

	f.gen.reviseErr = nil
	f.gen.revisions = nil
	_, err = f.svc.SubmitGuidance(ctx, a.ID, guidance(1))
	require.ErrorAs(t, err, &up)

	got, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, got.InterventionCount)
	assert.Empty(t, got.Rounds)
}

func TestCompleteGuard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.start(t, "P1")
	_, err := f.svc.SubmitGuidance(ctx, a.ID, guidance(1))
	require.NoError(t, err)
	done, err := f.svc.Finalize(ctx, a.ID, OutcomeCorrected)
	require.NoError(t, err)

	var ce *apperr.ConflictError
	_, err = f.svc.SubmitGuidance(ctx, a.ID, guidance(1))
	assert.ErrorAs(t, err, &ce)
	_, err = f.svc.Finalize(ctx, a.ID, OutcomeStillWrong)
	assert.ErrorAs(t, err, &ce)

	after, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, done, after, "rejected calls must not mutate the record")
	assert.Len(t, f.gen.calls, 1)
}

func TestFinalize(t *testing.T) {
	ctx := context.Background()

	for k := 1; k <= MaxRounds; k++ {
		t.Run(fmt.Sprintf("%d rounds", k), func(t *testing.T) {
			f := newFixture(t)
			a := f.start(t, "P1")
			for range k {
				var err error
				a, err = f.svc.SubmitGuidance(ctx, a.ID, guidance(0))
				require.NoError(t, err)
			}

			done, err := f.svc.Finalize(ctx, a.ID, OutcomeDifferentError)
			require.NoError(t, err)
			assert.True(t, done.IsComplete)
			assert.Equal(t, a.Rounds[k-1].RevisedSteps, done.FinalSteps)
			for i, r := range done.Rounds {
				want := OutcomeStillWrong
				if i == k-1 {
					want = OutcomeDifferentError
				}
				assert.Equal(t, want, r.Outcome, "round %d", i+1)
			}

			p, err := f.problems.Get(ctx, "P1")
			require.NoError(t, err)
			assert.True(t, p.IsAnnotated)
		})
	}
}

func TestFinalizeGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.start(t, "P1")

	var ce *apperr.ConflictError
	_, err := f.svc.Finalize(ctx, a.ID, OutcomeCorrected)
	assert.ErrorAs(t, err, &ce, "finalize before any guidance")

	var ve *apperr.ValidationError
	_, err = f.svc.Finalize(ctx, a.ID, "MAYBE")
	assert.ErrorAs(t, err, &ve)

	var nf *apperr.NotFoundError
	_, err = f.svc.Finalize(ctx, "missing", OutcomeCorrected)
	assert.ErrorAs(t, err, &nf)
}

func TestFinalStepsPrefersLatestNonEmpty(t *testing.T) {
	tests := []struct {
		name   string
		rounds []Round
		want   []string
	}{
		{"none", nil, []string{}},
		{"round 1 only", []Round{{RevisedSteps: []string{"a"}}}, []string{"a"}},
		{"round 3 wins", []Round{{RevisedSteps: []string{"a"}}, {RevisedSteps: []string{"b"}}, {RevisedSteps: []string{"c"}}}, []string{"c"}},
		{"empty round 3 falls back", []Round{{RevisedSteps: []string{"a"}}, {RevisedSteps: []string{"b"}}, {}}, []string{"b"}},
		{"falls back to round 1", []Round{{RevisedSteps: []string{"a"}}, {}, {}}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, finalSteps(tt.rounds))
		})
	}
}

func TestStepsForAttempt(t *testing.T) {
	a := &Annotation{InitialSteps: []string{"init"}}
	assert.Equal(t, []string{"init"}, stepsForAttempt(a, 1))
	assert.Equal(t, []string{"init"}, stepsForAttempt(a, 2), "no round 1 yet")

	a.Rounds = []Round{{RevisedSteps: []string{}}}
	assert.Equal(t, []string{"init"}, stepsForAttempt(a, 2), "empty round 1")

	a.Rounds = []Round{{RevisedSteps: []string{"r1"}}, {RevisedSteps: []string{"r2"}}}
	assert.Equal(t, []string{"r1"}, stepsForAttempt(a, 2))
	assert.Equal(t, []string{"r1"}, stepsForAttempt(a, 3))
	assert.Nil(t, stepsForAttempt(a, 4))
}

// failingProblems rejects problem updates so Finalize's transaction aborts.
type failingProblems struct {
	store.ProblemRepo
}

func (failingProblems) UpdateByID(context.Context, string, store.Patch) (*store.ProblemRecord, error) {
	return nil, errors.New("disk full")
}

type failingBackend struct {
	*store.Store
}

func (b failingBackend) InTx(ctx context.Context, fn func(store.Repos) error) error {
	return b.Store.InTx(ctx, func(r store.Repos) error {
		r.Problems = failingProblems{r.Problems}
		return fn(r)
	})
}

func TestFinalizeIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.start(t, "P1")
	_, err := f.svc.SubmitGuidance(ctx, a.ID, guidance(0))
	require.NoError(t, err)

	broken := NewService(failingBackend{f.st}, f.problems, f.gen)
	_, err = broken.Finalize(ctx, a.ID, OutcomeCorrected)
	var pe *apperr.PersistenceError
	require.ErrorAs(t, err, &pe)

	got, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsComplete, "annotation write must roll back")
	assert.Equal(t, OutcomeStillWrong, got.Rounds[0].Outcome)

	p, err := f.problems.Get(ctx, "P1")
	require.NoError(t, err)
	assert.False(t, p.IsAnnotated)
}

func TestRepairOnGetAndReconcile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var ids []string
	for _, pid := range []string{"P1", "P2"} {
		a := f.start(t, pid)
		_, err := f.svc.SubmitGuidance(ctx, a.ID, guidance(0))
		require.NoError(t, err)
		_, err = f.svc.Finalize(ctx, a.ID, OutcomeCorrected)
		require.NoError(t, err)
		ids = append(ids, a.ID)

		// Simulate the gap an interrupted completion used to leave.
		_, err = f.st.Problems().UpdateByID(ctx, pid, store.Patch{"is_annotated": false})
		require.NoError(t, err)
	}

	_, err := f.svc.Get(ctx, ids[0])
	require.NoError(t, err)
	p1, err := f.problems.Get(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, p1.IsAnnotated, "Get repairs the problem flag")

	n, err := f.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.start(t, "P1")
	_, err := f.svc.SubmitGuidance(ctx, a.ID, guidance(1))
	require.NoError(t, err)

	first, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	second, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a1 := f.start(t, "P1")
	f.start(t, "P2")
	_, err := f.svc.SubmitGuidance(ctx, a1.ID, guidance(0))
	require.NoError(t, err)
	_, err = f.svc.Finalize(ctx, a1.ID, OutcomeCorrected)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "P2", all[0].ProblemID, "newest first")

	yes, no := true, false
	done, err := f.svc.List(ctx, Filter{Complete: &yes})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, a1.ID, done[0].ID)

	open, err := f.svc.List(ctx, Filter{Complete: &no, ProblemID: "P2"})
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestDiscard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProblem(t, "P1")

	p, err := f.svc.Discard(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, p.IsDiscarded)

	var ve *apperr.ValidationError
	_, err = f.svc.Discard(ctx, "")
	assert.ErrorAs(t, err, &ve)

	var nf *apperr.NotFoundError
	_, err = f.svc.Discard(ctx, "P9")
	assert.ErrorAs(t, err, &nf)
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.gen.initial = []string{"Step 1: Compute 2+2=5"}
	f.gen.revisions = [][]string{{"Step 1: 2+2=4"}}

	_, err := f.problems.Create(ctx, problem.Problem{
		ID: "P1", Category: problem.CategoryAlgebra, Difficulty: problem.DifficultyBeginner, Text: "2+2=?",
	})
	require.NoError(t, err)

	a, err := f.svc.Start(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Step 1: Compute 2+2=5"}, a.InitialSteps)

	a, err = f.svc.SubmitGuidance(ctx, a.ID, Guidance{
		ErrorIndex:       intPtr(0),
		ErrorStepContent: "Step 1: Compute 2+2=5",
		ErrorType:        ErrorCalculation,
		Text:             "check addition",
		Type:             GuidanceCalculation,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, a.InterventionCount)

	a, err = f.svc.Finalize(ctx, a.ID, OutcomeCorrected)
	require.NoError(t, err)
	assert.True(t, a.IsComplete)
	assert.Equal(t, []string{"Step 1: 2+2=4"}, a.FinalSteps)
	assert.Equal(t, OutcomeCorrected, a.Rounds[0].Outcome)

	p, err := f.problems.Get(ctx, "P1")
	require.NoError(t, err)
	assert.True(t, p.IsAnnotated)

	_, err = f.problems.RandomEligible(ctx, problem.Filter{})
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf, "annotated problem is no longer eligible")
}
