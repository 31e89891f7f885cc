package annotate

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/abhisek/stepwise/internal/apperr"
	"github.com/abhisek/stepwise/internal/problem"
	"github.com/abhisek/stepwise/internal/router"
)

// stubWorkflow records calls and advances a fake annotation.
type stubWorkflow struct {
	ann       *annotation.Annotation
	startErr  error
	reviseErr error

	started   string
	guidance  []annotation.Guidance
	outcome   annotation.Outcome
	discarded string
}

func (w *stubWorkflow) Start(_ context.Context, problemID string) (*annotation.Annotation, error) {
	w.started = problemID
	if w.startErr != nil {
		return nil, w.startErr
	}
	a := *w.ann
	a.ProblemID = problemID
	return &a, nil
}

func (w *stubWorkflow) SubmitGuidance(_ context.Context, _ string, g annotation.Guidance) (*annotation.Annotation, error) {
	if w.reviseErr != nil {
		return nil, w.reviseErr
	}
	w.guidance = append(w.guidance, g)
	a := *w.ann
	a.InterventionCount = len(w.guidance)
	a.Rounds = append([]annotation.Round(nil), a.Rounds...)
	a.Rounds = append(a.Rounds, annotation.Round{
		Number:       a.InterventionCount,
		Guidance:     g.Text,
		RevisedSteps: []string{"x = 4", "answer: 4"},
	})
	w.ann = &a
	return &a, nil
}

func (w *stubWorkflow) Finalize(_ context.Context, _ string, outcome annotation.Outcome) (*annotation.Annotation, error) {
	w.outcome = outcome
	a := *w.ann
	a.IsComplete = true
	a.FinalSteps = []string{"x = 4", "answer: 4"}
	return &a, nil
}

func (w *stubWorkflow) Discard(_ context.Context, problemID string) (*problem.Problem, error) {
	w.discarded = problemID
	return &problem.Problem{ID: problemID, IsDiscarded: true}, nil
}

type stubSelector struct {
	id  string
	err error
}

func (s stubSelector) RandomEligible(context.Context, problem.Filter) (*problem.Problem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &problem.Problem{ID: s.id}, nil
}

func newWorkflow() *stubWorkflow {
	return &stubWorkflow{ann: &annotation.Annotation{
		ID:           "ann-1",
		Category:     problem.CategoryAlgebra,
		Difficulty:   problem.DifficultyBeginner,
		ProblemText:  "Solve 2x + 3 = 11.",
		InitialSteps: []string{"2x = 14", "x = 7"},
		Rounds:       []annotation.Round{},
	}}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// started runs Init and feeds its message back into the screen.
func started(t *testing.T, s *Screen) *Screen {
	t.Helper()
	cmd := s.Init()
	if cmd == nil {
		t.Fatal("expected Init to return a command")
	}
	s.Update(cmd())
	return s
}

func popped(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(router.PopScreenMsg)
	return ok
}

func TestNewForProblem_StartsAnnotation(t *testing.T) {
	wf := newWorkflow()
	s := started(t, NewForProblem(wf, "P0001"))

	if wf.started != "P0001" {
		t.Errorf("started = %q, want P0001", wf.started)
	}
	if s.phase != phaseReview {
		t.Errorf("phase = %d, want review", s.phase)
	}
	view := s.View(100, 40)
	if !strings.Contains(view, "Solve 2x + 3 = 11.") {
		t.Error("view should show the problem text")
	}
	if !strings.Contains(view, "Step 1:") || !strings.Contains(view, "x = 7") {
		t.Error("view should list the initial steps")
	}
}

func TestNewRandom_UsesSelector(t *testing.T) {
	wf := newWorkflow()
	started(t, NewRandom(wf, stubSelector{id: "P0042"}, problem.Filter{}))
	if wf.started != "P0042" {
		t.Errorf("started = %q, want P0042", wf.started)
	}
}

func TestNewRandom_NoEligibleProblems(t *testing.T) {
	wf := newWorkflow()
	sel := stubSelector{err: &apperr.NotFoundError{Kind: "problem", Message: "no unannotated problems"}}
	s := started(t, NewRandom(wf, sel, problem.Filter{}))

	if s.errMsg == "" {
		t.Fatal("expected an error message")
	}
	if !strings.Contains(s.View(80, 24), "no unannotated problems") {
		t.Error("view should show the selection error")
	}
	if _, cmd := s.Update(keyPress('a')); !popped(cmd) {
		t.Error("any key after a load failure should leave the screen")
	}
}

func TestGuidanceFlow(t *testing.T) {
	wf := newWorkflow()
	s := started(t, NewForProblem(wf, "P0001"))

	s.Update(keyPress('g'))
	if s.phase != phaseSelectStep {
		t.Fatalf("phase = %d, want select step", s.phase)
	}
	s.Update(specialKey(tea.KeyDown))
	s.Update(specialKey(tea.KeyEnter))
	if s.phase != phaseErrorType {
		t.Fatalf("phase = %d, want error type", s.phase)
	}
	if s.draft.ErrorIndex == nil || *s.draft.ErrorIndex != 1 || s.draft.ErrorStepContent != "x = 7" {
		t.Errorf("draft = %+v, want step 2 flagged", s.draft)
	}

	s.Update(keyPress('1'))
	s.Update(specialKey(tea.KeyEnter))
	if s.phase != phaseGuidanceType {
		t.Fatalf("phase = %d, want guidance type", s.phase)
	}
	s.Update(keyPress('7'))
	s.Update(specialKey(tea.KeyEnter))
	if s.phase != phaseGuidanceText {
		t.Fatalf("phase = %d, want guidance text", s.phase)
	}

	s.input.Model.SetValue("  Subtract 3 from both sides first.  ")
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a submit command")
	}
	if s.phase != phaseLoading || !strings.Contains(s.busyMsg, "directional") {
		t.Errorf("phase = %d busy = %q, want loading with directional guidance", s.phase, s.busyMsg)
	}
	s.Update(cmd())

	if len(wf.guidance) != 1 {
		t.Fatalf("guidance calls = %d, want 1", len(wf.guidance))
	}
	g := wf.guidance[0]
	if g.ErrorType != annotation.ErrorCalculation {
		t.Errorf("ErrorType = %q, want %q", g.ErrorType, annotation.ErrorCalculation)
	}
	if g.Type != annotation.GuidanceDirect {
		t.Errorf("Type = %q, want %q", g.Type, annotation.GuidanceDirect)
	}
	if g.Text != "Subtract 3 from both sides first." {
		t.Errorf("Text = %q", g.Text)
	}
	if s.phase != phaseReview || s.ann.InterventionCount != 1 {
		t.Errorf("phase = %d count = %d, want review after one round", s.phase, s.ann.InterventionCount)
	}
	if !strings.Contains(s.View(100, 40), "answer: 4") {
		t.Error("view should show the revised steps")
	}
}

func TestGuidanceText_EmptyRejected(t *testing.T) {
	wf := newWorkflow()
	s := started(t, NewForProblem(wf, "P0001"))
	s.phase = phaseGuidanceText

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd != nil {
		t.Error("empty guidance should not be submitted")
	}
	if s.errMsg == "" {
		t.Error("expected an error message for empty guidance")
	}
}

func TestFinalize_RequiresGuidance(t *testing.T) {
	wf := newWorkflow()
	s := started(t, NewForProblem(wf, "P0001"))

	s.Update(keyPress('c'))
	if s.phase != phaseReview {
		t.Errorf("phase = %d, want review", s.phase)
	}
	if s.errMsg == "" {
		t.Error("expected an explanation when finalizing without guidance")
	}
}

func TestFinalize_ReplacesWithSummary(t *testing.T) {
	wf := newWorkflow()
	a := *wf.ann
	a.InterventionCount = 1
	a.Rounds = []annotation.Round{{Number: 1, RevisedSteps: []string{"x = 4"}}}
	wf.ann = &a
	s := NewFromAnnotation(wf, &a)

	if cmd := s.Init(); cmd != nil {
		t.Error("resuming an annotation should not start a new one")
	}

	s.Update(keyPress('c'))
	if s.phase != phaseOutcome {
		t.Fatalf("phase = %d, want outcome", s.phase)
	}
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a finalize command")
	}
	_, next := s.Update(cmd())
	if wf.outcome != annotation.OutcomeCorrected {
		t.Errorf("outcome = %q, want CORRECTED", wf.outcome)
	}
	if next == nil {
		t.Fatal("expected a navigation command")
	}
	if _, ok := next().(router.ReplaceScreenMsg); !ok {
		t.Error("finalizing should replace the screen with the summary")
	}
}

func TestGuidance_BlockedAfterThreeRounds(t *testing.T) {
	wf := newWorkflow()
	a := *wf.ann
	a.InterventionCount = annotation.MaxRounds
	s := NewFromAnnotation(wf, &a)

	s.Update(keyPress('g'))
	if s.phase != phaseReview {
		t.Errorf("phase = %d, want review", s.phase)
	}
	if s.errMsg == "" {
		t.Error("expected an explanation when no rounds remain")
	}
}

func TestRevisionFailure_ReturnsToReview(t *testing.T) {
	wf := newWorkflow()
	s := started(t, NewForProblem(wf, "P0001"))
	wf.reviseErr = &apperr.UpstreamError{Op: "generate revised solution", Err: errors.New("rate limited")}

	idx := 1
	s.draft = annotation.Guidance{ErrorIndex: &idx, ErrorStepContent: "x = 7", Text: "check"}
	s.Update(s.submitGuidance()())

	if s.phase != phaseReview {
		t.Errorf("phase = %d, want review", s.phase)
	}
	if !strings.Contains(s.errMsg, "rate limited") {
		t.Errorf("errMsg = %q, want the upstream cause", s.errMsg)
	}
	s.Update(keyPress('a'))
	if s.errMsg != "" {
		t.Error("a key press should dismiss the error")
	}
}

func TestDiscard_ConfirmAndPop(t *testing.T) {
	wf := newWorkflow()
	s := started(t, NewForProblem(wf, "P0009"))

	s.Update(keyPress('x'))
	if s.phase != phaseConfirmDiscard {
		t.Fatalf("phase = %d, want confirm discard", s.phase)
	}
	s.Update(keyPress('n'))
	if s.phase != phaseReview {
		t.Fatalf("phase = %d, want review after declining", s.phase)
	}

	s.Update(keyPress('x'))
	_, cmd := s.Update(keyPress('y'))
	if cmd == nil {
		t.Fatal("expected a discard command")
	}
	_, next := s.Update(cmd())
	if wf.discarded != "P0009" {
		t.Errorf("discarded = %q, want P0009", wf.discarded)
	}
	if !popped(next) {
		t.Error("discarding should leave the screen")
	}
}

func TestEsc_PopsFromReview(t *testing.T) {
	s := started(t, NewForProblem(newWorkflow(), "P0001"))
	if _, cmd := s.Update(specialKey(tea.KeyEscape)); !popped(cmd) {
		t.Error("esc in review should leave the screen")
	}
}

func TestStatus_ShowsRounds(t *testing.T) {
	s := started(t, NewForProblem(newWorkflow(), "P0001"))
	if !strings.Contains(s.Status(), "Round 0/3") {
		t.Errorf("Status = %q, want round track", s.Status())
	}
}
