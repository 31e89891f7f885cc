// Package annotate is the reviewer's workflow screen: read the model's
// solution, flag the first wrong step, give guidance and record a verdict.
package annotate

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/abhisek/stepwise/internal/apperr"
	"github.com/abhisek/stepwise/internal/problem"
	"github.com/abhisek/stepwise/internal/router"
	"github.com/abhisek/stepwise/internal/screen"
	"github.com/abhisek/stepwise/internal/screens/summary"
	"github.com/abhisek/stepwise/internal/solution"
	"github.com/abhisek/stepwise/internal/ui/components"
	"github.com/abhisek/stepwise/internal/ui/layout"
)

// Workflow is the subset of the annotation service the screen drives.
type Workflow interface {
	Start(ctx context.Context, problemID string) (*annotation.Annotation, error)
	SubmitGuidance(ctx context.Context, id string, g annotation.Guidance) (*annotation.Annotation, error)
	Finalize(ctx context.Context, id string, outcome annotation.Outcome) (*annotation.Annotation, error)
	Discard(ctx context.Context, problemID string) (*problem.Problem, error)
}

// Selector picks a random eligible problem.
type Selector interface {
	RandomEligible(ctx context.Context, f problem.Filter) (*problem.Problem, error)
}

type phase int

const (
	phaseLoading phase = iota
	phaseReview
	phaseSelectStep
	phaseErrorType
	phaseGuidanceType
	phaseGuidanceText
	phaseOutcome
	phaseConfirmDiscard
)

// Screen implements screen.Screen for one annotation.
type Screen struct {
	wf        Workflow
	sel       Selector
	filter    problem.Filter
	problemID string

	ann     *annotation.Annotation
	phase   phase
	busyMsg string
	errMsg  string
	cursor  int
	draft   annotation.Guidance

	errorChoice    components.MultiChoice
	guidanceChoice components.MultiChoice
	outcomeChoice  components.MultiChoice
	input          components.TextInput
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)

func newScreen(wf Workflow) *Screen {
	tax := annotation.GetTaxonomy()
	return &Screen{
		wf:             wf,
		errorChoice:    components.NewMultiChoice("What kind of error is it?", options(tax.ErrorTypes)),
		guidanceChoice: components.NewMultiChoice("What kind of guidance will you give?", options(tax.GuidanceTypes)),
		outcomeChoice:  components.NewMultiChoice("How did the latest revision turn out?", options(tax.Outcomes)),
		input:          components.NewTextInput("Guidance for the model...", 20000),
	}
}

// NewRandom starts an annotation on a random eligible problem matching f.
func NewRandom(wf Workflow, sel Selector, f problem.Filter) *Screen {
	s := newScreen(wf)
	s.sel = sel
	s.filter = f
	return s
}

// NewForProblem starts an annotation on the given problem.
func NewForProblem(wf Workflow, problemID string) *Screen {
	s := newScreen(wf)
	s.problemID = problemID
	return s
}

// NewFromAnnotation continues an annotation that is already in progress.
func NewFromAnnotation(wf Workflow, a *annotation.Annotation) *Screen {
	s := newScreen(wf)
	s.ann = a
	s.problemID = a.ProblemID
	s.phase = phaseReview
	return s
}

func options(terms []annotation.Term) []components.Option {
	out := make([]components.Option, len(terms))
	for i, t := range terms {
		out[i] = components.Option{Value: t.Value, Label: t.Label, Hint: t.Description}
	}
	return out
}

func (s *Screen) Init() tea.Cmd {
	if s.ann != nil {
		return nil
	}
	s.phase = phaseLoading
	s.busyMsg = "Generating the initial solution..."
	wf, sel, f, id := s.wf, s.sel, s.filter, s.problemID
	return func() tea.Msg {
		ctx := context.Background()
		if id == "" {
			p, err := sel.RandomEligible(ctx, f)
			if err != nil {
				return annotationMsg{Err: err}
			}
			id = p.ID
		}
		a, err := wf.Start(ctx, id)
		return annotationMsg{Annotation: a, Err: err}
	}
}

func (s *Screen) Title() string {
	return "Annotate"
}

func (s *Screen) Status() string {
	if s.ann == nil {
		return ""
	}
	return components.RoundTrack{
		Used:     s.ann.InterventionCount,
		Max:      annotation.MaxRounds,
		Complete: s.ann.IsComplete,
	}.View()
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseLoading:
		return nil
	case phaseReview:
		hints := []layout.KeyHint{}
		if s.ann != nil && s.ann.CanSubmitGuidance() {
			hints = append(hints, layout.KeyHint{Key: "G", Description: "Flag error"})
		}
		if s.ann != nil && s.ann.CanFinalize() {
			hints = append(hints, layout.KeyHint{Key: "C", Description: "Record outcome"})
		}
		return append(hints,
			layout.KeyHint{Key: "X", Description: "Discard problem"},
			layout.KeyHint{Key: "Esc", Description: "Back"},
		)
	case phaseSelectStep, phaseErrorType, phaseGuidanceType, phaseOutcome:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Esc", Description: "Back"},
		}
	case phaseGuidanceText:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Send guidance"},
			{Key: "Esc", Description: "Back"},
		}
	case phaseConfirmDiscard:
		return []layout.KeyHint{
			{Key: "Y", Description: "Discard"},
			{Key: "N", Description: "Keep"},
		}
	}
	return nil
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case annotationMsg:
		return s.handleAnnotation(msg)

	case finalizedMsg:
		if msg.Err != nil {
			s.fail(msg.Err)
			return s, nil
		}
		return s, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: summary.New(msg.Annotation)}
		}

	case discardedMsg:
		if msg.Err != nil {
			s.fail(msg.Err)
			return s, nil
		}
		return s, func() tea.Msg { return router.PopScreenMsg{} }

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseGuidanceText {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleAnnotation(msg annotationMsg) (screen.Screen, tea.Cmd) {
	s.busyMsg = ""
	if msg.Err != nil {
		s.fail(msg.Err)
		return s, nil
	}
	s.ann = msg.Annotation
	s.problemID = s.ann.ProblemID
	s.phase = phaseReview
	s.cursor = 0
	return s, nil
}

// fail shows err and returns to the review phase, or leaves the screen
// on the next key if nothing was loaded.
func (s *Screen) fail(err error) {
	s.errMsg = describe(err)
	if s.ann != nil {
		s.phase = phaseReview
	}
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		s.errMsg = ""
		if s.ann == nil {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}

	switch s.phase {
	case phaseLoading:
		return s, nil

	case phaseReview:
		switch key {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "g", "enter":
			if !s.ann.CanSubmitGuidance() {
				s.errMsg = "All guidance rounds are used. Record an outcome instead."
				return s, nil
			}
			s.draft = annotation.Guidance{}
			s.cursor = 0
			s.phase = phaseSelectStep
		case "c":
			if !s.ann.CanFinalize() {
				s.errMsg = "Give guidance at least once before recording an outcome."
				return s, nil
			}
			s.outcomeChoice.Reset()
			s.phase = phaseOutcome
		case "x":
			s.phase = phaseConfirmDiscard
		}
		return s, nil

	case phaseSelectStep:
		steps := s.ann.StepsToRevise()
		switch key {
		case "esc":
			s.phase = phaseReview
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(steps)-1 {
				s.cursor++
			}
		case "enter":
			if len(steps) == 0 {
				return s, nil
			}
			idx := s.cursor
			s.draft.ErrorIndex = &idx
			s.draft.ErrorStepContent = steps[s.cursor]
			s.errorChoice.Reset()
			s.phase = phaseErrorType
		}
		return s, nil

	case phaseErrorType:
		if key == "esc" {
			s.phase = phaseSelectStep
			return s, nil
		}
		s.errorChoice, _ = s.errorChoice.Update(msg)
		if s.errorChoice.Submitted {
			s.draft.ErrorType = annotation.ErrorType(s.errorChoice.Value())
			s.guidanceChoice.Reset()
			s.phase = phaseGuidanceType
		}
		return s, nil

	case phaseGuidanceType:
		if key == "esc" {
			s.errorChoice.Reset()
			s.phase = phaseErrorType
			return s, nil
		}
		s.guidanceChoice, _ = s.guidanceChoice.Update(msg)
		if s.guidanceChoice.Submitted {
			s.draft.Type = annotation.GuidanceType(s.guidanceChoice.Value())
			s.input.Clear()
			s.phase = phaseGuidanceText
			return s, s.input.Init()
		}
		return s, nil

	case phaseGuidanceText:
		switch key {
		case "esc":
			s.guidanceChoice.Reset()
			s.phase = phaseGuidanceType
			return s, nil
		case "enter":
			text := s.input.Value()
			if text == "" {
				s.errMsg = "Guidance text is required."
				return s, nil
			}
			s.draft.Text = text
			return s, s.submitGuidance()
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case phaseOutcome:
		if key == "esc" {
			s.phase = phaseReview
			return s, nil
		}
		s.outcomeChoice, _ = s.outcomeChoice.Update(msg)
		if s.outcomeChoice.Submitted {
			return s, s.finalize(annotation.Outcome(s.outcomeChoice.Value()))
		}
		return s, nil

	case phaseConfirmDiscard:
		switch key {
		case "y", "Y":
			return s, s.discard()
		case "n", "N", "esc":
			s.phase = phaseReview
		}
		return s, nil
	}
	return s, nil
}

func (s *Screen) submitGuidance() tea.Cmd {
	s.phase = phaseLoading
	n := s.ann.InterventionCount + 1
	s.busyMsg = fmt.Sprintf("Revising the solution with %s guidance (round %d)...",
		solution.LevelForAttempt(n), n)
	wf, id, g := s.wf, s.ann.ID, s.draft
	return func() tea.Msg {
		a, err := wf.SubmitGuidance(context.Background(), id, g)
		return annotationMsg{Annotation: a, Err: err}
	}
}

func (s *Screen) finalize(outcome annotation.Outcome) tea.Cmd {
	s.phase = phaseLoading
	s.busyMsg = "Saving the annotation..."
	wf, id := s.wf, s.ann.ID
	return func() tea.Msg {
		a, err := wf.Finalize(context.Background(), id, outcome)
		return finalizedMsg{Annotation: a, Err: err}
	}
}

func (s *Screen) discard() tea.Cmd {
	s.phase = phaseLoading
	s.busyMsg = "Discarding the problem..."
	wf, id := s.wf, s.ann.ProblemID
	return func() tea.Msg {
		_, err := wf.Discard(context.Background(), id)
		return discardedMsg{Err: err}
	}
}

// describe turns service errors into reviewer-facing text.
func describe(err error) string {
	var (
		verr *apperr.ValidationError
		nf   *apperr.NotFoundError
		cf   *apperr.ConflictError
		up   *apperr.UpstreamError
	)
	switch {
	case errors.As(err, &verr):
		return verr.First()
	case errors.As(err, &nf):
		return nf.Error()
	case errors.As(err, &cf):
		return cf.Error()
	case errors.As(err, &up):
		return "The model could not produce a solution: " + up.Err.Error()
	default:
		return err.Error()
	}
}
