package summary

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/abhisek/stepwise/internal/router"
	"github.com/abhisek/stepwise/internal/screen"
	"github.com/abhisek/stepwise/internal/ui/layout"
	"github.com/abhisek/stepwise/internal/ui/theme"
)

// SummaryScreen displays a completed annotation.
type SummaryScreen struct {
	ann *annotation.Annotation
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(a *annotation.Annotation) *SummaryScreen {
	return &SummaryScreen{ann: a}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Annotation Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	a := s.ann
	if a == nil {
		return ""
	}

	center := func(st lipgloss.Style, text string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, st.Render(text))
	}
	var b strings.Builder

	title := "Annotation saved"
	if !a.IsComplete {
		title = "Annotation in progress"
	}
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), title))
	b.WriteString("\n\n")
	b.WriteString(center(theme.StepDim,
		fmt.Sprintf("%s  ·  %s  ·  %s", a.ProblemID, a.Category, a.Difficulty)))
	b.WriteString("\n\n")

	outcome := finalOutcome(a)
	stats := fmt.Sprintf("Rounds used: %d/%d        Outcome: ", a.InterventionCount, annotation.MaxRounds)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		theme.Body.Render(stats)+lipgloss.NewStyle().Foreground(outcomeColor(outcome)).Bold(true).
			Render(outcomeLabel(outcome))))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
		strings.Repeat("─", min(width-8, 60)))

	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim), "Rounds"))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n\n")
	for _, r := range a.Rounds {
		b.WriteString(center(theme.Body, roundLine(r)))
		b.WriteString("\n")
	}

	steps := a.FinalSteps
	if len(steps) == 0 {
		steps = a.LatestSteps()
	}
	b.WriteString("\n")
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim), "Final solution"))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n\n")

	inner := min(width-8, 60)
	var sb strings.Builder
	for i, step := range steps {
		label := fmt.Sprintf("Step %d: ", i+1)
		sb.WriteString(theme.StepNumber.Render(label))
		sb.WriteString(theme.StepText.Render(layout.Wrap(step, inner-len(label))))
		sb.WriteString("\n")
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Width(inner).Render(sb.String())))

	return b.String()
}

func roundLine(r annotation.Round) string {
	where := "follow-up guidance"
	if r.ErrorIndex != nil {
		where = fmt.Sprintf("Step %d, %s", *r.ErrorIndex+1, annotation.Label(string(r.ErrorType)))
	}
	return fmt.Sprintf("%d. %s  ·  %s  ·  %s", r.Number, r.GuidanceLevel, where,
		annotation.Label(string(r.GuidanceType)))
}

func finalOutcome(a *annotation.Annotation) annotation.Outcome {
	if r := a.Round(a.InterventionCount); r != nil {
		return r.Outcome
	}
	return ""
}

func outcomeLabel(o annotation.Outcome) string {
	if o == "" {
		return "pending"
	}
	return annotation.Label(string(o))
}

// outcomeColor returns the theme color for a verdict.
func outcomeColor(o annotation.Outcome) color.Color {
	switch o {
	case annotation.OutcomeCorrected:
		return theme.Success
	case annotation.OutcomeStillWrong:
		return theme.Error
	case annotation.OutcomeDifferentError:
		return theme.Accent
	default:
		return theme.TextDim
	}
}
