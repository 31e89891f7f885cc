package annotate

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/abhisek/stepwise/internal/solution"
	"github.com/abhisek/stepwise/internal/ui/layout"
	"github.com/abhisek/stepwise/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	if s.ann == nil {
		if s.errMsg != "" {
			return renderError(width, s.errMsg+"\n\n  Press any key to go back.")
		}
		return renderLoading(width, s.busyMsg)
	}

	inner := width - 4
	var b strings.Builder
	b.WriteString(s.renderProblem(inner))
	b.WriteString("\n")
	b.WriteString(divider(inner))
	b.WriteString("\n")

	switch s.phase {
	case phaseSelectStep:
		b.WriteString(theme.Subtitle.Render("Which step is the first one that is wrong?"))
		b.WriteString("\n\n")
		b.WriteString(renderSteps(s.ann.StepsToRevise(), s.cursor, inner))
	default:
		b.WriteString(theme.Subtitle.Render(s.stepsHeading()))
		b.WriteString("\n\n")
		b.WriteString(renderSteps(s.ann.LatestSteps(), -1, inner))
	}

	b.WriteString("\n")
	b.WriteString(divider(inner))
	b.WriteString("\n")

	switch s.phase {
	case phaseLoading:
		b.WriteString(theme.Hint.Render(s.busyMsg))
	case phaseReview:
		b.WriteString(s.renderRounds())
	case phaseErrorType:
		b.WriteString(s.flaggedLine())
		b.WriteString("\n\n")
		b.WriteString(s.errorChoice.View())
	case phaseGuidanceType:
		b.WriteString(s.flaggedLine())
		b.WriteString("\n\n")
		b.WriteString(s.guidanceChoice.View())
	case phaseGuidanceText:
		b.WriteString(s.flaggedLine())
		b.WriteString("\n\n")
		b.WriteString(theme.Body.Bold(true).Render(s.guidancePrompt()))
		b.WriteString("\n")
		b.WriteString(s.input.View())
	case phaseOutcome:
		b.WriteString(s.outcomeChoice.View())
	case phaseConfirmDiscard:
		b.WriteString(theme.Body.Bold(true).Render("Discard this problem?"))
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("It will no longer be offered for annotation."))
	}

	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Incorrect.Render(s.errMsg))
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}

func (s *Screen) renderProblem(width int) string {
	a := s.ann
	meta := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render(a.ProblemID) +
		theme.StepDim.Render(fmt.Sprintf("  ·  %s  ·  %s", a.Category, a.Difficulty))
	return meta + "\n" + theme.Body.Render(layout.Wrap(a.ProblemText, width))
}

func (s *Screen) stepsHeading() string {
	if n := s.ann.InterventionCount; n > 0 {
		return fmt.Sprintf("Solution after round %d", n)
	}
	return "Initial solution"
}

// renderSteps lists steps as "Step i:". cursor < 0 disables selection.
func renderSteps(steps []string, cursor, width int) string {
	if len(steps) == 0 {
		return theme.Hint.Render("(no steps)")
	}
	var b strings.Builder
	for i, step := range steps {
		label := fmt.Sprintf("Step %d:", i+1)
		prefix := "  "
		labelStyle := theme.StepNumber
		textStyle := theme.StepText
		if i == cursor {
			prefix = "▸ "
			labelStyle = theme.Flagged
			textStyle = theme.Flagged.UnsetBold()
		}
		body := layout.Wrap(step, width-lipgloss.Width(label)-3)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			prefix, labelStyle.Render(label), " ", textStyle.Render(body)))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Screen) renderRounds() string {
	if len(s.ann.Rounds) == 0 {
		return theme.Hint.Render("No guidance yet. Press G to flag the first wrong step.")
	}
	var b strings.Builder
	for _, r := range s.ann.Rounds {
		where := "follow-up"
		if r.ErrorIndex != nil {
			where = fmt.Sprintf("step %d, %s", *r.ErrorIndex+1, annotation.Label(string(r.ErrorType)))
		}
		line := fmt.Sprintf("Round %d (%s): %s", r.Number, r.GuidanceLevel, where)
		if r.Outcome != "" {
			line += "  ·  " + annotation.Label(string(r.Outcome))
		}
		b.WriteString(theme.StepDim.Render(line))
		b.WriteString("\n")
	}
	if !s.ann.CanSubmitGuidance() {
		b.WriteString(theme.Hint.Render("All guidance rounds are used. Press C to record the outcome."))
	}
	return b.String()
}

// flaggedStep is the 1-based number of the step the reviewer picked.
func (s *Screen) flaggedStep() int {
	if s.draft.ErrorIndex == nil {
		return 0
	}
	return *s.draft.ErrorIndex + 1
}

func (s *Screen) flaggedLine() string {
	return theme.Flagged.Render(fmt.Sprintf("Flagged Step %d: ", s.flaggedStep())) +
		theme.StepText.Render(s.draft.ErrorStepContent)
}

func (s *Screen) guidancePrompt() string {
	n := s.flaggedStep()
	switch solution.LevelForAttempt(s.ann.InterventionCount + 1) {
	case solution.LevelDirectional:
		return fmt.Sprintf("Point the model at the problem in Step %d:", n)
	case solution.LevelTargeted:
		return fmt.Sprintf("Be more specific about what is wrong in Step %d:", n)
	default:
		return fmt.Sprintf("Write exactly what Step %d should be:", n)
	}
}

func divider(width int) string {
	return lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width, 0)))
}

func renderLoading(width int, msg string) string {
	if msg == "" {
		msg = "Loading..."
	}
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n\n  " + msg)
}

func renderError(width int, msg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render("\n\n\n  Error: " + msg)
}
