package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/abhisek/stepwise/internal/router"
	"github.com/abhisek/stepwise/internal/screen"
	"github.com/abhisek/stepwise/internal/screens/annotate"
	"github.com/abhisek/stepwise/internal/ui/layout"
	"github.com/abhisek/stepwise/internal/ui/theme"
)

// Lister reads stored annotations.
type Lister interface {
	List(ctx context.Context, f annotation.Filter) ([]*annotation.Annotation, error)
}

type historyLoadedMsg struct {
	Annotations []*annotation.Annotation
	Err         error
}

type view int

const (
	viewAll view = iota
	viewInProgress
	viewComplete
)

func (v view) String() string {
	switch v {
	case viewInProgress:
		return "In progress"
	case viewComplete:
		return "Complete"
	default:
		return "All"
	}
}

func (v view) filter() annotation.Filter {
	switch v {
	case viewInProgress:
		complete := false
		return annotation.Filter{Complete: &complete}
	case viewComplete:
		complete := true
		return annotation.Filter{Complete: &complete}
	default:
		return annotation.Filter{}
	}
}

// HistoryScreen lists past annotations, newest first.
type HistoryScreen struct {
	lister      Lister
	wf          annotate.Workflow
	view        view
	annotations []*annotation.Annotation
	selected    int
	expanded    map[string]bool
	loaded      bool
	errMsg      string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)
var _ screen.Resumer = (*HistoryScreen)(nil)

// New creates a new HistoryScreen. wf may be nil, which disables resuming.
func New(lister Lister, wf annotate.Workflow) *HistoryScreen {
	return &HistoryScreen{
		lister:   lister,
		wf:       wf,
		expanded: make(map[string]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	lister, f := s.lister, s.view.filter()
	return func() tea.Msg {
		anns, err := lister.List(context.Background(), f)
		return historyLoadedMsg{Annotations: anns, Err: err}
	}
}

// Resume reloads the list so rounds added elsewhere show up.
func (s *HistoryScreen) Resume() tea.Cmd {
	return s.Init()
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "F", Description: "Filter: " + s.view.String()},
	}
	if a := s.current(); a != nil && !a.IsComplete && s.wf != nil {
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Resume"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *HistoryScreen) current() *annotation.Annotation {
	if s.selected < 0 || s.selected >= len(s.annotations) {
		return nil
	}
	return s.annotations[s.selected]
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.errMsg = ""
			s.annotations = msg.Annotations
			if s.selected >= len(s.annotations) {
				s.selected = max(len(s.annotations)-1, 0)
			}
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.annotations)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			if a := s.current(); a != nil {
				s.expanded[a.ID] = !s.expanded[a.ID]
			}
			return s, nil
		case "f":
			s.view = (s.view + 1) % 3
			s.selected = 0
			s.loaded = false
			return s, s.Init()
		case "r":
			a := s.current()
			if a == nil || a.IsComplete || s.wf == nil {
				return s, nil
			}
			wf := s.wf
			return s, func() tea.Msg {
				return router.PushScreenMsg{Screen: annotate.NewFromAnnotation(wf, a)}
			}
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.annotations) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render(fmt.Sprintf("\n\n  No annotations (%s).", strings.ToLower(s.view.String())))
	}

	var b strings.Builder
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		theme.StepDim.Render(fmt.Sprintf("%s  ·  %d annotations", s.view, len(s.annotations)))))
	b.WriteString("\n\n")

	for i, a := range s.annotations {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		state := "in progress"
		if a.IsComplete {
			state = "complete"
		}
		line := fmt.Sprintf("%s%s  %-8s %-14s %-12s %d/%d rounds  %s",
			prefix, a.CreatedAt.Format("Jan 02 15:04"), a.ProblemID, a.Category, a.Difficulty,
			a.InterventionCount, annotation.MaxRounds, state)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case i == s.selected:
			style = style.Foreground(theme.Primary).Bold(true)
		case a.IsComplete:
			style = style.Foreground(theme.TextDim)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[a.ID] {
			b.WriteString(s.renderDetail(a, width))
		}
	}

	return b.String()
}

func (s *HistoryScreen) renderDetail(a *annotation.Annotation, width int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true)
	var lines []string
	lines = append(lines, layout.Wrap(a.ProblemText, min(width-8, 72)))
	if len(a.Rounds) == 0 {
		lines = append(lines, dim.Render("No guidance rounds yet"))
	}
	for _, r := range a.Rounds {
		where := "follow-up"
		if r.ErrorIndex != nil {
			where = fmt.Sprintf("step %d %s", *r.ErrorIndex+1, annotation.Label(string(r.ErrorType)))
		}
		line := fmt.Sprintf("Round %d  %s  %s: %q", r.Number, where,
			annotation.Label(string(r.GuidanceType)), truncate(r.Guidance, 48))
		if r.Outcome != "" {
			line += "  → " + annotation.Label(string(r.Outcome))
		}
		lines = append(lines, line)
	}
	block := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		PaddingLeft(4).
		Render(strings.Join(lines, "\n"))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block) + "\n"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
