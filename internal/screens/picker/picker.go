// Package picker lets the reviewer browse eligible problems and choose
// one to annotate.
package picker

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/problem"
	"github.com/abhisek/stepwise/internal/router"
	"github.com/abhisek/stepwise/internal/screen"
	"github.com/abhisek/stepwise/internal/screens/annotate"
	"github.com/abhisek/stepwise/internal/ui/layout"
	"github.com/abhisek/stepwise/internal/ui/theme"
)

// Catalog lists problems and picks random eligible ones.
type Catalog interface {
	annotate.Selector
	List(ctx context.Context, f problem.Filter) ([]*problem.Problem, error)
}

type problemsLoadedMsg struct {
	Problems []*problem.Problem
	Err      error
}

type discardedMsg struct {
	ID  string
	Err error
}

// PickerScreen lists unannotated, undiscarded problems.
type PickerScreen struct {
	catalog Catalog
	wf      annotate.Workflow

	category   int // 0 is "any"; otherwise index+1 into problem.Categories
	difficulty int

	problems   []*problem.Problem
	selected   int
	loaded     bool
	confirming bool
	errMsg     string
	notice     string
}

var _ screen.Screen = (*PickerScreen)(nil)
var _ screen.KeyHintProvider = (*PickerScreen)(nil)
var _ screen.Resumer = (*PickerScreen)(nil)

// New creates a new PickerScreen.
func New(catalog Catalog, wf annotate.Workflow) *PickerScreen {
	return &PickerScreen{catalog: catalog, wf: wf}
}

// Filter returns the eligibility filter for the current selection.
func (s *PickerScreen) Filter() problem.Filter {
	no := false
	f := problem.Filter{Annotated: &no, Discarded: &no}
	if s.category > 0 {
		f.Category = problem.Categories[s.category-1]
	}
	if s.difficulty > 0 {
		f.Difficulty = problem.Difficulties[s.difficulty-1]
	}
	return f
}

func (s *PickerScreen) Init() tea.Cmd {
	catalog, f := s.catalog, s.Filter()
	return func() tea.Msg {
		ps, err := catalog.List(context.Background(), f)
		return problemsLoadedMsg{Problems: ps, Err: err}
	}
}

// Resume reloads the list; the problem just annotated is no longer eligible.
func (s *PickerScreen) Resume() tea.Cmd {
	return s.Init()
}

func (s *PickerScreen) Title() string {
	return "Pick a Problem"
}

func (s *PickerScreen) KeyHints() []layout.KeyHint {
	if s.confirming {
		return []layout.KeyHint{
			{Key: "Y", Description: "Discard"},
			{Key: "N", Description: "Keep"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Annotate"},
		{Key: "R", Description: "Random"},
		{Key: "C", Description: "Category"},
		{Key: "D", Description: "Difficulty"},
		{Key: "X", Description: "Discard"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *PickerScreen) current() *problem.Problem {
	if s.selected < 0 || s.selected >= len(s.problems) {
		return nil
	}
	return s.problems[s.selected]
}

func (s *PickerScreen) reload() tea.Cmd {
	s.loaded = false
	s.selected = 0
	return s.Init()
}

func (s *PickerScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case problemsLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.problems = msg.Problems
		if s.selected >= len(s.problems) {
			s.selected = max(len(s.problems)-1, 0)
		}
		return s, nil

	case discardedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.notice = fmt.Sprintf("Discarded %s", msg.ID)
		return s, s.Init()

	case tea.KeyMsg:
		return s.handleKey(msg.String())
	}
	return s, nil
}

func (s *PickerScreen) handleKey(key string) (screen.Screen, tea.Cmd) {
	if s.confirming {
		s.confirming = false
		if key != "y" && key != "Y" {
			return s, nil
		}
		p := s.current()
		if p == nil {
			return s, nil
		}
		wf, id := s.wf, p.ID
		return s, func() tea.Msg {
			_, err := wf.Discard(context.Background(), id)
			return discardedMsg{ID: id, Err: err}
		}
	}

	s.notice = ""
	switch key {
	case "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.problems)-1 {
			s.selected++
		}
	case "c":
		s.category = (s.category + 1) % (len(problem.Categories) + 1)
		return s, s.reload()
	case "d":
		s.difficulty = (s.difficulty + 1) % (len(problem.Difficulties) + 1)
		return s, s.reload()
	case "x":
		if s.current() != nil {
			s.confirming = true
		}
	case "r":
		wf, sel, f := s.wf, s.catalog, s.Filter()
		return s, func() tea.Msg {
			return router.PushScreenMsg{Screen: annotate.NewRandom(wf, sel, f)}
		}
	case "enter":
		p := s.current()
		if p == nil {
			return s, nil
		}
		wf, id := s.wf, p.ID
		return s, func() tea.Msg {
			return router.PushScreenMsg{Screen: annotate.NewForProblem(wf, id)}
		}
	}
	return s, nil
}

func (s *PickerScreen) View(width, height int) string {
	var b strings.Builder

	filters := fmt.Sprintf("Category: %s    Difficulty: %s",
		orAny(string(s.Filter().Category)), orAny(string(s.Filter().Difficulty)))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.StepDim.Render(filters)))
	b.WriteString("\n\n")

	switch {
	case s.errMsg != "":
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Incorrect.Render("Error: "+s.errMsg)))
		return b.String()
	case !s.loaded:
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Hint.Render("Loading problems...")))
		return b.String()
	case len(s.problems) == 0:
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Hint.Render("No unannotated problems match this filter.")))
		return b.String()
	}

	// Keep the selection visible when the list is taller than the screen.
	rows := max(height-8, 3)
	start := 0
	if s.selected >= rows {
		start = s.selected - rows + 1
	}
	end := min(start+rows, len(s.problems))

	textWidth := max(min(width-40, 70), 10)
	var list strings.Builder
	for i := start; i < end; i++ {
		p := s.problems[i]
		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "▸ "
			style = theme.Selected
		}
		line := fmt.Sprintf("%s%-8s %-14s %-12s %s", prefix, p.ID, p.Category, p.Difficulty,
			firstLine(p.Text, textWidth))
		list.WriteString(style.Render(line))
		list.WriteString("\n")
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, list.String()))

	b.WriteString("\n")
	status := fmt.Sprintf("%d eligible", len(s.problems))
	if s.notice != "" {
		status = s.notice + "  ·  " + status
	}
	if s.confirming {
		status = fmt.Sprintf("Discard %s? (y/n)", s.current().ID)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Flagged.Render(status)))
	} else {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render(status)))
	}
	return b.String()
}

func orAny(v string) string {
	if v == "" {
		return "any"
	}
	return v
}

func firstLine(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n-1]) + "…"
}
