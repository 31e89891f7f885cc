package picker

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/abhisek/stepwise/internal/problem"
	"github.com/abhisek/stepwise/internal/router"
)

type stubCatalog struct {
	problems []*problem.Problem
	filters  []problem.Filter
}

func (c *stubCatalog) List(_ context.Context, f problem.Filter) ([]*problem.Problem, error) {
	c.filters = append(c.filters, f)
	var out []*problem.Problem
	for _, p := range c.problems {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Difficulty != "" && p.Difficulty != f.Difficulty {
			continue
		}
		if p.IsDiscarded {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *stubCatalog) RandomEligible(context.Context, problem.Filter) (*problem.Problem, error) {
	return c.problems[0], nil
}

type stubWorkflow struct {
	catalog   *stubCatalog
	discarded []string
}

func (w *stubWorkflow) Start(context.Context, string) (*annotation.Annotation, error) {
	return nil, nil
}
func (w *stubWorkflow) SubmitGuidance(context.Context, string, annotation.Guidance) (*annotation.Annotation, error) {
	return nil, nil
}
func (w *stubWorkflow) Finalize(context.Context, string, annotation.Outcome) (*annotation.Annotation, error) {
	return nil, nil
}
func (w *stubWorkflow) Discard(_ context.Context, id string) (*problem.Problem, error) {
	w.discarded = append(w.discarded, id)
	for _, p := range w.catalog.problems {
		if p.ID == id {
			p.IsDiscarded = true
			return p, nil
		}
	}
	return nil, nil
}

func fixtures() (*stubCatalog, *stubWorkflow) {
	c := &stubCatalog{problems: []*problem.Problem{
		{ID: "P0001", Category: problem.CategoryAlgebra, Difficulty: problem.DifficultyBeginner, Text: "Solve 2x + 3 = 11."},
		{ID: "P0002", Category: problem.CategoryGeometry, Difficulty: problem.DifficultyAdvanced, Text: "Find the area of the triangle."},
	}}
	return c, &stubWorkflow{catalog: c}
}

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func load(s *PickerScreen) {
	s.Update(s.Init()())
}

func TestPicker_ListsEligibleOnly(t *testing.T) {
	c, wf := fixtures()
	s := New(c, wf)
	load(s)

	f := c.filters[0]
	if f.Annotated == nil || *f.Annotated || f.Discarded == nil || *f.Discarded {
		t.Errorf("filter = %+v, want unannotated and undiscarded", f)
	}
	view := s.View(120, 30)
	if !strings.Contains(view, "P0001") || !strings.Contains(view, "P0002") {
		t.Error("view should list both problems")
	}
	if !strings.Contains(view, "2 eligible") {
		t.Error("view should show the eligible count")
	}
}

func TestPicker_CategoryFilterCycles(t *testing.T) {
	c, wf := fixtures()
	s := New(c, wf)
	load(s)

	_, cmd := s.Update(key('c'))
	if cmd == nil {
		t.Fatal("expected a reload command")
	}
	s.Update(cmd())

	if got := c.filters[len(c.filters)-1].Category; got != problem.Categories[0] {
		t.Errorf("category = %q, want %q", got, problem.Categories[0])
	}
	if len(s.problems) != 1 || s.problems[0].ID != "P0001" {
		t.Errorf("problems = %d, want only P0001", len(s.problems))
	}
}

func TestPicker_EnterPushesAnnotate(t *testing.T) {
	c, wf := fixtures()
	s := New(c, wf)
	load(s)

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a push command")
	}
	if _, ok := cmd().(router.PushScreenMsg); !ok {
		t.Error("enter should push the annotate screen")
	}
}

func TestPicker_DiscardNeedsConfirmation(t *testing.T) {
	c, wf := fixtures()
	s := New(c, wf)
	load(s)

	s.Update(key('x'))
	if !s.confirming {
		t.Fatal("x should ask for confirmation")
	}
	if _, cmd := s.Update(key('n')); cmd != nil || len(wf.discarded) != 0 {
		t.Fatal("declining should not discard")
	}

	s.Update(key('x'))
	_, cmd := s.Update(key('y'))
	if cmd == nil {
		t.Fatal("expected a discard command")
	}
	_, reload := s.Update(cmd())
	if len(wf.discarded) != 1 || wf.discarded[0] != "P0001" {
		t.Errorf("discarded = %v, want [P0001]", wf.discarded)
	}
	if reload == nil {
		t.Fatal("expected a reload after discarding")
	}
	s.Update(reload())
	if len(s.problems) != 1 {
		t.Errorf("problems = %d, want 1 after discard", len(s.problems))
	}
}

func TestPicker_EmptyState(t *testing.T) {
	s := New(&stubCatalog{}, &stubWorkflow{catalog: &stubCatalog{}})
	load(s)
	if !strings.Contains(s.View(100, 24), "No unannotated problems") {
		t.Error("expected the empty-state message")
	}
}
