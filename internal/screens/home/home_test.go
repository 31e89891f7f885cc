package home

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/abhisek/stepwise/internal/problem"
	"github.com/abhisek/stepwise/internal/router"
)

type stubCatalog struct {
	n   int
	err error
}

func (c stubCatalog) List(context.Context, problem.Filter) ([]*problem.Problem, error) {
	if c.err != nil {
		return nil, c.err
	}
	return make([]*problem.Problem, c.n), nil
}

func (c stubCatalog) RandomEligible(context.Context, problem.Filter) (*problem.Problem, error) {
	return &problem.Problem{ID: "P0001"}, nil
}

type stubWorkflow struct {
	anns []*annotation.Annotation
}

func (w stubWorkflow) Start(context.Context, string) (*annotation.Annotation, error) { return nil, nil }
func (w stubWorkflow) SubmitGuidance(context.Context, string, annotation.Guidance) (*annotation.Annotation, error) {
	return nil, nil
}
func (w stubWorkflow) Finalize(context.Context, string, annotation.Outcome) (*annotation.Annotation, error) {
	return nil, nil
}
func (w stubWorkflow) Discard(context.Context, string) (*problem.Problem, error) { return nil, nil }
func (w stubWorkflow) List(context.Context, annotation.Filter) ([]*annotation.Annotation, error) {
	return w.anns, nil
}

func TestHome_Stats(t *testing.T) {
	wf := stubWorkflow{anns: []*annotation.Annotation{
		{ID: "a1", IsComplete: true},
		{ID: "a2"},
		{ID: "a3", IsComplete: true},
	}}
	h := New(stubCatalog{n: 7}, wf)
	h.Update(h.Init()())

	want := Stats{Eligible: 7, InProgress: 1, Complete: 2}
	if h.stats != want {
		t.Errorf("stats = %+v, want %+v", h.stats, want)
	}
	view := h.View(120, 40)
	for _, s := range []string{"7 TO DO", "1 IN PROGRESS", "2 DONE", "ANNOTATE RANDOM"} {
		if !strings.Contains(view, s) {
			t.Errorf("view missing %q", s)
		}
	}
}

func TestHome_StatsError(t *testing.T) {
	h := New(stubCatalog{err: errors.New("disk gone")}, stubWorkflow{})
	h.Update(h.Init()())
	if !strings.Contains(h.View(120, 40), "disk gone") {
		t.Error("view should show the load error")
	}
}

func TestHome_MenuPushesScreens(t *testing.T) {
	h := New(stubCatalog{}, stubWorkflow{})

	for i, label := range []string{"ANNOTATE RANDOM", "PICK A PROBLEM", "HISTORY"} {
		h.menu.Selected = i
		_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
		if cmd == nil {
			t.Fatalf("%s: expected a command", label)
		}
		if _, ok := cmd().(router.PushScreenMsg); !ok {
			t.Errorf("%s: expected a push", label)
		}
	}
}

func TestHome_ResumeReloads(t *testing.T) {
	h := New(stubCatalog{n: 1}, stubWorkflow{})
	if h.Resume() == nil {
		t.Error("Resume should reload the counts")
	}
}
