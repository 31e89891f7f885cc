package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/abhisek/stepwise/internal/problem"
	"github.com/abhisek/stepwise/internal/router"
	"github.com/abhisek/stepwise/internal/screen"
	"github.com/abhisek/stepwise/internal/screens/annotate"
	"github.com/abhisek/stepwise/internal/screens/history"
	"github.com/abhisek/stepwise/internal/screens/picker"
	"github.com/abhisek/stepwise/internal/ui/components"
	"github.com/abhisek/stepwise/internal/ui/layout"
)

// Workflow is the annotation service as the home screen needs it.
type Workflow interface {
	annotate.Workflow
	history.Lister
}

// Stats counts the work queue.
type Stats struct {
	Eligible   int
	InProgress int
	Complete   int
}

type statsMsg struct {
	Stats Stats
	Err   error
}

// HomeScreen is the main menu.
type HomeScreen struct {
	catalog picker.Catalog
	wf      Workflow

	menu       components.Menu
	stats      Stats
	statsReady bool
	errMsg     string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(catalog picker.Catalog, wf Workflow) *HomeScreen {
	h := &HomeScreen{catalog: catalog, wf: wf}

	items := []components.MenuItem{
		{Label: "ANNOTATE RANDOM", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: annotate.NewRandom(wf, catalog, eligible())}
			}
		}},
		{Label: "PICK A PROBLEM", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: picker.New(catalog, wf)}
			}
		}},
		{Label: "HISTORY", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: history.New(wf, wf)}
			}
		}},
		{Label: "QUIT", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
	h.menu = components.NewMenu(items)
	return h
}

func eligible() problem.Filter {
	no := false
	return problem.Filter{Annotated: &no, Discarded: &no}
}

func (h *HomeScreen) Init() tea.Cmd {
	catalog, wf := h.catalog, h.wf
	return func() tea.Msg {
		ctx := context.Background()
		var st Stats

		ps, err := catalog.List(ctx, eligible())
		if err != nil {
			return statsMsg{Err: err}
		}
		st.Eligible = len(ps)

		anns, err := wf.List(ctx, annotation.Filter{})
		if err != nil {
			return statsMsg{Err: err}
		}
		for _, a := range anns {
			if a.IsComplete {
				st.Complete++
			} else {
				st.InProgress++
			}
		}
		return statsMsg{Stats: st}
	}
}

// Resume refreshes the counts after an annotation screen closes.
func (h *HomeScreen) Resume() tea.Cmd {
	return h.Init()
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(statsMsg); ok {
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
			return h, nil
		}
		h.errMsg = ""
		h.stats = msg.Stats
		h.statsReady = true
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	compact := height < 26 || width < 100
	cw := contentWidth(width)

	sections := []string{renderTitle(cw, compact)}
	if h.errMsg != "" {
		sections = append(sections, renderError(h.errMsg, cw))
	} else {
		sections = append(sections, renderStatsBar(h.stats, h.statsReady, cw))
	}
	sections = append(sections, renderMenu(h.menu, cw))

	return renderFrame(strings.Join(sections, "\n\n"), width, height)
}
