package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/ui/theme"
)

// RoundTrack shows how many of the allowed guidance rounds are used.
type RoundTrack struct {
	Used     int
	Max      int
	Complete bool
}

// View renders e.g. "Round 2/3  ●●○".
func (r RoundTrack) View() string {
	if r.Max <= 0 {
		return ""
	}
	used := min(max(r.Used, 0), r.Max)

	dotColor := theme.Secondary
	if r.Complete {
		dotColor = theme.Success
	} else if used == r.Max {
		dotColor = theme.Accent
	}

	filled := lipgloss.NewStyle().Foreground(dotColor).Render(strings.Repeat("●", used))
	empty := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("○", r.Max-used))
	label := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("Round %d/%d", used, r.Max))
	return label + "  " + filled + empty
}
