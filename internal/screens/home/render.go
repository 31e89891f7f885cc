package home

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/stepwise/internal/ui/components"
	"github.com/abhisek/stepwise/internal/ui/theme"
)

const titleFull = `╔═╗╔╦╗╔═╗╔═╗╦ ╦╦╔═╗╔═╗
╚═╗ ║ ║╣ ╠═╝║║║║╚═╗║╣
╚═╝ ╩ ╚═╝╩  ╚╩╝╩╚═╝╚═╝`

const titleCompact = "S · T · E · P · W · I · S · E"

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 22

// contentWidth returns the uniform inner width used for all sections.
func contentWidth(frameWidth int) int {
	// Leave room for frame border (2) + inner padding (4)
	return min(max(frameWidth-6, 20), 60)
}

func renderTitle(cw int, compact bool) string {
	text := titleFull
	if compact {
		text = titleCompact
	}
	sub := theme.Subtitle.Render("step-level guidance for model solutions")
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(text) + "\n" + sub)
}

// renderStatsBar renders the queue counts in a bordered box matching content width.
func renderStatsBar(st Stats, ready bool, cw int) string {
	var stats string
	if !ready {
		stats = theme.Hint.Render("counting problems...")
	} else {
		eligible := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
		progress := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
		done := lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
		stats = fmt.Sprintf("%s  %s  %s",
			eligible.Render(fmt.Sprintf("%d TO DO", st.Eligible)),
			progress.Render(fmt.Sprintf("%d IN PROGRESS", st.InProgress)),
			done.Render(fmt.Sprintf("%d DONE", st.Complete)),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw - 2). // account for border chars
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

func renderError(msg string, cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Error).
		Width(cw).
		Align(lipgloss.Center).
		Render("Could not load counts: " + msg)
}

func renderMenu(m components.Menu, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(m.View(buttonWidth))
}

// renderFrame wraps content in a double border, centered in the full area.
func renderFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width - 2).   // account for border chars
		Height(height - 2). // account for border chars
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
