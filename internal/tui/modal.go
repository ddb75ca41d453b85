package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// confirm is a Yes/No modal state shared by the screens
type confirm struct {
	shown  bool
	choice bool // true for Yes
	prompt string
}

func (c *confirm) open(prompt string, defaultYes bool) {
	c.shown = true
	c.choice = defaultYes
	c.prompt = prompt
}

// key handles a key press while the modal is shown. decided is true once the
// user picked an answer; c.choice then holds it.
func (c *confirm) key(k string) (decided, cancelled bool) {
	switch k {
	case "left", "right", "tab":
		c.choice = !c.choice
	case "y", "Y":
		c.choice = true
		decided = true
	case "n", "N":
		c.choice = false
		decided = true
	case "enter":
		decided = true
	case "esc":
		cancelled = true
	}
	if decided || cancelled {
		c.shown = false
	}
	return decided, cancelled
}

func (c confirm) render(width, height int) string {
	var content strings.Builder
	content.WriteString(c.prompt)
	content.WriteString("\n\n")

	yesStyle := lipgloss.NewStyle().Padding(0, 2)
	noStyle := lipgloss.NewStyle().Padding(0, 2)
	if c.choice {
		yesStyle = yesStyle.
			Background(lipgloss.Color(ColorAccentBright)).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)
	} else {
		noStyle = noStyle.
			Background(lipgloss.Color(ColorError)).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)
	}

	content.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, yesStyle.Render("Yes"), "   ", noStyle.Render("No")))
	content.WriteString("\n\n")
	content.WriteString("← → or Y/N to choose, Enter to confirm\nEsc to cancel")

	modal := lipgloss.NewStyle().
		Width(50).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentBright)).
		Background(lipgloss.Color(ColorCardBackground)).
		Padding(1).
		Align(lipgloss.Center).
		Render(content.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

func helpBar(width int, text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(width).
		Render(text)
}
