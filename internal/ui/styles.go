package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Adaptive status colors, tuned for both light and dark terminals.
var (
	colorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	colorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	colorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
)

var (
	WarnStyle  = lipgloss.NewStyle().Foreground(colorWarn)
	FailStyle  = lipgloss.NewStyle().Foreground(colorFail)
	MutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// ShouldUseColor reports whether output should be colored. NO_COLOR always
// wins, CLICOLOR_FORCE forces color even when piped, otherwise color is used
// only on a TTY that advertises some color profile.
func ShouldUseColor() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}

func render(style lipgloss.Style, s string) string {
	if !ShouldUseColor() {
		return s
	}
	return style.Render(s)
}
