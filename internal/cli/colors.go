package cli

import "github.com/charmbracelet/lipgloss"

// Spectrogram colour palette
// The image maps intensity v to red = 100v, blue = 50v, so everything the
// tool draws sits on the same black → plum → magenta ramp.
var (
	// Ramp colours (dark to bright), taken from the image palette at v = 1, 1.5, 2, 2.55, 5.1
	Plum    = lipgloss.Color("#640032") // v = 1.0
	Berry   = lipgloss.Color("#96004B") // v = 1.5
	Rose    = lipgloss.Color("#C80064") // v = 2.0
	Hot     = lipgloss.Color("#FF007F") // v = 2.55, red saturates
	Magenta = lipgloss.Color("#FF00FF") // v = 5.1, both channels saturate

	// Accent colours
	Mauve = lipgloss.Color("#9C7A97") // Muted text
)
