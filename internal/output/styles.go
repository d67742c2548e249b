package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette. Never use inline lipgloss.Color literals elsewhere.
var (
	// ColorCyan is used for identifiable nouns: artifact names, paths.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for the "cached" status.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for the "stale" status.
	ColorYellow = lipgloss.Color("220")

	// ColorBoldRed is used for the "failed" status.
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark.
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders.
	ColorDimGray = lipgloss.Color("240")

	// ColorBlue is used for table headers.
	ColorBlue = lipgloss.Color("12")
)

// Semantic styles.
var (
	// StyleNoun styles identifiable nouns.
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (remapping, cleaning).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (scope prefixes, separators).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Artifact cache status values.
const (
	StatusCached  = "cached"
	StatusMissing = "missing"
	StatusStale   = "stale"
	StatusRebuilt = "rebuilt"
	StatusFailed  = "failed"
)

// StatusStyle returns the style for an artifact status.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusCached:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusRebuilt:
		return lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	case StatusStale:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusMissing:
		return lipgloss.NewStyle().Faint(true)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

const minArtifactColumnWidth = 48

// FormatArtifactLine renders an artifact file name with a right-aligned
// status suffix.
func FormatArtifactLine(role, file, status string) string {
	path := fmt.Sprintf("%s/%s", role, file)
	padding := minArtifactColumnWidth - len(path)
	if padding < 2 {
		padding = 2
	}
	return StyleDim.Render("j:") + StyleNoun.Render(path) + strings.Repeat(" ", padding) + StatusStyle(status).Render(status)
}

// FormatRemapHeader renders the lifecycle line printed before a remap.
func FormatRemapHeader(name, from, to string) string {
	return fmt.Sprintf("%s %s (%s -> %s)", StyleAction.Render("remapping"), StyleNoun.Render(name), from, to)
}

// FormatCheckmark renders a green checkmark with a message.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}
