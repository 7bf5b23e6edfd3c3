// Package formatter renders query results and diagnostics as text for
// terminals and MCP clients.
package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// Markers open every error and warning response.
const (
	ErrorMarker   = "❌"
	WarningMarker = "⚠️"
)

// Header renders a section title with an underline sized to the text.
func Header(text string) string {
	line := strings.Repeat("─", lipgloss.Width(text))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(text), StyleDim.Render(line))
}

func Dim(text string) string { return StyleDim.Render(text) }

func Bold(text string) string { return StyleBold.Render(text) }

// RenderBox wraps content in a rounded border with an optional title.
func RenderBox(title, content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(1).
		PaddingRight(1)
	if title != "" {
		return box.Render(StyleHeader.Render(title) + "\n\n" + content)
	}
	return box.Render(content)
}

// PriorityIndicator renders an iTop priority (1..4) with its level name.
func PriorityIndicator(p string) string {
	switch p {
	case "1":
		return StyleRed.Render("🔴 Critical")
	case "2":
		return StyleYellow.Render("🟠 High")
	case "3":
		return StyleBlue.Render("🟡 Medium")
	case "4":
		return StyleGreen.Render("🟢 Low")
	case "":
		return Dim("--")
	default:
		return p
	}
}

// SLAIndicator renders a "passed" flag, where yes means the deadline
// was breached.
func SLAIndicator(passed string) string {
	switch strings.ToLower(passed) {
	case "yes", "1", "true":
		return StyleRed.Render("❌ breached")
	case "no", "0", "false":
		return StyleGreen.Render("✅ met")
	default:
		return Dim("--")
	}
}

// StatusPill colors a status value by how settled it is.
func StatusPill(status string) string {
	switch strings.ToLower(status) {
	case "closed", "resolved", "implemented", "production", "active":
		return StyleGreen.Render(status)
	case "new", "assigned", "ongoing", "approved", "implementation", "stock":
		return StyleBlue.Render(status)
	case "pending", "waiting_for_approval", "escalated_tto", "escalated_ttr":
		return StyleYellow.Render(status)
	case "rejected", "obsolete", "inactive":
		return StyleDim.Render(status)
	case "":
		return Dim("--")
	default:
		return status
	}
}
