// Package render formats a segmented conversation for terminal display.
package render

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"

	"mdchat/pkg/segment"
)

const defaultWidth = 80

var (
	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("141")).
				Bold(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// Renderer lays out conversation messages within a fixed terminal width.
type Renderer struct {
	width int
}

// NewRenderer creates a renderer for the given width. Widths below 20
// fall back to the default of 80 columns.
func NewRenderer(width int) *Renderer {
	if width < 20 {
		width = defaultWidth
	}
	return &Renderer{width: width}
}

// Render returns the styled transcript, one labeled block per message.
func (r *Renderer) Render(messages []segment.Message) string {
	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(r.renderMessage(msg))
	}
	return sb.String()
}

func (r *Renderer) renderMessage(msg segment.Message) string {
	label := labelFor(msg.Role)

	var sb strings.Builder
	sb.WriteString(label)
	sb.WriteString("\n")
	for _, line := range WrapText(msg.Content, r.width-2) {
		if line != "" {
			sb.WriteString("  ")
			sb.WriteString(bodyStyle.Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func labelFor(role segment.Role) string {
	switch role {
	case segment.RoleAssistant:
		return assistantLabelStyle.Render("Assistant")
	default:
		return userLabelStyle.Render("You")
	}
}

// WrapText wraps text to the given display width, breaking on word
// boundaries and preserving existing line breaks. Words wider than the
// width are left on their own line rather than split.
func WrapText(text string, width int) []string {
	if width <= 0 {
		width = defaultWidth
	}

	var wrapped []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			wrapped = append(wrapped, "")
			continue
		}
		wrapped = append(wrapped, wrapLine(line, width)...)
	}
	return wrapped
}

func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines   []string
		current strings.Builder
		curW    int
	)
	for _, word := range words {
		w := runewidth.StringWidth(word)
		if curW > 0 && curW+1+w > width {
			lines = append(lines, current.String())
			current.Reset()
			curW = 0
		}
		if curW > 0 {
			current.WriteString(" ")
			curW++
		}
		current.WriteString(word)
		curW += w
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
