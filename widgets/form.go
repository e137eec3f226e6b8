package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FieldStyle colours one form row.
type FieldStyle struct {
	Label  lipgloss.Color
	Value  lipgloss.Color
	Cursor lipgloss.Color
	Marker rune // drawn before the focused row
}

// RenderField renders "▶ Label       value". Unfocused rows get a blank
// marker so the columns line up.
func RenderField(label, value string, focused bool, st FieldStyle) string {
	marker := " "
	valueStyle := lipgloss.NewStyle().Foreground(st.Value)
	if focused {
		marker = lipgloss.NewStyle().Foreground(st.Cursor).Render(string(st.Marker))
		valueStyle = valueStyle.Bold(true).Underline(true)
	}
	if value == "" {
		value = " "
	}
	labelText := lipgloss.NewStyle().Foreground(st.Label).Render(fmt.Sprintf("%-14s", label))
	return fmt.Sprintf("%s %s %s", marker, labelText, valueStyle.Render(value))
}

// RenderLog renders the last height lines inside a bordered box. Short logs
// are padded so the box keeps its size.
func RenderLog(lines []string, width, height int, border lipgloss.Color) string {
	if height < 1 {
		height = 1
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	rows := make([]string, 0, height)
	for _, l := range lines {
		if width > 0 && lipgloss.Width(l) > width {
			l = truncate(l, width)
		}
		rows = append(rows, l)
	}
	for len(rows) < height {
		rows = append(rows, "")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border)
	if width > 0 {
		box = box.Width(width)
	}
	return box.Render(strings.Join(rows, "\n"))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

// HelpStyle colours the key help block.
type HelpStyle struct {
	Title lipgloss.Color
	Key   lipgloss.Color
	Desc  lipgloss.Color
}

// RenderKeyHelp renders one line per section: the title, then each binding
// as "key desc". Sections without bindings are skipped.
func RenderKeyHelp(sections []KeySection, st HelpStyle) string {
	title := lipgloss.NewStyle().Foreground(st.Title)
	key := lipgloss.NewStyle().Foreground(st.Key).Bold(true)
	desc := lipgloss.NewStyle().Foreground(st.Desc)

	var lines []string
	for _, sec := range sections {
		if len(sec.Keys) == 0 {
			continue
		}
		parts := make([]string, 0, len(sec.Keys)+1)
		if sec.Title != "" {
			parts = append(parts, title.Render(fmt.Sprintf("%-8s", sec.Title)))
		}
		for _, k := range sec.Keys {
			parts = append(parts, key.Render(k.Key)+" "+desc.Render(k.Desc))
		}
		lines = append(lines, strings.Join(parts, "  "))
	}
	return strings.Join(lines, "\n")
}

// KeySection is a titled row of bindings.
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

type KeyBinding struct {
	Key  string
	Desc string
}
