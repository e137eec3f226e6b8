package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderFieldMarksFocus(t *testing.T) {
	st := FieldStyle{Marker: '>'}
	focused := RenderField("Listen port", "8000", true, st)
	plain := RenderField("Listen port", "8000", false, st)

	if !strings.Contains(focused, ">") || strings.Contains(plain, ">") {
		t.Errorf("focused=%q plain=%q", focused, plain)
	}
	if !strings.Contains(plain, "Listen port") || !strings.Contains(plain, "8000") {
		t.Errorf("plain=%q", plain)
	}
}

func TestRenderLogKeepsTail(t *testing.T) {
	lines := []string{"one", "two", "three", "four"}
	out := RenderLog(lines, 20, 2, lipgloss.Color("#ffffff"))

	if strings.Contains(out, "one") || strings.Contains(out, "two") {
		t.Errorf("old lines kept:\n%s", out)
	}
	if !strings.Contains(out, "three") || !strings.Contains(out, "four") {
		t.Errorf("tail missing:\n%s", out)
	}
	// two rows plus the top and bottom border
	if h := lipgloss.Height(out); h != 4 {
		t.Errorf("height = %d, want 4", h)
	}
}

func TestRenderLogPadsAndTruncates(t *testing.T) {
	out := RenderLog([]string{strings.Repeat("x", 40)}, 10, 3, lipgloss.Color("#ffffff"))
	if h := lipgloss.Height(out); h != 5 {
		t.Errorf("height = %d, want 5", h)
	}
	if strings.Contains(out, strings.Repeat("x", 11)) {
		t.Errorf("line not truncated:\n%s", out)
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{
		{Title: "Form", Keys: []KeyBinding{{Key: "tab", Desc: "next"}, {Key: "←/→", Desc: "device"}}},
		{Title: "Empty"},
		{Title: "Session", Keys: []KeyBinding{{Key: "enter", Desc: "start"}}},
	}, HelpStyle{})

	if out != "Form      tab next  ←/→ device\nSession   enter start" {
		t.Errorf("got %q", out)
	}
}
