package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m ImagePickerModel, keys ...string) (ImagePickerModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(ImagePickerModel)
	}
	return m, cmd
}

func pickerItems(names ...string) []PickItem {
	items := make([]PickItem, len(names))
	for i, n := range names {
		items[i] = PickItem{Path: "figs/" + n}
	}
	return items
}

func TestImagePickerSelection(t *testing.T) {
	m := NewImagePickerModel(pickerItems("a.png", "b.png", "c.png"))

	m, _ = press(m, "down", "x")
	m, cmd := press(m, "enter")
	if cmd == nil {
		t.Fatal("enter should quit the program")
	}
	want := []string{"figs/a.png", "figs/c.png"}
	if diff := cmp.Diff(want, m.Chosen()); diff != "" {
		t.Errorf("Chosen (-want +got):\n%s", diff)
	}
}

func TestImagePickerToggleAll(t *testing.T) {
	m := NewImagePickerModel(pickerItems("a.png", "b.png"))

	m, _ = press(m, "a")
	if m.count() != 0 {
		t.Fatalf("after a: %d selected, want 0", m.count())
	}
	m, cmd := press(m, "enter")
	if cmd != nil || m.Confirmed {
		t.Error("enter with nothing selected should be ignored")
	}

	m, _ = press(m, "a")
	if m.count() != 2 {
		t.Errorf("after second a: %d selected, want 2", m.count())
	}
}

func TestImagePickerQuit(t *testing.T) {
	for _, k := range []string{"q", "esc"} {
		m := NewImagePickerModel(pickerItems("a.png"))
		m, cmd := press(m, k)
		if cmd == nil {
			t.Errorf("%s should quit", k)
		}
		if m.Chosen() != nil {
			t.Errorf("%s: Chosen() = %v, want nil", k, m.Chosen())
		}
	}
}

func TestImagePickerScroll(t *testing.T) {
	m := NewImagePickerModel(pickerItems("a.png", "b.png", "c.png", "d.png"))
	m.Height = 2

	m, _ = press(m, "j", "j", "j", "j")
	if m.Cursor != 3 || m.Offset != 2 {
		t.Errorf("cursor, offset = %d, %d; want 3, 2", m.Cursor, m.Offset)
	}
	m, _ = press(m, "k", "k", "k", "k")
	if m.Cursor != 0 || m.Offset != 0 {
		t.Errorf("cursor, offset = %d, %d; want 0, 0", m.Cursor, m.Offset)
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	if got := next.(ImagePickerModel).Height; got != 22 {
		t.Errorf("Height after resize = %d, want 22", got)
	}
}

func TestImagePickerView(t *testing.T) {
	m := NewImagePickerModel(pickerItems("a.png", "b.png"))
	view := m.View()
	for _, s := range []string{"Select Images", "a.png", "b.png", "2 selected"} {
		if !strings.Contains(view, s) {
			t.Errorf("View() missing %q", s)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "—"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "—"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-48 * time.Hour), "2d ago"},
		{time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), "Jan 2, 2025"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(tt.t, now); got != tt.want {
			t.Errorf("formatRelativeTime(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}
