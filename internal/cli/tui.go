package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	headerStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// ImagePickerModel - Interactive image selection
// =============================================================================

// PickItem is one image offered by the picker.
type PickItem struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// NewPickItems stats paths for display. Files that cannot be read are kept
// with zero size and time; loading reports the real error later.
func NewPickItems(paths []string) []PickItem {
	items := make([]PickItem, len(paths))
	for i, p := range paths {
		items[i] = PickItem{Path: p}
		if info, err := os.Stat(p); err == nil {
			items[i].Size = info.Size()
			items[i].ModTime = info.ModTime()
		}
	}
	return items
}

// ImagePickerModel is the bubbletea model for choosing images to process.
type ImagePickerModel struct {
	Items     []PickItem
	Selected  map[int]bool
	Cursor    int
	Height    int
	Offset    int
	Confirmed bool
	now       time.Time
}

// NewImagePickerModel creates a picker with every image selected.
func NewImagePickerModel(items []PickItem) ImagePickerModel {
	sel := make(map[int]bool, len(items))
	for i := range items {
		sel[i] = true
	}
	return ImagePickerModel{
		Items:    items,
		Selected: sel,
		Height:   15,
		now:      time.Now(),
	}
}

func (m ImagePickerModel) Init() tea.Cmd {
	return nil
}

func (m ImagePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.Items) > 0 {
				m.Selected[m.Cursor] = !m.Selected[m.Cursor]
			}
		case "a":
			all := m.count() < len(m.Items)
			for i := range m.Items {
				m.Selected[i] = all
			}
		case "enter":
			if m.count() == 0 {
				return m, nil
			}
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m ImagePickerModel) count() int {
	n := 0
	for i := range m.Items {
		if m.Selected[i] {
			n++
		}
	}
	return n
}

// Chosen returns the selected paths in display order, or nil when the
// picker was left without confirming.
func (m ImagePickerModel) Chosen() []string {
	if !m.Confirmed {
		return nil
	}
	var out []string
	for i, it := range m.Items {
		if m.Selected[i] {
			out = append(out, it.Path)
		}
	}
	return out
}

func (m ImagePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Images"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all/none  ⏎ start  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Items))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		it := m.Items[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := "[ ]"
		if m.Selected[i] {
			mark = "[x]"
		}
		rows = append(rows, []string{cursor, mark, filepath.Base(it.Path), formatSize(it.Size), formatRelativeTime(it.ModTime, m.now)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Image", "Size", "Modified").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Items) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 3 || col == 4 {
				base = base.Foreground(colorDim)
			}
			switch {
			case idx == m.Cursor && m.Selected[idx]:
				return base.Foreground(colorGreen).Bold(true)
			case idx == m.Cursor:
				return base.Foreground(colorGray).Bold(true)
			case m.Selected[idx]:
				if col != 3 && col != 4 {
					return base.Foreground(colorGreen)
				}
				return base
			}
			return base.Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %d selected", m.Cursor+1, len(m.Items), m.count())))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := now.Sub(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

func formatSize(n int64) string {
	switch {
	case n <= 0:
		return "—"
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	}
}
