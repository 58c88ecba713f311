package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/adjpack/pkg/adjacency"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// previewEntries is how many neighbors the list shows per key.
const previewEntries = 4

// =============================================================================
// KeyBrowserModel - Interactive adjacency browser
// =============================================================================

// KeyBrowserModel is the bubbletea model for browsing the keys of a graph
// and the neighbor list of the selected key.
type KeyBrowserModel struct {
	Graph  *adjacency.Graph
	Keys   []uint32
	Cursor int
	Height int
	Offset int
}

// NewKeyBrowserModel creates a browser over g.
func NewKeyBrowserModel(g *adjacency.Graph) KeyBrowserModel {
	return KeyBrowserModel{
		Graph:  g,
		Keys:   g.Keys(),
		Height: 15,
	}
}

func (m KeyBrowserModel) Init() tea.Cmd {
	return nil
}

func (m KeyBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown":
			m.move(m.Height)
		case "home", "g":
			m.move(-len(m.Keys))
		case "end", "G":
			m.move(len(m.Keys))
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 12
		if m.Height < 5 {
			m.Height = 5
		}
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by delta, clamped, and scrolls to keep it visible.
func (m *KeyBrowserModel) move(delta int) {
	if len(m.Keys) == 0 {
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.Keys)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// Selected returns the key under the cursor.
func (m KeyBrowserModel) Selected() (uint32, bool) {
	if len(m.Keys) == 0 {
		return 0, false
	}
	return m.Keys[m.Cursor], true
}

func (m KeyBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Adjacency Keys"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  pgup/pgdn page  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Keys) == 0 {
		b.WriteString(listDimStyle.Render("  (empty graph)"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Keys))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		key := m.Keys[i]
		entries := m.Graph.Neighbors(key).Entries()

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, strconv.FormatUint(uint64(key), 10), strconv.Itoa(len(entries)), previewNeighbors(entries, previewEntries)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Key", "Degree", "Neighbors").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col == 2 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if key, ok := m.Selected(); ok {
		var line strings.Builder
		adjacency.DumpLine(&line, key, m.Graph.Neighbors(key).Entries())
		b.WriteString(StyleValue.Render(truncate(strings.TrimSuffix(line.String(), "\n"), 240)))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Keys))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// previewNeighbors formats the first n entries as "a:w b:w ...".
func previewNeighbors(entries []adjacency.Entry, n int) string {
	parts := make([]string, 0, n+1)
	for i, e := range entries {
		if i == n {
			parts = append(parts, fmt.Sprintf("+%d", len(entries)-n))
			break
		}
		parts = append(parts, fmt.Sprintf("%d:%d", e.Neighbor, e.Weight))
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
