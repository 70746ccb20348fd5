package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// InspectModel is a Bubble Tea model for the value tree view.
type InspectModel struct {
	viewType  string
	root      *Node
	collapsed map[*Node]bool
	cursor    int
	offset    int
	width     int
	height    int
	quitting  bool
}

// NewInspectModel creates a new inspect model. Messages start collapsed
// when there are many of them.
func NewInspectModel(viewType string, data any) InspectModel {
	root, _ := data.(*Node)
	m := InspectModel{
		viewType:  viewType,
		root:      root,
		collapsed: make(map[*Node]bool),
	}
	if root != nil && len(root.Children) > 8 {
		for _, c := range root.Children {
			m.collapsed[c] = true
		}
	}
	return m
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		rows := flatten(m.root, m.collapsed)
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(rows)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Toggle):
			if m.cursor < len(rows) {
				n := rows[m.cursor].node
				if len(n.Children) > 0 {
					m.collapsed[n] = !m.collapsed[n]
				}
			}
		}
		m.scroll()
	}

	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *InspectModel) scroll() {
	page := m.pageSize()
	if page <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
}

// pageSize is the number of tree rows that fit; 0 means unbounded.
func (m InspectModel) pageSize() int {
	if m.height == 0 {
		return 0
	}
	return max(m.height-6, 1)
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case ViewInspectMessages:
		content = m.renderTree()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := helpStyle.Render("up/down move, enter expands or collapses, q quits")
	return content + "\n" + help
}

func (m InspectModel) renderTree() string {
	if m.root == nil {
		return "Invalid data type for inspect_messages"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.root.Label))
	b.WriteString("\n")

	rows := flatten(m.root, m.collapsed)
	end := len(rows)
	if page := m.pageSize(); page > 0 {
		end = min(m.offset+page, len(rows))
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(rows[i], i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m InspectModel) renderRow(r row, selected bool) string {
	marker := " "
	if len(r.node.Children) > 0 {
		marker = "▾"
		if m.collapsed[r.node] {
			marker = "▸"
		}
	}

	line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", r.depth), marker, labelStyle.Render(r.node.Label))
	if r.node.Value != "" {
		line += " " + kindStyle(r.node.Kind).Render(r.node.Value)
	}
	if selected {
		return cursorStyle.Render(line)
	}
	return line
}

// keyMap defines key bindings.
type keyMap struct {
	Quit   key.Binding
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "expand/collapse"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders the whole tree without the TUI.
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	clear(model.collapsed)
	model.cursor = -1
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
