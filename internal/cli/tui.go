package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/autoinstall/pkg/modules"
	"github.com/matzehuels/autoinstall/pkg/store"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// statusModel - Interactive collection browser
// =============================================================================

// statusModel is the bubbletea model behind "status -i". Tabs switch between
// the four collections; the cursor scrolls within one.
type statusModel struct {
	root   string
	state  store.State
	tab    int
	cursor int
	offset int
	height int
}

func newStatusModel(root string, st store.State) statusModel {
	return statusModel{root: root, state: st, height: 15}
}

func (m statusModel) current() []modules.Module {
	return m.state.Get(modules.Collections()[m.tab])
}

func (m statusModel) Init() tea.Cmd {
	return nil
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.tab = (m.tab + 1) % modules.NumCollections
			m.cursor, m.offset = 0, 0
		case "shift+tab", "left", "h":
			m.tab = (m.tab + modules.NumCollections - 1) % modules.NumCollections
			m.cursor, m.offset = 0, 0
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.current())-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 8
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m statusModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Modules"))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(m.root))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ collection  ↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	var tabs []string
	for i, c := range modules.Collections() {
		label := fmt.Sprintf(" %s %d ", collectionTitle(c), len(m.state.Get(c)))
		if i == m.tab {
			tabs = append(tabs, listSelectedStyle.Render("["+label+"]"))
		} else {
			tabs = append(tabs, listNormalStyle.Render(" "+label+" "))
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n")

	mods := m.current()
	if len(mods) == 0 {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("  (empty)"))
		b.WriteString("\n")
		return b.String()
	}

	end := m.offset + m.height
	if end > len(mods) {
		end = len(mods)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		mod := mods[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		kind := "prod"
		if mod.Dev {
			kind = "dev"
		}
		file := "-"
		if mod.SourceFile != "" {
			file = relPath(m.root, mod.SourceFile)
		}
		rows = append(rows, []string{cursor, mod.Name, kind, file})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Kind", "File").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(mods))))

	return b.String()
}
