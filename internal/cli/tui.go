package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/polytunnel/polytunnel/pkg/maven"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// SearchPickerModel is the bubbletea model behind "search --pick".
type SearchPickerModel struct {
	Docs     []maven.SearchDoc
	Cursor   int
	Offset   int
	Height   int
	Selected *maven.SearchDoc
}

// NewSearchPickerModel creates a picker over docs.
func NewSearchPickerModel(docs []maven.SearchDoc) SearchPickerModel {
	return SearchPickerModel{Docs: docs, Height: 15}
}

func (m SearchPickerModel) Init() tea.Cmd {
	return nil
}

func (m SearchPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Docs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Docs) == 0 {
				return m, tea.Quit
			}
			doc := m.Docs[m.Cursor]
			m.Selected = &doc
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m SearchPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Artifact"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Docs))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Docs[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		count := ""
		if d.VersionCount > 0 {
			count = strconv.Itoa(d.VersionCount)
		}
		rows = append(rows, []string{cursor, d.GroupID, d.ArtifactID, d.Coordinate().Version, count})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Group", "Artifact", "Latest", "Versions").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 4 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Docs)), len(m.Docs))))
	return b.String()
}

// pickSearchResult runs the picker and returns the chosen doc, or nil if
// the user quit.
func pickSearchResult(docs []maven.SearchDoc) (*maven.SearchDoc, error) {
	final, err := tea.NewProgram(NewSearchPickerModel(docs)).Run()
	if err != nil {
		return nil, err
	}
	return final.(SearchPickerModel).Selected, nil
}
