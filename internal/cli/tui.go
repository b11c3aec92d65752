package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nanofab/descript/pkg/errors"
	"github.com/nanofab/descript/pkg/layout"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// CellListModel - Interactive top cell selection
// =============================================================================

// CellListModel is the bubbletea model for picking the traversal root
// when a library has several top-level cells.
type CellListModel struct {
	Cells    []*layout.Cell
	Cursor   int
	Selected *layout.Cell
}

// NewCellListModel creates a new cell list model.
func NewCellListModel(cells []*layout.Cell) CellListModel {
	return CellListModel{Cells: cells}
}

func (m CellListModel) Init() tea.Cmd {
	return nil
}

func (m CellListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Cells)-1 {
				m.Cursor++
			}
		case "enter":
			m.Selected = m.Cells[m.Cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m CellListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Top Cell"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, c := range m.Cells {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		info := fmt.Sprintf("%d polygons, %d refs", len(c.Polygons), len(c.Refs))
		line := fmt.Sprintf("%s%-24s %s", cursor, c.Name, listDimStyle.Render(info))

		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Cells))))

	return b.String()
}

// pickTopCell runs the interactive selector over the library's
// top-level cells and returns the chosen cell name. A single candidate
// is returned without showing the selector.
func pickTopCell(cells []*layout.Cell) (string, error) {
	if len(cells) == 0 {
		return "", errors.New(errors.ErrCodeResolution, "library has no top-level cells")
	}
	if len(cells) == 1 {
		return cells[0].Name, nil
	}

	res, err := tea.NewProgram(NewCellListModel(cells)).Run()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "top cell selector")
	}
	final, ok := res.(CellListModel)
	if !ok || final.Selected == nil {
		return "", errors.New(errors.ErrCodeCanceled, "no top cell selected")
	}
	return final.Selected.Name, nil
}
