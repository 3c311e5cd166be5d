package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/skeltree/skeltree/pkg/morphio"
	"github.com/skeltree/skeltree/pkg/vec"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command for interactive exploration of a
// morphology file.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <morphology.morph.json>",
		Short: "Interactively browse the sections of a morphology file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := morphio.ReadFile(args[0])
			if err != nil {
				return err
			}
			model := NewSectionListModel(args[0], doc)
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}
}

// =============================================================================
// SectionListModel - Interactive section browsing
// =============================================================================

// SectionListModel is the bubbletea model for browsing morphology sections.
type SectionListModel struct {
	Title    string
	Doc      *morphio.Document
	Children [][]int
	Cursor   int
	Height   int
	Offset   int
	Expanded bool
}

// NewSectionListModel creates a new section list model.
func NewSectionListModel(title string, doc *morphio.Document) SectionListModel {
	return SectionListModel{
		Title:    title,
		Doc:      doc,
		Children: doc.Children(),
		Height:   15,
	}
}

func (m SectionListModel) Init() tea.Cmd {
	return nil
}

func (m SectionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Doc.Sections)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			m.Expanded = !m.Expanded
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m SectionListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ expand  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Doc.Sections) {
		end = len(m.Doc.Sections)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		s := m.Doc.Sections[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		parent := "soma"
		if s.Parent >= 0 {
			parent = "s" + strconv.Itoa(s.Parent)
		}

		rows = append(rows, []string{
			cursor,
			"s" + strconv.Itoa(i),
			s.Type,
			parent,
			strconv.Itoa(len(m.Children[i])),
			strconv.Itoa(len(s.Points)),
			fmt.Sprintf("%.3g", recordLength(s)),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Section", "Type", "Parent", "Children", "Points", "Length").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if m.Expanded && m.Cursor < len(m.Doc.Sections) {
		b.WriteString(m.renderPoints())
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  soma radius %.3g",
		m.Cursor+1, len(m.Doc.Sections), m.Doc.Soma.Radius)))

	return b.String()
}

// renderPoints shows the selected section's points, truncated when long.
func (m SectionListModel) renderPoints() string {
	const maxShown = 8

	var b strings.Builder
	s := m.Doc.Sections[m.Cursor]
	b.WriteString("\n")

	points := s.Points
	truncated := false
	if len(points) > maxShown {
		points = points[:maxShown]
		truncated = true
	}
	for _, p := range points {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("    (%.4g, %.4g, %.4g)  ⌀ %.4g",
			p.Pos.X, p.Pos.Y, p.Pos.Z, p.Diameter)))
		b.WriteString("\n")
	}
	if truncated {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("    … %d more", len(s.Points)-maxShown)))
		b.WriteString("\n")
	}
	return b.String()
}

func recordLength(s morphio.SectionRecord) float64 {
	var sum float64
	for i := 1; i < len(s.Points); i++ {
		sum += vec.Dist(s.Points[i-1].Pos, s.Points[i].Pos)
	}
	return sum
}
