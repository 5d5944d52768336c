package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pardetect/pkg/detect"
	"github.com/matzehuels/pardetect/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var opts detectOpts

	cmd := &cobra.Command{
		Use:   "browse <input>",
		Short: "Browse detection results interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.task, "task", false, "also run task-parallelism detection")
	cmd.Flags().BoolVar(&opts.keepDummies, "keep-dummies", false, "keep dummy units in the graph")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, input string, opts detectOpts) error {
	ctx = withLogger(ctx, c.Logger)

	in, err := loadInput(ctx, input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := detectWithSpinner(ctx, runner, in, c.pipelineOptions(opts))
	if err != nil {
		return err
	}
	if res.Count() == 0 {
		printInfo("No patterns found")
		return nil
	}

	_, err = tea.NewProgram(NewResultListModel(res), tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// ResultListModel - Interactive result browser
// =============================================================================

// resultRow is one result as shown in the list.
type resultRow struct {
	ID      int
	Pattern detect.Pattern
	Anchor  string
	Detail  string
}

// ResultListModel is the bubbletea model for browsing detection results.
type ResultListModel struct {
	Rows     []resultRow
	Cursor   int
	Height   int
	Offset   int
	Expanded bool
}

// NewResultListModel lists every result of res in detection order.
func NewResultListModel(res *pipeline.Result) ResultListModel {
	var rows []resultRow
	for _, r := range res.All() {
		anchor := "—"
		if nodes := r.Nodes(); len(nodes) > 0 {
			anchor = nodes[0].String()
		}
		rows = append(rows, resultRow{
			ID:      r.ID(),
			Pattern: r.Pattern(),
			Anchor:  anchor,
			Detail:  r.Describe(res.Graph),
		})
	}
	return ResultListModel{Rows: rows, Height: 15}
}

func (m ResultListModel) Init() tea.Cmd {
	return nil
}

func (m ResultListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			m.Expanded = !m.Expanded
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ResultListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Detected Patterns"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Rows) {
		end = len(m.Rows)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, strconv.Itoa(r.ID), string(r.Pattern), r.Anchor})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Pattern", "At").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col == 1 {
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	if m.Expanded && m.Cursor < len(m.Rows) {
		b.WriteString(detailStyle.Render(m.Rows[m.Cursor].Detail))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}
