package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/pardetect/pkg/detect"
	"github.com/matzehuels/pardetect/pkg/pipeline"
)

func TestNewResultListModel(t *testing.T) {
	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	res, err := runner.Detect(context.Background(), reductionInput(), pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}

	m := NewResultListModel(res)
	if len(m.Rows) != res.Count() {
		t.Fatalf("rows = %d, want %d", len(m.Rows), res.Count())
	}
	row := m.Rows[0]
	if row.Pattern != detect.PatternReduction || row.Anchor != "0:1" {
		t.Errorf("first row = %+v", row)
	}
	if !strings.Contains(row.Detail, "reduction(+:sum)") {
		t.Errorf("detail = %q", row.Detail)
	}
}

func testRows(n int) []resultRow {
	rows := make([]resultRow, n)
	for i := range rows {
		rows[i] = resultRow{ID: i, Pattern: detect.PatternDoAll, Anchor: "0:1", Detail: "no loop-carried dependencies"}
	}
	return rows
}

func send(m tea.Model, msg tea.Msg) (ResultListModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(ResultListModel), cmd
}

func TestResultListNavigation(t *testing.T) {
	m := ResultListModel{Rows: testRows(3), Height: 2}

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Cursor != 0 {
		t.Errorf("cursor moved above first row: %d", m.Cursor)
	}

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Cursor != 2 || m.Offset != 1 {
		t.Errorf("cursor=%d offset=%d, want 2 and 1", m.Cursor, m.Offset)
	}

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Cursor != 2 {
		t.Errorf("cursor moved past last row: %d", m.Cursor)
	}

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Cursor != 0 || m.Offset != 0 {
		t.Errorf("cursor=%d offset=%d, want 0 and 0", m.Cursor, m.Offset)
	}
}

func TestResultListExpandAndQuit(t *testing.T) {
	m := ResultListModel{Rows: testRows(1), Height: 5}

	if strings.Contains(m.View(), "loop-carried") {
		t.Error("detail shown before expanding")
	}
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Expanded || !strings.Contains(m.View(), "loop-carried") {
		t.Error("enter did not expand the selected result")
	}

	_, cmd := send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q did not return a quit command")
	}
}

func TestResultListWindowSize(t *testing.T) {
	m := ResultListModel{Rows: testRows(1), Height: 15}
	m, _ = send(m, tea.WindowSizeMsg{Width: 80, Height: 8})
	if m.Height != 5 {
		t.Errorf("Height = %d, want minimum 5", m.Height)
	}
}
