package console

import (
	"fmt"
	"io"

	"property-desk/api"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	Success = lipgloss.Color("#8BC34A")
	Failure = lipgloss.Color("#e53935")
	Muted   = lipgloss.Color("#9e9e9e")
	Accent  = lipgloss.Color("#2196F3")
)

// Renderer prints menu text and results to w. Colors degrade to plain text
// when w is not a terminal.
type Renderer struct {
	w io.Writer
	r *lipgloss.Renderer

	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
}

func NewRenderer(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		w:       w,
		r:       r,
		success: r.NewStyle().Foreground(Success).Bold(true),
		failure: r.NewStyle().Foreground(Failure).Bold(true),
		muted:   r.NewStyle().Foreground(Muted).Italic(true),
		header:  r.NewStyle().Foreground(Accent).Bold(true).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
	}
}

func (r *Renderer) Text(text string) {
	fmt.Fprintln(r.w, text)
}

func (r *Renderer) Result(res api.Result) {
	switch res.Status {
	case api.Succeeded:
		fmt.Fprintln(r.w, r.success.Render(res.Message))
		if len(res.Rows) > 0 {
			fmt.Fprintln(r.w, r.table(res))
		}
	case api.Aborted:
		fmt.Fprintln(r.w, r.muted.Render(res.Message))
	default:
		msg := "Error: " + res.Message
		if res.Failure != nil && res.Failure.Field != "" {
			msg = fmt.Sprintf("Error (%s): %s", res.Failure.Field, res.Message)
		}
		fmt.Fprintln(r.w, r.failure.Render(msg))
	}
}

func (r *Renderer) table(res api.Result) string {
	columns := res.Columns
	if len(columns) == 0 {
		for _, f := range res.Rows[0] {
			columns = append(columns, f.Name)
		}
	}

	rows := make([][]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		cells := make([]string, len(columns))
		for i, name := range columns {
			cells[i] = row.String(name)
		}
		rows = append(rows, cells)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.r.NewStyle().Foreground(Muted)).
		Headers(columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.header
			}
			return r.cell
		}).
		String()
}
