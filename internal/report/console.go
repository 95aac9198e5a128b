package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

// ConsoleEmitter renders the output protocol for a human: progress as status
// lines, the terminal envelope as a one-line verdict plus an optional table.
type ConsoleEmitter struct {
	w io.Writer
}

// NewConsoleEmitter creates an emitter rendering to w.
func NewConsoleEmitter(w io.Writer) *ConsoleEmitter {
	return &ConsoleEmitter{w: w}
}

func (e *ConsoleEmitter) Progress(p Progress) {
	fmt.Fprintf(e.w, "%s %s\n", dimStyle.Render(fmt.Sprintf("[%3.0f%%]", p.Fraction*100)), p.Status)
}

func (e *ConsoleEmitter) Result(r *Result) error {
	var verdict string
	switch r.Code {
	case CodeError:
		verdict = errorStyle.Render("ERROR")
	case CodeWarning:
		verdict = warningStyle.Render("WARNING")
	default:
		verdict = successStyle.Render("SUCCESS")
	}

	if _, err := fmt.Fprintf(e.w, "%s %s\n", verdict, r.Description); err != nil {
		return err
	}

	if r.Table != nil {
		if err := e.renderTable(r.Table); err != nil {
			return err
		}
	}

	return nil
}

func (e *ConsoleEmitter) renderTable(t *Table) error {
	if t.Title != "" {
		if _, err := fmt.Fprintln(e.w, titleStyle.Render(t.Title)); err != nil {
			return err
		}
	}

	rendered := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(t.Columns...).
		Rows(t.Rows...).
		Render()

	if _, err := fmt.Fprintln(e.w, rendered); err != nil {
		return err
	}

	if t.Caption != "" {
		if _, err := fmt.Fprintln(e.w, dimStyle.Render(t.Caption)); err != nil {
			return err
		}
	}

	return nil
}
