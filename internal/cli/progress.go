package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/Alexis-ROYER/tsd-default-export/internal/harness"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	grayStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// progressPrinter writes one line per finished case:
//
//	>>> PASS: {"id":1,...} (812 ms, 25.97/26.0 minutes remaining)
type progressPrinter struct {
	w     io.Writer
	plain bool
}

func newProgressPrinter(w io.Writer, plain bool) *progressPrinter {
	return &progressPrinter{w: w, plain: plain}
}

func (p *progressPrinter) Print(pr harness.Progress) {
	status := fmt.Sprintf(">>> %s", pr.Case.Result)
	timing := fmt.Sprintf("(%d ms, %.2f/%.1f minutes remaining)",
		pr.CaseDuration.Milliseconds(), pr.Remaining.Minutes(), pr.Projected.Minutes())

	if !p.plain {
		if pr.Case.Passed() {
			status = passStyle.Render(status)
		} else {
			status = failStyle.Render(status)
		}
		timing = grayStyle.Render(timing)
	}

	fmt.Fprintf(p.w, "%s: %s %s\n", status, pr.Case.Label(), timing)
}
