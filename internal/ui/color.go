package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/chriserin/ftrun/internal/db"
	"github.com/chriserin/ftrun/pkg/runner"
)

var (
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func outcomeStyle(o runner.Outcome) lipgloss.Style {
	switch o {
	case runner.Passed:
		return passStyle
	case runner.Failed:
		return failStyle
	case runner.Pending:
		return pendingStyle
	default:
		return faintStyle
	}
}

// statusLabel pads before styling so escape codes do not break alignment.
func statusLabel(o runner.Outcome) string {
	return outcomeStyle(o).Render(fmt.Sprintf("%-7s", o.String()))
}

// ResultLine prints one scenario result. Failures and skips carry their
// error on the following lines.
func ResultLine(w io.Writer, res runner.ScenarioResult) {
	fmt.Fprintf(w, "%s  %s:%d  %s\n", statusLabel(res.Outcome), res.Path, res.Line, res.Scenario)
	if res.Err == nil {
		return
	}
	switch res.Outcome {
	case runner.Failed, runner.Skipped:
		fmt.Fprintln(w, indent(res.Err.Error(), "         "))
	}
}

// Results prints every result of report followed by the missing steps and
// the summary.
func Results(w io.Writer, report *runner.Report) {
	for _, res := range report.Results {
		ResultLine(w, res)
	}
	if report.Err != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, failStyle.Render("run error"))
		fmt.Fprintln(w, indent(report.Err.Error(), "  "))
	}
	MissingSteps(w, report.MissingSteps())
	SummaryLine(w, report)
}

// MissingSteps prints code for the undefined steps of a run.
func MissingSteps(w io.Writer, snippets []string) {
	if len(snippets) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, pendingStyle.Render("You can implement the undefined steps with:"))
	for _, s := range snippets {
		fmt.Fprintln(w)
		fmt.Fprintln(w, indent(s, "  "))
	}
}

func SummaryLine(w io.Writer, report *runner.Report) {
	var parts []string
	for _, o := range []runner.Outcome{runner.Passed, runner.Failed, runner.Pending, runner.Skipped, runner.Ignored} {
		if n := report.Count(o); n > 0 {
			parts = append(parts, outcomeStyle(o).Render(fmt.Sprintf("%d %s", n, o)))
		}
	}
	fmt.Fprintln(w)
	if len(parts) == 0 {
		fmt.Fprintf(w, "0 scenarios in %s\n", report.Duration.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(w, "%d scenarios (%s) in %s\n", len(report.Results), strings.Join(parts, ", "),
		report.Duration.Round(time.Millisecond))
}

// StatusReport prints the latest status counts and the last run.
func StatusReport(w io.Writer, counts []db.StatusCount, last *db.Run) {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	fmt.Fprintf(w, "Scenarios: %d\n", total)
	for _, c := range counts {
		style := faintStyle
		if o, ok := runner.ParseOutcome(c.Status); ok {
			style = outcomeStyle(o)
		}
		fmt.Fprintf(w, "  %s: %d\n", style.Render(c.Status), c.Count)
	}

	if last == nil {
		fmt.Fprintln(w, faintStyle.Render("No runs recorded"))
		return
	}
	result := passStyle.Render("passed")
	if last.Failed {
		result = failStyle.Render("failed")
	}
	fmt.Fprintf(w, "Last run: %s %s at %s (%s)\n", last.ID, result,
		last.Started.Local().Format(time.DateTime), last.Duration.Round(time.Millisecond))
}

// ScenarioLine prints the latest status of one scenario.
func ScenarioLine(w io.Writer, s db.ScenarioStatus) {
	label := faintStyle.Render(fmt.Sprintf("%-11s", s.Status))
	if o, ok := runner.ParseOutcome(s.Status); ok {
		label = outcomeStyle(o).Render(fmt.Sprintf("%-11s", s.Status))
	}
	fmt.Fprintf(w, "%s  %s:%d  %s\n", label, s.Path, s.Line, s.Scenario)
}

// StepLine prints one registered step definition.
func StepLine(w io.Writer, kind, pattern, method, scope string) {
	line := fmt.Sprintf("%s  %s  %s", passStyle.Render(fmt.Sprintf("%-5s", kind)), pattern, faintStyle.Render(method))
	if scope != "" {
		line += "  " + faintStyle.Render("["+scope+"]")
	}
	fmt.Fprintln(w, line)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
