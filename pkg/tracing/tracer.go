package tracing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/chriserin/ftrun/pkg/bindings"
)

// Tracer reports execution progress in human readable form.
type Tracer interface {
	TraceStep(step bindings.StepInstance, showAdditionalArguments bool)
	TraceWarning(text string)
	TraceStepDone(match bindings.BindingMatch, args []any, d time.Duration)
	TraceStepSkipped()
	TraceStepPending(match bindings.BindingMatch, args []any)
	TraceBindingError(err error)
	TraceError(err error, d time.Duration)
	TraceNoMatchingStepDefinition(step bindings.StepInstance, culture string, candidates []bindings.BindingMatch)
	TraceDuration(d time.Duration, text string)
}

var (
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	skippedStyle = lipgloss.NewStyle().Faint(true)
)

// TextTracer writes trace lines to a Listener.
type TextTracer struct {
	listener Listener
}

func NewTextTracer(l Listener) *TextTracer {
	return &TextTracer{listener: l}
}

func (t *TextTracer) TraceStep(step bindings.StepInstance, showAdditionalArguments bool) {
	var b strings.Builder
	b.WriteString(step.String())
	if showAdditionalArguments {
		if step.MultilineText != "" {
			b.WriteString("\n  --- multiline step argument ---\n")
			for _, line := range strings.Split(step.MultilineText, "\n") {
				b.WriteString("  " + line + "\n")
			}
		}
		if step.Table != nil {
			b.WriteString("\n  --- table step argument ---\n")
			for _, line := range strings.Split(strings.TrimRight(step.Table.String(), "\n"), "\n") {
				b.WriteString("  " + line + "\n")
			}
		}
	}
	t.listener.WriteTestOutput(strings.TrimRight(b.String(), "\n"))
}

func (t *TextTracer) TraceWarning(text string) {
	t.listener.WriteToolOutput(warnStyle.Render("warning: " + text))
}

func (t *TextTracer) TraceStepDone(match bindings.BindingMatch, args []any, d time.Duration) {
	t.listener.WriteToolOutput(doneStyle.Render(fmt.Sprintf("done: %s (%s)", bindings.FormatMatch(match, args), formatDuration(d))))
}

func (t *TextTracer) TraceStepSkipped() {
	t.listener.WriteToolOutput(skippedStyle.Render("skipped because of previous errors"))
}

func (t *TextTracer) TraceStepPending(match bindings.BindingMatch, args []any) {
	t.listener.WriteToolOutput(warnStyle.Render("pending: " + bindings.FormatMatch(match, args)))
}

func (t *TextTracer) TraceBindingError(err error) {
	t.listener.WriteToolOutput(errorStyle.Render("binding error: " + err.Error()))
}

func (t *TextTracer) TraceError(err error, d time.Duration) {
	msg := fmt.Sprintf("error: %s (%s)", err, formatDuration(d))
	var pe *bindings.PanicError
	if errors.As(err, &pe) {
		msg += "\n" + string(pe.Stack)
	}
	t.listener.WriteToolOutput(errorStyle.Render(msg))
}

func (t *TextTracer) TraceNoMatchingStepDefinition(step bindings.StepInstance, culture string, candidates []bindings.BindingMatch) {
	var b strings.Builder
	if len(candidates) > 0 {
		b.WriteString("No matching step definition found for the step. There are matching step definitions, but none of them have matching scope for this step:")
		for _, c := range candidates {
			b.WriteString("\n  " + c.StepBinding.String())
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No matching step definition found for the step. Use the following code to create one:\n")
	}
	b.WriteString(Snippet(step))
	if culture != "" {
		b.WriteString("\n// register it for culture " + culture + " with bindings.WithCulture(\"" + culture + "\")")
	}
	t.listener.WriteToolOutput(warnStyle.Render(b.String()))
}

func (t *TextTracer) TraceDuration(d time.Duration, text string) {
	t.listener.WriteToolOutput(fmt.Sprintf("duration: %s: %s", text, formatDuration(d)))
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// NopTracer discards everything.
type NopTracer struct{}

func (NopTracer) TraceStep(bindings.StepInstance, bool)                        {}
func (NopTracer) TraceWarning(string)                                          {}
func (NopTracer) TraceStepDone(bindings.BindingMatch, []any, time.Duration)    {}
func (NopTracer) TraceStepSkipped()                                            {}
func (NopTracer) TraceStepPending(bindings.BindingMatch, []any)                {}
func (NopTracer) TraceBindingError(error)                                      {}
func (NopTracer) TraceError(error, time.Duration)                              {}
func (NopTracer) TraceNoMatchingStepDefinition(bindings.StepInstance, string, []bindings.BindingMatch) {
}
func (NopTracer) TraceDuration(time.Duration, string) {}
