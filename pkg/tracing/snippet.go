package tracing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/chriserin/ftrun/pkg/bindings"
)

var snippetArgs = regexp2.MustCompile(`"[^"]*"|(?<![\w.])-?\d+(?![\w.])`, regexp2.None)

// Snippet renders Go code registering a pending step definition for step.
// Quoted strings and integers in the text become parameters.
func Snippet(step bindings.StepInstance) string {
	pattern, params := snippetPattern(step.Text)
	if step.MultilineText != "" {
		params = append(params, "doc string")
	}
	if step.Table != nil {
		params = append(params, "table *bindings.Table")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "reg.%s(%s, func(%s) error {\n", step.Type, quotePattern(pattern), strings.Join(params, ", "))
	b.WriteString("\treturn bindings.Pending()\n")
	b.WriteString("})")
	return b.String()
}

func snippetPattern(text string) (string, []string) {
	var (
		b      strings.Builder
		params []string
		last   int
	)
	runes := []rune(text)
	m, _ := snippetArgs.FindStringMatch(text)
	for m != nil {
		b.WriteString(escapeLiteral(string(runes[last:m.Index])))
		if strings.HasPrefix(m.String(), `"`) {
			b.WriteString(`"(.*)"`)
			params = append(params, fmt.Sprintf("p%d string", len(params)))
		} else {
			b.WriteString(`(-?\d+)`)
			params = append(params, fmt.Sprintf("p%d int", len(params)))
		}
		last = m.Index + m.Length
		m, _ = snippetArgs.FindNextMatch(m)
	}
	b.WriteString(escapeLiteral(string(runes[last:])))
	return b.String(), params
}

// escapeLiteral escapes regex metacharacters, leaving spaces and # readable.
func escapeLiteral(s string) string {
	return literalUnescaper.Replace(regexp2.Escape(s))
}

var literalUnescaper = strings.NewReplacer(`\ `, " ", `\#`, "#")

func quotePattern(p string) string {
	if strings.Contains(p, "`") {
		return strconv.Quote(p)
	}
	return "`" + p + "`"
}
