package parser

import (
	"regexp"
	"strings"
)

var (
	tagPattern      = regexp.MustCompile(`@[^@\s]+`)
	languagePattern = regexp.MustCompile(`^#\s*language\s*:\s*(\S+)`)
)

var stepKeywords = []string{"Given", "When", "Then", "And", "But"}

// Parse parses a .ft file and returns a Document AST and any parse errors.
func Parse(filename string, content []byte) (*Document, []ParseError) {
	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	var errors []ParseError

	doc := &Document{}
	feature := &Feature{}
	doc.Feature = feature

	i := 0

	// Skip leading blanks and comments, picking up the language header
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if m := languagePattern.FindStringSubmatch(trimmed); m != nil {
			feature.Header.Language = m[1]
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			i++
			continue
		}
		break
	}

	// Collect feature-level tags
	var featureTags []Tag
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if isTagLine(trimmed) {
			featureTags = append(featureTags, parseTags(trimmed)...)
			i++
			continue
		}
		break
	}
	feature.Header.Tags = featureTags
	feature.Header.Name = filenameWithoutExt(filename)

	if i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "Feature:") {
			feature.Header.Name = strings.TrimSpace(strings.TrimPrefix(trimmed, "Feature:"))
			i++

			// Scan description lines until keyword or tag
			var descLines []string
			for i < len(lines) {
				trimmed := strings.TrimSpace(lines[i])
				if isKeyword(trimmed) || isTagLine(trimmed) {
					break
				}
				if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
					descLines = append(descLines, trimmed)
				}
				i++
			}
			feature.Header.Description = strings.Join(descLines, "\n")
		}
	}

	// Body loop
	var pendingTags []Tag
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			i++
			continue
		}

		if isTagLine(trimmed) {
			pendingTags = append(pendingTags, parseTags(trimmed)...)
			i++
			continue
		}

		if strings.HasPrefix(trimmed, "Background:") {
			if feature.Background != nil {
				errors = append(errors, ParseError{Line: i + 1, Message: "only one Background is allowed"})
			}
			pendingTags = nil // Background doesn't get tags
			bg := &Background{Line: i + 1}
			i++
			var errs []ParseError
			bg.Description, bg.StepGroups, i, errs = parseBlock(lines, i)
			errors = append(errors, errs...)
			feature.Background = bg
			continue
		}

		if strings.HasPrefix(trimmed, "Scenario:") {
			sd := ScenarioDefinition{
				Tags:     pendingTags,
				Scenario: Scenario{Name: strings.TrimSpace(strings.TrimPrefix(trimmed, "Scenario:"))},
				Line:     i + 1,
			}
			pendingTags = nil
			i++
			var errs []ParseError
			sd.Scenario.Description, sd.Scenario.StepGroups, i, errs = parseBlock(lines, i)
			errors = append(errors, errs...)
			feature.Scenarios = append(feature.Scenarios, sd)
			continue
		}

		// Unsupported keywords
		if msg, ok := unsupported(trimmed); ok {
			errors = append(errors, ParseError{Line: i + 1, Message: msg})
			pendingTags = nil
			i++
			i = consumeBlock(lines, i)
			continue
		}

		errors = append(errors, ParseError{Line: i + 1, Message: "expected a Scenario or Background"})
		i++
	}

	return doc, errors
}

func unsupported(trimmed string) (string, bool) {
	switch {
	case strings.HasPrefix(trimmed, "Scenario Outline:"):
		return "Scenario Outline is not supported", true
	case strings.HasPrefix(trimmed, "Rule:"):
		return "Rule is not supported", true
	case strings.HasPrefix(trimmed, "Examples:"):
		return "Examples is not supported", true
	}
	return "", false
}

// parseBlock reads the description and steps of a Scenario or Background,
// starting after its keyword line. It stops at the next keyword, at tags
// preceding one, or at EOF.
func parseBlock(lines []string, i int) (string, []StepGroup, int, []ParseError) {
	var (
		desc   []string
		groups []StepGroup
		errs   []ParseError
	)
	for i < len(lines) {
		t := strings.TrimSpace(lines[i])
		switch {
		case t == "" || strings.HasPrefix(t, "#"):
			i++

		case isKeyword(t):
			return strings.Join(desc, "\n"), groups, i, errs

		case isTagLine(t):
			if tagPrecedesKeyword(lines, i) {
				return strings.Join(desc, "\n"), groups, i, errs
			}
			errs = append(errs, ParseError{Line: i + 1, Message: "tags must precede a Scenario"})
			i++

		case isDocStringDelimiter(t):
			ds, next, ok := readDocString(lines, i)
			if !ok {
				errs = append(errs, ParseError{Line: i + 1, Message: "unterminated doc string"})
			}
			if err := attach(groups, i, &StepArgument{DocString: ds}); err != nil {
				errs = append(errs, *err)
			}
			i = next

		case strings.HasPrefix(t, "|"):
			table, next, tableErrs := readTable(lines, i)
			errs = append(errs, tableErrs...)
			if err := attach(groups, i, &StepArgument{DataTable: table}); err != nil {
				errs = append(errs, *err)
			}
			i = next

		default:
			if keyword, text, ok := splitStep(t); ok {
				s := Step{Keyword: keyword, Text: text, Line: i + 1}
				if len(groups) == 0 || isPrimary(keyword) {
					groups = append(groups, StepGroup{Step: s})
				} else {
					g := &groups[len(groups)-1]
					g.AltSteps = append(g.AltSteps, s)
				}
			} else if len(groups) == 0 {
				desc = append(desc, t)
			} else {
				errs = append(errs, ParseError{Line: i + 1, Message: "expected a step, a table or a doc string"})
			}
			i++
		}
	}
	return strings.Join(desc, "\n"), groups, i, errs
}

// attach sets the argument of the last step in groups.
func attach(groups []StepGroup, i int, arg *StepArgument) *ParseError {
	if len(groups) == 0 {
		return &ParseError{Line: i + 1, Message: "step argument without a step"}
	}
	g := &groups[len(groups)-1]
	step := &g.Step
	if n := len(g.AltSteps); n > 0 {
		step = &g.AltSteps[n-1]
	}
	if step.Argument != nil {
		return &ParseError{Line: i + 1, Message: "step already has an argument"}
	}
	step.Argument = arg
	return nil
}

func splitStep(trimmed string) (string, string, bool) {
	if strings.HasPrefix(trimmed, "* ") {
		return "*", strings.TrimSpace(trimmed[2:]), true
	}
	for _, kw := range stepKeywords {
		if strings.HasPrefix(trimmed, kw+" ") {
			return kw, strings.TrimSpace(trimmed[len(kw):]), true
		}
	}
	return "", "", false
}

func isPrimary(keyword string) bool {
	return keyword == "Given" || keyword == "When" || keyword == "Then"
}

// readDocString reads the doc string opening at line i. Content lines lose
// the indentation of the opening delimiter. It reports false when EOF came
// before the closing delimiter.
func readDocString(lines []string, i int) (*DocString, int, bool) {
	opener := strings.TrimSpace(lines[i])
	delimiter := `"""`
	if strings.HasPrefix(opener, "```") {
		delimiter = "```"
	}
	indent := len(lines[i]) - len(strings.TrimLeft(lines[i], " \t"))
	ds := &DocString{MediaType: strings.TrimSpace(strings.TrimPrefix(opener, delimiter))}

	var content []string
	for i++; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			ds.Content = strings.Join(content, "\n")
			return ds, i + 1, true
		}
		line := dedent(lines[i], indent)
		content = append(content, strings.ReplaceAll(line, `\`+delimiter, delimiter))
	}
	ds.Content = strings.Join(content, "\n")
	return ds, i, false
}

func dedent(line string, indent int) string {
	n := 0
	for n < indent && n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return line[n:]
}

// readTable reads consecutive table rows starting at line i. The first row
// is the header.
func readTable(lines []string, i int) (*DataTable, int, []ParseError) {
	var (
		rows [][]string
		errs []ParseError
	)
	for ; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if strings.HasPrefix(t, "#") {
			continue
		}
		if !strings.HasPrefix(t, "|") {
			break
		}
		row := splitRow(t)
		if len(rows) > 0 && len(row) != len(rows[0]) {
			errs = append(errs, ParseError{Line: i + 1, Message: "inconsistent cell count within the table"})
			continue
		}
		rows = append(rows, row)
	}
	return &DataTable{HeaderRow: rows[0], Rows: rows[1:]}, i, errs
}

// splitRow splits a table row into trimmed cells. \| is a literal pipe, \n a
// newline and \\ a backslash.
func splitRow(t string) []string {
	t = strings.TrimPrefix(t, "|")
	if strings.HasSuffix(t, "|") && !strings.HasSuffix(t, `\|`) {
		t = strings.TrimSuffix(t, "|")
	}

	var (
		cells []string
		b     strings.Builder
	)
	for k := 0; k < len(t); k++ {
		c := t[k]
		switch {
		case c == '\\' && k+1 < len(t) && (t[k+1] == '|' || t[k+1] == '\\'):
			b.WriteByte(t[k+1])
			k++
		case c == '\\' && k+1 < len(t) && t[k+1] == 'n':
			b.WriteByte('\n')
			k++
		case c == '|':
			cells = append(cells, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return append(cells, strings.TrimSpace(b.String()))
}

func parseTags(line string) []Tag {
	matches := tagPattern.FindAllString(line, -1)
	var tags []Tag
	for _, m := range matches {
		tags = append(tags, Tag{Name: m})
	}
	return tags
}

func isTagLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "@")
}

func isKeyword(trimmed string) bool {
	return strings.HasPrefix(trimmed, "Feature:") ||
		strings.HasPrefix(trimmed, "Background:") ||
		strings.HasPrefix(trimmed, "Scenario:") ||
		strings.HasPrefix(trimmed, "Scenario Outline:") ||
		strings.HasPrefix(trimmed, "Rule:") ||
		strings.HasPrefix(trimmed, "Examples:")
}

func isDocStringDelimiter(trimmed string) bool {
	return strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "```")
}

// consumeBlock advances past the content of an unsupported block, skipping
// over doc strings, until the next keyword, tag line, or EOF.
func consumeBlock(lines []string, i int) int {
	for i < len(lines) {
		t := strings.TrimSpace(lines[i])
		if isDocStringDelimiter(t) {
			_, i, _ = readDocString(lines, i)
			continue
		}
		if isKeyword(t) || isTagLine(t) {
			break
		}
		i++
	}
	return i
}

// tagPrecedesKeyword checks if a tag line at index i is followed by a Scenario: or keyword line.
func tagPrecedesKeyword(lines []string, i int) bool {
	for j := i + 1; j < len(lines); j++ {
		t := strings.TrimSpace(lines[j])
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		if strings.HasPrefix(t, "@") {
			continue
		}
		return isKeyword(t)
	}
	return false
}
