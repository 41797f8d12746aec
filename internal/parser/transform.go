package parser

import (
	"strings"
)

// ParsedFile is the Layer 2 application model extracted from the AST.
type ParsedFile struct {
	Name        string
	Description string
	Language    string
	Tags        []string
	Background  []ParsedStep
	Scenarios   []ParsedScenario
	Errors      []ParseError
}

// ParsedScenario represents a single scenario extracted from a .ft file.
type ParsedScenario struct {
	Name        string // from Scenario: line
	Description string
	Tags        []string
	Line        int // 1-based line number of Scenario: line
	Steps       []ParsedStep
}

// ParsedStep is one step in execution order.
type ParsedStep struct {
	Keyword      string // Given, When, Then, And, But, *
	Text         string
	Line         int
	DocString    string
	HasDocString bool
	Table        *DataTable
}

// Ignored reports whether the scenario carries the @ignore tag.
func (s ParsedScenario) Ignored() bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, "@ignore") {
			return true
		}
	}
	return false
}

// Transform converts a Layer 1 Document into a Layer 2 ParsedFile.
func Transform(doc *Document, filename string, errors []ParseError) *ParsedFile {
	pf := &ParsedFile{
		Errors: errors,
	}

	if doc.Feature == nil {
		pf.Name = filenameWithoutExt(filename)
		return pf
	}

	h := doc.Feature.Header
	pf.Name = h.Name
	pf.Description = h.Description
	pf.Language = h.Language
	pf.Tags = tagNames(h.Tags)

	if bg := doc.Feature.Background; bg != nil {
		pf.Background = flatten(bg.StepGroups)
	}

	for _, sd := range doc.Feature.Scenarios {
		pf.Scenarios = append(pf.Scenarios, ParsedScenario{
			Name:        sd.Scenario.Name,
			Description: sd.Scenario.Description,
			Tags:        tagNames(sd.Tags),
			Line:        sd.Line,
			Steps:       flatten(sd.Scenario.StepGroups),
		})
	}

	return pf
}

// ParseFile parses and transforms content in one go.
func ParseFile(filename string, content []byte) *ParsedFile {
	doc, errors := Parse(filename, content)
	return Transform(doc, filename, errors)
}

func tagNames(tags []Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

func flatten(groups []StepGroup) []ParsedStep {
	var steps []ParsedStep
	for _, g := range groups {
		steps = append(steps, parsedStep(g.Step))
		for _, alt := range g.AltSteps {
			steps = append(steps, parsedStep(alt))
		}
	}
	return steps
}

func parsedStep(s Step) ParsedStep {
	ps := ParsedStep{Keyword: s.Keyword, Text: s.Text, Line: s.Line}
	if s.Argument == nil {
		return ps
	}
	if ds := s.Argument.DocString; ds != nil {
		ps.DocString = ds.Content
		ps.HasDocString = true
	}
	ps.Table = s.Argument.DataTable
	return ps
}

func filenameWithoutExt(filename string) string {
	name := filename
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return name
}
