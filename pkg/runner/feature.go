package runner

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chriserin/ftrun/internal/parser"
	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/contexts"
)

// Step is one step of a scenario as the engine executes it.
type Step struct {
	Keyword     bindings.StepKeyword
	KeywordText string
	Text        string
	DocString   string
	Table       *bindings.Table
	Line        int
}

type Scenario struct {
	Info contexts.ScenarioInfo
	// Ignored scenarios are reported without running.
	Ignored bool
	Steps   []Step
}

// Feature is a parsed feature ready to run. Background steps run before the
// steps of every scenario.
type Feature struct {
	Info       contexts.FeatureInfo
	Background []Step
	Scenarios  []Scenario
}

// ParseError describes every problem found in one feature file.
type ParseError struct {
	Path   string
	Errors []parser.ParseError
}

func (e *ParseError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, pe := range e.Errors {
		msgs[i] = fmt.Sprintf("%s:%d: %s", e.Path, pe.Line, pe.Message)
	}
	return strings.Join(msgs, "\n")
}

// LoadFeature reads and parses the feature file at path.
func LoadFeature(path string) (Feature, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Feature{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseFeature(path, content)
}

// LoadFeatures loads every path. The features that parsed are returned along
// with the errors of the others.
func LoadFeatures(paths []string) ([]Feature, error) {
	var (
		features []Feature
		errs     []error
	)
	for _, p := range paths {
		f, err := LoadFeature(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		features = append(features, f)
	}
	return features, errors.Join(errs...)
}

// ParseFeature turns the content of a feature file into a Feature.
func ParseFeature(path string, content []byte) (Feature, error) {
	pf := parser.ParseFile(path, content)
	if len(pf.Errors) > 0 {
		return Feature{}, &ParseError{Path: path, Errors: pf.Errors}
	}

	f := Feature{
		Info: contexts.FeatureInfo{
			Title:       pf.Name,
			Description: pf.Description,
			Tags:        pf.Tags,
			Language:    pf.Language,
			Path:        path,
		},
		Background: convertSteps(pf.Background),
	}
	featureIgnored := hasIgnoreTag(pf.Tags)
	for _, ps := range pf.Scenarios {
		f.Scenarios = append(f.Scenarios, Scenario{
			Info: contexts.ScenarioInfo{
				Title:       ps.Name,
				Description: ps.Description,
				Tags:        ps.Tags,
				Line:        ps.Line,
			},
			Ignored: featureIgnored || ps.Ignored(),
			Steps:   convertSteps(ps.Steps),
		})
	}
	return f, nil
}

func hasIgnoreTag(tags []string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, "@ignore") {
			return true
		}
	}
	return false
}

func convertSteps(parsed []parser.ParsedStep) []Step {
	steps := make([]Step, 0, len(parsed))
	for _, ps := range parsed {
		kw, _ := bindings.ParseKeyword(ps.Keyword)
		s := Step{
			Keyword:     kw,
			KeywordText: ps.Keyword + " ",
			Text:        ps.Text,
			Line:        ps.Line,
		}
		if ps.HasDocString {
			s.DocString = ps.DocString
		}
		if ps.Table != nil {
			s.Table = bindings.NewTable(ps.Table.HeaderRow...)
			for _, row := range ps.Table.Rows {
				s.Table.AddRow(row...)
			}
		}
		steps = append(steps, s)
	}
	return steps
}
