// Package config loads the runtime configuration from fts/ft.yaml and FT_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"

	"github.com/chriserin/ftrun/pkg/engine"
)

const (
	// DefaultPath is where ft init writes the configuration.
	DefaultPath = "fts/ft.yaml"

	envPrefix         = "FT_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// DefaultYAML is the configuration written by ft init. It is also the base
// layer every load starts from.
const DefaultYAML = `runtime:
  stop_at_first_error: false
  missing_or_pending_steps_outcome: pending
  obsolete_behavior: warn
  workers: 1
language:
  feature: ""
  binding: ""
trace:
  successful_steps: true
  timings: false
  min_traced_duration: 100ms
logging:
  level: warn
  format: console
analytics:
  enabled: false
`

type Config struct {
	Runtime   RuntimeConfig   `koanf:"runtime"`
	Language  LanguageConfig  `koanf:"language"`
	Trace     TraceConfig     `koanf:"trace"`
	Logging   LoggingConfig   `koanf:"logging"`
	Analytics AnalyticsConfig `koanf:"analytics"`
}

type RuntimeConfig struct {
	StopAtFirstError             bool   `koanf:"stop_at_first_error"`
	MissingOrPendingStepsOutcome string `koanf:"missing_or_pending_steps_outcome"`
	ObsoleteBehavior             string `koanf:"obsolete_behavior"`
	Workers                      int    `koanf:"workers"`
}

// LanguageConfig holds the default feature culture and the culture arguments
// are converted with.
type LanguageConfig struct {
	Feature string `koanf:"feature"`
	Binding string `koanf:"binding"`
}

type TraceConfig struct {
	SuccessfulSteps   bool          `koanf:"successful_steps"`
	Timings           bool          `koanf:"timings"`
	MinTracedDuration time.Duration `koanf:"min_traced_duration"`
}

type LoggingConfig struct {
	Level  zapcore.Level `koanf:"level"`
	Format string        `koanf:"format"`
}

type AnalyticsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the configuration described by DefaultYAML.
func Default() *Config {
	cfg, err := load(nil, nil)
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// Load reads the file at path on top of the defaults and applies FT_*
// environment variables last. A missing file is not an error. An empty path
// means DefaultPath.
//
// Environment variables map to keys by splitting on the first underscore:
//
//	FT_RUNTIME_STOP_AT_FIRST_ERROR -> runtime.stop_at_first_error
//	FT_TRACE_MIN_TRACED_DURATION   -> trace.min_traced_duration
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return load(content, env.Provider(envPrefix, ".", envKey))
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return content, nil
}

func load(content []byte, envProvider koanf.Provider) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(DefaultYAML)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}
	if len(content) > 0 {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}
	if envProvider != nil {
		if err := k.Load(envProvider, nil); err != nil {
			return nil, fmt.Errorf("loading environment variables: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envKey maps FT_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func applyDefaults(cfg *Config) {
	if cfg.Runtime.Workers < 1 {
		cfg.Runtime.Workers = 1
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks the values that cannot be expressed by their types.
func (c *Config) Validate() error {
	var errs []error
	if _, err := engine.ParseMissingOrPendingOutcome(c.Runtime.MissingOrPendingStepsOutcome); err != nil {
		errs = append(errs, fmt.Errorf("runtime.missing_or_pending_steps_outcome: %w", err))
	}
	if _, err := engine.ParseObsoleteBehavior(c.Runtime.ObsoleteBehavior); err != nil {
		errs = append(errs, fmt.Errorf("runtime.obsolete_behavior: %w", err))
	}
	for key, value := range map[string]string{
		"language.feature": c.Language.Feature,
		"language.binding": c.Language.Binding,
	} {
		if value == "" {
			continue
		}
		if _, err := language.Parse(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a language tag", key, value))
		}
	}
	if c.Trace.MinTracedDuration < 0 {
		errs = append(errs, errors.New("trace.min_traced_duration must not be negative"))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// Engine returns the engine configuration. project names the project in
// analytics events.
func (c *Config) Engine(project string) engine.Config {
	outcome, _ := engine.ParseMissingOrPendingOutcome(c.Runtime.MissingOrPendingStepsOutcome)
	obsolete, _ := engine.ParseObsoleteBehavior(c.Runtime.ObsoleteBehavior)
	return engine.Config{
		StopAtFirstError:        c.Runtime.StopAtFirstError,
		MissingOrPendingOutcome: outcome,
		ObsoleteBehavior:        obsolete,
		TraceSuccessfulSteps:    c.Trace.SuccessfulSteps,
		TraceTimings:            c.Trace.Timings,
		MinTracedDuration:       c.Trace.MinTracedDuration,
		BindingCulture:          c.Language.Binding,
		Project:                 project,
	}
}
