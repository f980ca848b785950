// Package generator compiles a recorded action log into replayable
// artifacts: a Selenium Python script and a JMeter test plan.
package generator

import (
	"fmt"
	"strings"
	"sync"

	"sessionrecorder/backend/internal/models"
)

type Format string

const (
	FormatSelenium Format = "selenium"
	FormatJMeter   Format = "jmeter"
)

// DefaultFileName names artifacts when the caller gives no base name.
const DefaultFileName = "recorded_session"

// AllFormats lists the supported formats in their canonical order.
var AllFormats = []Format{FormatSelenium, FormatJMeter}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown script format %q", name)
}

// Artifact is one generated file.
type Artifact struct {
	Format      Format `json:"format"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	// Emitted counts actions that produced a step; Skipped counts actions
	// the format has no step for.
	Emitted int `json:"emitted"`
	Skipped int `json:"skipped"`
}

type Generator interface {
	Format() Format
	Extension() string
	ContentType() string
	Generate(actions []models.Action) Artifact
}

// Config tunes the waits written into Selenium scripts, in seconds. Zero
// fields take the DefaultConfig values.
type Config struct {
	WaitTimeout   int
	NavigateDelay int
	StepDelay     int
}

func DefaultConfig() Config {
	return Config{WaitTimeout: 10, NavigateDelay: 2, StepDelay: 1}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = d.WaitTimeout
	}
	if c.NavigateDelay <= 0 {
		c.NavigateDelay = d.NavigateDelay
	}
	if c.StepDelay <= 0 {
		c.StepDelay = d.StepDelay
	}
	return c
}

func New(format Format, cfg Config) (Generator, error) {
	switch format {
	case FormatSelenium:
		return NewSeleniumGenerator(cfg), nil
	case FormatJMeter:
		return NewJMeterGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown script format %q", format)
	}
}

type Options struct {
	// FileName is the base name shared by every artifact.
	FileName string
	// Formats selects the generators to run. Empty means all of them.
	Formats []Format
	Config  Config
}

// GenerateAll runs the selected generators concurrently and returns the
// artifacts in the order the formats were requested.
func GenerateAll(actions []models.Action, opts Options) ([]Artifact, error) {
	formats := opts.Formats
	if len(formats) == 0 {
		formats = AllFormats
	}
	base := strings.TrimSpace(opts.FileName)
	if base == "" {
		base = DefaultFileName
	}

	gens := make([]Generator, 0, len(formats))
	seen := make(map[Format]bool, len(formats))
	for _, f := range formats {
		if seen[f] {
			continue
		}
		seen[f] = true
		g, err := New(f, opts.Config)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}

	artifacts := make([]Artifact, len(gens))
	var wg sync.WaitGroup
	for i, g := range gens {
		wg.Add(1)
		go func(i int, g Generator) {
			defer wg.Done()
			a := g.Generate(actions)
			a.FileName = base + g.Extension()
			artifacts[i] = a
		}(i, g)
	}
	wg.Wait()

	return artifacts, nil
}
