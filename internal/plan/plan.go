// Package plan loads and validates the release plan descriptor that
// drives a pipeline invocation.
package plan

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/release.v1.schema.json
var schemaFS embed.FS

// FileName is the release plan descriptor file.
const FileName = "release.json"

// Plan describes one release: what to build, for which targets, and
// where outputs go. Version numbers are resolved externally and only
// recorded here.
type Plan struct {
	Project   string   `json:"project"`
	Version   string   `json:"version"`
	Targets   []string `json:"targets,omitempty"`
	OutputDir string   `json:"outputDir,omitempty"`
	Locked    *bool    `json:"locked,omitempty"`
	Sdist     *bool    `json:"sdist,omitempty"`
}

// Load reads and validates a release plan.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read release plan: %w", err)
	}

	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("invalid release plan %s: %w", path, err)
	}

	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse release plan %s: %w", path, err)
	}
	return &p, nil
}

// Find locates the release plan starting at dir and walking upward.
func Find(dir string) (string, error) {
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("no %s found (searched upward from the current directory)", FileName)
}

// Validate checks a raw release plan against the embedded JSON Schema.
func Validate(data []byte) error {
	schemaBytes, err := schemaFS.ReadFile("schemas/release.v1.schema.json")
	if err != nil {
		return fmt.Errorf("failed to load embedded schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("schema violations:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// LockedOrDefault returns the locked flag; reproducible builds are the
// default.
func (p *Plan) LockedOrDefault() bool {
	if p.Locked == nil {
		return true
	}
	return *p.Locked
}

// SdistOrDefault returns the sdist flag; building the source
// distribution is the default.
func (p *Plan) SdistOrDefault() bool {
	if p.Sdist == nil {
		return true
	}
	return *p.Sdist
}

// OutputDirOrDefault returns the output root, defaulting to "dist".
func (p *Plan) OutputDirOrDefault() string {
	if p.OutputDir == "" {
		return "dist"
	}
	return p.OutputDir
}
