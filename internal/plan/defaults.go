package plan

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultsFileName is the optional per-workspace defaults file.
const DefaultsFileName = ".relpack.yaml"

// Defaults are workspace-level settings merged under the release plan:
// a value set in the plan always wins.
type Defaults struct {
	OutputDir string `yaml:"output_dir,omitempty"`
	Locked    *bool  `yaml:"locked,omitempty"`
	Sdist     *bool  `yaml:"sdist,omitempty"`
}

// LoadDefaults reads .relpack.yaml from root. A missing file yields
// empty defaults, not an error.
func LoadDefaults(root string) (*Defaults, error) {
	data, err := os.ReadFile(filepath.Join(root, DefaultsFileName))
	if os.IsNotExist(err) {
		return &Defaults{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", DefaultsFileName, err)
	}

	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DefaultsFileName, err)
	}
	return &d, nil
}

// ApplyDefaults fills unset plan fields from workspace defaults.
func (p *Plan) ApplyDefaults(d *Defaults) {
	if p.OutputDir == "" {
		p.OutputDir = d.OutputDir
	}
	if p.Locked == nil {
		p.Locked = d.Locked
	}
	if p.Sdist == nil {
		p.Sdist = d.Sdist
	}
}
