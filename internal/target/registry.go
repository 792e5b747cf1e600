package target

import "fmt"

// UnknownTargetError reports a requested triple that is not in the registry.
type UnknownTargetError struct {
	Triple string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown target %q (run 'relpack targets' to list supported targets)", e.Triple)
}

// Registry is the ordered, static list of supported targets. Downstream
// components derive all per-platform behavior from Target fields, so adding
// a target here is the only change needed to support it.
type Registry struct {
	targets []Target
}

// DefaultRegistry returns the registry of targets releases are built for.
func DefaultRegistry() *Registry {
	return &Registry{
		targets: []Target{
			{Platform: PlatformLinux, Arch: "x86_64"},
			{Platform: PlatformLinux, Arch: "aarch64"},
			{Platform: PlatformWindows, Arch: "x86_64"},
			{Platform: PlatformMacOS, Arch: "x86_64"},
			{Platform: PlatformMacOS, Arch: "aarch64"},
		},
	}
}

// List returns all registered targets in registry order.
func (r *Registry) List() []Target {
	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out
}

// Lookup finds a registered target by its triple.
func (r *Registry) Lookup(triple string) (Target, error) {
	for _, t := range r.targets {
		if t.Triple() == triple {
			return t, nil
		}
	}
	return Target{}, &UnknownTargetError{Triple: triple}
}

// Resolve maps a list of requested triples to registered targets.
// An empty request selects every registered target.
func (r *Registry) Resolve(triples []string) ([]Target, error) {
	if len(triples) == 0 {
		return r.List(), nil
	}
	targets := make([]Target, 0, len(triples))
	for _, triple := range triples {
		t, err := r.Lookup(triple)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}
