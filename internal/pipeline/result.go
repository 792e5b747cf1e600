package pipeline

import (
	"github.com/bxb100/relpack/internal/archive"
	"github.com/bxb100/relpack/internal/cargo"
	"github.com/bxb100/relpack/internal/digest"
	"github.com/bxb100/relpack/internal/target"
)

// State is the position of one target in its pipeline.
type State int

const (
	StatePending State = iota
	StateBuilding
	StateArchiving
	StateDigesting
	StateCollected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateBuilding:
		return "building"
	case StateArchiving:
		return "archiving"
	case StateDigesting:
		return "digesting"
	case StateCollected:
		return "collected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result tracks one target through the pipeline. It is owned exclusively
// by that target's task until the orchestrator's fan-in completes.
type Result struct {
	Target  target.Target
	State   State
	Output  *cargo.BuildOutput
	Archive *archive.Archive
	Digest  *digest.Digest
	Err     error
}

func (r *Result) fail(err error) {
	r.State = StateFailed
	r.Err = err
}
