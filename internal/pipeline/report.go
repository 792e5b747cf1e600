package pipeline

import (
	"fmt"
	"strings"
)

// Report is the structured outcome of one pipeline invocation: every
// attempted target appears exactly once, as a success or a failure.
type Report struct {
	Results  []*Result
	Sdist    string
	SdistErr error
}

// Failed returns the results for targets that did not complete.
func (r *Report) Failed() []*Result {
	var failed []*Result
	for _, res := range r.Results {
		if res.State != StateCollected {
			failed = append(failed, res)
		}
	}
	return failed
}

// OK reports whether every attempted target and the sdist succeeded.
func (r *Report) OK() bool {
	return len(r.Failed()) == 0 && r.SdistErr == nil
}

// Summary renders a per-target outcome list.
func (r *Report) Summary() string {
	var b strings.Builder
	for _, res := range r.Results {
		if res.State == StateCollected {
			fmt.Fprintf(&b, "  ✅ %s\n", res.Target)
		} else {
			fmt.Fprintf(&b, "  ❌ %s (%s): %v\n", res.Target, res.State, res.Err)
		}
	}
	if r.SdistErr != nil {
		fmt.Fprintf(&b, "  ❌ sdist: %v\n", r.SdistErr)
	} else if r.Sdist != "" {
		fmt.Fprintf(&b, "  ✅ sdist\n")
	}
	return b.String()
}
