// Package pass implements the analysis core's pass manager: passes
// register in a fixed order, the manager drives them to a local fixed
// point each and a global fixed point across the pipeline, and every
// run is recorded with enough metrics for a caller to replay history.
package pass

import (
	"deobcore/internal/cfg"
	"deobcore/internal/errors"
	"deobcore/internal/ir"
)

// State is the mutable IR state threaded through the pipeline.
type State struct {
	Graph *cfg.CFG
	Gen   *ir.Generator
}

// Clone returns an independent State a pass can freely rewrite: the
// manager takes one of these before every pass runs so an aborted
// pass's partial state can be discarded without disturbing the
// pre-pass IR (§5).
func (s *State) Clone() *State {
	return &State{Graph: s.Graph.Clone(), Gen: s.Gen}
}

// Metrics is the per-pass bookkeeping the manager and egress layer
// both need: duration and complexity are filled in by the manager,
// node counts are self-reported by the pass since only it knows what
// it added, removed, or rewrote in place.
type Metrics struct {
	DurationNanos    int64
	NodesAdded       int
	NodesRemoved     int
	NodesModified    int
	ComplexityBefore int
	ComplexityAfter  int
}

// Result is what a Pass.Run returns: whether anything changed, the
// resulting state, this pass's self-reported metrics, and any
// recoverable warnings (an unresolved decoder, an irreducible region).
type Result struct {
	Changed  bool
	State    *State
	Metrics  Metrics
	Warnings []*errors.Warning
}

// Pass is one named, idempotent transformation over a State. Run
// returns a non-nil error only for conditions the propagation policy
// treats as aborting this pass (InvalidIR, SSAError); recoverable
// issues belong in Result.Warnings instead.
type Pass interface {
	Name() string
	Run(s *State) (*Result, error)
}
