// Package errors defines the analysis core's error kinds and a
// reporter for rendering them, in the same structured-diagnostic style
// the rest of the toolchain uses for compiler errors.
package errors

import "deobcore/internal/ir"

// Kind classifies an analysis error per the propagation policy: some
// kinds are warnings attached to a PassResult, others abort the
// current pass, and ParseError aborts the whole run.
type Kind string

const (
	// ParseError means the external parser contract failed to produce
	// an initial IR; analyze returns success=false with no passes run.
	ParseError Kind = "ParseError"
	// InvalidIR means a pass produced IR that violates an invariant
	// (e.g. a duplicate NodeId); the pass is aborted and its output
	// discarded.
	InvalidIR Kind = "InvalidIR"
	// CFGConstructionError means the statement list was structurally
	// invalid for CFG construction (e.g. a stray break).
	CFGConstructionError Kind = "CFGConstructionError"
	// SSAError means a phi operand set is inconsistent with its
	// predecessors (a dominance or operand-completeness violation).
	SSAError Kind = "SSAError"
	// PassFailure means a pass panicked or returned an error it did
	// not itself classify.
	PassFailure Kind = "PassFailure"
	// Timeout means a deadline or per-pass budget was exceeded.
	Timeout Kind = "Timeout"
	// OracleMismatch means the sandbox trace contradicted a
	// high-confidence static inference.
	OracleMismatch Kind = "OracleMismatch"
)

// Fatal reports whether errors of this kind abort the entire pipeline
// (as opposed to aborting only the current pass, or merely warning).
func (k Kind) Fatal() bool { return k == ParseError }

// AnalysisError is the structured error type passes and the manager
// report. NodeID is zero when the error isn't anchored to a specific
// node.
type AnalysisError struct {
	Kind    Kind
	Pass    string
	Message string
	NodeID  ir.NodeID
}

func (e *AnalysisError) Error() string {
	if e.Pass != "" {
		return string(e.Kind) + " in " + e.Pass + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

// Warning is a recoverable, non-aborting diagnostic attached to a
// PassResult (an unresolved decoder, an irreducible region, an
// unresolved deflattening case).
type Warning struct {
	Pass    string
	Message string
	NodeID  ir.NodeID
}
