// Package contracts defines the analysis core's external-collaborator
// contracts (§6): the parser and printer the core sits between, the
// sandbox oracle decoder lifting optionally correlates against, and the
// bytecode lifter alternate ingress path. The core never implements or
// calls any of these itself — it only consumes the values their
// contract types describe.
package contracts

import "deobcore/internal/ir"

// ParseErrorLocation is a parser-reported source position, `{line,
// column}` per §6 — deliberately narrower than ir.Position since a
// parser failure happens before any IR (and therefore any NodeID) exists.
type ParseErrorLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Parser turns source text into the initial IR: a Program root with
// every node's source location populated. A parse failure reports a
// location but never a partial tree.
type Parser interface {
	Parse(source string) (*ir.Program, error)
}

// Printer turns an IR tree back into source text. Round-trip consistency
// with Parser is only guaranteed for non-obfuscated input: Parse(Print(n))
// reproduces n's structure, but Print(Parse(src)) need not reproduce src
// verbatim (formatting, not semantics, is what's lost).
type Printer interface {
	Print(program *ir.Program) (string, error)
}

// BytecodeLifter turns a byte stream into an IRProgram equivalent to what
// Parser would have produced from the bytecode's corresponding source,
// an alternate ingress path for inputs that never had JS source at all.
type BytecodeLifter interface {
	Lift(bytecode []byte) (*ir.Program, error)
}

// TraceEntryKind classifies one sandbox execution-trace entry. Only
// FunctionCall entries carry the arguments/result pair decoder lifting
// correlates against; other kinds are carried through for completeness
// but unused by any pass in this core.
type TraceEntryKind string

const (
	FunctionCall TraceEntryKind = "function_call"
)

// TraceMetadata carries the trace entry's correlation back to the IR
// that produced it. IRCorrelationNodeID is zero when the sandbox
// couldn't establish a correlation (e.g. a dynamically generated
// function with no source-level NodeID).
type TraceMetadata struct {
	IRCorrelationNodeID ir.NodeID `json:"irCorrelationNodeId"`
}

// TraceEntry is one recorded event from a sandbox execution. Result and
// Error are mutually exclusive; Error non-empty means the call in
// question raised rather than returned.
type TraceEntry struct {
	Kind      TraceEntryKind `json:"kind"`
	Timestamp int64          `json:"timestamp"`
	Arguments []interface{}  `json:"arguments,omitempty"`
	Result    interface{}    `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Metadata  TraceMetadata  `json:"metadata"`
}

// ExecutionTrace is the sandbox oracle's output (§6): a resolved value
// handed to analyze, never a live channel the core pulls from — the
// core never initiates execution itself (§5).
type ExecutionTrace struct {
	Entries         []TraceEntry `json:"entries"`
	MemoryStats     interface{}  `json:"memory_stats,omitempty"`
	ExecutionTimeMs int64        `json:"execution_time_ms"`
	Success         bool         `json:"success"`
	SideEffects     []string     `json:"side_effects,omitempty"`
}

// SandboxOracle evaluates a function or expression in an isolated
// context and returns the resulting trace. Implementing this is entirely
// outside this core's scope (§6 lists it as an external collaborator);
// the interface exists so a caller can pass a real implementation
// through analyze's optional oracle parameter.
type SandboxOracle interface {
	Evaluate(program *ir.Program, target ir.NodeID, args []interface{}) (*ExecutionTrace, error)
}

// EntriesForNode returns every trace entry correlated to nodeID, the
// lookup decoder lifting performs for each candidate decoder call it
// finds in the IR.
func (t *ExecutionTrace) EntriesForNode(nodeID ir.NodeID) []TraceEntry {
	if t == nil {
		return nil
	}
	var out []TraceEntry
	for _, e := range t.Entries {
		if e.Metadata.IRCorrelationNodeID == nodeID {
			out = append(out, e)
		}
	}
	return out
}
