// Package analysis implements the core's sole entry point (§6): analyze
// takes an already-parsed IR tree and optional sandbox evidence and
// runs the registered passes to a fixed point, reporting a JSON-ready
// AnalysisData mirroring the wire shape the spec's egress layer names
// field-for-field. The package never parses, prints, or executes code
// itself — Parser, Printer, and sandbox evaluation all stay external
// collaborators (internal/contracts); Options.Printer is an optional
// hook analyze calls to populate the code-snapshot fields, nothing more.
package analysis

import (
	"time"

	"deobcore/internal/cfg"
	"deobcore/internal/contracts"
	"deobcore/internal/errors"
	"deobcore/internal/ir"
	"deobcore/internal/pass"
	"deobcore/internal/passes"
	"deobcore/internal/ssa"
)

// Version is stamped into every AnalysisData's metadata.
const Version = "0.1.0"

// Options configures one analyze run, mirroring §6's ingress shape
// (passes, max_iterations, deadline_ms, enable_renaming) plus the Go-
// idiomatic additions a literal translation of that shape can't carry:
// Gen is the explicit NodeId/ScopeId/ShapeId counter the IR's own
// Parser minted it from (when Gen is nil analyze starts a fresh
// Generator, whose NodeIds can collide with ids already in the input
// tree), and Printer is the optional external collaborator analyze calls to
// populate original_code/final_code/code_snapshot.
type Options struct {
	Passes               []string
	MaxIterations        int
	DeadlineMs           int
	EnableRenaming       bool
	RewriteThreshold     float64
	HighConfidenceReport float64

	Gen     *ir.Generator
	Printer contracts.Printer
}

// Metrics mirrors PassResult.metrics's field names exactly (§6).
type Metrics struct {
	ExecutionTime int64 `json:"execution_time"`
	NodesRemoved  int   `json:"nodes_removed"`
	NodesAdded    int   `json:"nodes_added"`
	NodesModified int   `json:"nodes_modified"`
	Complexity    int   `json:"complexity"`
}

// PassResult is one pipeline-run record, §6's PassResult shape.
type PassResult struct {
	Name         string   `json:"name"`
	InputIRIDs   []uint64 `json:"input_ir_ids"`
	OutputIRIDs  []uint64 `json:"output_ir_ids"`
	Metrics      Metrics  `json:"metrics"`
	CodeSnapshot string   `json:"code_snapshot"`
}

// Dominance is the per-node dominance summary SerializedCFG.nodes carries.
type Dominance struct {
	Dominators        []uint64 `json:"dominators"`
	DominanceFrontier []uint64 `json:"dominance_frontier"`
}

// CFGNode is one SerializedCFG.nodes entry.
type CFGNode struct {
	ID           uint64    `json:"id"`
	Type         string    `json:"type"`
	Statements   []string  `json:"statements"`
	Predecessors []uint64  `json:"predecessors"`
	Successors   []uint64  `json:"successors"`
	Dominance    Dominance `json:"dominance"`
}

// CFGEdge is one SerializedCFG.edges entry.
type CFGEdge struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
	Type string `json:"type"`
}

// SerializedCFG mirrors §6's SerializedCFG shape exactly.
type SerializedCFG struct {
	Nodes []CFGNode `json:"nodes"`
	Edges []CFGEdge `json:"edges"`
	Entry uint64    `json:"entry"`
	Exit  uint64    `json:"exit"`
}

// Metadata mirrors AnalysisData.metadata's field names exactly (§6).
type Metadata struct {
	Timestamp          int64    `json:"timestamp"`
	Version            string   `json:"version"`
	InputSize          int      `json:"input_size"`
	OutputSize         int      `json:"output_size"`
	TotalPasses        int      `json:"total_passes"`
	TotalExecutionTime int64    `json:"total_execution_time"`
	Success            bool     `json:"success"`
	Errors             []string `json:"errors,omitempty"`
}

// AnalysisData is analyze's egress shape, §6 field-for-field.
type AnalysisData struct {
	OriginalCode string        `json:"original_code"`
	FinalCode    string        `json:"final_code"`
	Passes       []PassResult  `json:"passes"`
	CFG          SerializedCFG `json:"cfg"`
	Metadata     Metadata      `json:"metadata"`
}

// DefaultOrder is the default pass sequence (§4.4): deflattening first
// (so downstream passes see straight-line code instead of a dispatch
// loop wherever that's provable), the three simplification passes,
// decoder lifting (benefits from the simplified IR upstream of it), and
// structuring last, to rebuild tree-shaped control flow from whatever
// block arena the earlier CFG-mutating passes left behind.
func DefaultOrder() []string {
	return []string{
		"control-flow-deflattening",
		"constant-propagation",
		"copy-propagation",
		"dead-code-elimination",
		"decoder-lifting",
		"structuring",
	}
}

func registry(options Options, oracle *contracts.ExecutionTrace) map[string]pass.Pass {
	threshold := options.RewriteThreshold
	if threshold == 0 {
		threshold = passes.DefaultRewriteThreshold
	}
	highConfidence := options.HighConfidenceReport
	if highConfidence == 0 {
		highConfidence = passes.DefaultHighConfidenceReport
	}
	return map[string]pass.Pass{
		"control-flow-deflattening": passes.ControlFlowDeflattening{},
		"constant-propagation":      passes.ConstantPropagation{},
		"copy-propagation":          passes.CopyPropagation{},
		"dead-code-elimination":     passes.DeadCodeElimination{},
		"decoder-lifting": passes.DecoderLifting{
			Oracle:               oracle,
			RewriteThreshold:     threshold,
			HighConfidenceReport: highConfidence,
		},
		"structuring": passes.Structuring{},
	}
}

// recordedIDs captures the NodeIds present in the block arena
// immediately before and after one pass.Run call, the data PassResult's
// input_ir_ids/output_ir_ids report. Captured via a decorator rather
// than threaded through pass.Manager, since the manager's own
// RunResult only tracks metrics/warnings/errors per record.
type recordedIDs struct {
	input  []uint64
	output []uint64
}

type recordingPass struct {
	inner pass.Pass
	log   *[]recordedIDs
}

func (r recordingPass) Name() string { return r.inner.Name() }

func (r recordingPass) Run(s *pass.State) (*pass.Result, error) {
	before := collectNodeIDs(s.Graph)
	res, err := r.inner.Run(s)
	after := before
	if err == nil {
		after = collectNodeIDs(res.State.Graph)
	}
	*r.log = append(*r.log, recordedIDs{input: before, output: after})
	return res, err
}

func collectNodeIDs(graph *cfg.CFG) []uint64 {
	var ids []uint64
	for _, blkID := range graph.RPO {
		blk := graph.Block(blkID)
		if blk == nil {
			continue
		}
		for _, stmt := range blk.Statements {
			ids = append(ids, uint64(stmt.NodeID()))
		}
	}
	return ids
}

// Analyze is the core's sole entry point (§6): analyze(initial_ir,
// options, oracle?) -> AnalysisData. oracle is nil when no sandbox
// evidence is available; an oracle with zero Entries still reaches
// decoder-lifting and, per its own documented boundary behavior,
// rewrites and warns about nothing.
func Analyze(initialIR *ir.Program, options Options, oracle *contracts.ExecutionTrace) *AnalysisData {
	startedAt := time.Now()
	inputSize := len(initialIR.Body)

	var originalCode string
	if options.Printer != nil {
		if s, err := options.Printer.Print(initialIR); err == nil {
			originalCode = s
		}
	}

	gen := options.Gen
	if gen == nil {
		gen = ir.NewGenerator()
	}

	graph, err := cfg.Build(gen, initialIR.Body)
	if err != nil {
		return failure(errors.CFGConstructionError, err.Error(), originalCode, startedAt, inputSize)
	}
	cfg.Analyze(graph)
	ssa.Build(gen, graph)

	reg := registry(options, oracle)
	order := options.Passes
	if len(order) == 0 {
		order = DefaultOrder()
	}

	manager := pass.NewManager()
	var ids []recordedIDs
	for _, name := range order {
		p, ok := reg[name]
		if !ok {
			// An unrecognized pass name is simply not run; analyze has no
			// way to fail a whole pipeline over an unknown name without
			// also making typo-tolerant custom orderings impossible.
			continue
		}
		manager.Register(recordingPass{inner: p, log: &ids})
	}

	runOpts := pass.Options{MaxIterations: options.MaxIterations}
	if options.DeadlineMs > 0 {
		runOpts.Deadline = startedAt.Add(time.Duration(options.DeadlineMs) * time.Millisecond)
	}

	result := manager.Run(&pass.State{Graph: graph, Gen: gen}, runOpts)
	finalState := result.FinalState

	if options.EnableRenaming && result.FatalError == nil {
		cfg.Analyze(finalState.Graph)
		ssa.Build(finalState.Gen, finalState.Graph)
	}

	var finalCode string
	if options.Printer != nil {
		if prog := rebuildProgram(initialIR, finalState.Graph); prog != nil {
			if s, err := options.Printer.Print(prog); err == nil {
				finalCode = s
			}
		}
	}

	var passResults []PassResult
	for i, rec := range result.Records {
		pr := PassResult{Name: rec.Name, Metrics: Metrics{
			ExecutionTime: rec.Metrics.DurationNanos,
			NodesRemoved:  rec.Metrics.NodesRemoved,
			NodesAdded:    rec.Metrics.NodesAdded,
			NodesModified: rec.Metrics.NodesModified,
			Complexity:    rec.Metrics.ComplexityAfter,
		}}
		if i < len(ids) {
			pr.InputIRIDs = ids[i].input
			pr.OutputIRIDs = ids[i].output
		}
		passResults = append(passResults, pr)
	}

	var errMessages []string
	success := result.FatalError == nil
	if result.FatalError != nil {
		errMessages = append(errMessages, result.FatalError.Error())
	}
	for _, rec := range result.Records {
		if rec.Error != nil {
			errMessages = append(errMessages, rec.Error.Error())
		}
	}

	outputSize := 0
	if finalState != nil {
		for _, blkID := range finalState.Graph.RPO {
			if blk := finalState.Graph.Block(blkID); blk != nil {
				outputSize += len(blk.Statements)
			}
		}
	}

	data := &AnalysisData{
		OriginalCode: originalCode,
		FinalCode:    finalCode,
		Passes:       passResults,
		Metadata: Metadata{
			Timestamp:          startedAt.UnixMilli(),
			Version:            Version,
			InputSize:          inputSize,
			OutputSize:         outputSize,
			TotalPasses:        len(passResults),
			TotalExecutionTime: time.Since(startedAt).Nanoseconds(),
			Success:            success,
			Errors:             errMessages,
		},
	}
	if finalState != nil {
		data.CFG = serializeCFG(finalState.Graph)
	}
	return data
}

// rebuildProgram wraps a post-pass block arena's RPO-flattened statement
// list back into a Program, the shape Printer.Print expects, carrying
// over the source's original SourceType.
func rebuildProgram(original *ir.Program, graph *cfg.CFG) *ir.Program {
	var body []ir.Stmt
	for _, blkID := range graph.RPO {
		if blk := graph.Block(blkID); blk != nil {
			body = append(body, blk.Statements...)
		}
	}
	return &ir.Program{Meta: original.Meta, Body: body, Source: original.Source}
}

func failure(kind errors.Kind, message, originalCode string, startedAt time.Time, inputSize int) *AnalysisData {
	return &AnalysisData{
		OriginalCode: originalCode,
		FinalCode:    originalCode,
		Metadata: Metadata{
			Timestamp:          startedAt.UnixMilli(),
			Version:            Version,
			InputSize:          inputSize,
			OutputSize:         inputSize,
			TotalExecutionTime: time.Since(startedAt).Nanoseconds(),
			Success:            false,
			Errors:             []string{string(kind) + ": " + message},
		},
	}
}

func serializeCFG(graph *cfg.CFG) SerializedCFG {
	out := SerializedCFG{Entry: uint64(graph.Entry), Exit: uint64(graph.Exit)}
	for _, id := range graph.RPO {
		blk := graph.Block(id)
		if blk == nil {
			continue
		}
		stmtKinds := make([]string, 0, len(blk.Statements))
		for _, s := range blk.Statements {
			stmtKinds = append(stmtKinds, s.Kind().String())
		}
		label := blk.Label
		if label == "" {
			label = "block"
		}
		out.Nodes = append(out.Nodes, CFGNode{
			ID:           uint64(blk.ID),
			Type:         label,
			Statements:   stmtKinds,
			Predecessors: idsToUint64(blk.Predecessors.Sorted()),
			Successors:   idsToUint64(blk.Successors.Sorted()),
			Dominance: Dominance{
				Dominators:        idsToUint64(blk.Dominators.Sorted()),
				DominanceFrontier: idsToUint64(blk.DominanceFrontier.Sorted()),
			},
		})
	}
	for _, e := range graph.Edges {
		out.Edges = append(out.Edges, CFGEdge{From: uint64(e.From), To: uint64(e.To), Type: e.Type.String()})
	}
	return out
}

func idsToUint64(ids []ir.NodeID) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}
