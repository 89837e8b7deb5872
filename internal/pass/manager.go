package pass

import (
	"time"

	"deobcore/internal/errors"
)

const defaultMaxIterations = 16

// Options configures one pipeline run.
type Options struct {
	// MaxIterations bounds the global fixed-point loop; zero means the
	// default of 16.
	MaxIterations int
	// Deadline, if non-zero, aborts the pipeline the next time the
	// manager is about to start a pass after it has passed.
	Deadline time.Time
}

// Record is what the manager keeps per pass invocation, the building
// block for the egress layer's PassResult history.
type Record struct {
	Name     string
	Metrics  Metrics
	Warnings []*errors.Warning
	Error    *errors.AnalysisError
}

// RunResult is the manager's full report for one pipeline run.
type RunResult struct {
	FinalState *State
	Records    []Record
	// FatalError is set when a ParseError-class or Timeout error aborted
	// the whole pipeline rather than just one pass.
	FatalError *errors.AnalysisError
}

// Manager runs registered passes in insertion order to a global fixed
// point (§4.4).
type Manager struct {
	passes []Pass
}

func NewManager() *Manager { return &Manager{} }

func (m *Manager) Register(p Pass) { m.passes = append(m.passes, p) }

// Run drives every registered pass to a local fixed point (a pass that
// reports Changed=false is skipped in later rounds) and the pipeline
// as a whole to a global fixed point, bounded by opts.MaxIterations.
func (m *Manager) Run(initial *State, opts Options) *RunResult {
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	current := initial
	result := &RunResult{}
	settled := make([]bool, len(m.passes))

	for iteration := 0; iteration < maxIter; iteration++ {
		anyChanged := false
		for i, p := range m.passes {
			if settled[i] {
				continue
			}
			if !opts.Deadline.IsZero() && time.Now().After(opts.Deadline) {
				ae := &errors.AnalysisError{Kind: errors.Timeout, Pass: p.Name(), Message: "pipeline deadline exceeded"}
				result.Records = append(result.Records, Record{Name: p.Name(), Error: ae})
				result.FatalError = ae
				result.FinalState = current
				return result
			}

			before := current.Graph.CyclomaticComplexity()
			snapshot := current.Clone()

			start := time.Now()
			res, err := p.Run(current)
			elapsed := time.Since(start)

			if err != nil {
				ae, ok := err.(*errors.AnalysisError)
				if !ok {
					ae = &errors.AnalysisError{Kind: errors.PassFailure, Pass: p.Name(), Message: err.Error()}
				}
				result.Records = append(result.Records, Record{Name: p.Name(), Error: ae})
				current = snapshot
				if ae.Kind.Fatal() {
					result.FatalError = ae
					result.FinalState = current
					return result
				}
				settled[i] = true
				continue
			}

			res.Metrics.DurationNanos = elapsed.Nanoseconds()
			res.Metrics.ComplexityBefore = before
			res.Metrics.ComplexityAfter = res.State.Graph.CyclomaticComplexity()
			result.Records = append(result.Records, Record{Name: p.Name(), Metrics: res.Metrics, Warnings: res.Warnings})

			if res.Changed {
				current = res.State
				anyChanged = true
			} else {
				settled[i] = true
			}
		}
		if !anyChanged {
			break
		}
	}

	result.FinalState = current
	return result
}
