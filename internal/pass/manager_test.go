package pass

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"deobcore/internal/cfg"
	aerrors "deobcore/internal/errors"
	"deobcore/internal/ir"
)

// countingPass changes state exactly `rounds` times, then stabilizes.
type countingPass struct {
	name   string
	rounds int
	ran    int
}

func (p *countingPass) Name() string { return p.name }

func (p *countingPass) Run(s *State) (*Result, error) {
	if p.ran >= p.rounds {
		return &Result{Changed: false, State: s}, nil
	}
	p.ran++
	return &Result{Changed: true, State: s, Metrics: Metrics{NodesModified: 1}}, nil
}

type failingPass struct {
	kind aerrors.Kind
}

func (p *failingPass) Name() string { return "failing" }
func (p *failingPass) Run(s *State) (*Result, error) {
	return nil, &aerrors.AnalysisError{Kind: p.kind, Pass: "failing", Message: "boom"}
}

func emptyState(t *testing.T) *State {
	t.Helper()
	gen := ir.NewGenerator()
	graph, err := cfg.Build(gen, nil)
	require.NoError(t, err)
	cfg.Analyze(graph)
	return &State{Graph: graph, Gen: gen}
}

func TestManagerReachesGlobalFixedPointAndStopsSkippedPasses(t *testing.T) {
	m := NewManager()
	p := &countingPass{name: "p", rounds: 3}
	m.Register(p)

	result := m.Run(emptyState(t), Options{})
	require.Nil(t, result.FatalError)
	require.Equal(t, 3, p.ran)

	changedCount := 0
	for _, rec := range result.Records {
		if rec.Metrics.NodesModified > 0 {
			changedCount++
		}
	}
	require.Equal(t, 3, changedCount)
}

func TestManagerRespectsMaxIterations(t *testing.T) {
	m := NewManager()
	p := &countingPass{name: "p", rounds: 100}
	m.Register(p)

	m.Run(emptyState(t), Options{MaxIterations: 5})
	require.Equal(t, 5, p.ran)
}

func TestManagerAbortsPipelineOnFatalError(t *testing.T) {
	m := NewManager()
	m.Register(&failingPass{kind: aerrors.ParseError})

	result := m.Run(emptyState(t), Options{})
	require.NotNil(t, result.FatalError)
	require.Equal(t, aerrors.ParseError, result.FatalError.Kind)
}

func TestManagerContinuesPastNonFatalPassFailure(t *testing.T) {
	m := NewManager()
	m.Register(&failingPass{kind: aerrors.InvalidIR})
	m.Register(&countingPass{name: "after", rounds: 1})

	result := m.Run(emptyState(t), Options{})
	require.Nil(t, result.FatalError)
	// failing's one attempt, then after's changing run and its settling run.
	require.Len(t, result.Records, 3)
	require.Equal(t, aerrors.InvalidIR, result.Records[0].Error.Kind)
}

func TestManagerTimeoutBeforePassRuns(t *testing.T) {
	m := NewManager()
	m.Register(&countingPass{name: "p", rounds: 1})

	result := m.Run(emptyState(t), Options{Deadline: time.Now().Add(-time.Second)})
	require.NotNil(t, result.FatalError)
	require.Equal(t, aerrors.Timeout, result.FatalError.Kind)
}

func TestPlainErrorIsWrappedAsPassFailure(t *testing.T) {
	m := NewManager()
	m.Register(&plainErrPass{})

	result := m.Run(emptyState(t), Options{})
	require.Nil(t, result.FatalError)
	require.Equal(t, aerrors.PassFailure, result.Records[0].Error.Kind)
}

type plainErrPass struct{}

func (p *plainErrPass) Name() string { return "plain" }
func (p *plainErrPass) Run(s *State) (*Result, error) {
	return nil, errors.New("unclassified failure")
}
