package errors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOnlyParseErrorIsFatal(t *testing.T) {
	require.True(t, ParseError.Fatal())
	for _, k := range []Kind{InvalidIR, CFGConstructionError, SSAError, PassFailure, Timeout, OracleMismatch} {
		require.False(t, k.Fatal(), "kind %s should not be fatal", k)
	}
}

func TestAnalysisErrorMessageIncludesPassAndKind(t *testing.T) {
	err := &AnalysisError{Kind: SSAError, Pass: "renaming", Message: "phi operand missing for predecessor"}
	require.Contains(t, err.Error(), "SSAError")
	require.Contains(t, err.Error(), "renaming")
	require.Contains(t, err.Error(), "phi operand missing")
}

func TestReporterFormatsErrorsAndWarnings(t *testing.T) {
	r := NewReporter()
	out := r.FormatAll(
		[]*AnalysisError{{Kind: Timeout, Pass: "constant-propagation", Message: "deadline exceeded"}},
		[]*Warning{{Pass: "deflattening", Message: "unresolved dispatcher state", NodeID: 42}},
	)
	require.Contains(t, out, "Timeout")
	require.Contains(t, out, "deadline exceeded")
	require.Contains(t, out, "unresolved dispatcher state")
	require.Contains(t, out, "42")
}
