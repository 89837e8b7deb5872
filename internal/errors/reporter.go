package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter renders AnalysisError/Warning values for a terminal,
// following the toolchain's bold-level / dim-location styling rather
// than plain fmt.Sprintf output.
type Reporter struct{}

func NewReporter() *Reporter { return &Reporter{} }

// FormatError renders a single analysis error: "error[Kind] in pass: message (node N)".
func (r *Reporter) FormatError(err *AnalysisError) string {
	bold := color.New(color.Bold, color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	var b strings.Builder
	b.WriteString(bold(fmt.Sprintf("error[%s]", err.Kind)))
	if err.Pass != "" {
		b.WriteString(dim(fmt.Sprintf(" in %s", err.Pass)))
	}
	b.WriteString(": ")
	b.WriteString(err.Message)
	if err.NodeID != 0 {
		b.WriteString(dim(fmt.Sprintf(" (node %d)", err.NodeID)))
	}
	return b.String()
}

// FormatWarning renders a single warning: "warning in pass: message (node N)".
func (r *Reporter) FormatWarning(w *Warning) string {
	yellow := color.New(color.Bold, color.FgYellow).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	var b strings.Builder
	b.WriteString(yellow("warning"))
	if w.Pass != "" {
		b.WriteString(dim(fmt.Sprintf(" in %s", w.Pass)))
	}
	b.WriteString(": ")
	b.WriteString(w.Message)
	if w.NodeID != 0 {
		b.WriteString(dim(fmt.Sprintf(" (node %d)", w.NodeID)))
	}
	return b.String()
}

// FormatAll renders every error followed by every warning, one per line.
func (r *Reporter) FormatAll(errs []*AnalysisError, warnings []*Warning) string {
	var b strings.Builder
	for _, e := range errs {
		b.WriteString(r.FormatError(e))
		b.WriteByte('\n')
	}
	for _, w := range warnings {
		b.WriteString(r.FormatWarning(w))
		b.WriteByte('\n')
	}
	return b.String()
}
