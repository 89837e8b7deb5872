// Package lspsrv exposes the analysis core over the Language Server
// Protocol: open a buffer of obfuscated JS, run it through
// internal/analysis on every edit, and push the result's errors back as
// diagnostics. The AnalysisData is kept per document (see Result) and
// the deobfuscated text is not sent to the client. Adapted from the teacher's
// glsp/commonlog wiring, which served a Kanso compile-diagnostics loop
// in the same shape.
package lspsrv

import (
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"deobcore/internal/analysis"
	"deobcore/internal/irtext"
)

// Handler implements the LSP methods the deobfuscation server offers:
// open/change/close tracking plus one diagnostic pass per edit, covering
// a parse error or each Metadata.Errors entry; pass warnings are not
// published. There is no completion or semantic-token surface here --
// those describe source-language structure, and a deobfuscated buffer's
// structure comes entirely from whatever passes ran, not from a grammar
// worth offering completions against.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
	results map[string]*analysis.AnalysisData

	Options analysis.Options
}

// NewHandler creates a Handler ready to register on a protocol.Handler.
func NewHandler(opts analysis.Options) *Handler {
	return &Handler{
		content: make(map[string]string),
		results: make(map[string]*analysis.AnalysisData),
		Options: opts,
	}
}

// Initialize responds to the LSP client's initialize request.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("deobcore LSP Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

// Initialized is called once the client has processed our capabilities.
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("deobcore LSP Initialized")
	return nil
}

// Shutdown handles the LSP shutdown request.
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("deobcore LSP Shutdown")
	return nil
}

// TextDocumentDidOpen runs analysis on a newly opened buffer.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.analyzeAndNotify(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

// TextDocumentDidChange re-runs analysis on the full replacement text.
// The server advertises TextDocumentSyncKindFull, so the last content
// change always carries the entire buffer.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	last := params.ContentChanges[len(params.ContentChanges)-1]
	change, ok := last.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return fmt.Errorf("deobcore lspsrv: expected a full-document change event")
	}
	return h.analyzeAndNotify(ctx, params.TextDocument.URI, change.Text)
}

// TextDocumentDidClose forgets a buffer's tracked content and result.
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.results, path)
	return nil
}

// Result returns the last AnalysisData computed for an open document, if any.
func (h *Handler) Result(uri protocol.DocumentUri) (*analysis.AnalysisData, bool) {
	path, err := uriToPath(uri)
	if err != nil {
		return nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	data, ok := h.results[path]
	return data, ok
}

func (h *Handler) analyzeAndNotify(ctx *glsp.Context, rawURI protocol.DocumentUri, text string) error {
	path, err := uriToPath(rawURI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", rawURI, err)
	}

	parser := irtext.Format{Gen: h.Options.Gen, Name: path}
	program, parseErr := parser.Parse(text)

	h.mu.Lock()
	h.content[path] = text
	h.mu.Unlock()

	var diagnostics []protocol.Diagnostic
	if parseErr != nil {
		diagnostics = []protocol.Diagnostic{{
			Range:    protocol.Range{Start: protocol.Position{Line: 0, Character: 0}, End: protocol.Position{Line: 0, Character: 1}},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("deobcore-parser"),
			Message:  parseErr.Error(),
		}}
		sendDiagnosticNotification(ctx, rawURI, diagnostics)
		return nil
	}

	data := analysis.Analyze(program, h.Options, nil)

	h.mu.Lock()
	h.results[path] = data
	h.mu.Unlock()

	diagnostics = convertAnalysisErrors(data)
	sendDiagnosticNotification(ctx, rawURI, diagnostics)
	return nil
}

// convertAnalysisErrors turns AnalysisData.Metadata.Errors into
// whole-buffer diagnostics. The core reports errors by pass and message,
// not by source range (an AnalysisError carries a NodeID, not a line),
// so every diagnostic here spans the buffer's first line -- good enough
// for "something went wrong, open the pass log" rather than squiggles.
func convertAnalysisErrors(data *analysis.AnalysisData) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, msg := range data.Metadata.Errors {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    protocol.Range{Start: protocol.Position{Line: 0, Character: 0}, End: protocol.Position{Line: 0, Character: 1}},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("deobcore-analysis"),
			Message:  msg,
		})
	}
	return diagnostics
}

func uriToPath(rawURI protocol.DocumentUri) (string, error) {
	u, err := url.Parse(string(rawURI))
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	if ctx == nil {
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool { return &b }

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }

func ptrString(s string) *string { return &s }
