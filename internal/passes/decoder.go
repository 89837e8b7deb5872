package passes

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"deobcore/internal/cfg"
	"deobcore/internal/contracts"
	"deobcore/internal/errors"
	"deobcore/internal/ir"
	"deobcore/internal/pass"
)

// Default confidence thresholds (§9 open question resolution): 0.7 is
// the bar a call site's decoded replacement must clear before the call
// is actually rewritten to a Literal; 0.9 is the default of the
// HighConfidenceReport field. Both are struct fields defaulting to these
// constants rather than hardcoded inline, so a caller wiring
// DecoderLifting through internal/analysis's Options can override
// either. Run reads only RewriteThreshold: HighConfidenceReport is
// carried but unused, and no call site is reported as high confidence.
const (
	DefaultRewriteThreshold     = 0.7
	DefaultHighConfidenceReport = 0.9
)

// decoderKind identifies which of the four named decoder shapes a
// candidate callee matches.
type decoderKind string

const (
	arrayLookupDecoder decoderKind = "js-obfuscator-array"
	base64Decoder      decoderKind = "base64-decoder"
	hexDecoderKind     decoderKind = "hex-decoder"
	rot13DecoderKind   decoderKind = "rot13-decoder"
)

// decoderInfo is what collectDecoderKinds records about a recognized
// decoder: its kind, and the extra data that kind's lift needs.
// table/offset are only meaningful for arrayLookupDecoder.
type decoderInfo struct {
	kind   decoderKind
	table  []string
	offset float64
}

// DecoderLifting detects obfuscator-generated decoder helpers and, for a
// call site whose replacement confidence clears RewriteThreshold,
// substitutes the call with the Literal its decoded result evaluates
// to. Oracle is the optional sandbox execution trace (§6) decoded calls
// are correlated against; a nil Oracle still allows the array-lookup
// kind to rewrite (its extraction is exact by construction, no runtime
// ground truth needed), but bars base64/hex/rot13 from ever reaching
// threshold, since an oracle match is the dominant term in their
// confidence formula.
//
// Detector scope: with no JS interpreter in this core, base64/hex/rot13
// detection is gated on the callee's own declared name (a real
// obfuscation corpus overwhelmingly keeps a decoder's original or
// lightly renamed intent visible in its identifier) rather than on
// structurally interpreting the callee's body — encoding inference
// itself already operates on the runtime (encoded, decoded) string
// pair, not on source, so this detector only needs to gate which
// canonical transform to try against a given call site. The one kind
// checked structurally is js-obfuscator-array, since its confidence
// bypasses the oracle formula entirely and so needs a real structural
// guarantee of purity (a single `return TABLE[i]` body, nothing else).
type DecoderLifting struct {
	Oracle               *contracts.ExecutionTrace
	RewriteThreshold     float64
	HighConfidenceReport float64
}

func (DecoderLifting) Name() string { return "decoder-lifting" }

func (d DecoderLifting) Run(s *pass.State) (*pass.Result, error) {
	// An oracle explicitly supplied but empty is a stricter signal than
	// no oracle at all (§8 boundary behavior): rewrite nothing, warn
	// about nothing, full stop.
	if d.Oracle != nil && len(d.Oracle.Entries) == 0 {
		return &pass.Result{Changed: false, State: s}, nil
	}

	threshold := d.RewriteThreshold
	if threshold == 0 {
		threshold = DefaultRewriteThreshold
	}

	arrays := collectArrayLiterals(s.Graph)
	kinds := collectDecoderKinds(s.Graph, arrays)
	if len(kinds) == 0 {
		return &pass.Result{Changed: false, State: s}, nil
	}

	f := ir.NewFactory(s.Gen)
	changed := false
	modified := 0
	var warnings []*errors.Warning

	var rw func(e ir.Expr) ir.Expr
	rw = func(e ir.Expr) ir.Expr {
		if e == nil {
			return e
		}
		if call, ok := e.(*ir.CallExpression); ok {
			if lit, n, warn := d.tryLift(f, call, kinds, threshold); lit != nil {
				changed = true
				modified += n
				return lit
			} else if warn != nil {
				warnings = append(warnings, warn)
			}
			call.Callee = rw(call.Callee)
			for i, a := range call.Arguments {
				call.Arguments[i] = rw(a)
			}
			return call
		}
		switch v := e.(type) {
		case *ir.BinaryExpression:
			v.Left, v.Right = rw(v.Left), rw(v.Right)
		case *ir.UnaryExpression:
			v.Argument = rw(v.Argument)
		case *ir.UpdateExpression:
			v.Argument = rw(v.Argument)
		case *ir.AssignmentExpression:
			v.Right = rw(v.Right)
		case *ir.LogicalExpression:
			v.Left, v.Right = rw(v.Left), rw(v.Right)
		case *ir.ConditionalExpression:
			v.Test, v.Consequent, v.Alternate = rw(v.Test), rw(v.Consequent), rw(v.Alternate)
		case *ir.MemberExpression:
			v.Object = rw(v.Object)
			if v.Computed {
				v.Property = rw(v.Property)
			}
		case *ir.ArrayExpression:
			for i, el := range v.Elements {
				v.Elements[i] = rw(el)
			}
		case *ir.SequenceExpression:
			for i, ex := range v.Expressions {
				v.Expressions[i] = rw(ex)
			}
		}
		return e
	}

	for _, blk := range s.Graph.Blocks {
		for _, stmt := range blk.Statements {
			switch v := stmt.(type) {
			case *ir.ExpressionStatement:
				v.Expression = rw(v.Expression)
			case *ir.VariableDeclaration:
				for _, decl := range v.Declarations {
					decl.Init = rw(decl.Init)
				}
			case *ir.ReturnStatement:
				v.Argument = rw(v.Argument)
			case *ir.ThrowStatement:
				v.Argument = rw(v.Argument)
			case *ir.IfStatement:
				v.Test = rw(v.Test)
			case *ir.WhileStatement:
				v.Test = rw(v.Test)
			case *ir.SwitchStatement:
				v.Discriminant = rw(v.Discriminant)
			}
		}
	}

	return &pass.Result{Changed: changed, State: s, Metrics: pass.Metrics{NodesModified: modified}, Warnings: warnings}, nil
}

// collectArrayLiterals indexes every `var NAME = [...]` whose
// initializer is an ArrayExpression of exclusively string Literals, the
// string table a js-obfuscator-array decoder indexes into.
func collectArrayLiterals(graph *cfg.CFG) map[ir.VariableName][]string {
	arrays := make(map[ir.VariableName][]string)
	for _, blk := range graph.Blocks {
		for _, stmt := range blk.Statements {
			decl, ok := stmt.(*ir.VariableDeclaration)
			if !ok {
				continue
			}
			for _, d := range decl.Declarations {
				id, ok := d.Id.(*ir.Identifier)
				if !ok {
					continue
				}
				arr, ok := d.Init.(*ir.ArrayExpression)
				if !ok {
					continue
				}
				values := make([]string, 0, len(arr.Elements))
				allStrings := true
				for _, el := range arr.Elements {
					lit, ok := el.(*ir.Literal)
					if !ok || lit.ValueKind != ir.StringLiteral {
						allStrings = false
						break
					}
					str, ok := lit.Value.(string)
					if !ok {
						allStrings = false
						break
					}
					values = append(values, str)
				}
				if allStrings {
					arrays[id.Name] = values
				}
			}
		}
	}
	return arrays
}

// collectDecoderKinds scans every function/function-expression
// declaration reachable in graph's blocks (functions are leaf
// statements in this CFG, their own bodies are never decomposed into
// it) and classifies each by name against the decoder it matches.
// Arrow functions assigned to a variable are a known gap: real
// obfuscator output overwhelmingly uses plain function expressions for
// its decoders, so this is a deliberate scope limitation rather than an
// oversight.
func collectDecoderKinds(graph *cfg.CFG, arrays map[ir.VariableName][]string) map[ir.VariableName]*decoderInfo {
	kinds := make(map[ir.VariableName]*decoderInfo)
	for _, blk := range graph.Blocks {
		for _, stmt := range blk.Statements {
			switch v := stmt.(type) {
			case *ir.FunctionDeclaration:
				if v.Name != nil {
					classifyFunction(v.Name.Name, v.Params, v.Body, arrays, kinds)
				}
			case *ir.VariableDeclaration:
				for _, decl := range v.Declarations {
					id, ok := decl.Id.(*ir.Identifier)
					if !ok {
						continue
					}
					if fn, ok := decl.Init.(*ir.FunctionExpression); ok {
						classifyFunction(id.Name, fn.Params, fn.Body, arrays, kinds)
					}
				}
			}
		}
	}
	return kinds
}

func classifyFunction(name ir.VariableName, params []*ir.Identifier, body *ir.BlockStatement, arrays map[ir.VariableName][]string, kinds map[ir.VariableName]*decoderInfo) {
	if body == nil {
		return
	}
	if info, ok := detectArrayLookup(params, body, arrays); ok {
		kinds[name] = info
		return
	}
	if kind, ok := classifyByName(name); ok {
		kinds[name] = &decoderInfo{kind: kind}
	}
}

func classifyByName(name ir.VariableName) (decoderKind, bool) {
	lower := strings.ToLower(string(name))
	switch {
	case strings.Contains(lower, "atob") || strings.Contains(lower, "base64") || strings.Contains(lower, "b64"):
		return base64Decoder, true
	case strings.Contains(lower, "hex"):
		return hexDecoderKind, true
	case strings.Contains(lower, "rot13") || strings.Contains(lower, "rot_13"):
		return rot13DecoderKind, true
	}
	return "", false
}

// detectArrayLookup recognizes the canonical `function(i){ return
// TABLE[i]; }` or `function(i){ return TABLE[i - K]; }` decoder shape:
// a single parameter, a single return statement, a computed member
// access on a known string-literal array with the parameter (plus or
// minus a constant literal offset) as the index.
func detectArrayLookup(params []*ir.Identifier, body *ir.BlockStatement, arrays map[ir.VariableName][]string) (*decoderInfo, bool) {
	if len(params) != 1 || len(body.Body) != 1 {
		return nil, false
	}
	ret, ok := body.Body[0].(*ir.ReturnStatement)
	if !ok || ret.Argument == nil {
		return nil, false
	}
	member, ok := ret.Argument.(*ir.MemberExpression)
	if !ok || !member.Computed {
		return nil, false
	}
	obj, ok := member.Object.(*ir.Identifier)
	if !ok {
		return nil, false
	}
	table, ok := arrays[obj.Name]
	if !ok {
		return nil, false
	}
	param := params[0].Name

	switch prop := member.Property.(type) {
	case *ir.Identifier:
		if prop.Name != param {
			return nil, false
		}
		return &decoderInfo{kind: arrayLookupDecoder, table: table}, true
	case *ir.BinaryExpression:
		id, ok := prop.Left.(*ir.Identifier)
		if !ok || id.Name != param {
			return nil, false
		}
		lit, ok := prop.Right.(*ir.Literal)
		if !ok || lit.ValueKind != ir.NumberLiteral {
			return nil, false
		}
		n, ok := lit.Value.(float64)
		if !ok {
			return nil, false
		}
		switch prop.Operator {
		case "+":
			return &decoderInfo{kind: arrayLookupDecoder, table: table, offset: n}, true
		case "-":
			return &decoderInfo{kind: arrayLookupDecoder, table: table, offset: -n}, true
		}
	}
	return nil, false
}

// tryLift returns a non-nil Literal only when call's callee resolves to
// a recognized decoder and the rewrite's confidence clears threshold.
// A non-nil warning on a nil Literal means a decoder was recognized but
// didn't clear the bar — the call is left untouched either way.
func (d DecoderLifting) tryLift(f *ir.Factory, call *ir.CallExpression, kinds map[ir.VariableName]*decoderInfo, threshold float64) (*ir.Literal, int, *errors.Warning) {
	callee, ok := call.Callee.(*ir.Identifier)
	if !ok {
		return nil, 0, nil
	}
	info, ok := kinds[callee.Name]
	if !ok {
		return nil, 0, nil
	}

	if info.kind == arrayLookupDecoder {
		return liftArrayLookup(f, call, info)
	}
	return d.liftEncodedString(f, call, info, string(callee.Name), threshold)
}

func liftArrayLookup(f *ir.Factory, call *ir.CallExpression, info *decoderInfo) (*ir.Literal, int, *errors.Warning) {
	if len(call.Arguments) != 1 {
		return nil, 0, nil
	}
	argLit, ok := call.Arguments[0].(*ir.Literal)
	if !ok || argLit.ValueKind != ir.NumberLiteral {
		return nil, 0, nil
	}
	n, ok := argLit.Value.(float64)
	if !ok {
		return nil, 0, nil
	}
	idx := int(n + info.offset)
	if idx < 0 || idx >= len(info.table) {
		return nil, 0, nil
	}
	val := info.table[idx]
	return f.Literal(ir.StringLiteral, val, strconv.Quote(val), call.Pos, call.EndPos), 1, nil
}

// liftEncodedString scores and, if it clears threshold, rewrites a
// base64/hex/rot13 call site. Confidence is additive: +0.6 for an
// oracle trace whose result the call correlates to, +0.2 for a
// successful offline reproduction via the matching stdlib transform,
// +0.1 if the decoded text is readable (alphabetic ratio >= 0.6, length
// in [1, 16384]), -0.3 if the oracle recorded this call as raising.
func (d DecoderLifting) liftEncodedString(f *ir.Factory, call *ir.CallExpression, info *decoderInfo, calleeName string, threshold float64) (*ir.Literal, int, *errors.Warning) {
	if len(call.Arguments) != 1 {
		return nil, 0, nil
	}
	argLit, ok := call.Arguments[0].(*ir.Literal)
	if !ok || argLit.ValueKind != ir.StringLiteral {
		return nil, 0, nil
	}
	encoded, ok := argLit.Value.(string)
	if !ok {
		return nil, 0, nil
	}

	offlineVal, offlineOK := decodeOffline(info.kind, encoded)
	oracleVal, oracleMatched, oracleErr := d.oracleResult(call)

	confidence := 0.0
	decoded := ""
	haveDecoded := false
	if oracleMatched {
		confidence += 0.6
		decoded = oracleVal
		haveDecoded = true
	}
	if offlineOK {
		confidence += 0.2
		if !haveDecoded {
			decoded = offlineVal
			haveDecoded = true
		}
	}
	if haveDecoded && readable(decoded) {
		confidence += 0.1
	}
	if oracleErr {
		confidence -= 0.3
	}

	if !haveDecoded || confidence < threshold {
		if haveDecoded {
			return nil, 0, &errors.Warning{
				Pass:    "decoder-lifting",
				Message: fmt.Sprintf("decoder call %q stayed below rewrite threshold (confidence %.2f)", calleeName, confidence),
				NodeID:  call.NodeID(),
			}
		}
		return nil, 0, nil
	}

	return f.Literal(ir.StringLiteral, decoded, strconv.Quote(decoded), call.Pos, call.EndPos), 1, nil
}

// oracleResult reports whether Oracle carries a trace entry correlated
// to call's NodeID, the decoded result it recorded, and whether it
// instead recorded the call as raising.
func (d DecoderLifting) oracleResult(call *ir.CallExpression) (result string, matched bool, hadError bool) {
	if d.Oracle == nil {
		return "", false, false
	}
	for _, e := range d.Oracle.EntriesForNode(call.NodeID()) {
		if e.Error != "" {
			return "", false, true
		}
		if s, ok := e.Result.(string); ok {
			return s, true, false
		}
	}
	return "", false, false
}

func decodeOffline(kind decoderKind, encoded string) (string, bool) {
	switch kind {
	case base64Decoder:
		b, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return "", false
		}
		return string(b), true
	case hexDecoderKind:
		b, err := hex.DecodeString(encoded)
		if err != nil {
			return "", false
		}
		return string(b), true
	case rot13DecoderKind:
		return rot13(encoded), true
	}
	return "", false
}

func rot13(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		}
		return r
	}, s)
}

func readable(s string) bool {
	if len(s) == 0 || len(s) > 16384 {
		return false
	}
	alpha := 0
	total := 0
	for _, r := range s {
		total++
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	return float64(alpha)/float64(total) >= 0.6
}
