package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deobcore/internal/ir"
)

// buildDispatchLoop builds:
//
//	var s = 0;
//	while (true) switch (s) {
//	  case 0: a(); s = 1; break;
//	  case 1: b(); s = 2; break;
//	  case 2: return;
//	}
//
// the canonical flattened pattern from scenario §8.5.
func buildDispatchLoop(t *testing.T, f *ir.Factory) []ir.Stmt {
	t.Helper()

	sIdent := f.Identifier("s", pos(), pos(), ir.NoScope)
	decl := f.VariableDeclaration(ir.VarKind,
		[]*ir.VariableDeclarator{f.VariableDeclarator(sIdent, f.Literal(ir.NumberLiteral, 0.0, "0", pos(), pos()), pos(), pos())},
		pos(), pos())

	callA := f.ExpressionStatement(f.CallExpression(f.Identifier("a", pos(), pos(), ir.NoScope), nil, pos(), pos()), pos(), pos())
	setTo1 := f.ExpressionStatement(f.AssignmentExpression("=", f.Identifier("s", pos(), pos(), ir.NoScope),
		f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos()), pos(), pos()), pos(), pos())
	break1 := f.BreakStatement(nil, pos(), pos())
	case0 := f.SwitchCase(f.Literal(ir.NumberLiteral, 0.0, "0", pos(), pos()),
		[]ir.Stmt{callA, setTo1, break1}, pos(), pos())

	callB := f.ExpressionStatement(f.CallExpression(f.Identifier("b", pos(), pos(), ir.NoScope), nil, pos(), pos()), pos(), pos())
	setTo2 := f.ExpressionStatement(f.AssignmentExpression("=", f.Identifier("s", pos(), pos(), ir.NoScope),
		f.Literal(ir.NumberLiteral, 2.0, "2", pos(), pos()), pos(), pos()), pos(), pos())
	break2 := f.BreakStatement(nil, pos(), pos())
	case1 := f.SwitchCase(f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos()),
		[]ir.Stmt{callB, setTo2, break2}, pos(), pos())

	ret := f.ReturnStatement(nil, pos(), pos())
	case2 := f.SwitchCase(f.Literal(ir.NumberLiteral, 2.0, "2", pos(), pos()),
		[]ir.Stmt{ret}, pos(), pos())

	sw := f.SwitchStatement(f.Identifier("s", pos(), pos(), ir.NoScope),
		[]*ir.SwitchCase{case0, case1, case2}, pos(), pos())
	while := f.WhileStatement(f.Literal(ir.BoolLiteral, true, "true", pos(), pos()), sw, pos(), pos())

	return []ir.Stmt{decl, while}
}

func TestControlFlowDeflatteningStraightensDispatchLoop(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)
	stmts := buildDispatchLoop(t, f)

	state := buildState(t, gen, stmts)
	res, err := ControlFlowDeflattening{}.Run(state)
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Empty(t, res.Warnings)

	var kinds []ir.NodeKind
	for _, id := range state.Graph.RPO {
		blk := state.Graph.Block(id)
		if blk == nil {
			continue
		}
		for _, stmt := range blk.Statements {
			kinds = append(kinds, stmt.Kind())
		}
	}
	for _, k := range kinds {
		require.NotEqual(t, ir.SwitchStatementKind, k, "no residual switch should remain")
		require.NotEqual(t, ir.WhileStatementKind, k, "no residual while should remain")
	}
}

func TestControlFlowDeflatteningLeavesUnresolvableCaseAsResidual(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	sIdent := f.Identifier("s", pos(), pos(), ir.NoScope)
	decl := f.VariableDeclaration(ir.VarKind,
		[]*ir.VariableDeclarator{f.VariableDeclarator(sIdent, f.Literal(ir.NumberLiteral, 0.0, "0", pos(), pos()), pos(), pos())},
		pos(), pos())

	// case 0 assigns a non-literal next state: unresolvable statically.
	dynamicNext := f.Identifier("next", pos(), pos(), ir.NoScope)
	setDynamic := f.ExpressionStatement(f.AssignmentExpression("=", f.Identifier("s", pos(), pos(), ir.NoScope),
		dynamicNext, pos(), pos()), pos(), pos())
	breakStmt := f.BreakStatement(nil, pos(), pos())
	case0 := f.SwitchCase(f.Literal(ir.NumberLiteral, 0.0, "0", pos(), pos()),
		[]ir.Stmt{setDynamic, breakStmt}, pos(), pos())
	ret := f.ReturnStatement(nil, pos(), pos())
	case1 := f.SwitchCase(f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos()), []ir.Stmt{ret}, pos(), pos())

	sw := f.SwitchStatement(f.Identifier("s", pos(), pos(), ir.NoScope),
		[]*ir.SwitchCase{case0, case1}, pos(), pos())
	while := f.WhileStatement(f.Literal(ir.BoolLiteral, true, "true", pos(), pos()), sw, pos(), pos())

	state := buildState(t, gen, []ir.Stmt{decl, while})
	res, err := ControlFlowDeflattening{}.Run(state)
	require.NoError(t, err)
	require.False(t, res.Changed)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0].Message, "s")
}
