package irtext

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deobcore/internal/ir"
)

func TestParseBuildsExpectedProgramShape(t *testing.T) {
	src := `
var a = 2 + 3;
function decode(i) {
  return i * 2;
}
if (a > 0) {
  decode(a);
} else {
  decode(0);
}
`
	program, err := Format{}.Parse(src)
	require.NoError(t, err)
	require.Len(t, program.Body, 3)

	decl, ok := program.Body[0].(*ir.VariableDeclaration)
	require.True(t, ok)
	require.Equal(t, ir.VarKind, decl.VarKind)
	bin, ok := decl.Declarations[0].Init.(*ir.BinaryExpression)
	require.True(t, ok)
	require.Equal(t, "+", bin.Operator)

	fn, ok := program.Body[1].(*ir.FunctionDeclaration)
	require.True(t, ok)
	require.Equal(t, ir.VariableName("decode"), fn.Name.Name)
	require.Len(t, fn.Params, 1)

	ifStmt, ok := program.Body[2].(*ir.IfStatement)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Alternate)
}

func TestParsePrintRoundTripsStructure(t *testing.T) {
	src := "var x = (1 + 2) * 3;\n"
	program, err := Format{}.Parse(src)
	require.NoError(t, err)

	out, err := Format{}.Print(program)
	require.NoError(t, err)

	reparsed, err := Format{}.Parse(out)
	require.NoError(t, err)

	require.Len(t, reparsed.Body, 1)
	decl, ok := reparsed.Body[0].(*ir.VariableDeclaration)
	require.True(t, ok)
	mul, ok := decl.Declarations[0].Init.(*ir.BinaryExpression)
	require.True(t, ok)
	require.Equal(t, "*", mul.Operator)
	add, ok := mul.Left.(*ir.BinaryExpression)
	require.True(t, ok)
	require.Equal(t, "+", add.Operator)
}

func TestParseSharesGeneratorAcrossCalls(t *testing.T) {
	gen := ir.NewGenerator()
	f := Format{Gen: gen}

	p1, err := f.Parse("var a = 1;")
	require.NoError(t, err)
	p2, err := f.Parse("var b = 2;")
	require.NoError(t, err)

	id1 := p1.Body[0].NodeID()
	id2 := p2.Body[0].NodeID()
	require.NotEqual(t, id1, id2, "ids minted from a shared generator must not collide across Parse calls")
}
