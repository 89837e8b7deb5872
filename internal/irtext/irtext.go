package irtext

import (
	"fmt"

	"github.com/alecthomas/participle/v2"

	"deobcore/internal/ir"
)

var astParser = buildParser()

func buildParser() *participle.Parser[AST] {
	p, err := participle.Build[AST](
		participle.Lexer(IRLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(4),
	)
	if err != nil {
		panic(fmt.Errorf("irtext: failed to build parser: %w", err))
	}
	return p
}

// Format implements contracts.Parser and contracts.Printer for the
// textual IR dialect. Gen is the node-id/scope-id generator threaded
// into every parsed Program; a nil Gen allocates a fresh one, mirroring
// how ir.NewGenerator is used as a standalone ingress point elsewhere.
type Format struct {
	Gen  *ir.Generator
	Name string
}

// Parse implements contracts.Parser.
func (fmtr Format) Parse(source string) (*ir.Program, error) {
	gen := fmtr.Gen
	if gen == nil {
		gen = ir.NewGenerator()
	}
	name := fmtr.Name
	if name == "" {
		name = "<irtext>"
	}
	tree, err := astParser.ParseString(name, source)
	if err != nil {
		return nil, err
	}
	return build(gen, name, tree), nil
}

// Print implements contracts.Printer.
func (Format) Print(program *ir.Program) (string, error) {
	return print(program)
}
