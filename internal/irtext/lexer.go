// Package irtext is a textual assembly format for the analysis core's IR:
// a parser and printer pair so a CFG/SSA scenario can be written and
// diffed as plain text instead of a tree of Factory calls. It is not a
// JavaScript front end -- ingestion of real source is the external
// Parser's job (contracts.Parser); irtext exists for golden-file tests
// and for round-tripping the core's own output back to text.
package irtext

import "github.com/alecthomas/participle/v2/lexer"

// IRLexer tokenizes the textual IR dialect: C-like statement keywords,
// JS-style operators, and the usual literal forms.
var IRLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `//[^\n]*`, Action: nil},
		{Name: "String", Pattern: `"(\\.|[^"\\])*"`, Action: nil},
		{Name: "Number", Pattern: `0x[0-9a-fA-F]+|[0-9]+(\.[0-9]+)?`, Action: nil},
		{Name: "Ident", Pattern: `[a-zA-Z_$][a-zA-Z0-9_$]*`, Action: nil},
		{Name: "Operator", Pattern: `===|!==|==|!=|<=|>=|&&|\|\||\+\+|--|\+=|-=|\*=|/=|%=|=>|[-+*/%=<>!&|^~?:]`, Action: nil},
		{Name: "Punct", Pattern: `[(){}\[\],;.]`, Action: nil},
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
	},
})
