package irtext

import "github.com/alecthomas/participle/v2/lexer"

// AST is the root of the textual IR dialect: a flat sequence of
// statements, mirroring ir.Program.Body.
type AST struct {
	Stmts []*Stmt `@@*`
}

// Stmt enumerates every statement form the dialect supports. Order
// matters for participle's alternation -- keywords before the bare
// expression-statement fallback. Pos is populated by participle from
// the leading token of whichever alternative matched.
type Stmt struct {
	Pos      lexer.Position
	Var      *VarDecl    `  @@`
	Func     *FuncDecl   `| @@`
	Return   *ReturnStmt `| @@`
	If       *IfStmt     `| @@`
	While    *WhileStmt  `| @@`
	Break    *BreakStmt  `| @@`
	Continue *ContStmt   `| @@`
	Block    *Block      `| @@`
	Expr     *ExprStmt   `| @@`
}

type VarDecl struct {
	Kind  string `@("var"|"let"|"const")`
	Name  string `@Ident "="`
	Value *Expr  `@@ ";"`
}

type FuncDecl struct {
	Name   string   `"function" @Ident`
	Params []string `"(" (@Ident ("," @Ident)*)? ")"`
	Body   *Block   `@@`
}

type ReturnStmt struct {
	Value *Expr `"return" @@? ";"`
}

type BreakStmt struct {
	Label *string `"break" @Ident? ";"`
}

type ContStmt struct {
	Label *string `"continue" @Ident? ";"`
}

type IfStmt struct {
	Cond *Expr  `"if" "(" @@ ")"`
	Then *Block `@@`
	Else *Else  `("else" @@)?`
}

// Else captures both `else if (...) {...}` (recursing into another
// IfStmt) and a plain `else {...}` block.
type Else struct {
	If    *IfStmt `  @@`
	Block *Block  `| @@`
}

type WhileStmt struct {
	Cond *Expr  `"while" "(" @@ ")"`
	Body *Block `@@`
}

type Block struct {
	Stmts []*Stmt `"{" @@* "}"`
}

type ExprStmt struct {
	Value *Expr `@@ ";"`
}

// Expr is the assignment-precedence entry point; everything below is a
// hand-written precedence ladder since participle has no Pratt support.
type Expr struct {
	Left  *Logical `@@`
	Op    *string  `( @("="|"+="|"-="|"*="|"/="|"%=")`
	Right *Expr    `  @@ )?`
}

type Logical struct {
	Left *Equality    `@@`
	Rest []*LogicalOp `@@*`
}

type LogicalOp struct {
	Op    string    `@("&&"|"||")`
	Right *Equality `@@`
}

type Equality struct {
	Left *Relational   `@@`
	Rest []*EqualityOp `@@*`
}

type EqualityOp struct {
	Op    string      `@("==="|"!=="|"=="|"!=")`
	Right *Relational `@@`
}

type Relational struct {
	Left *Additive       `@@`
	Rest []*RelationalOp `@@*`
}

type RelationalOp struct {
	Op    string    `@("<="|">="|"<"|">")`
	Right *Additive `@@`
}

type Additive struct {
	Left *Multiplicative `@@`
	Rest []*AdditiveOp   `@@*`
}

type AdditiveOp struct {
	Op    string          `@("+"|"-")`
	Right *Multiplicative `@@`
}

type Multiplicative struct {
	Left *Unary              `@@`
	Rest []*MultiplicativeOp `@@*`
}

type MultiplicativeOp struct {
	Op    string `@("*"|"/"|"%")`
	Right *Unary `@@`
}

// Unary collects zero or more prefix operators ahead of a Postfix chain
// rather than recursing, which keeps the grammar left-recursion-free.
type Unary struct {
	Ops     []string `@("!"|"-"|"+"|"~")*`
	Postfix *Postfix `@@`
}

type Postfix struct {
	Primary *Primary     `@@`
	Ops     []*PostfixOp `@@*`
}

type PostfixOp struct {
	Call    *CallOp `  @@`
	Dot     *string `| "." @Ident`
	Bracket *Expr   `| "[" @@ "]"`
}

type CallOp struct {
	Args []*Expr `"(" (@@ ("," @@)*)? ")"`
}

type Primary struct {
	Pos    lexer.Position
	Number *string   `  @Number`
	String *string   `| @String`
	Bool   *string   `| @("true"|"false")`
	Null   bool      `| @"null"`
	Undef  bool      `| @"undefined"`
	Array  *ArrayLit `| @@`
	Paren  *Expr     `| "(" @@ ")"`
	Ident  *string   `| @Ident`
}

type ArrayLit struct {
	Elements []*Expr `"[" (@@ ("," @@)*)? "]"`
}
