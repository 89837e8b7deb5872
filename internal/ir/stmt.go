package ir

func (*ExpressionStatement) isStmt() {}
func (*BlockStatement) isStmt()      {}
func (*VariableDeclaration) isStmt() {}
func (*FunctionDeclaration) isStmt() {}
func (*ReturnStatement) isStmt()     {}
func (*IfStatement) isStmt()         {}
func (*WhileStatement) isStmt()      {}
func (*ForStatement) isStmt()        {}
func (*BreakStatement) isStmt()      {}
func (*ContinueStatement) isStmt()   {}
func (*ThrowStatement) isStmt()      {}
func (*TryStatement) isStmt()        {}
func (*SwitchStatement) isStmt()     {}
func (*LabeledStatement) isStmt()    {}
func (*EmptyStatement) isStmt()      {}
func (*DebuggerStatement) isStmt()   {}

// ExpressionStatement wraps a bare expression used as a statement.
type ExpressionStatement struct {
	Meta
	Expression Expr
}

func (*ExpressionStatement) Kind() NodeKind { return ExpressionStatementKind }

// BlockStatement is `{ ... }`. Phis holds the PhiNodes attached to this
// block's head once SSA form has been established (invariant 3: a
// PhiNode only ever sits at the head of a block whose CFG node has two
// or more predecessors).
type BlockStatement struct {
	Meta
	Body []Stmt
	Phis []*PhiNode
}

func (*BlockStatement) Kind() NodeKind { return BlockStatementKind }

// VariableDeclarator binds Init (may be nil) to Id within a
// VariableDeclaration.
type VariableDeclarator struct {
	Meta
	Id   Expr
	Init Expr
}

func (*VariableDeclarator) Kind() NodeKind { return VariableDeclaratorKind }
func (*VariableDeclarator) isStmt()        {}

// VariableDeclaration is `var/let/const a = 1, b = 2;`.
type VariableDeclaration struct {
	Meta
	VarKind      VariableKind
	Declarations []*VariableDeclarator
}

func (*VariableDeclaration) Kind() NodeKind { return VariableDeclarationKind }

// FunctionDeclaration is a top-level or nested named function.
type FunctionDeclaration struct {
	Meta
	Name      *Identifier
	Params    []*Identifier
	Body      *BlockStatement
	Async     bool
	Generator bool
}

func (*FunctionDeclaration) Kind() NodeKind { return FunctionDeclarationKind }

// ReturnStatement is `return Argument;`. Argument is nil for a bare
// `return;`.
type ReturnStatement struct {
	Meta
	Argument Expr
}

func (*ReturnStatement) Kind() NodeKind { return ReturnStatementKind }

// IfStatement is `if (Test) Consequent else Alternate`. Alternate is nil
// when there is no else branch.
type IfStatement struct {
	Meta
	Test       Expr
	Consequent Stmt
	Alternate  Stmt
}

func (*IfStatement) Kind() NodeKind { return IfStatementKind }

// WhileStatement is `while (Test) Body`.
type WhileStatement struct {
	Meta
	Test Expr
	Body Stmt
}

func (*WhileStatement) Kind() NodeKind { return WhileStatementKind }

// ForStatement is `for (Init; Test; Update) Body`. Init, Test, and
// Update may each be nil. Init is a Node because it may be either a
// VariableDeclaration or a bare Expr.
type ForStatement struct {
	Meta
	Init   Node
	Test   Expr
	Update Expr
	Body   Stmt
}

func (*ForStatement) Kind() NodeKind { return ForStatementKind }

// BreakStatement is `break;` or `break Label;`.
type BreakStatement struct {
	Meta
	Label *Identifier
}

func (*BreakStatement) Kind() NodeKind { return BreakStatementKind }

// ContinueStatement is `continue;` or `continue Label;`.
type ContinueStatement struct {
	Meta
	Label *Identifier
}

func (*ContinueStatement) Kind() NodeKind { return ContinueStatementKind }

// ThrowStatement is `throw Argument;`.
type ThrowStatement struct {
	Meta
	Argument Expr
}

func (*ThrowStatement) Kind() NodeKind { return ThrowStatementKind }

// CatchClause is the `catch (Param) Body` part of a TryStatement. Param
// is nil for a parameter-less catch.
type CatchClause struct {
	Meta
	Param Expr
	Body  *BlockStatement
}

func (*CatchClause) Kind() NodeKind { return CatchClauseKind }
func (*CatchClause) isStmt()        {}

// TryStatement is `try Block catch (p) Handler finally Finalizer`.
// Handler and Finalizer may independently be nil, but not both.
type TryStatement struct {
	Meta
	Block     *BlockStatement
	Handler   *CatchClause
	Finalizer *BlockStatement
}

func (*TryStatement) Kind() NodeKind { return TryStatementKind }

// SwitchCase is one `case Test:` or `default:` (Test nil) arm of a
// SwitchStatement.
type SwitchCase struct {
	Meta
	Test       Expr
	Consequent []Stmt
}

func (*SwitchCase) Kind() NodeKind { return SwitchCaseKind }
func (*SwitchCase) isStmt()        {}

// SwitchStatement is `switch (Discriminant) { Cases }`.
type SwitchStatement struct {
	Meta
	Discriminant Expr
	Cases        []*SwitchCase
}

func (*SwitchStatement) Kind() NodeKind { return SwitchStatementKind }

// LabeledStatement is `Label: Body`, the target of a labeled break or
// continue.
type LabeledStatement struct {
	Meta
	Label *Identifier
	Body  Stmt
}

func (*LabeledStatement) Kind() NodeKind { return LabeledStatementKind }

// EmptyStatement is a bare `;`.
type EmptyStatement struct {
	Meta
}

func (*EmptyStatement) Kind() NodeKind { return EmptyStatementKind }

// DebuggerStatement is `debugger;`.
type DebuggerStatement struct {
	Meta
}

func (*DebuggerStatement) Kind() NodeKind { return DebuggerStatementKind }
