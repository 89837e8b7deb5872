package ir

//go:generate stringer -type=NodeKind
type NodeKind int

const (
	ILLEGAL NodeKind = iota

	// Root
	ProgramKind

	// Expressions
	IdentifierKind
	SSAIdentifierKind
	LiteralKind
	BinaryExpressionKind
	UnaryExpressionKind
	UpdateExpressionKind
	AssignmentExpressionKind
	LogicalExpressionKind
	ConditionalExpressionKind
	CallExpressionKind
	NewExpressionKind
	MemberExpressionKind
	ArrayExpressionKind
	ObjectExpressionKind
	ObjectPropertyKind
	SequenceExpressionKind
	FunctionExpressionKind
	ArrowFunctionExpressionKind

	// Statements
	ExpressionStatementKind
	BlockStatementKind
	VariableDeclarationKind
	VariableDeclaratorKind
	FunctionDeclarationKind
	ReturnStatementKind
	IfStatementKind
	WhileStatementKind
	ForStatementKind
	BreakStatementKind
	ContinueStatementKind
	ThrowStatementKind
	TryStatementKind
	CatchClauseKind
	SwitchStatementKind
	SwitchCaseKind
	LabeledStatementKind
	EmptyStatementKind
	DebuggerStatementKind

	// SSA-only
	PhiNodeKind
)

// VariableKind distinguishes var/let/const declarations.
type VariableKind string

const (
	VarKind   VariableKind = "var"
	LetKind   VariableKind = "let"
	ConstKind VariableKind = "const"
)

// SourceType distinguishes script vs module source text.
type SourceType string

const (
	Script SourceType = "script"
	Module SourceType = "module"
)

// LiteralValueKind distinguishes the handful of primitive literal shapes.
type LiteralValueKind string

const (
	BoolLiteral      LiteralValueKind = "bool"
	NumberLiteral    LiteralValueKind = "number"
	StringLiteral    LiteralValueKind = "string"
	NullLiteral      LiteralValueKind = "null"
	UndefinedLiteral LiteralValueKind = "undefined"
	RegexLiteral     LiteralValueKind = "regex"
)

var exprKinds = map[NodeKind]bool{
	IdentifierKind:              true,
	SSAIdentifierKind:           true,
	LiteralKind:                 true,
	BinaryExpressionKind:        true,
	UnaryExpressionKind:         true,
	UpdateExpressionKind:        true,
	AssignmentExpressionKind:    true,
	LogicalExpressionKind:       true,
	ConditionalExpressionKind:   true,
	CallExpressionKind:          true,
	NewExpressionKind:           true,
	MemberExpressionKind:        true,
	ArrayExpressionKind:         true,
	ObjectExpressionKind:        true,
	ObjectPropertyKind:          true,
	SequenceExpressionKind:      true,
	FunctionExpressionKind:      true,
	ArrowFunctionExpressionKind: true,
}

var stmtKinds = map[NodeKind]bool{
	ExpressionStatementKind: true,
	BlockStatementKind:      true,
	VariableDeclarationKind: true,
	VariableDeclaratorKind:  true,
	FunctionDeclarationKind: true,
	ReturnStatementKind:     true,
	IfStatementKind:         true,
	WhileStatementKind:      true,
	ForStatementKind:        true,
	BreakStatementKind:      true,
	ContinueStatementKind:   true,
	ThrowStatementKind:      true,
	TryStatementKind:        true,
	CatchClauseKind:         true,
	SwitchStatementKind:     true,
	SwitchCaseKind:          true,
	LabeledStatementKind:    true,
	EmptyStatementKind:      true,
	DebuggerStatementKind:   true,
}

// IsExpression reports whether n's kind belongs to the expression
// category. Expression and statement categories are disjoint (invariant
// 2): a kind is never present in both tables.
func IsExpression(n Node) bool {
	return exprKinds[n.Kind()]
}

// IsStatement reports whether n's kind belongs to the statement category.
func IsStatement(n Node) bool {
	return stmtKinds[n.Kind()]
}

func (k NodeKind) String() string {
	if s, ok := nodeKindNames[k]; ok {
		return s
	}
	return "ILLEGAL"
}

var nodeKindNames = map[NodeKind]string{
	ProgramKind:                 "Program",
	IdentifierKind:              "Identifier",
	SSAIdentifierKind:           "SSAIdentifier",
	LiteralKind:                 "Literal",
	BinaryExpressionKind:        "BinaryExpression",
	UnaryExpressionKind:         "UnaryExpression",
	UpdateExpressionKind:        "UpdateExpression",
	AssignmentExpressionKind:    "AssignmentExpression",
	LogicalExpressionKind:       "LogicalExpression",
	ConditionalExpressionKind:   "ConditionalExpression",
	CallExpressionKind:          "CallExpression",
	NewExpressionKind:           "NewExpression",
	MemberExpressionKind:        "MemberExpression",
	ArrayExpressionKind:         "ArrayExpression",
	ObjectExpressionKind:        "ObjectExpression",
	ObjectPropertyKind:          "ObjectProperty",
	SequenceExpressionKind:      "SequenceExpression",
	FunctionExpressionKind:      "FunctionExpression",
	ArrowFunctionExpressionKind: "ArrowFunctionExpression",
	ExpressionStatementKind:     "ExpressionStatement",
	BlockStatementKind:          "BlockStatement",
	VariableDeclarationKind:     "VariableDeclaration",
	VariableDeclaratorKind:      "VariableDeclarator",
	FunctionDeclarationKind:     "FunctionDeclaration",
	ReturnStatementKind:         "ReturnStatement",
	IfStatementKind:             "IfStatement",
	WhileStatementKind:          "WhileStatement",
	ForStatementKind:            "ForStatement",
	BreakStatementKind:          "BreakStatement",
	ContinueStatementKind:       "ContinueStatement",
	ThrowStatementKind:          "ThrowStatement",
	TryStatementKind:            "TryStatement",
	CatchClauseKind:             "CatchClause",
	SwitchStatementKind:         "SwitchStatement",
	SwitchCaseKind:              "SwitchCase",
	LabeledStatementKind:        "LabeledStatement",
	EmptyStatementKind:          "EmptyStatement",
	DebuggerStatementKind:       "DebuggerStatement",
	PhiNodeKind:                 "PhiNode",
}
