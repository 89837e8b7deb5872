package ir

// Factory is where new IR nodes are minted. Every construction
// operation stamps a fresh NodeID from the underlying Generator, the
// same counter Generator.NewNodeID hands out directly (the CFG builder
// uses it for block ids), so NodeID uniqueness holds across everything
// drawn from one Generator (spec invariant 1).
type Factory struct {
	gen *Generator
}

// NewFactory returns a Factory drawing identifiers from gen.
func NewFactory(gen *Generator) *Factory {
	return &Factory{gen: gen}
}

// Generator exposes the underlying id source, e.g. for a caller that
// also needs to mint a ScopeID/ShapeID directly.
func (f *Factory) Generator() *Generator { return f.gen }

func (f *Factory) meta(pos, end Position, scope ScopeID) Meta {
	return Meta{ID: f.gen.NewNodeID(), Pos: pos, EndPos: end, Scope: scope}
}

// --- Expressions ---

func (f *Factory) Identifier(name VariableName, pos, end Position, scope ScopeID) *Identifier {
	return &Identifier{Meta: f.meta(pos, end, scope), Name: name}
}

func (f *Factory) SSAIdentifier(ssa SSAName, pos, end Position, scope ScopeID) *SSAIdentifier {
	return &SSAIdentifier{Meta: f.meta(pos, end, scope), SSAName: ssa}
}

func (f *Factory) Literal(kind LiteralValueKind, value interface{}, raw string, pos, end Position) *Literal {
	return &Literal{Meta: f.meta(pos, end, NoScope), ValueKind: kind, Value: value, Raw: raw}
}

func (f *Factory) BinaryExpression(op string, left, right Expr, pos, end Position) *BinaryExpression {
	return &BinaryExpression{Meta: f.meta(pos, end, NoScope), Operator: op, Left: left, Right: right}
}

func (f *Factory) UnaryExpression(op string, arg Expr, pos, end Position) *UnaryExpression {
	return &UnaryExpression{Meta: f.meta(pos, end, NoScope), Operator: op, Argument: arg}
}

func (f *Factory) UpdateExpression(op string, prefix bool, arg Expr, pos, end Position) *UpdateExpression {
	return &UpdateExpression{Meta: f.meta(pos, end, NoScope), Operator: op, Prefix: prefix, Argument: arg}
}

func (f *Factory) AssignmentExpression(op string, left, right Expr, pos, end Position) *AssignmentExpression {
	return &AssignmentExpression{Meta: f.meta(pos, end, NoScope), Operator: op, Left: left, Right: right}
}

func (f *Factory) LogicalExpression(op string, left, right Expr, pos, end Position) *LogicalExpression {
	return &LogicalExpression{Meta: f.meta(pos, end, NoScope), Operator: op, Left: left, Right: right}
}

func (f *Factory) ConditionalExpression(test, cons, alt Expr, pos, end Position) *ConditionalExpression {
	return &ConditionalExpression{Meta: f.meta(pos, end, NoScope), Test: test, Consequent: cons, Alternate: alt}
}

func (f *Factory) CallExpression(callee Expr, args []Expr, pos, end Position) *CallExpression {
	return &CallExpression{Meta: f.meta(pos, end, NoScope), Callee: callee, Arguments: args}
}

func (f *Factory) NewExpression(callee Expr, args []Expr, pos, end Position) *NewExpression {
	return &NewExpression{Meta: f.meta(pos, end, NoScope), Callee: callee, Arguments: args}
}

func (f *Factory) MemberExpression(object, property Expr, computed bool, pos, end Position) *MemberExpression {
	return &MemberExpression{Meta: f.meta(pos, end, NoScope), Object: object, Property: property, Computed: computed}
}

func (f *Factory) ArrayExpression(elements []Expr, pos, end Position) *ArrayExpression {
	return &ArrayExpression{Meta: f.meta(pos, end, NoScope), Elements: elements}
}

func (f *Factory) ObjectProperty(key, value Expr, computed, shorthand bool, pos, end Position) *ObjectProperty {
	return &ObjectProperty{Meta: f.meta(pos, end, NoScope), Key: key, Value: value, Computed: computed, Shorthand: shorthand}
}

func (f *Factory) ObjectExpression(props []*ObjectProperty, pos, end Position) *ObjectExpression {
	return &ObjectExpression{Meta: f.meta(pos, end, NoScope), Properties: props}
}

func (f *Factory) SequenceExpression(exprs []Expr, pos, end Position) *SequenceExpression {
	return &SequenceExpression{Meta: f.meta(pos, end, NoScope), Expressions: exprs}
}

func (f *Factory) FunctionExpression(name *Identifier, params []*Identifier, body *BlockStatement, async, generator bool, pos, end Position, scope ScopeID) *FunctionExpression {
	return &FunctionExpression{Meta: f.meta(pos, end, scope), Name: name, Params: params, Body: body, Async: async, Generator: generator}
}

func (f *Factory) ArrowFunctionExpression(params []*Identifier, body Node, exprBody, async bool, pos, end Position, scope ScopeID) *ArrowFunctionExpression {
	return &ArrowFunctionExpression{Meta: f.meta(pos, end, scope), Params: params, Body: body, ExpressionBody: exprBody, Async: async}
}

// --- Statements ---

func (f *Factory) ExpressionStatement(expr Expr, pos, end Position) *ExpressionStatement {
	return &ExpressionStatement{Meta: f.meta(pos, end, NoScope), Expression: expr}
}

func (f *Factory) BlockStatement(body []Stmt, pos, end Position, scope ScopeID) *BlockStatement {
	return &BlockStatement{Meta: f.meta(pos, end, scope), Body: body}
}

func (f *Factory) VariableDeclarator(id, init Expr, pos, end Position) *VariableDeclarator {
	return &VariableDeclarator{Meta: f.meta(pos, end, NoScope), Id: id, Init: init}
}

func (f *Factory) VariableDeclaration(kind VariableKind, decls []*VariableDeclarator, pos, end Position) *VariableDeclaration {
	return &VariableDeclaration{Meta: f.meta(pos, end, NoScope), VarKind: kind, Declarations: decls}
}

func (f *Factory) FunctionDeclaration(name *Identifier, params []*Identifier, body *BlockStatement, async, generator bool, pos, end Position, scope ScopeID) *FunctionDeclaration {
	return &FunctionDeclaration{Meta: f.meta(pos, end, scope), Name: name, Params: params, Body: body, Async: async, Generator: generator}
}

func (f *Factory) ReturnStatement(arg Expr, pos, end Position) *ReturnStatement {
	return &ReturnStatement{Meta: f.meta(pos, end, NoScope), Argument: arg}
}

func (f *Factory) IfStatement(test Expr, cons, alt Stmt, pos, end Position) *IfStatement {
	return &IfStatement{Meta: f.meta(pos, end, NoScope), Test: test, Consequent: cons, Alternate: alt}
}

func (f *Factory) WhileStatement(test Expr, body Stmt, pos, end Position) *WhileStatement {
	return &WhileStatement{Meta: f.meta(pos, end, NoScope), Test: test, Body: body}
}

func (f *Factory) ForStatement(init Node, test, update Expr, body Stmt, pos, end Position) *ForStatement {
	return &ForStatement{Meta: f.meta(pos, end, NoScope), Init: init, Test: test, Update: update, Body: body}
}

func (f *Factory) BreakStatement(label *Identifier, pos, end Position) *BreakStatement {
	return &BreakStatement{Meta: f.meta(pos, end, NoScope), Label: label}
}

func (f *Factory) ContinueStatement(label *Identifier, pos, end Position) *ContinueStatement {
	return &ContinueStatement{Meta: f.meta(pos, end, NoScope), Label: label}
}

func (f *Factory) ThrowStatement(arg Expr, pos, end Position) *ThrowStatement {
	return &ThrowStatement{Meta: f.meta(pos, end, NoScope), Argument: arg}
}

func (f *Factory) CatchClause(param Expr, body *BlockStatement, pos, end Position, scope ScopeID) *CatchClause {
	return &CatchClause{Meta: f.meta(pos, end, scope), Param: param, Body: body}
}

func (f *Factory) TryStatement(block *BlockStatement, handler *CatchClause, finalizer *BlockStatement, pos, end Position) *TryStatement {
	return &TryStatement{Meta: f.meta(pos, end, NoScope), Block: block, Handler: handler, Finalizer: finalizer}
}

func (f *Factory) SwitchCase(test Expr, consequent []Stmt, pos, end Position) *SwitchCase {
	return &SwitchCase{Meta: f.meta(pos, end, NoScope), Test: test, Consequent: consequent}
}

func (f *Factory) SwitchStatement(discriminant Expr, cases []*SwitchCase, pos, end Position) *SwitchStatement {
	return &SwitchStatement{Meta: f.meta(pos, end, NoScope), Discriminant: discriminant, Cases: cases}
}

func (f *Factory) LabeledStatement(label *Identifier, body Stmt, pos, end Position) *LabeledStatement {
	return &LabeledStatement{Meta: f.meta(pos, end, NoScope), Label: label, Body: body}
}

func (f *Factory) EmptyStatement(pos, end Position) *EmptyStatement {
	return &EmptyStatement{Meta: f.meta(pos, end, NoScope)}
}

func (f *Factory) DebuggerStatement(pos, end Position) *DebuggerStatement {
	return &DebuggerStatement{Meta: f.meta(pos, end, NoScope)}
}

// --- SSA-only ---

func (f *Factory) PhiNode(variable VariableName, operands map[NodeID]SSAVersion, target SSAVersion, pos Position) *PhiNode {
	return &PhiNode{Meta: f.meta(pos, pos, NoScope), Variable: variable, Operands: operands, Target: target}
}

// --- Root ---

func (f *Factory) Program(body []Stmt, source SourceType, pos, end Position) *Program {
	return &Program{Meta: f.meta(pos, end, NoScope), Body: body, Source: source}
}
