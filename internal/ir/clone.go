package ir

// Clone produces a deep copy of n: every node in the subtree gets a
// fresh NodeID from f, while every non-id field — source location,
// scope, SSA metadata, operator strings, literal values — is copied
// bit-identically (invariant 6). clone(clone(n)) is therefore
// structurally equal to clone(n) modulo fresh NodeIds.
func Clone(f *Factory, n Node) Node {
	if n == nil {
		return nil
	}
	switch v := n.(type) {
	case *Identifier:
		return &Identifier{Meta: cloneMeta(f, v.Meta), Name: v.Name}
	case *SSAIdentifier:
		return &SSAIdentifier{Meta: cloneMeta(f, v.Meta), SSAName: v.SSAName}
	case *Literal:
		return &Literal{Meta: cloneMeta(f, v.Meta), ValueKind: v.ValueKind, Value: v.Value, Raw: v.Raw}
	case *BinaryExpression:
		return &BinaryExpression{Meta: cloneMeta(f, v.Meta), Operator: v.Operator, Left: cloneExpr(f, v.Left), Right: cloneExpr(f, v.Right)}
	case *UnaryExpression:
		return &UnaryExpression{Meta: cloneMeta(f, v.Meta), Operator: v.Operator, Argument: cloneExpr(f, v.Argument)}
	case *UpdateExpression:
		return &UpdateExpression{Meta: cloneMeta(f, v.Meta), Operator: v.Operator, Prefix: v.Prefix, Argument: cloneExpr(f, v.Argument)}
	case *AssignmentExpression:
		return &AssignmentExpression{Meta: cloneMeta(f, v.Meta), Operator: v.Operator, Left: cloneExpr(f, v.Left), Right: cloneExpr(f, v.Right)}
	case *LogicalExpression:
		return &LogicalExpression{Meta: cloneMeta(f, v.Meta), Operator: v.Operator, Left: cloneExpr(f, v.Left), Right: cloneExpr(f, v.Right)}
	case *ConditionalExpression:
		return &ConditionalExpression{Meta: cloneMeta(f, v.Meta), Test: cloneExpr(f, v.Test), Consequent: cloneExpr(f, v.Consequent), Alternate: cloneExpr(f, v.Alternate)}
	case *CallExpression:
		return &CallExpression{Meta: cloneMeta(f, v.Meta), Callee: cloneExpr(f, v.Callee), Arguments: cloneExprs(f, v.Arguments)}
	case *NewExpression:
		return &NewExpression{Meta: cloneMeta(f, v.Meta), Callee: cloneExpr(f, v.Callee), Arguments: cloneExprs(f, v.Arguments)}
	case *MemberExpression:
		return &MemberExpression{Meta: cloneMeta(f, v.Meta), Object: cloneExpr(f, v.Object), Property: cloneExpr(f, v.Property), Computed: v.Computed}
	case *ArrayExpression:
		return &ArrayExpression{Meta: cloneMeta(f, v.Meta), Elements: cloneExprs(f, v.Elements)}
	case *ObjectProperty:
		return &ObjectProperty{Meta: cloneMeta(f, v.Meta), Key: cloneExpr(f, v.Key), Value: cloneExpr(f, v.Value), Computed: v.Computed, Shorthand: v.Shorthand}
	case *ObjectExpression:
		props := make([]*ObjectProperty, len(v.Properties))
		for i, p := range v.Properties {
			props[i] = Clone(f, p).(*ObjectProperty)
		}
		return &ObjectExpression{Meta: cloneMeta(f, v.Meta), Properties: props}
	case *SequenceExpression:
		return &SequenceExpression{Meta: cloneMeta(f, v.Meta), Expressions: cloneExprs(f, v.Expressions)}
	case *FunctionExpression:
		return &FunctionExpression{
			Meta: cloneMeta(f, v.Meta), Name: cloneIdent(f, v.Name), Params: cloneIdents(f, v.Params),
			Body: cloneBlock(f, v.Body), Async: v.Async, Generator: v.Generator,
		}
	case *ArrowFunctionExpression:
		return &ArrowFunctionExpression{
			Meta: cloneMeta(f, v.Meta), Params: cloneIdents(f, v.Params), Body: cloneNode(f, v.Body),
			ExpressionBody: v.ExpressionBody, Async: v.Async,
		}

	case *ExpressionStatement:
		return &ExpressionStatement{Meta: cloneMeta(f, v.Meta), Expression: cloneExpr(f, v.Expression)}
	case *BlockStatement:
		return &BlockStatement{Meta: cloneMeta(f, v.Meta), Body: cloneStmts(f, v.Body), Phis: clonePhis(f, v.Phis)}
	case *VariableDeclarator:
		return &VariableDeclarator{Meta: cloneMeta(f, v.Meta), Id: cloneExpr(f, v.Id), Init: cloneExpr(f, v.Init)}
	case *VariableDeclaration:
		decls := make([]*VariableDeclarator, len(v.Declarations))
		for i, d := range v.Declarations {
			decls[i] = Clone(f, d).(*VariableDeclarator)
		}
		return &VariableDeclaration{Meta: cloneMeta(f, v.Meta), VarKind: v.VarKind, Declarations: decls}
	case *FunctionDeclaration:
		return &FunctionDeclaration{
			Meta: cloneMeta(f, v.Meta), Name: cloneIdent(f, v.Name), Params: cloneIdents(f, v.Params),
			Body: cloneBlock(f, v.Body), Async: v.Async, Generator: v.Generator,
		}
	case *ReturnStatement:
		return &ReturnStatement{Meta: cloneMeta(f, v.Meta), Argument: cloneExpr(f, v.Argument)}
	case *IfStatement:
		return &IfStatement{Meta: cloneMeta(f, v.Meta), Test: cloneExpr(f, v.Test), Consequent: cloneStmt(f, v.Consequent), Alternate: cloneStmt(f, v.Alternate)}
	case *WhileStatement:
		return &WhileStatement{Meta: cloneMeta(f, v.Meta), Test: cloneExpr(f, v.Test), Body: cloneStmt(f, v.Body)}
	case *ForStatement:
		return &ForStatement{Meta: cloneMeta(f, v.Meta), Init: cloneNode(f, v.Init), Test: cloneExpr(f, v.Test), Update: cloneExpr(f, v.Update), Body: cloneStmt(f, v.Body)}
	case *BreakStatement:
		return &BreakStatement{Meta: cloneMeta(f, v.Meta), Label: cloneIdent(f, v.Label)}
	case *ContinueStatement:
		return &ContinueStatement{Meta: cloneMeta(f, v.Meta), Label: cloneIdent(f, v.Label)}
	case *ThrowStatement:
		return &ThrowStatement{Meta: cloneMeta(f, v.Meta), Argument: cloneExpr(f, v.Argument)}
	case *CatchClause:
		return &CatchClause{Meta: cloneMeta(f, v.Meta), Param: cloneExpr(f, v.Param), Body: cloneBlock(f, v.Body)}
	case *TryStatement:
		var handler *CatchClause
		if v.Handler != nil {
			handler = Clone(f, v.Handler).(*CatchClause)
		}
		return &TryStatement{Meta: cloneMeta(f, v.Meta), Block: cloneBlock(f, v.Block), Handler: handler, Finalizer: cloneBlock(f, v.Finalizer)}
	case *SwitchCase:
		return &SwitchCase{Meta: cloneMeta(f, v.Meta), Test: cloneExpr(f, v.Test), Consequent: cloneStmts(f, v.Consequent)}
	case *SwitchStatement:
		cases := make([]*SwitchCase, len(v.Cases))
		for i, c := range v.Cases {
			cases[i] = Clone(f, c).(*SwitchCase)
		}
		return &SwitchStatement{Meta: cloneMeta(f, v.Meta), Discriminant: cloneExpr(f, v.Discriminant), Cases: cases}
	case *LabeledStatement:
		return &LabeledStatement{Meta: cloneMeta(f, v.Meta), Label: cloneIdent(f, v.Label), Body: cloneStmt(f, v.Body)}
	case *EmptyStatement:
		return &EmptyStatement{Meta: cloneMeta(f, v.Meta)}
	case *DebuggerStatement:
		return &DebuggerStatement{Meta: cloneMeta(f, v.Meta)}
	case *PhiNode:
		operands := make(map[NodeID]SSAVersion, len(v.Operands))
		for k, val := range v.Operands {
			operands[k] = val
		}
		return &PhiNode{Meta: cloneMeta(f, v.Meta), Variable: v.Variable, Operands: operands, Target: v.Target}
	case *Program:
		return &Program{Meta: cloneMeta(f, v.Meta), Body: cloneStmts(f, v.Body), Source: v.Source}
	default:
		return nil
	}
}

// cloneMeta stamps a fresh NodeID while copying location, scope, and SSA
// metadata from src by value (invariant 6).
func cloneMeta(f *Factory, src Meta) Meta {
	m := Meta{ID: f.gen.NewNodeID(), Pos: src.Pos, EndPos: src.EndPos, Scope: src.Scope}
	if src.SSA != nil {
		cp := *src.SSA
		cp.Uses = append([]NodeID(nil), src.SSA.Uses...)
		cp.Defs = append([]VariableName(nil), src.SSA.Defs...)
		m.SSA = &cp
	}
	return m
}

func cloneExpr(f *Factory, e Expr) Expr {
	if e == nil {
		return nil
	}
	return Clone(f, e).(Expr)
}

func cloneStmt(f *Factory, s Stmt) Stmt {
	if s == nil {
		return nil
	}
	return Clone(f, s).(Stmt)
}

func cloneNode(f *Factory, n Node) Node {
	if n == nil {
		return nil
	}
	return Clone(f, n)
}

func cloneIdent(f *Factory, id *Identifier) *Identifier {
	if id == nil {
		return nil
	}
	return Clone(f, id).(*Identifier)
}

func cloneBlock(f *Factory, b *BlockStatement) *BlockStatement {
	if b == nil {
		return nil
	}
	return Clone(f, b).(*BlockStatement)
}

func cloneIdents(f *Factory, ids []*Identifier) []*Identifier {
	if ids == nil {
		return nil
	}
	out := make([]*Identifier, len(ids))
	for i, id := range ids {
		out[i] = cloneIdent(f, id)
	}
	return out
}

func cloneExprs(f *Factory, exprs []Expr) []Expr {
	if exprs == nil {
		return nil
	}
	out := make([]Expr, len(exprs))
	for i, e := range exprs {
		out[i] = cloneExpr(f, e)
	}
	return out
}

func cloneStmts(f *Factory, stmts []Stmt) []Stmt {
	if stmts == nil {
		return nil
	}
	out := make([]Stmt, len(stmts))
	for i, s := range stmts {
		out[i] = cloneStmt(f, s)
	}
	return out
}

func clonePhis(f *Factory, phis []*PhiNode) []*PhiNode {
	if phis == nil {
		return nil
	}
	out := make([]*PhiNode, len(phis))
	for i, p := range phis {
		out[i] = Clone(f, p).(*PhiNode)
	}
	return out
}
