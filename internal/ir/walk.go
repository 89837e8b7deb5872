package ir

// Children returns the direct child nodes of n in source order, nil
// entries in slice-typed fields (array holes, absent else-branches)
// omitted. Walk and ExtractIdentifiers go through it; Clone has its own
// per-variant switch in clone.go, so a new node variant is taught its
// shape in both places.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Program:
		return stmtsToNodes(v.Body)

	case *Identifier, *SSAIdentifier, *Literal, *EmptyStatement, *DebuggerStatement:
		return nil

	case *BinaryExpression:
		return filterNil(v.Left, v.Right)
	case *UnaryExpression:
		return filterNil(v.Argument)
	case *UpdateExpression:
		return filterNil(v.Argument)
	case *AssignmentExpression:
		return filterNil(v.Left, v.Right)
	case *LogicalExpression:
		return filterNil(v.Left, v.Right)
	case *ConditionalExpression:
		return filterNil(v.Test, v.Consequent, v.Alternate)
	case *CallExpression:
		out := filterNil(v.Callee)
		return append(out, exprsToNodes(v.Arguments)...)
	case *NewExpression:
		out := filterNil(v.Callee)
		return append(out, exprsToNodes(v.Arguments)...)
	case *MemberExpression:
		return filterNil(v.Object, v.Property)
	case *ArrayExpression:
		return exprsToNodes(v.Elements)
	case *ObjectProperty:
		return filterNil(v.Key, v.Value)
	case *ObjectExpression:
		out := make([]Node, 0, len(v.Properties))
		for _, p := range v.Properties {
			if p != nil {
				out = append(out, p)
			}
		}
		return out
	case *SequenceExpression:
		return exprsToNodes(v.Expressions)
	case *FunctionExpression:
		return functionChildren(identNode(v.Name), identsToNodes(v.Params), v.Body)
	case *ArrowFunctionExpression:
		return functionChildren(nil, identsToNodes(v.Params), v.Body)

	case *ExpressionStatement:
		return filterNil(v.Expression)
	case *BlockStatement:
		out := make([]Node, 0, len(v.Body)+len(v.Phis))
		for _, p := range v.Phis {
			out = append(out, p)
		}
		out = append(out, stmtsToNodes(v.Body)...)
		return out
	case *VariableDeclarator:
		return filterNil(v.Id, v.Init)
	case *VariableDeclaration:
		out := make([]Node, 0, len(v.Declarations))
		for _, d := range v.Declarations {
			if d != nil {
				out = append(out, d)
			}
		}
		return out
	case *FunctionDeclaration:
		return functionChildren(identNode(v.Name), identsToNodes(v.Params), v.Body)
	case *ReturnStatement:
		return filterNil(v.Argument)
	case *IfStatement:
		return filterNil(v.Test, v.Consequent, v.Alternate)
	case *WhileStatement:
		return filterNil(v.Test, v.Body)
	case *ForStatement:
		return filterNil(v.Init, v.Test, v.Update, v.Body)
	case *BreakStatement:
		return filterNil(identNode(v.Label))
	case *ContinueStatement:
		return filterNil(identNode(v.Label))
	case *ThrowStatement:
		return filterNil(v.Argument)
	case *CatchClause:
		return filterNil(v.Param, v.Body)
	case *TryStatement:
		return filterNil(v.Block, v.Handler, v.Finalizer)
	case *SwitchCase:
		return filterNil(v.Test).appendStmts(v.Consequent)
	case *SwitchStatement:
		out := filterNil(v.Discriminant)
		for _, c := range v.Cases {
			if c != nil {
				out = append(out, c)
			}
		}
		return out
	case *LabeledStatement:
		return filterNil(identNode(v.Label), v.Body)
	case *PhiNode:
		return nil
	default:
		return nil
	}
}

// nodeList is []Node with a convenience appender used only inside
// Children, to keep the switch above free of repeated nil-checking
// boilerplate.
type nodeList []Node

func (l nodeList) appendStmts(stmts []Stmt) []Node {
	out := []Node(l)
	out = append(out, stmtsToNodes(stmts)...)
	return out
}

func filterNil(nodes ...Node) nodeList {
	out := make(nodeList, 0, len(nodes))
	for _, n := range nodes {
		if isNilNode(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// isNilNode reports whether n is a nil interface or a typed-nil pointer
// hiding behind the Node interface (common when an optional *Identifier
// field is unset).
func isNilNode(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Identifier:
		return v == nil
	case *BlockStatement:
		return v == nil
	case *CatchClause:
		return v == nil
	default:
		return false
	}
}

func identNode(id *Identifier) Node {
	if id == nil {
		return nil
	}
	return id
}

func identsToNodes(ids []*Identifier) []Node {
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		if id != nil {
			out = append(out, id)
		}
	}
	return out
}

func exprsToNodes(exprs []Expr) []Node {
	out := make([]Node, 0, len(exprs))
	for _, e := range exprs {
		if !isNilExpr(e) {
			out = append(out, e)
		}
	}
	return out
}

func isNilExpr(e Expr) bool {
	return e == nil
}

func stmtsToNodes(stmts []Stmt) []Node {
	out := make([]Node, 0, len(stmts))
	for _, s := range stmts {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func functionChildren(name Node, params []Node, body Node) []Node {
	out := make([]Node, 0, len(params)+2)
	if !isNilNode(name) {
		out = append(out, name)
	}
	out = append(out, params...)
	if !isNilNode(body) {
		out = append(out, body)
	}
	return out
}

// Walk traverses n and its descendants pre-order, depth first. If visit
// returns false, that node's children are skipped but traversal
// continues with its siblings.
func Walk(n Node, visit func(Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, visit)
	}
}

// ExtractIdentifiers performs a pre-order walk collecting every
// Identifier occurrence reachable from n (factory contract, §4.1).
func ExtractIdentifiers(n Node) []*Identifier {
	var out []*Identifier
	Walk(n, func(cur Node) bool {
		if id, ok := cur.(*Identifier); ok {
			out = append(out, id)
		}
		return true
	})
	return out
}
