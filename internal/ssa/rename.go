package ssa

import (
	"sort"

	"deobcore/internal/cfg"
	"deobcore/internal/ir"
)

// renamer carries the per-variable version stacks (the "variableStack"
// vocabulary a linear SSA builder uses, generalized here to walk the
// dominator tree instead of a single straight-line block order) plus
// the bookkeeping needed to wire each use back to its reaching def.
type renamer struct {
	gen            *ir.Generator
	graph          *cfg.CFG
	stacks         map[ir.VariableName][]ir.SSAVersion
	defVersionNode map[ir.VariableName]map[ir.SSAVersion]ir.NodeID
	children       map[ir.NodeID][]ir.NodeID
	curPushed      *[]ir.VariableName
}

func renameVariables(gen *ir.Generator, graph *cfg.CFG) {
	r := &renamer{
		gen:            gen,
		graph:          graph,
		stacks:         make(map[ir.VariableName][]ir.SSAVersion),
		defVersionNode: make(map[ir.VariableName]map[ir.SSAVersion]ir.NodeID),
		children:       domTreeChildren(graph),
	}
	r.renameBlock(graph.Entry)
}

func domTreeChildren(graph *cfg.CFG) map[ir.NodeID][]ir.NodeID {
	children := make(map[ir.NodeID][]ir.NodeID)
	for id, parent := range graph.IDom {
		if id == parent {
			continue
		}
		children[parent] = append(children[parent], id)
	}
	for k := range children {
		sort.Slice(children[k], func(i, j int) bool { return children[k][i] < children[k][j] })
	}
	return children
}

func (r *renamer) push(name ir.VariableName, v ir.SSAVersion, definingNode ir.NodeID) {
	r.stacks[name] = append(r.stacks[name], v)
	if r.defVersionNode[name] == nil {
		r.defVersionNode[name] = make(map[ir.SSAVersion]ir.NodeID)
	}
	r.defVersionNode[name][v] = definingNode
	if r.curPushed != nil {
		*r.curPushed = append(*r.curPushed, name)
	}
}

func (r *renamer) pop(name ir.VariableName) {
	s := r.stacks[name]
	if len(s) == 0 {
		return
	}
	r.stacks[name] = s[:len(s)-1]
}

func (r *renamer) top(name ir.VariableName) (ir.SSAVersion, bool) {
	s := r.stacks[name]
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}

// renameBlock renames id's own statements, wires its live-out versions
// into every successor's phi operands, recurses over the dominator
// tree, then pops whatever this block pushed — the standard
// dominator-tree-order renaming walk.
func (r *renamer) renameBlock(id ir.NodeID) {
	blk := r.graph.Block(id)
	if blk == nil {
		return
	}

	var localPushed []ir.VariableName
	prevPushed := r.curPushed
	r.curPushed = &localPushed

	for _, phi := range blk.Phis {
		v := r.gen.NextSSAVersion(phi.Variable)
		phi.Target = v
		r.push(phi.Variable, v, phi.ID)
	}

	for _, s := range blk.Statements {
		r.renameStmt(s)
	}

	for _, succID := range blk.Successors.Sorted() {
		succ := r.graph.Block(succID)
		if succ == nil {
			continue
		}
		for _, phi := range succ.Phis {
			if v, ok := r.top(phi.Variable); ok {
				phi.Operands[id] = v
			}
		}
	}

	r.curPushed = prevPushed

	for _, child := range r.children[id] {
		r.renameBlock(child)
	}

	for _, name := range localPushed {
		r.pop(name)
	}
}

func (r *renamer) useIdentifier(id *ir.Identifier) {
	v, ok := r.top(id.Name)
	if !ok {
		return
	}
	meta := &ir.SSAMeta{Version: v}
	if defNode, ok := r.defVersionNode[id.Name][v]; ok {
		meta.Uses = []ir.NodeID{defNode}
	}
	id.SSA = meta
}

func (r *renamer) defIdentifier(id *ir.Identifier) {
	v := r.gen.NextSSAVersion(id.Name)
	id.SSA = &ir.SSAMeta{Version: v, Defs: []ir.VariableName{id.Name}}
	r.push(id.Name, v, id.NodeID())
}

// readModifyWriteIdentifier handles the single-occurrence case where an
// identifier both reads its old value and writes a new one (`x += 1`,
// `x++`): the occurrence's SSAMeta carries the new version as Version,
// but also records the def it read from via Uses, since there is only
// one Identifier node to annotate for both halves of the operation.
func (r *renamer) readModifyWriteIdentifier(id *ir.Identifier) {
	meta := &ir.SSAMeta{Defs: []ir.VariableName{id.Name}}
	if oldVersion, ok := r.top(id.Name); ok {
		if defNode, ok := r.defVersionNode[id.Name][oldVersion]; ok {
			meta.Uses = []ir.NodeID{defNode}
		}
	}
	v := r.gen.NextSSAVersion(id.Name)
	meta.Version = v
	id.SSA = meta
	r.push(id.Name, v, id.NodeID())
}

func (r *renamer) renameStmt(s ir.Stmt) {
	switch v := s.(type) {
	case *ir.ExpressionStatement:
		r.renameExpr(v.Expression)
	case *ir.VariableDeclaration:
		for _, d := range v.Declarations {
			r.renameExpr(d.Init)
			if id, ok := d.Id.(*ir.Identifier); ok {
				r.defIdentifier(id)
			}
		}
	case *ir.ReturnStatement:
		r.renameExpr(v.Argument)
	case *ir.ThrowStatement:
		r.renameExpr(v.Argument)
	case *ir.IfStatement:
		r.renameExpr(v.Test)
	case *ir.WhileStatement:
		r.renameExpr(v.Test)
	case *ir.ForStatement:
		r.renameExpr(v.Test)
	case *ir.SwitchStatement:
		r.renameExpr(v.Discriminant)
	case *ir.BreakStatement, *ir.ContinueStatement, *ir.EmptyStatement, *ir.DebuggerStatement:
	}
}

func (r *renamer) renameExpr(e ir.Expr) {
	if e == nil {
		return
	}
	switch v := e.(type) {
	case *ir.Identifier:
		r.useIdentifier(v)
	case *ir.BinaryExpression:
		r.renameExpr(v.Left)
		r.renameExpr(v.Right)
	case *ir.UnaryExpression:
		r.renameExpr(v.Argument)
	case *ir.UpdateExpression:
		if id, ok := v.Argument.(*ir.Identifier); ok {
			r.readModifyWriteIdentifier(id)
		} else {
			r.renameExpr(v.Argument)
		}
	case *ir.AssignmentExpression:
		if id, ok := v.Left.(*ir.Identifier); ok {
			r.renameExpr(v.Right)
			if v.Operator != "=" {
				r.readModifyWriteIdentifier(id)
			} else {
				r.defIdentifier(id)
			}
		} else {
			r.renameExpr(v.Left)
			r.renameExpr(v.Right)
		}
	case *ir.LogicalExpression:
		r.renameExpr(v.Left)
		r.renameExpr(v.Right)
	case *ir.ConditionalExpression:
		r.renameExpr(v.Test)
		r.renameExpr(v.Consequent)
		r.renameExpr(v.Alternate)
	case *ir.CallExpression:
		r.renameExpr(v.Callee)
		for _, a := range v.Arguments {
			r.renameExpr(a)
		}
	case *ir.NewExpression:
		r.renameExpr(v.Callee)
		for _, a := range v.Arguments {
			r.renameExpr(a)
		}
	case *ir.MemberExpression:
		r.renameExpr(v.Object)
		if v.Computed {
			r.renameExpr(v.Property)
		}
	case *ir.ArrayExpression:
		for _, el := range v.Elements {
			r.renameExpr(el)
		}
	case *ir.ObjectExpression:
		for _, p := range v.Properties {
			if p.Computed {
				r.renameExpr(p.Key)
			}
			r.renameExpr(p.Value)
		}
	case *ir.SequenceExpression:
		for _, ex := range v.Expressions {
			r.renameExpr(ex)
		}
	case *ir.Literal, *ir.SSAIdentifier, *ir.FunctionExpression, *ir.ArrowFunctionExpression:
		// literals carry no identifiers; nested functions get their own
		// variable scope and are not renamed by this pass.
	}
}
