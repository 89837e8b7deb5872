package cfg

import (
	"fmt"

	"deobcore/internal/ir"
)

// ConstructionError reports a structurally invalid input to Build, e.g.
// a break or continue outside any enclosing loop/switch. It carries the
// offending node so a caller can point a diagnostic at the source.
type ConstructionError struct {
	Node    ir.Node
	Message string
}

func (e *ConstructionError) Error() string { return e.Message }

type scopeKind int

const (
	loopScope scopeKind = iota
	switchScope
)

type enclosingScope struct {
	kind           scopeKind
	label          string
	breakTarget    ir.NodeID
	continueTarget ir.NodeID
	hasContinue    bool
}

type tryFrame struct {
	handlerEntry ir.NodeID
	hasHandler   bool
}

// Builder constructs a CFG from a flat statement list by walking it
// once, threading a "current block" the way a classic basic-block
// builder does: linear statements accumulate into it, and every
// control-flow construct closes it with the appropriate edges before
// opening whatever block control flows into next.
type Builder struct {
	gen     *ir.Generator
	factory *ir.Factory
	cfg     *CFG

	current *BasicBlock

	scopes       []enclosingScope
	tryStack     []tryFrame
	pendingLabel string
}

// Build constructs a CFG over stmts. On structural failure (e.g. a break
// with no enclosing loop/switch) it returns a non-nil error and a nil
// CFG — partial graphs are never handed back (§4.2 failure contract).
func Build(gen *ir.Generator, stmts []ir.Stmt) (cfgOut *CFG, err error) {
	b := &Builder{gen: gen, factory: ir.NewFactory(gen), cfg: newCFG()}

	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(*ConstructionError)
			if !ok {
				panic(r)
			}
			cfgOut, err = nil, ce
		}
	}()

	entry := b.newBlock("entry")
	exit := b.newBlock("exit")
	b.cfg.Entry = entry.ID
	b.cfg.Exit = exit.ID
	b.current = entry

	b.buildStmts(stmts)

	if b.current != nil {
		b.linkEdge(b.current.ID, exit.ID, Unconditional)
	}
	b.closeDanglingBlocks()

	return b.cfg, nil
}

func (b *Builder) fail(node ir.Node, format string, args ...interface{}) {
	panic(&ConstructionError{Node: node, Message: fmt.Sprintf(format, args...)})
}

func (b *Builder) newBlock(label string) *BasicBlock {
	blk := newBlock(b.gen.NewNodeID(), label)
	b.cfg.Blocks[blk.ID] = blk
	return blk
}

func (b *Builder) linkEdge(from, to ir.NodeID, typ EdgeType) {
	b.cfg.AddEdge(&Edge{From: from, To: to, Type: typ})
}

func (b *Builder) ensureBlock() *BasicBlock {
	if b.current == nil {
		b.current = b.newBlock("")
	}
	return b.current
}

// closeDanglingBlocks synthesizes an edge to Exit from every block
// (other than Exit itself) that was left with no successors, whether or
// not Entry reaches it.
func (b *Builder) closeDanglingBlocks() {
	for id, blk := range b.cfg.Blocks {
		if id == b.cfg.Exit {
			continue
		}
		if len(blk.Successors) == 0 {
			b.linkEdge(id, b.cfg.Exit, Unconditional)
		}
	}
}

func (b *Builder) buildStmts(stmts []ir.Stmt) {
	for _, s := range stmts {
		b.buildStmt(s)
	}
}

func (b *Builder) buildStmt(s ir.Stmt) {
	if s == nil {
		return
	}
	switch v := s.(type) {
	case *ir.BlockStatement:
		b.buildStmts(v.Body)
	case *ir.IfStatement:
		b.buildIf(v)
	case *ir.WhileStatement:
		b.buildWhile(v)
	case *ir.ForStatement:
		b.buildFor(v)
	case *ir.SwitchStatement:
		b.buildSwitch(v)
	case *ir.BreakStatement:
		b.buildBreak(v)
	case *ir.ContinueStatement:
		b.buildContinue(v)
	case *ir.ReturnStatement:
		b.buildReturn(v)
	case *ir.ThrowStatement:
		b.buildThrow(v)
	case *ir.TryStatement:
		b.buildTry(v)
	case *ir.LabeledStatement:
		b.buildLabeled(v)
	default:
		blk := b.ensureBlock()
		blk.Statements = append(blk.Statements, s)
	}
}

func (b *Builder) buildIf(v *ir.IfStatement) {
	test := b.ensureBlock()
	test.Statements = append(test.Statements, v)
	b.current = nil

	consEntry := b.newBlock("if.then")
	b.linkEdge(test.ID, consEntry.ID, TrueBranch)
	b.current = consEntry
	b.buildStmt(v.Consequent)
	consExit := b.current

	var altExit *BasicBlock
	if v.Alternate != nil {
		altEntry := b.newBlock("if.else")
		b.linkEdge(test.ID, altEntry.ID, FalseBranch)
		b.current = altEntry
		b.buildStmt(v.Alternate)
		altExit = b.current
	}

	if consExit == nil && v.Alternate != nil && altExit == nil {
		// both branches terminated unconditionally (e.g. return in each arm)
		b.current = nil
		return
	}

	join := b.newBlock("if.join")
	if consExit != nil {
		b.linkEdge(consExit.ID, join.ID, Unconditional)
	}
	if v.Alternate == nil {
		b.linkEdge(test.ID, join.ID, FalseBranch)
	} else if altExit != nil {
		b.linkEdge(altExit.ID, join.ID, Unconditional)
	}
	b.current = join
}

func (b *Builder) buildWhile(v *ir.WhileStatement) {
	prev := b.current
	header := b.newBlock("while.header")
	if prev != nil {
		b.linkEdge(prev.ID, header.ID, Unconditional)
	}
	header.Statements = append(header.Statements, v)

	bodyEntry := b.newBlock("while.body")
	exit := b.newBlock("while.exit")
	b.linkEdge(header.ID, bodyEntry.ID, TrueBranch)
	b.linkEdge(header.ID, exit.ID, FalseBranch)

	b.pushScope(loopScope, exit.ID, header.ID)
	b.current = bodyEntry
	b.buildStmt(v.Body)
	if b.current != nil {
		b.linkEdge(b.current.ID, header.ID, Unconditional)
	}
	b.popScope()

	b.current = exit
}

func (b *Builder) buildFor(v *ir.ForStatement) {
	if v.Init != nil {
		b.buildForInit(v.Init)
	}

	prev := b.current
	header := b.newBlock("for.header")
	if prev != nil {
		b.linkEdge(prev.ID, header.ID, Unconditional)
	}
	header.Statements = append(header.Statements, v)

	bodyEntry := b.newBlock("for.body")
	exit := b.newBlock("for.exit")
	b.linkEdge(header.ID, bodyEntry.ID, TrueBranch)
	if v.Test != nil {
		b.linkEdge(header.ID, exit.ID, FalseBranch)
	}

	update := b.newBlock("for.update")
	b.pushScope(loopScope, exit.ID, update.ID)
	b.current = bodyEntry
	b.buildStmt(v.Body)
	if b.current != nil {
		b.linkEdge(b.current.ID, update.ID, Unconditional)
	}
	b.popScope()

	if v.Update != nil {
		pos, end := v.Loc()
		update.Statements = append(update.Statements, b.factory.ExpressionStatement(v.Update, pos, end))
	}
	b.linkEdge(update.ID, header.ID, Unconditional)

	b.current = exit
}

// buildForInit lowers a for-loop's init clause, which may be a
// declaration statement or a bare expression, into the pre-header
// block.
func (b *Builder) buildForInit(init ir.Node) {
	switch v := init.(type) {
	case ir.Stmt:
		b.buildStmt(v)
	case ir.Expr:
		pos, end := v.Loc()
		blk := b.ensureBlock()
		blk.Statements = append(blk.Statements, b.factory.ExpressionStatement(v, pos, end))
	}
}

func (b *Builder) buildSwitch(v *ir.SwitchStatement) {
	dispatch := b.ensureBlock()
	dispatch.Statements = append(dispatch.Statements, v)
	b.current = nil

	exit := b.newBlock("switch.exit")
	b.pushScope(switchScope, exit.ID, 0)

	entries := make([]*BasicBlock, len(v.Cases))
	for i := range v.Cases {
		entries[i] = b.newBlock(fmt.Sprintf("switch.case%d", i))
		b.linkEdge(dispatch.ID, entries[i].ID, TrueBranch)
	}

	var fallingThrough *BasicBlock
	for i, c := range v.Cases {
		entry := entries[i]
		if fallingThrough != nil {
			b.linkEdge(fallingThrough.ID, entry.ID, Fallthrough)
		}
		b.current = entry
		b.buildStmts(c.Consequent)
		fallingThrough = b.current
	}
	if fallingThrough != nil {
		b.linkEdge(fallingThrough.ID, exit.ID, Unconditional)
	}

	b.popScope()
	b.current = exit
}

func (b *Builder) buildBreak(v *ir.BreakStatement) {
	target, ok := b.resolveBreak(v.Label)
	if !ok {
		label := "<unlabeled>"
		if v.Label != nil {
			label = string(v.Label.Name)
		}
		b.fail(v, "break outside any enclosing loop/switch (label %s)", label)
	}
	blk := b.ensureBlock()
	blk.Statements = append(blk.Statements, v)
	b.linkEdge(blk.ID, target, Unconditional)
	b.current = nil
}

func (b *Builder) buildContinue(v *ir.ContinueStatement) {
	target, ok := b.resolveContinue(v.Label)
	if !ok {
		label := "<unlabeled>"
		if v.Label != nil {
			label = string(v.Label.Name)
		}
		b.fail(v, "continue outside any enclosing loop (label %s)", label)
	}
	blk := b.ensureBlock()
	blk.Statements = append(blk.Statements, v)
	b.linkEdge(blk.ID, target, Unconditional)
	b.current = nil
}

func (b *Builder) buildReturn(v *ir.ReturnStatement) {
	blk := b.ensureBlock()
	blk.Statements = append(blk.Statements, v)
	b.linkEdge(blk.ID, b.cfg.Exit, Unconditional)
	b.current = nil
}

func (b *Builder) buildThrow(v *ir.ThrowStatement) {
	blk := b.ensureBlock()
	blk.Statements = append(blk.Statements, v)
	target := b.cfg.Exit
	if len(b.tryStack) > 0 && b.tryStack[len(b.tryStack)-1].hasHandler {
		target = b.tryStack[len(b.tryStack)-1].handlerEntry
	}
	b.linkEdge(blk.ID, target, Exception)
	b.current = nil
}

func (b *Builder) buildTry(v *ir.TryStatement) {
	var handler *BasicBlock
	frame := tryFrame{}
	if v.Handler != nil {
		handler = b.newBlock("catch")
		frame.handlerEntry = handler.ID
		frame.hasHandler = true
	}
	b.tryStack = append(b.tryStack, frame)

	prev := b.current
	tryEntry := b.newBlock("try")
	if prev != nil {
		b.linkEdge(prev.ID, tryEntry.ID, Unconditional)
	}
	b.current = tryEntry
	b.buildStmt(v.Block)
	tryExit := b.current

	b.tryStack = b.tryStack[:len(b.tryStack)-1]

	var handlerExit *BasicBlock
	if v.Handler != nil {
		b.current = handler
		b.buildStmt(v.Handler.Body)
		handlerExit = b.current
	}

	var afterTryCatch *BasicBlock
	if tryExit != nil || handlerExit != nil || v.Handler == nil {
		afterTryCatch = b.newBlock("try.join")
		if tryExit != nil {
			b.linkEdge(tryExit.ID, afterTryCatch.ID, Unconditional)
		}
		if handlerExit != nil {
			b.linkEdge(handlerExit.ID, afterTryCatch.ID, Unconditional)
		}
	}
	b.current = afterTryCatch

	if v.Finalizer != nil {
		finallyEntry := b.ensureBlock()
		_ = finallyEntry
		b.buildStmt(v.Finalizer)
	}
}

func (b *Builder) buildLabeled(v *ir.LabeledStatement) {
	label := ""
	if v.Label != nil {
		label = string(v.Label.Name)
	}
	prevPending := b.pendingLabel
	b.pendingLabel = label
	b.buildStmt(v.Body)
	b.pendingLabel = prevPending
}

func (b *Builder) pushScope(kind scopeKind, breakTarget, continueTarget ir.NodeID) {
	label := b.pendingLabel
	b.pendingLabel = ""
	b.scopes = append(b.scopes, enclosingScope{
		kind: kind, label: label, breakTarget: breakTarget,
		continueTarget: continueTarget, hasContinue: kind == loopScope,
	})
}

func (b *Builder) popScope() {
	b.scopes = b.scopes[:len(b.scopes)-1]
}

func (b *Builder) resolveBreak(label *ir.Identifier) (ir.NodeID, bool) {
	if label != nil {
		for i := len(b.scopes) - 1; i >= 0; i-- {
			if b.scopes[i].label == string(label.Name) {
				return b.scopes[i].breakTarget, true
			}
		}
		return 0, false
	}
	if len(b.scopes) == 0 {
		return 0, false
	}
	return b.scopes[len(b.scopes)-1].breakTarget, true
}

func (b *Builder) resolveContinue(label *ir.Identifier) (ir.NodeID, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		s := b.scopes[i]
		if !s.hasContinue {
			continue
		}
		if label != nil && s.label != string(label.Name) {
			continue
		}
		return s.continueTarget, true
	}
	return 0, false
}
