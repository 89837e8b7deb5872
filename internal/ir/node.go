package ir

// Position is a source location. It is carried by value and preserved
// verbatim across clones.
type Position struct {
	Filename string
	Line     int
	Column   int
	Offset   int
}

// SSAMeta holds the optional SSA-form metadata a node may carry: the
// version it defines (for an assignment target) and the defs/uses it
// participates in. A node with no SSA involvement carries a nil *SSAMeta.
type SSAMeta struct {
	Version SSAVersion
	Uses    []NodeID
	Defs    []VariableName
}

// Meta is the shared envelope embedded in every concrete node type. It
// carries the fields common to all IR nodes: identity, source location,
// lexical scope, and optional SSA metadata. Embedding Meta promotes its
// methods onto every node type, so concrete types only need to implement
// Kind().
type Meta struct {
	ID     NodeID
	Pos    Position
	EndPos Position
	Scope  ScopeID
	SSA    *SSAMeta
}

// NodeID returns the node's unique identifier.
func (m *Meta) NodeID() NodeID { return m.ID }

// Loc returns the node's start and end source positions.
func (m *Meta) Loc() (Position, Position) { return m.Pos, m.EndPos }

// ScopeID returns the lexical scope the node was created in, or NoScope.
func (m *Meta) ScopeID() ScopeID { return m.Scope }

// HasSSAMetadata reports whether any SSA field is present.
func (m *Meta) HasSSAMetadata() bool { return m.SSA != nil }

// Node is implemented by every IR node. Concrete types embed Meta (for
// NodeID/Loc/ScopeID/HasSSAMetadata) and implement Kind() themselves, a
// tagged-sum discriminator rather than open-ended dynamic dispatch.
type Node interface {
	NodeID() NodeID
	Kind() NodeKind
	Loc() (Position, Position)
	ScopeID() ScopeID
	HasSSAMetadata() bool
}

// Expr is implemented by every expression node. isExpr is an unexported
// marker so only this package's expression types can satisfy Expr.
type Expr interface {
	Node
	isExpr()
}

// Stmt is implemented by every statement node, mirroring Expr.
type Stmt interface {
	Node
	isStmt()
}
