package ir

import "fmt"

// NodeID uniquely identifies an IR node. NodeIDs are never reused across
// clones: clone always mints fresh ones for the copy.
type NodeID uint64

// ScopeID identifies a lexical scope.
type ScopeID uint64

// ShapeID identifies an inferred object shape.
type ShapeID uint64

// SSAVersion is the monotone version counter of a single SSA variable.
type SSAVersion uint32

// VariableName is a logical source-level variable name, independent of
// any SSA version.
type VariableName string

// SSAName is the pair (VariableName, SSAVersion) that makes a variable
// version globally addressable.
type SSAName struct {
	Name    VariableName
	Version SSAVersion
}

func (n SSAName) String() string {
	return fmt.Sprintf("%s#%d", n.Name, n.Version)
}

// NoScope is the zero ScopeID, meaning "no lexical scope attached".
const NoScope ScopeID = 0

// Generator is the explicit, threadable source of every identifier space
// in the system. The upstream tool keeps these counters process-wide;
// here they are an object so a caller can run several pipelines in one
// process without namespace collisions (see design notes).
type Generator struct {
	nextNode  NodeID
	nextScope ScopeID
	nextShape ShapeID

	// ssaVersions tracks the next version to hand out per variable name.
	// Versioning is per-Generator, not global, so two unrelated functions
	// analyzed with the same Generator do not collide on a shared name.
	ssaVersions map[VariableName]SSAVersion
}

// NewGenerator returns a Generator whose counters start fresh. NodeID 0
// is never issued; it is reserved to mean "no node" in optional fields.
func NewGenerator() *Generator {
	return &Generator{
		nextNode:    1,
		nextScope:   1,
		nextShape:   1,
		ssaVersions: make(map[VariableName]SSAVersion),
	}
}

// NewNodeID mints a fresh NodeID, unique among the ids this Generator
// has issued.
func (g *Generator) NewNodeID() NodeID {
	id := g.nextNode
	g.nextNode++
	return id
}

// NewScopeID mints a fresh ScopeID.
func (g *Generator) NewScopeID() ScopeID {
	id := g.nextScope
	g.nextScope++
	return id
}

// NewShapeID mints a fresh ShapeID.
func (g *Generator) NewShapeID() ShapeID {
	id := g.nextShape
	g.nextShape++
	return id
}

// NextSSAVersion returns the next version for variable name and advances
// its counter. Version 0 is handed out first.
func (g *Generator) NextSSAVersion(name VariableName) SSAVersion {
	v := g.ssaVersions[name]
	g.ssaVersions[name] = v + 1
	return v
}

// PeekSSAVersion returns the version NextSSAVersion would hand out next,
// without consuming it. Useful for callers that need to know whether a
// variable has been versioned at all.
func (g *Generator) PeekSSAVersion(name VariableName) SSAVersion {
	return g.ssaVersions[name]
}
