package ir

// Program is the root of an IR tree: a flat list of top-level statements
// plus the script/module source type.
type Program struct {
	Meta
	Body   []Stmt
	Source SourceType
}

func (*Program) Kind() NodeKind { return ProgramKind }
