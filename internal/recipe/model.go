package recipe

import "github.com/hashicorp/hcl/v2"

// Graph construction modes.
const (
	ModeExplicit = "explicit"
	ModeRecord   = "record"
)

// Recipe is the format-agnostic form of a loaded recipe.
type Recipe struct {
	Label         string
	Mode          string `validate:"oneof=explicit record"`
	Device        string `validate:"required"`
	Updatable     bool
	Iterations    int `validate:"min=1"`
	AssumeOutlive bool

	Buffers []*Buffer `validate:"dive"`
	Params  []*Param  `validate:"dive"`
	Nodes   []*Node   `validate:"min=1,dive"`
	Updates []*Update `validate:"dive"`
}

// Buffer declares a host buffer. Init, when set, also fixes the size.
type Buffer struct {
	Name string `validate:"required"`
	Size int    `validate:"min=0"`
	Init []float64
}

// Param declares a dynamic parameter.
type Param struct {
	Name  string         `validate:"required"`
	Value hcl.Expression `validate:"-"`
}

// Node declares a node running one kernel, or several variants of which the
// first is active.
type Node struct {
	Name      string   `validate:"required"`
	Kernels   []string `validate:"min=1,dive,required"`
	Variants  []string
	DependsOn []string
	Args      map[string]hcl.Expression `validate:"-"`
}

// Dynamic reports whether the node has several variants.
func (n *Node) Dynamic() bool {
	return len(n.Variants) > 0
}

// UpdateKind tells which part of an executable graph an update changes.
type UpdateKind int

const (
	// UpdateNode changes the active variant and/or arguments of one node.
	UpdateNode UpdateKind = iota
	// UpdateParam rebinds a dynamic parameter.
	UpdateParam
	// UpdateRebind swaps buffers through a whole-graph update.
	UpdateRebind
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateNode:
		return "node"
	case UpdateParam:
		return "param"
	case UpdateRebind:
		return "rebind"
	default:
		return "unknown"
	}
}

// Update is applied after the given iteration completes.
type Update struct {
	AfterIteration int `validate:"min=1"`
	Kind           UpdateKind

	Node   string
	Active *int
	Args   map[string]hcl.Expression `validate:"-"`

	Param string
	Value hcl.Expression `validate:"-"`

	Rebind map[string]string
}
