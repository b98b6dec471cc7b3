package recipe

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a recipe file may contain.
type fileRoot struct {
	Graphs  []*graphBlock  `hcl:"graph,block"`
	Buffers []*bufferBlock `hcl:"buffer,block"`
	Params  []*paramBlock  `hcl:"param,block"`
	Nodes   []*nodeBlock   `hcl:"node,block"`
	Updates []*updateBlock `hcl:"update,block"`
}

type graphBlock struct {
	Label         string `hcl:"label,optional"`
	Mode          string `hcl:"mode,optional"`
	Device        string `hcl:"device,optional"`
	Updatable     bool   `hcl:"updatable,optional"`
	Iterations    int    `hcl:"iterations,optional"`
	AssumeOutlive bool   `hcl:"assume_resources_outlive,optional"`
}

type bufferBlock struct {
	Name string    `hcl:"name,label"`
	Size int       `hcl:"size,optional"`
	Init []float64 `hcl:"init,optional"`
}

type paramBlock struct {
	Name  string         `hcl:"name,label"`
	Value hcl.Expression `hcl:"value"`
}

type nodeBlock struct {
	Name      string          `hcl:"name,label"`
	Kernel    string          `hcl:"kernel,optional"`
	DependsOn []string        `hcl:"depends_on,optional"`
	Variants  []*variantBlock `hcl:"variant,block"`
	Args      *argsBlock      `hcl:"args,block"`
}

type variantBlock struct {
	Name   string `hcl:"name,label"`
	Kernel string `hcl:"kernel"`
}

// argsBlock holds free-form attributes; each becomes a parameter slot.
type argsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type updateBlock struct {
	AfterIteration int               `hcl:"after_iteration"`
	Node           string            `hcl:"node,optional"`
	Active         *int              `hcl:"active,optional"`
	Args           *argsBlock        `hcl:"args,block"`
	Param          string            `hcl:"param,optional"`
	Value          hcl.Expression    `hcl:"value,optional"`
	Rebind         map[string]string `hcl:"rebind,optional"`
}
