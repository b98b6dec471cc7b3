package recipe

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
	"github.com/specialistvlad/cmdgraph/internal/fsutil"
	"github.com/specialistvlad/cmdgraph/internal/hclutil"
)

var validate = validator.New()

// Defaults applied when a recipe has no graph block or leaves a field unset.
const (
	DefaultMode       = ModeExplicit
	DefaultDevice     = "host"
	DefaultIterations = 1
)

// Load parses every .hcl file found under paths into one recipe. Directories
// are walked recursively. Paths that do not exist are an error.
func Load(ctx context.Context, paths ...string) (*Recipe, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Recipe loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var roots []*fileRoot
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		root, err := decode(file, hclFile)
		if err != nil {
			return nil, err
		}
		roots = append(roots, root)
	}
	return translate(ctx, roots)
}

// LoadSource parses a single recipe held in memory. filename is only used in
// diagnostics.
func LoadSource(ctx context.Context, filename string, src []byte) (*Recipe, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	root, err := decode(filename, hclFile)
	if err != nil {
		return nil, err
	}
	return translate(ctx, []*fileRoot{root})
}

func decode(filename string, f *hcl.File) (*fileRoot, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	return &root, nil
}

// translate merges decoded files into a validated Recipe.
func translate(ctx context.Context, roots []*fileRoot) (*Recipe, error) {
	logger := ctxlog.FromContext(ctx)

	rc := &Recipe{
		Mode:       DefaultMode,
		Device:     DefaultDevice,
		Iterations: DefaultIterations,
	}
	seenGraph := false
	for _, root := range roots {
		for _, gb := range root.Graphs {
			if seenGraph {
				return nil, fmt.Errorf("graph block declared more than once (%s)", gb.Label)
			}
			seenGraph = true
			translateGraph(rc, gb)
		}
		for _, bb := range root.Buffers {
			rc.Buffers = append(rc.Buffers, translateBuffer(bb))
		}
		for _, pb := range root.Params {
			rc.Params = append(rc.Params, &Param{Name: pb.Name, Value: pb.Value})
		}
		for _, nb := range root.Nodes {
			n, err := translateNode(nb)
			if err != nil {
				return nil, err
			}
			rc.Nodes = append(rc.Nodes, n)
		}
		for _, ub := range root.Updates {
			u, err := translateUpdate(ctx, ub)
			if err != nil {
				return nil, err
			}
			rc.Updates = append(rc.Updates, u)
		}
	}

	if err := validate.Struct(rc); err != nil {
		return nil, fmt.Errorf("invalid recipe: %w", err)
	}
	if err := checkReferences(rc); err != nil {
		return nil, err
	}

	logger.Debug("Recipe loading complete.", "label", rc.Label, "mode", rc.Mode, "buffers", len(rc.Buffers), "params", len(rc.Params), "nodes", len(rc.Nodes), "updates", len(rc.Updates))
	return rc, nil
}

func translateGraph(rc *Recipe, gb *graphBlock) {
	rc.Label = gb.Label
	if gb.Mode != "" {
		rc.Mode = gb.Mode
	}
	if gb.Device != "" {
		rc.Device = gb.Device
	}
	if gb.Iterations != 0 {
		rc.Iterations = gb.Iterations
	}
	rc.Updatable = gb.Updatable
	rc.AssumeOutlive = gb.AssumeOutlive
}

func translateBuffer(bb *bufferBlock) *Buffer {
	b := &Buffer{Name: bb.Name, Size: bb.Size, Init: bb.Init}
	if len(bb.Init) > 0 && bb.Size == 0 {
		b.Size = len(bb.Init)
	}
	return b
}

func translateNode(nb *nodeBlock) (*Node, error) {
	args, err := argsOf(nb.Args)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", nb.Name, err)
	}
	n := &Node{Name: nb.Name, DependsOn: nb.DependsOn, Args: args}
	switch {
	case nb.Kernel != "" && len(nb.Variants) > 0:
		return nil, fmt.Errorf("node %q: kernel and variant blocks are mutually exclusive", nb.Name)
	case nb.Kernel != "":
		n.Kernels = []string{nb.Kernel}
	default:
		for _, v := range nb.Variants {
			n.Variants = append(n.Variants, v.Name)
			n.Kernels = append(n.Kernels, v.Kernel)
		}
	}
	if len(n.Kernels) == 0 {
		return nil, fmt.Errorf("node %q: either kernel or at least one variant block is required", nb.Name)
	}
	return n, nil
}

// argsOf turns an args block into its attribute expressions.
func argsOf(args *argsBlock) (map[string]hcl.Expression, error) {
	if args == nil {
		return nil, nil
	}
	exprs, diags := hclutil.BodyAttributes(args.Body)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid args block: %w", diags)
	}
	return exprs, nil
}

func translateUpdate(ctx context.Context, ub *updateBlock) (*Update, error) {
	args, err := argsOf(ub.Args)
	if err != nil {
		return nil, fmt.Errorf("update after iteration %d: %w", ub.AfterIteration, err)
	}
	u := &Update{
		AfterIteration: ub.AfterIteration,
		Node:           ub.Node,
		Active:         ub.Active,
		Args:           args,
		Param:          ub.Param,
		Rebind:         ub.Rebind,
	}
	if hclutil.IsExprDefined(ctx, ub.Value, "value") {
		u.Value = ub.Value
	}

	kinds := 0
	if u.Node != "" {
		u.Kind = UpdateNode
		kinds++
	}
	if u.Param != "" {
		u.Kind = UpdateParam
		kinds++
	}
	if len(u.Rebind) > 0 {
		u.Kind = UpdateRebind
		kinds++
	}
	if kinds != 1 {
		return nil, fmt.Errorf("update after iteration %d: exactly one of node, param or rebind is required", u.AfterIteration)
	}
	switch u.Kind {
	case UpdateNode:
		if u.Active == nil && len(u.Args) == 0 {
			return nil, fmt.Errorf("update of node %q changes nothing: set active or args", u.Node)
		}
	case UpdateParam:
		if u.Value == nil {
			return nil, fmt.Errorf("update of param %q: value is required", u.Param)
		}
	}
	return u, nil
}

// checkReferences verifies names are unique and every name used refers to a
// declared object.
func checkReferences(rc *Recipe) error {
	buffers := make(map[string]bool)
	for _, b := range rc.Buffers {
		if buffers[b.Name] {
			return fmt.Errorf("buffer %q declared more than once", b.Name)
		}
		if len(b.Init) > 0 && len(b.Init) != b.Size {
			return fmt.Errorf("buffer %q: init has %d values, size is %d", b.Name, len(b.Init), b.Size)
		}
		buffers[b.Name] = true
	}
	params := make(map[string]bool)
	for _, p := range rc.Params {
		if params[p.Name] {
			return fmt.Errorf("param %q declared more than once", p.Name)
		}
		// Params are created before any other param exists, so their values may
		// only reference buffers.
		if err := checkExprRefs(fmt.Sprintf("param %q", p.Name), buffers, nil, p.Value); err != nil {
			return err
		}
		params[p.Name] = true
	}
	nodes := make(map[string]*Node)
	for _, n := range rc.Nodes {
		if nodes[n.Name] != nil {
			return fmt.Errorf("node %q declared more than once", n.Name)
		}
		for _, dep := range n.DependsOn {
			if nodes[dep] == nil {
				return fmt.Errorf("node %q depends on %q, which is not declared before it", n.Name, dep)
			}
		}
		if err := checkExprRefs(fmt.Sprintf("node %q", n.Name), buffers, params, slices.Collect(maps.Values(n.Args))...); err != nil {
			return err
		}
		nodes[n.Name] = n
	}
	for _, u := range rc.Updates {
		if u.AfterIteration >= rc.Iterations {
			return fmt.Errorf("update after iteration %d is never applied: the recipe runs %d iterations", u.AfterIteration, rc.Iterations)
		}
		exprs := append(slices.Collect(maps.Values(u.Args)), u.Value)
		if err := checkExprRefs(fmt.Sprintf("update after iteration %d", u.AfterIteration), buffers, params, exprs...); err != nil {
			return err
		}
		switch u.Kind {
		case UpdateNode:
			n := nodes[u.Node]
			if n == nil {
				return fmt.Errorf("update targets unknown node %q", u.Node)
			}
			if u.Active != nil && (*u.Active < 0 || *u.Active >= len(n.Kernels)) {
				return fmt.Errorf("update of node %q: active %d out of range, node has %d variants", u.Node, *u.Active, len(n.Kernels))
			}
		case UpdateParam:
			if !params[u.Param] {
				return fmt.Errorf("update targets unknown param %q", u.Param)
			}
		case UpdateRebind:
			for from, to := range u.Rebind {
				if !buffers[from] || !buffers[to] {
					return fmt.Errorf("rebind %s -> %s references an undeclared buffer", from, to)
				}
			}
		}
	}
	return nil
}

// checkExprRefs verifies that every reference in exprs is buffer.<name> of a
// declared buffer, or param.<name> of a declared param when params is not nil.
func checkExprRefs(where string, buffers, params map[string]bool, exprs ...hcl.Expression) error {
	for _, trav := range hclutil.References(exprs...) {
		name, ok := referencedName(trav)
		switch {
		case ok && trav.RootName() == "buffer":
			if !buffers[name] {
				return fmt.Errorf("%s: %s: undeclared buffer %q", where, trav.SourceRange(), name)
			}
		case ok && trav.RootName() == "param" && params != nil:
			if !params[name] {
				return fmt.Errorf("%s: %s: undeclared param %q", where, trav.SourceRange(), name)
			}
		default:
			return fmt.Errorf("%s: %s: unsupported reference %s", where, trav.SourceRange(), hclutil.TraversalKey(trav))
		}
	}
	return nil
}

// referencedName returns <name> for a two-step traversal root.<name>.
func referencedName(trav hcl.Traversal) (string, bool) {
	if len(trav) != 2 {
		return "", false
	}
	attr, ok := trav[1].(hcl.TraverseAttr)
	if !ok {
		return "", false
	}
	return attr.Name, true
}
