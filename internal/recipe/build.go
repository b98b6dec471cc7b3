package recipe

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
	"github.com/specialistvlad/cmdgraph/internal/event"
	"github.com/specialistvlad/cmdgraph/internal/execgraph"
	"github.com/specialistvlad/cmdgraph/internal/graph"
	"github.com/specialistvlad/cmdgraph/internal/kernels"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/param"
	"github.com/specialistvlad/cmdgraph/internal/queue"
	"github.com/specialistvlad/cmdgraph/internal/resource"
	"github.com/specialistvlad/cmdgraph/internal/task"
)

// Program is a recipe assembled into a graph bound to its own buffers.
type Program struct {
	Recipe *Recipe
	Graph  *graph.Graph
	// Buffers holds the declared buffers by name.
	Buffers map[string]*resource.Buffer
	// Params holds the parameters bound in the executable graph. A rebind
	// replaces them with the parameters of the equivalent graph.
	Params map[string]*param.Dynamic
	Nodes  map[string]nodeid.ID

	// active and args hold what node updates changed, so a rebind keeps it.
	active  map[string]int
	args    map[string]map[string]hcl.Expression
	queue   *queue.Queue
	kernels *kernels.Registry
}

// Build allocates the recipe's buffers and assembles its graph. q is the
// queue recorded in record mode; it must be on the recipe's device.
func Build(ctx context.Context, rc *Recipe, q *queue.Queue, reg *kernels.Registry) (*Program, error) {
	p := &Program{
		Recipe:  rc,
		Buffers: make(map[string]*resource.Buffer, len(rc.Buffers)),
		active:  make(map[string]int),
		args:    make(map[string]map[string]hcl.Expression),
		queue:   q,
		kernels: reg,
	}
	for _, b := range rc.Buffers {
		if len(b.Init) > 0 {
			p.Buffers[b.Name] = resource.NewBufferFrom(b.Name, b.Init)
		} else {
			p.Buffers[b.Name] = resource.NewBuffer(b.Name, b.Size)
		}
	}

	g, params, nodes, err := p.assemble(ctx, p.Buffers, nil)
	if err != nil {
		return nil, err
	}
	p.Graph, p.Params, p.Nodes = g, params, nodes
	ctxlog.FromContext(ctx).Debug("Recipe: graph assembled.", "graph", g.Label(), "mode", rc.Mode, "node_count", g.Len())
	return p, nil
}

// assemble builds one graph of the recipe with the given buffer bindings.
// values, when set, overrides the initial parameter values.
func (p *Program) assemble(ctx context.Context, buffers map[string]*resource.Buffer, values map[string]any) (*graph.Graph, map[string]*param.Dynamic, map[string]nodeid.ID, error) {
	rc := p.Recipe

	opts := []graph.Option{}
	if rc.Label != "" {
		opts = append(opts, graph.WithLabel(rc.Label))
	}
	if rc.AssumeOutlive {
		opts = append(opts, graph.WithAssumeResourcesOutlive())
	}
	g := graph.New(queue.Device(rc.Device), opts...)
	for _, b := range rc.Buffers {
		g.Register(buffers[b.Name])
	}

	sc := &scope{buffers: buffers, params: make(map[string]*param.Dynamic, len(rc.Params))}
	for _, decl := range rc.Params {
		v, ok := values[decl.Name]
		if !ok {
			var err error
			if v, err = sc.eval(decl.Value); err != nil {
				return nil, nil, nil, fmt.Errorf("param %q: %w", decl.Name, err)
			}
		}
		sc.params[decl.Name] = param.New(g, v, param.WithName(decl.Name))
	}

	var nodes map[string]nodeid.ID
	var err error
	switch rc.Mode {
	case ModeRecord:
		nodes, err = p.record(ctx, g, sc)
	default:
		nodes, err = p.addExplicit(g, sc)
	}
	if err != nil {
		return nil, nil, nil, err
	}
	return g, sc.params, nodes, nil
}

// command turns a node declaration into a queue command.
func (p *Program) command(n *Node, sc *scope) (queue.Command, error) {
	args, err := sc.evalAll(n.Args)
	if err != nil {
		return queue.Command{}, fmt.Errorf("node %q: %w", n.Name, err)
	}
	var cmd queue.Command
	if n.Dynamic() {
		cmd, err = p.kernels.Variants(n.Name, n.Kernels, task.Params(args))
	} else {
		cmd, err = p.kernels.Command(n.Kernels[0], task.Params(args))
	}
	if err != nil {
		return queue.Command{}, fmt.Errorf("node %q: %w", n.Name, err)
	}
	cmd.Name = n.Name
	return cmd, nil
}

func (p *Program) addExplicit(g *graph.Graph, sc *scope) (map[string]nodeid.ID, error) {
	ids := make(map[string]nodeid.ID, len(p.Recipe.Nodes))
	for _, n := range p.Recipe.Nodes {
		cmd, err := p.command(n, sc)
		if err != nil {
			return nil, err
		}
		deps := make([]nodeid.ID, 0, len(n.DependsOn))
		for _, dep := range n.DependsOn {
			deps = append(deps, ids[dep])
		}
		nodeOpts := []graph.NodeOption{graph.WithName(n.Name), graph.WithAccess(cmd.Access)}
		var id nodeid.ID
		if n.Dynamic() {
			id, err = g.AddDynamic(cmd.Variants, deps, cmd.Params, nodeOpts...)
		} else {
			id, err = g.Add(cmd.Body, deps, cmd.Params, nodeOpts...)
		}
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		ids[n.Name] = id
	}
	return ids, nil
}

func (p *Program) record(ctx context.Context, g *graph.Graph, sc *scope) (ids map[string]nodeid.ID, err error) {
	if p.queue == nil {
		return nil, errors.New("record mode requires a queue")
	}
	if err := g.BeginRecording(p.queue); err != nil {
		return nil, err
	}
	defer func() {
		if endErr := g.EndRecording(); endErr != nil && err == nil {
			err = endErr
		}
	}()

	ids = make(map[string]nodeid.ID, len(p.Recipe.Nodes))
	tokens := make(map[string]*event.Event, len(p.Recipe.Nodes))
	for _, n := range p.Recipe.Nodes {
		cmd, err := p.command(n, sc)
		if err != nil {
			return nil, err
		}
		for _, dep := range n.DependsOn {
			cmd.DependsOn = append(cmd.DependsOn, tokens[dep])
		}
		tok, err := p.queue.Submit(ctx, cmd)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		_, id, _ := tok.RecordedNode()
		tokens[n.Name] = tok
		ids[n.Name] = id
	}
	return ids, nil
}

// Apply performs one update step against eg, which must have been finalized
// from p.Graph.
func (p *Program) Apply(ctx context.Context, eg *execgraph.Graph, u *Update) error {
	logger := ctxlog.FromContext(ctx)
	sc := &scope{buffers: p.Buffers, params: p.Params}

	switch u.Kind {
	case UpdateNode:
		var opts []execgraph.UpdateOption
		if u.Active != nil {
			opts = append(opts, execgraph.WithActiveIndex(*u.Active))
		}
		if len(u.Args) > 0 {
			args, err := sc.evalAll(u.Args)
			if err != nil {
				return fmt.Errorf("update of node %q: %w", u.Node, err)
			}
			opts = append(opts, execgraph.WithParams(args))
		}
		if err := eg.Update(ctx, p.Nodes[u.Node], opts...); err != nil {
			return err
		}
		if u.Active != nil {
			p.active[u.Node] = *u.Active
		}
		if len(u.Args) > 0 {
			if p.args[u.Node] == nil {
				p.args[u.Node] = make(map[string]hcl.Expression)
			}
			maps.Copy(p.args[u.Node], u.Args)
		}
	case UpdateParam:
		v, err := sc.eval(u.Value)
		if err != nil {
			return fmt.Errorf("update of param %q: %w", u.Param, err)
		}
		p.Params[u.Param].Update(v)
	case UpdateRebind:
		if err := p.Rebind(ctx, eg, u.Rebind); err != nil {
			return err
		}
	}
	logger.Debug("Recipe: update applied.", "kind", u.Kind.String(), "after_iteration", u.AfterIteration)
	return nil
}

// Rebind assembles an equivalent graph in which every buffer named by a key
// of mapping is replaced by the buffer named by its value, then copies its
// bindings into eg with a whole-graph update. Parameters keep their current
// values. Variants and arguments changed by Apply are carried over, with
// arguments evaluated against the rebound buffers.
func (p *Program) Rebind(ctx context.Context, eg *execgraph.Graph, mapping map[string]string) error {
	buffers := maps.Clone(p.Buffers)
	for from, to := range mapping {
		b, ok := p.Buffers[to]
		if !ok {
			return fmt.Errorf("rebind %s -> %s: undeclared buffer", from, to)
		}
		buffers[from] = b
	}
	values := make(map[string]any, len(p.Params))
	for name, d := range p.Params {
		values[name] = d.Value()
	}

	other, params, nodes, err := p.assemble(ctx, buffers, values)
	if err != nil {
		return fmt.Errorf("assembling rebound graph: %w", err)
	}
	for name, idx := range p.active {
		if err := other.SetActiveIndex(nodes[name], idx); err != nil {
			return fmt.Errorf("assembling rebound graph: %w", err)
		}
	}
	sc := &scope{buffers: buffers, params: params}
	for name, exprs := range p.args {
		args, err := sc.evalAll(exprs)
		if err != nil {
			return fmt.Errorf("rebinding node %q: %w", name, err)
		}
		for slot, v := range args {
			if err := other.SetParam(nodes[name], slot, v); err != nil {
				return fmt.Errorf("rebinding node %q: %w", name, err)
			}
		}
	}
	if err := eg.UpdateFrom(ctx, other); err != nil {
		return err
	}
	p.Params = params
	return nil
}

// BufferNames lists the declared buffers in declaration order.
func (p *Program) BufferNames() []string {
	names := make([]string, 0, len(p.Recipe.Buffers))
	for _, b := range p.Recipe.Buffers {
		names = append(names, b.Name)
	}
	return names
}
