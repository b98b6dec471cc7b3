package execgraph

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/task"
)

// Plan is a printable description of an executable graph.
type Plan struct {
	Graph     string     `yaml:"graph"`
	Device    string     `yaml:"device"`
	Updatable bool       `yaml:"updatable"`
	Nodes     []NodeInfo `yaml:"nodes"`
}

// NodeInfo describes one node and its current binding.
type NodeInfo struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name"`
	Position  int               `yaml:"position"`
	DependsOn []string          `yaml:"depends_on,omitempty"`
	Feeds     []string          `yaml:"feeds,omitempty"`
	Bodies    int               `yaml:"bodies"`
	Dynamic   bool              `yaml:"dynamic,omitempty"`
	Active    int               `yaml:"active"`
	Params    map[string]string `yaml:"params,omitempty"`
	Access    map[string]string `yaml:"access,omitempty"`
}

// Nodes describes every node in execution order.
func (eg *Graph) Nodes(ctx context.Context) ([]NodeInfo, error) {
	eg.mu.RLock()
	defer eg.mu.RUnlock()

	order := eg.topo.Order(ctx)
	out := make([]NodeInfo, 0, len(order))
	for pos, id := range order {
		n, _ := eg.topo.GetNode(ctx, id)
		b, err := eg.state.Binding(ctx, id)
		if err != nil {
			return nil, err
		}
		deps, err := eg.topo.DependenciesOf(ctx, id)
		if err != nil {
			return nil, err
		}
		info := NodeInfo{
			ID:       id.String(),
			Name:     n.Name,
			Position: pos,
			Bodies:   n.BodyCount(),
			Dynamic:  n.IsDynamic(),
			Active:   b.Active,
		}
		if len(deps) > 0 {
			info.DependsOn = nodeid.Strings(deps)
		}
		if succs := n.Successors(); len(succs) > 0 {
			slices.Sort(succs)
			info.Feeds = nodeid.Strings(succs)
		}
		if len(b.Params) > 0 {
			info.Params = make(map[string]string, len(b.Params))
			for slot, v := range b.Params {
				info.Params[slot] = describeValue(v)
			}
		}
		if acc := n.Accesses(); len(acc) > 0 {
			info.Access = make(map[string]string, len(acc))
			for slot, m := range acc {
				info.Access[slot] = m.String()
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// Describe returns the printable plan of the graph. When only is non-empty
// the plan lists just those nodes, given in canonical form or as bare
// indices.
func (eg *Graph) Describe(ctx context.Context, only ...string) (*Plan, error) {
	nodes, err := eg.Nodes(ctx)
	if err != nil {
		return nil, err
	}
	if len(only) > 0 {
		if nodes, err = selectNodes(nodes, only); err != nil {
			return nil, err
		}
	}
	return &Plan{
		Graph:     eg.label,
		Device:    string(eg.device),
		Updatable: eg.updatable,
		Nodes:     nodes,
	}, nil
}

func selectNodes(nodes []NodeInfo, only []string) ([]NodeInfo, error) {
	want := make(map[string]bool, len(only))
	for _, raw := range only {
		id, err := nodeid.Parse(raw)
		if err != nil {
			return nil, err
		}
		if id.Index() >= len(nodes) {
			return nil, errs.New("describe", errs.ErrUnknownNode, id, "graph has %d nodes", len(nodes))
		}
		want[id.String()] = true
	}
	return slices.DeleteFunc(nodes, func(n NodeInfo) bool { return !want[n.ID] }), nil
}

func describeValue(v any) string {
	if d, ok := v.(task.Dynamic); ok {
		if s, named := d.(fmt.Stringer); named {
			return fmt.Sprintf("%s = %v", s, d.Value())
		}
		return fmt.Sprintf("%v", d.Value())
	}
	return fmt.Sprintf("%v", v)
}
