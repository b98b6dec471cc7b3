package graph

import "github.com/specialistvlad/cmdgraph/internal/task"

// Option configures a Graph at construction.
type Option func(*Graph)

// WithAssumeResourcesOutlive exempts the graph, and every executable graph
// finalized from it, from resource liveness checks. The caller guarantees
// that referenced resources outlive the graphs.
func WithAssumeResourcesOutlive() Option {
	return func(g *Graph) {
		g.assumeOutlive = true
	}
}

// WithLabel sets a human-readable label used in logs.
func WithLabel(label string) Option {
	return func(g *Graph) {
		g.label = label
	}
}

// NodeOption configures a node created by Add or AddDynamic.
type NodeOption func(*nodeConfig)

type nodeConfig struct {
	name   string
	access task.Accesses
}

// WithName names the node.
func WithName(name string) NodeOption {
	return func(c *nodeConfig) {
		c.name = name
	}
}

// WithAccess declares how the node's bodies use the resources bound in its
// parameter slots. Explicit construction never infers edges from it, but the
// declaration is part of the node's structure for whole-graph updates.
func WithAccess(access task.Accesses) NodeOption {
	return func(c *nodeConfig) {
		c.access = access
	}
}
