// Package topologystore defines the interface for storing and retrieving the
// frozen structure of an executable graph.
//
// # Why Topology Store Exists
//
// An executable graph splits into two halves with opposite access patterns:
//   - **Topology** (this package): nodes, bodies, edges and the execution
//     order. Written once by finalize, then read by every submission.
//   - **Node state** (nodestore): active body index and parameter bindings.
//     Rewritten by updates, read by every submission.
//
// Keeping them apart lets updates swap bindings without ever touching the
// structure, which is what makes "update never changes topology" hold by
// construction rather than by convention.
//
// # Lifecycle and Usage
//
// The topology store is:
//  1. **Created** by finalize for one executable graph
//  2. **Populated** with node clones, their dependencies and the order
//  3. **Read-only** afterwards (builder walks Order and DependentsOf on
//     every submission)
//  4. **Discarded** with the executable graph
package topologystore

import (
	"context"

	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
)

// Store is the interface for managing the static topology of an executable
// graph.
//
// This interface does NOT manage bindings (active body, parameters). That
// responsibility belongs to nodestore.Store.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent reads, as concurrent
// submissions of the same executable graph walk the topology in parallel.
type Store interface {
	// AddNode adds a node. Adding the same id twice is an error.
	AddNode(ctx context.Context, n *node.Node) error

	// AddDependency records that `to` depends on `from`. Both nodes must
	// already be present.
	AddDependency(ctx context.Context, from, to nodeid.ID) error

	// SetOrder fixes the execution order. It must contain every node exactly
	// once and place each node after all of its dependencies.
	SetOrder(ctx context.Context, order []nodeid.ID) error

	// GetNode retrieves a single node by id.
	GetNode(ctx context.Context, id nodeid.ID) (*node.Node, bool)

	// AllNodes returns all nodes in creation order.
	AllNodes(ctx context.Context) []*node.Node

	// Order returns the execution order fixed by SetOrder.
	Order(ctx context.Context) []nodeid.ID

	// DependenciesOf returns the ids of the nodes id depends on.
	DependenciesOf(ctx context.Context, id nodeid.ID) ([]nodeid.ID, error)

	// DependentsOf returns the ids of the nodes depending on id.
	DependentsOf(ctx context.Context, id nodeid.ID) ([]nodeid.ID, error)

	// Len returns the number of nodes.
	Len(ctx context.Context) int
}
