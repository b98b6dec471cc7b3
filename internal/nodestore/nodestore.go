// Package nodestore defines the interface for storing and retrieving the
// mutable state of the nodes of an executable graph: the active body index
// and the parameter bindings.
//
// # Why Node Store Exists
//
// The node store isolates the **mutable bindings** from the **frozen
// structure** managed by topologystore. Updates write here; finalize writes
// the topology once and nothing writes it again.
//
// # Snapshot Semantics
//
// Stored values are node.Binding values that are never modified in place.
// An update replaces a node's Binding with a new one. A submission reads one
// Binding per node when it starts, so it keeps a consistent view for its
// whole run no matter how many updates land meanwhile.
//
// # Updatable vs. Frozen
//
// Non-updatable executable graphs use a frozen store: a plain map without
// any synchronization, written only during construction. Update on a frozen
// store fails with errs.ErrNotUpdatable.
package nodestore

import (
	"context"

	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
)

// Store is the interface for managing node bindings of an executable graph.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent Binding calls, and for Binding
// calls concurrent with Update calls on other nodes. Concurrent updates of
// the same node are a caller race.
type Store interface {
	// Binding returns the current binding of a node.
	Binding(ctx context.Context, id nodeid.ID) (node.Binding, error)

	// Update replaces the binding of a node.
	Update(ctx context.Context, id nodeid.ID, b node.Binding) error

	// Updatable reports whether Update is supported.
	Updatable() bool
}
