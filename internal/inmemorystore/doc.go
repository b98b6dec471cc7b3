// Package inmemorystore provides thread-safe, in-memory implementations of
// the nodestore.Store interface.
//
// # Characteristics
//
//   - **Store:** Backed by sync.Map, holding one immutable *node.Binding per
//     node. Reads are lock-free; an update swaps the pointer.
//   - **Frozen:** Backed by a plain map that is never written after
//     construction. Used for non-updatable executable graphs.
//
// sync.Map fits the updatable case because the key space is fixed at
// finalize while values are replaced by updates and read by every
// submission concurrently.
package inmemorystore
