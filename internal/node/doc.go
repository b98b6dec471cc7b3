// Package node defines the vertex of a command graph and the per-node state
// that survives finalization.
package node
