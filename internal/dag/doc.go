// Package dag provides the structural checks a command graph goes through at
// finalize time: cycle detection and a stable topological order.
//
// The package works on dense integer vertices (0..n-1) so it can operate
// directly on node arena indices without any translation layer.
package dag
