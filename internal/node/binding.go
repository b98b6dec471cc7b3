package node

import "github.com/specialistvlad/cmdgraph/internal/task"

// Binding is the part of a node that may change after finalize: the active
// body index and the parameter bindings.
//
// A Binding is treated as immutable once stored. Updates build a new value,
// so a snapshot taken by a running submission is never modified underneath it.
type Binding struct {
	Active int
	Params task.Params
}
