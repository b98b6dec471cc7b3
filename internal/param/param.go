// Package param implements dynamic parameters: named indirection cells that
// one or more nodes bind in a parameter slot.
//
// Rebinding a cell with Update is copy-on-update: the new value is published
// as a fresh immutable cell, and every submission resolves the cell exactly
// once when it takes its snapshot. All nodes sharing a parameter therefore
// observe the new value starting from the first submission after the rebind,
// and a submission already in flight keeps the value it started with.
package param

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/specialistvlad/cmdgraph/internal/graph"
)

type cell struct {
	value any
}

// Dynamic is a rebindable parameter value owned by one graph.
type Dynamic struct {
	owner uuid.UUID
	name  string
	cur   atomic.Pointer[cell]
}

// Option configures a Dynamic.
type Option func(*Dynamic)

// WithName names the parameter for logs and plans.
func WithName(name string) Option {
	return func(d *Dynamic) {
		d.name = name
	}
}

// New creates a parameter for g holding initial. The parameter can only be
// bound to nodes of g.
func New(g *graph.Graph, initial any, opts ...Option) *Dynamic {
	d := &Dynamic{owner: g.ID()}
	for _, opt := range opts {
		opt(d)
	}
	d.cur.Store(&cell{value: initial})
	return d
}

// Value returns the currently bound value.
func (d *Dynamic) Value() any {
	return d.cur.Load().value
}

// Owner returns the id of the graph the parameter belongs to.
func (d *Dynamic) Owner() uuid.UUID {
	return d.owner
}

func (d *Dynamic) Name() string {
	return d.name
}

// Update rebinds the parameter. It affects every submission issued after it
// returns and none issued before.
func (d *Dynamic) Update(value any) {
	d.cur.Store(&cell{value: value})
}

func (d *Dynamic) String() string {
	if d.name != "" {
		return "param." + d.name
	}
	return fmt.Sprintf("param(%v)", d.Value())
}
