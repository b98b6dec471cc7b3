package inmemorystore

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/nodestore"
)

// Store is an updatable in-memory implementation of nodestore.Store.
type Store struct {
	bindings sync.Map // Key: nodeid.ID, Value: *node.Binding
}

// New creates a store holding the given initial bindings.
func New(initial map[nodeid.ID]node.Binding) nodestore.Store {
	s := &Store{}
	for id, b := range initial {
		b.Params = b.Params.Clone()
		s.bindings.Store(id, &b)
	}
	return s
}

// Binding retrieves the current binding of a node.
func (s *Store) Binding(ctx context.Context, id nodeid.ID) (node.Binding, error) {
	v, ok := s.bindings.Load(id)
	if !ok {
		return node.Binding{}, fmt.Errorf("no binding for node '%s'", id)
	}
	return *v.(*node.Binding), nil
}

// Update replaces the binding of a known node.
func (s *Store) Update(ctx context.Context, id nodeid.ID, b node.Binding) error {
	if _, ok := s.bindings.Load(id); !ok {
		return fmt.Errorf("no binding for node '%s'", id)
	}
	b.Params = b.Params.Clone()
	s.bindings.Store(id, &b)
	return nil
}

func (s *Store) Updatable() bool {
	return true
}

// Frozen is a read-only implementation of nodestore.Store.
type Frozen struct {
	bindings map[nodeid.ID]node.Binding
}

// NewFrozen creates a store that never changes after construction.
func NewFrozen(initial map[nodeid.ID]node.Binding) nodestore.Store {
	f := &Frozen{bindings: make(map[nodeid.ID]node.Binding, len(initial))}
	for id, b := range initial {
		b.Params = b.Params.Clone()
		f.bindings[id] = b
	}
	return f
}

// Binding retrieves the binding of a node.
func (f *Frozen) Binding(ctx context.Context, id nodeid.ID) (node.Binding, error) {
	b, ok := f.bindings[id]
	if !ok {
		return node.Binding{}, fmt.Errorf("no binding for node '%s'", id)
	}
	return b, nil
}

// Update always fails.
func (f *Frozen) Update(ctx context.Context, id nodeid.ID, b node.Binding) error {
	return errs.New("update", errs.ErrNotUpdatable, id, "")
}

func (f *Frozen) Updatable() bool {
	return false
}
