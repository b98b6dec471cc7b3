// Package inmemorytopology provides a simple, thread-safe, in-memory
// implementation of the topologystore.Store interface.
package inmemorytopology

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/topologystore"
)

// Store implements the topologystore.Store interface using maps and a mutex
// for thread-safe concurrent access.
type Store struct {
	mu         sync.RWMutex
	nodes      map[nodeid.ID]*node.Node
	deps       map[nodeid.ID][]nodeid.ID // Key: node ID, Value: ids it depends on
	dependents map[nodeid.ID][]nodeid.ID // Key: node ID, Value: ids depending on it
	order      []nodeid.ID
}

// New creates a new, empty in-memory topology store.
func New() topologystore.Store {
	return &Store{
		nodes:      make(map[nodeid.ID]*node.Node),
		deps:       make(map[nodeid.ID][]nodeid.ID),
		dependents: make(map[nodeid.ID][]nodeid.ID),
	}
}

// AddNode adds a new node to the store.
func (s *Store) AddNode(ctx context.Context, n *node.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[n.ID()]; exists {
		return fmt.Errorf("node '%s' already present in topology", n.ID())
	}
	s.nodes[n.ID()] = n
	return nil
}

// AddDependency creates a dependency link from one node to another.
func (s *Store) AddDependency(ctx context.Context, from, to nodeid.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[from]; !exists {
		return fmt.Errorf("dependency source node '%s' not found in topology", from)
	}
	if _, exists := s.nodes[to]; !exists {
		return fmt.Errorf("dependency target node '%s' not found in topology", to)
	}
	if slices.Contains(s.deps[to], from) {
		return nil
	}
	s.deps[to] = append(s.deps[to], from)
	s.dependents[from] = append(s.dependents[from], to)
	return nil
}

// SetOrder validates and stores the execution order.
func (s *Store) SetOrder(ctx context.Context, order []nodeid.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(order) != len(s.nodes) {
		return fmt.Errorf("order lists %d nodes, topology has %d", len(order), len(s.nodes))
	}
	pos := make(map[nodeid.ID]int, len(order))
	for i, id := range order {
		if _, exists := s.nodes[id]; !exists {
			return fmt.Errorf("order references unknown node '%s'", id)
		}
		if _, dup := pos[id]; dup {
			return fmt.Errorf("order lists node '%s' twice", id)
		}
		pos[id] = i
	}
	for to, froms := range s.deps {
		for _, from := range froms {
			if pos[from] > pos[to] {
				return fmt.Errorf("order places '%s' before its dependency '%s'", to, from)
			}
		}
	}
	s.order = slices.Clone(order)
	return nil
}

// GetNode retrieves a single node by its id.
func (s *Store) GetNode(ctx context.Context, id nodeid.ID) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	return n, ok
}

// AllNodes returns a slice of all nodes in the topology, in creation order.
func (s *Store) AllNodes(ctx context.Context) []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *node.Node) int {
		return int(a.ID() - b.ID())
	})
	return nodes
}

// Order returns the execution order.
func (s *Store) Order(ctx context.Context) []nodeid.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// DependenciesOf returns the ids of all nodes that the given node depends on.
func (s *Store) DependenciesOf(ctx context.Context, id nodeid.ID) ([]nodeid.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[id]; !exists {
		return nil, fmt.Errorf("node '%s' not found in topology", id)
	}
	return slices.Clone(s.deps[id]), nil
}

// DependentsOf returns the ids of all nodes that depend on the given node.
func (s *Store) DependentsOf(ctx context.Context, id nodeid.ID) ([]nodeid.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[id]; !exists {
		return nil, fmt.Errorf("node '%s' not found in topology", id)
	}
	return slices.Clone(s.dependents[id]), nil
}

// Len returns the number of nodes.
func (s *Store) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}
