package inmemorytopology

import (
	"context"
	"sync"
	"testing"

	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNode(t *testing.T, id nodeid.ID) *node.Node {
	t.Helper()
	n, err := node.New(id, "", []task.Body{func(context.Context, *task.Task) error { return nil }}, nil, nil)
	require.NoError(t, err)
	return n
}

func TestAddAndGetNode(t *testing.T) {
	s := New()
	ctx := context.Background()
	testNode := newNode(t, 0)

	require.NoError(t, s.AddNode(ctx, testNode))
	assert.ErrorContains(t, s.AddNode(ctx, testNode), "already present")

	retrievedNode, ok := s.GetNode(ctx, 0)
	require.True(t, ok)
	assert.Same(t, testNode, retrievedNode)

	_, ok = s.GetNode(ctx, 1)
	assert.False(t, ok)
}

func TestDependencies(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, newNode(t, 0)))
	require.NoError(t, s.AddNode(ctx, newNode(t, 1)))

	// 1 depends on 0
	require.NoError(t, s.AddDependency(ctx, 0, 1))
	require.NoError(t, s.AddDependency(ctx, 0, 1))

	deps, err := s.DependenciesOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []nodeid.ID{0}, deps)

	dependents, err := s.DependentsOf(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []nodeid.ID{1}, dependents)

	assert.ErrorContains(t, s.AddDependency(ctx, 0, 9), "target node 'node[9]' not found")
	assert.ErrorContains(t, s.AddDependency(ctx, 9, 0), "source node 'node[9]' not found")
	_, err = s.DependenciesOf(ctx, 9)
	assert.Error(t, err)
}

func TestSetOrder(t *testing.T) {
	ctx := context.Background()
	build := func() *Store {
		s := New().(*Store)
		for id := range nodeid.ID(3) {
			require.NoError(t, s.AddNode(ctx, newNode(t, id)))
		}
		require.NoError(t, s.AddDependency(ctx, 2, 0))
		return s
	}

	testCases := []struct {
		name    string
		order   []nodeid.ID
		wantErr string
	}{
		{name: "valid", order: []nodeid.ID{1, 2, 0}},
		{name: "too short", order: []nodeid.ID{2, 0}, wantErr: "lists 2 nodes"},
		{name: "duplicate", order: []nodeid.ID{2, 2, 0}, wantErr: "twice"},
		{name: "unknown", order: []nodeid.ID{2, 0, 7}, wantErr: "unknown node"},
		{name: "dependency violated", order: []nodeid.ID{0, 1, 2}, wantErr: "before its dependency"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := build()
			err := s.SetOrder(ctx, tc.order)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				assert.Empty(t, s.Order(ctx))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.order, s.Order(ctx))
		})
	}
}

func TestAllNodesInCreationOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []nodeid.ID{2, 0, 1} {
		require.NoError(t, s.AddNode(ctx, newNode(t, id)))
	}
	var ids []nodeid.ID
	for _, n := range s.AllNodes(ctx) {
		ids = append(ids, n.ID())
	}
	assert.Equal(t, []nodeid.ID{0, 1, 2}, ids)
	assert.Equal(t, 3, s.Len(ctx))
}

func TestConcurrentReads(t *testing.T) {
	s := New()
	ctx := context.Background()
	for id := range nodeid.ID(10) {
		require.NoError(t, s.AddNode(ctx, newNode(t, id)))
		if id > 0 {
			require.NoError(t, s.AddDependency(ctx, id-1, id))
		}
	}

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range nodeid.ID(10) {
				_, ok := s.GetNode(ctx, id)
				assert.True(t, ok)
				_, err := s.DependentsOf(ctx, id)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
