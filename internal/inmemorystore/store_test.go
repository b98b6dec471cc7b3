package inmemorystore

import (
	"context"
	"sync"
	"testing"

	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initial() map[nodeid.ID]node.Binding {
	return map[nodeid.ID]node.Binding{
		0: {Active: 0, Params: task.Params{"value": 1.0}},
		1: {Active: 1, Params: task.Params{}},
	}
}

func TestStore_BindingAndUpdate(t *testing.T) {
	ctx := context.Background()
	src := initial()
	s := New(src)
	require.True(t, s.Updatable())

	src[0].Params["value"] = 99.0
	b, err := s.Binding(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, b.Params["value"], "the store must copy its initial bindings")

	held := b
	require.NoError(t, s.Update(ctx, 0, node.Binding{Active: 0, Params: task.Params{"value": 2.0}}))

	b, err = s.Binding(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, b.Params["value"])
	assert.Equal(t, 1.0, held.Params["value"], "a binding read earlier must not change")

	assert.Error(t, s.Update(ctx, 5, node.Binding{}))
	_, err = s.Binding(ctx, 5)
	assert.Error(t, err)
}

func TestStore_ConcurrentReadsAndUpdates(t *testing.T) {
	ctx := context.Background()
	s := New(initial())

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Update(ctx, 0, node.Binding{Params: task.Params{"value": float64(i)}}))
		}()
		go func() {
			defer wg.Done()
			b, err := s.Binding(ctx, 0)
			assert.NoError(t, err)
			assert.Contains(t, b.Params, "value")
		}()
	}
	wg.Wait()
}

func TestFrozen(t *testing.T) {
	ctx := context.Background()
	f := NewFrozen(initial())
	assert.False(t, f.Updatable())

	b, err := f.Binding(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Active)

	err = f.Update(ctx, 1, node.Binding{})
	assert.ErrorIs(t, err, errs.ErrNotUpdatable)

	b, err = f.Binding(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Active, "a rejected update must not change the binding")
}
