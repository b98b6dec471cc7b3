package node

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/resource"
	"github.com/specialistvlad/cmdgraph/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *task.Task) error { return nil }

type cell struct{ v any }

func (c *cell) Value() any       { return c.v }
func (c *cell) Owner() uuid.UUID { return uuid.Nil }

func TestNew(t *testing.T) {
	t.Run("rejects empty body list", func(t *testing.T) {
		_, err := New(0, "", nil, nil, nil)
		assert.ErrorContains(t, err, "at least one body")
	})

	t.Run("rejects nil body", func(t *testing.T) {
		_, err := New(0, "", []task.Body{noop, nil}, nil, nil)
		assert.ErrorContains(t, err, "body 1 is nil")
	})

	t.Run("defaults the name to the id", func(t *testing.T) {
		n, err := New(7, "", []task.Body{noop}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "node[7]", n.Name)
		assert.False(t, n.IsDynamic())
		assert.Equal(t, 0, n.ActiveIndex())
	})
}

func TestSetActiveIndex(t *testing.T) {
	n, err := New(0, "pattern", []task.Body{noop, noop}, nil, nil)
	require.NoError(t, err)
	assert.True(t, n.IsDynamic())

	require.NoError(t, n.SetActiveIndex(1))
	assert.Equal(t, 1, n.ActiveIndex())

	assert.Error(t, n.SetActiveIndex(2))
	assert.Error(t, n.SetActiveIndex(-1))
	assert.Equal(t, 1, n.ActiveIndex(), "a rejected index must not change the node")
}

func TestLinkIsBidirectionalAndDeduplicated(t *testing.T) {
	a, _ := New(0, "a", []task.Body{noop}, nil, nil)
	b, _ := New(1, "b", []task.Body{noop}, nil, nil)

	assert.True(t, Link(a, b))
	assert.False(t, Link(a, b))

	assert.Equal(t, []nodeid.ID{1}, a.Successors())
	assert.Equal(t, []nodeid.ID{0}, b.Predecessors())
	assert.Empty(t, a.Predecessors())
}

func TestCloneIsIndependent(t *testing.T) {
	params := task.Params{"value": 1.0}
	n, _ := New(0, "fill", []task.Body{noop, noop}, params, task.Accesses{"out": resource.Write})
	params["value"] = 2.0
	assert.Equal(t, 1.0, n.Params()["value"], "New must copy params")

	c := n.Clone()
	require.NoError(t, c.SetActiveIndex(1))
	assert.Equal(t, 0, n.ActiveIndex())
	assert.Equal(t, resource.Write, c.Accesses()["out"])

	b := n.Binding()
	b.Params["value"] = 3.0
	assert.Equal(t, 1.0, n.Params()["value"])
}

func TestResources(t *testing.T) {
	a := resource.NewBuffer("a", 1)
	b := resource.NewBuffer("b", 1)
	params := task.Params{
		"x":     a,
		"y":     a,
		"z":     &cell{v: b},
		"alpha": 2.0,
	}

	res := Resources(params)
	require.Len(t, res, 2)
	assert.Same(t, a, res[0])
	assert.Same(t, b, res[1])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "unknown", State(42).String())
}
