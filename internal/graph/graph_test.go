package graph

import (
	"context"
	"testing"

	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/event"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/queue"
	"github.com/specialistvlad/cmdgraph/internal/resource"
	"github.com/specialistvlad/cmdgraph/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *task.Task) error { return nil }

// edgesOf lists every edge of a snapshot as [from, to] pairs.
func edgesOf(s *Snapshot) [][2]nodeid.ID {
	var out [][2]nodeid.ID
	for _, n := range s.Nodes {
		for _, p := range n.Predecessors() {
			out = append(out, [2]nodeid.ID{p, n.ID()})
		}
	}
	return out
}

// assertConsistentEdges checks that successors mirror predecessors.
func assertConsistentEdges(t *testing.T, s *Snapshot) {
	t.Helper()
	for _, n := range s.Nodes {
		for _, p := range n.Predecessors() {
			assert.Contains(t, s.Nodes[p].Successors(), n.ID())
		}
		for _, succ := range n.Successors() {
			assert.Contains(t, s.Nodes[succ].Predecessors(), n.ID())
		}
	}
}

func TestAdd_ExplicitDiamond(t *testing.T) {
	g := New(queue.HostDevice)

	i, err := g.Add(noop, nil, nil, WithName("init"))
	require.NoError(t, err)
	a, err := g.Add(noop, []nodeid.ID{i}, nil, WithName("a"))
	require.NoError(t, err)
	b, err := g.Add(noop, []nodeid.ID{i}, nil, WithName("b"))
	require.NoError(t, err)
	c, err := g.Add(noop, []nodeid.ID{a, b}, task.Params{"alpha": 1.0}, WithName("c"))
	require.NoError(t, err)

	assert.Equal(t, []nodeid.ID{0, 1, 2, 3}, []nodeid.ID{i, a, b, c})
	snap := g.Snapshot()
	assert.Equal(t, [][2]nodeid.ID{{0, 1}, {0, 2}, {1, 3}, {2, 3}}, edgesOf(snap))
	assert.Equal(t, "c", snap.Nodes[c].Name)
	assert.Equal(t, 1.0, snap.Nodes[c].Params()["alpha"])
	assertConsistentEdges(t, snap)
}

func TestAdd_DanglingDependency(t *testing.T) {
	g := New(queue.HostDevice)
	_, err := g.Add(noop, nil, nil)
	require.NoError(t, err)

	for _, dep := range []nodeid.ID{1, 7, nodeid.None} {
		_, err := g.Add(noop, []nodeid.ID{dep}, nil)
		assert.ErrorIs(t, err, errs.ErrDanglingDependency, "dependency %s", dep)
	}
	assert.Equal(t, 1, g.Len(), "rejected nodes must not be added")
}

func TestAdd_InvalidBodies(t *testing.T) {
	g := New(queue.HostDevice)
	_, err := g.Add(nil, nil, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidCommand)
	_, err = g.AddDynamic(nil, nil, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidCommand)
	assert.Zero(t, g.Len())
}

func TestAddDynamic_ActiveIndex(t *testing.T) {
	g := New(queue.HostDevice)
	id, err := g.AddDynamic([]task.Body{noop, noop}, nil, nil)
	require.NoError(t, err)

	snap := g.Snapshot()
	assert.True(t, snap.Nodes[id].IsDynamic())
	assert.Equal(t, 0, snap.Nodes[id].ActiveIndex())

	require.NoError(t, g.SetActiveIndex(id, 1))
	assert.Equal(t, 1, g.Snapshot().Nodes[id].ActiveIndex())
	assert.Equal(t, 0, snap.Nodes[id].ActiveIndex(), "snapshots are independent of later changes")

	assert.ErrorIs(t, g.SetActiveIndex(id, 2), errs.ErrInvalidBodyIndex)
	assert.ErrorIs(t, g.SetActiveIndex(5, 0), errs.ErrUnknownNode)
}

func TestSetParam(t *testing.T) {
	g := New(queue.HostDevice)
	a, _ := g.Add(noop, nil, nil)
	id, err := g.Add(noop, []nodeid.ID{a}, task.Params{"value": 1.0})
	require.NoError(t, err)

	require.NoError(t, g.SetParam(id, "value", 2.0))
	snap := g.Snapshot()
	assert.Equal(t, 2.0, snap.Nodes[id].Params()["value"])
	assertConsistentEdges(t, snap)

	assert.ErrorIs(t, g.SetParam(id, "missing", 1), errs.ErrUnknownParameter)
	assert.ErrorIs(t, g.SetParam(9, "value", 1), errs.ErrUnknownNode)
}

// recordDiamond records the diamond dependency pattern:
//
//	inc(A rw) -> add(A r, B rw), sub(A r, C rw) -> dec(B rw, C rw)
func recordDiamond(t *testing.T, g *Graph, q *queue.Queue, a, b, c *resource.Buffer) {
	t.Helper()
	ctx := context.Background()
	cmds := []queue.Command{
		{Name: "inc", Body: noop, Params: task.Params{"out": a}, Access: task.Accesses{"out": resource.ReadWrite}},
		{Name: "add", Body: noop, Params: task.Params{"a": a, "out": b}, Access: task.Accesses{"a": resource.Read, "out": resource.ReadWrite}},
		{Name: "sub", Body: noop, Params: task.Params{"a": a, "out": c}, Access: task.Accesses{"a": resource.Read, "out": resource.ReadWrite}},
		{Name: "dec", Body: noop, Params: task.Params{"x": b, "y": c}, Access: task.Accesses{"x": resource.ReadWrite, "y": resource.ReadWrite}},
	}
	require.NoError(t, g.BeginRecording(q))
	for _, cmd := range cmds {
		tok, err := q.Submit(ctx, cmd)
		require.NoError(t, err)
		_, _, recorded := tok.RecordedNode()
		require.True(t, recorded)
	}
	require.NoError(t, g.EndRecording())
}

func TestRecording_Diamond(t *testing.T) {
	q := queue.New(queue.HostDevice)
	g := New(queue.HostDevice)
	a, b, c := resource.NewBuffer("a", 4), resource.NewBuffer("b", 4), resource.NewBuffer("c", 4)
	g.Register(a, b, c)

	recordDiamond(t, g, q, a, b, c)

	snap := g.Snapshot()
	require.Len(t, snap.Nodes, 4)
	assert.Equal(t, [][2]nodeid.ID{{0, 1}, {0, 2}, {1, 3}, {2, 3}}, edgesOf(snap))
	assert.Equal(t, []string{"inc", "add", "sub", "dec"}, []string{
		snap.Nodes[0].Name, snap.Nodes[1].Name, snap.Nodes[2].Name, snap.Nodes[3].Name,
	})
	assertConsistentEdges(t, snap)
	assert.Equal(t, queue.Immediate, q.Mode())
}

func TestRecording_WriteWriteRead(t *testing.T) {
	q := queue.New(queue.HostDevice)
	g := New(queue.HostDevice)
	r := resource.NewBuffer("r", 1)
	g.Register(r)
	ctx := context.Background()

	require.NoError(t, g.BeginRecording(q))
	for _, m := range []resource.Mode{resource.Write, resource.Write, resource.Read} {
		_, err := q.Submit(ctx, queue.Command{Body: noop, Params: task.Params{"r": r}, Access: task.Accesses{"r": m}})
		require.NoError(t, err)
	}
	require.NoError(t, g.EndRecording())

	assert.Equal(t, [][2]nodeid.ID{{0, 1}, {1, 2}}, edgesOf(g.Snapshot()))
}

func TestRecording_SameResourceInTwoSlotsMergesModes(t *testing.T) {
	q := queue.New(queue.HostDevice)
	g := New(queue.HostDevice)
	r := resource.NewBuffer("r", 1)
	g.Register(r)
	ctx := context.Background()

	require.NoError(t, g.BeginRecording(q))
	_, err := q.Submit(ctx, queue.Command{Body: noop, Params: task.Params{"r": r}, Access: task.Accesses{"r": resource.Read}})
	require.NoError(t, err)
	_, err = q.Submit(ctx, queue.Command{
		Body:   noop,
		Params: task.Params{"src": r, "dst": r},
		Access: task.Accesses{"src": resource.Read, "dst": resource.Write},
	})
	require.NoError(t, err)
	_, err = q.Submit(ctx, queue.Command{Body: noop, Params: task.Params{"r": r}, Access: task.Accesses{"r": resource.Read}})
	require.NoError(t, err)
	require.NoError(t, g.EndRecording())

	assert.Equal(t, [][2]nodeid.ID{{0, 1}, {1, 2}}, edgesOf(g.Snapshot()))
}

func TestRecording_ExplicitEventDependencies(t *testing.T) {
	q := queue.New(queue.HostDevice)
	g := New(queue.HostDevice)
	x, y := resource.NewBuffer("x", 1), resource.NewBuffer("y", 1)
	g.Register(x, y)
	ctx := context.Background()

	require.NoError(t, g.BeginRecording(q))
	first, err := q.Submit(ctx, queue.Command{Name: "a", Body: noop, Params: task.Params{"out": x}, Access: task.Accesses{"out": resource.Write}})
	require.NoError(t, err)
	_, err = q.Submit(ctx, queue.Command{
		Name:      "b",
		Body:      noop,
		Params:    task.Params{"out": y},
		Access:    task.Accesses{"out": resource.Write},
		DependsOn: []*event.Event{first},
	})
	require.NoError(t, err)

	t.Run("tokens from another graph are rejected", func(t *testing.T) {
		other := New(queue.HostDevice)
		_, err := q.Submit(ctx, queue.Command{
			Body:      noop,
			DependsOn: []*event.Event{event.Recorded(other.ID(), 0)},
		})
		assert.ErrorIs(t, err, errs.ErrDanglingDependency)
	})

	t.Run("live events are rejected", func(t *testing.T) {
		_, err := q.Submit(ctx, queue.Command{Body: noop, DependsOn: []*event.Event{event.Completed(nil)}})
		assert.ErrorIs(t, err, errs.ErrDanglingDependency)
	})

	require.NoError(t, g.EndRecording())
	assert.Equal(t, [][2]nodeid.ID{{0, 1}}, edgesOf(g.Snapshot()))
}

func TestRecording_DynamicCommand(t *testing.T) {
	q := queue.New(queue.HostDevice)
	g := New(queue.HostDevice)
	require.NoError(t, g.BeginRecording(q))
	_, err := q.Submit(context.Background(), queue.Command{Name: "pattern", Variants: []task.Body{noop, noop}})
	require.NoError(t, err)
	require.NoError(t, g.EndRecording())

	snap := g.Snapshot()
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, 2, snap.Nodes[0].BodyCount())
}

func TestRecording_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown resource", func(t *testing.T) {
		q := queue.New(queue.HostDevice)
		g := New(queue.HostDevice)
		stranger := resource.NewBuffer("stranger", 1)
		require.NoError(t, g.BeginRecording(q))
		defer func() { require.NoError(t, g.EndRecording()) }()

		_, err := q.Submit(ctx, queue.Command{Body: noop, Params: task.Params{"r": stranger}, Access: task.Accesses{"r": resource.Read}})
		assert.ErrorIs(t, err, errs.ErrUnknownResource)
		assert.Zero(t, g.Len())
	})

	t.Run("access without binding or with a non-resource binding", func(t *testing.T) {
		q := queue.New(queue.HostDevice)
		g := New(queue.HostDevice)
		require.NoError(t, g.BeginRecording(q))
		defer func() { require.NoError(t, g.EndRecording()) }()

		_, err := q.Submit(ctx, queue.Command{Body: noop, Access: task.Accesses{"r": resource.Read}})
		assert.ErrorIs(t, err, errs.ErrInvalidCommand)
		_, err = q.Submit(ctx, queue.Command{Body: noop, Params: task.Params{"r": 1.0}, Access: task.Accesses{"r": resource.Read}})
		assert.ErrorIs(t, err, errs.ErrInvalidCommand)
	})

	t.Run("double recording", func(t *testing.T) {
		q := queue.New(queue.HostDevice)
		g1, g2 := New(queue.HostDevice), New(queue.HostDevice)
		require.NoError(t, g1.BeginRecording(q))

		assert.ErrorIs(t, g2.BeginRecording(q), errs.ErrAlreadyRecording)
		assert.ErrorIs(t, g1.BeginRecording(queue.New(queue.HostDevice)), errs.ErrAlreadyRecording)
		assert.False(t, g2.IsRecording())

		require.NoError(t, g1.EndRecording())
		require.NoError(t, g2.BeginRecording(q), "the queue is free again after EndRecording")
		require.NoError(t, g2.EndRecording())
	})

	t.Run("end without begin", func(t *testing.T) {
		assert.ErrorIs(t, New(queue.HostDevice).EndRecording(), errs.ErrNotRecording)
	})

	t.Run("device mismatch", func(t *testing.T) {
		g := New("gpu0")
		assert.ErrorIs(t, g.BeginRecording(queue.New(queue.HostDevice)), errs.ErrDeviceMismatch)
	})

	t.Run("direct record without recording", func(t *testing.T) {
		_, err := New(queue.HostDevice).Record(ctx, queue.Command{Body: noop})
		assert.ErrorIs(t, err, errs.ErrNotRecording)
	})
}

func TestRecording_SubmissionsAfterEndExecute(t *testing.T) {
	q := queue.New(queue.HostDevice)
	g := New(queue.HostDevice)
	require.NoError(t, g.BeginRecording(q))
	require.NoError(t, g.EndRecording())

	ran := make(chan struct{})
	ev, err := q.Submit(context.Background(), queue.Command{Body: func(context.Context, *task.Task) error {
		close(ran)
		return nil
	}})
	require.NoError(t, err)
	require.NoError(t, ev.Wait())
	<-ran
	assert.Zero(t, g.Len())
}

func TestOptions(t *testing.T) {
	g := New(queue.HostDevice, WithAssumeResourcesOutlive(), WithLabel("demo"))
	assert.True(t, g.AssumesResourcesOutlive())
	assert.Equal(t, "demo", g.Label())
	assert.Equal(t, queue.HostDevice, g.Device())

	plain := New(queue.HostDevice)
	assert.False(t, plain.AssumesResourcesOutlive())
	assert.Equal(t, plain.ID().String(), plain.Label())
}

func TestMakeEdge(t *testing.T) {
	g := New(queue.HostDevice)
	a, err := g.Add(noop, nil, nil)
	require.NoError(t, err)
	b, err := g.Add(noop, nil, nil)
	require.NoError(t, err)

	require.NoError(t, g.MakeEdge(b, a))
	require.NoError(t, g.MakeEdge(b, a), "duplicate edges are ignored")
	assert.Equal(t, [][2]nodeid.ID{{1, 0}}, edgesOf(g.Snapshot()))

	require.ErrorIs(t, g.MakeEdge(a, 7), errs.ErrDanglingDependency)
	require.ErrorIs(t, g.MakeEdge(a, a), errs.ErrCyclicGraph)
	assertConsistentEdges(t, g.Snapshot())
}
