package builder

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/inmemorystore"
	"github.com/specialistvlad/cmdgraph/internal/inmemorytopology"
	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/nodestore"
	"github.com/specialistvlad/cmdgraph/internal/resource"
	"github.com/specialistvlad/cmdgraph/internal/task"
	"github.com/specialistvlad/cmdgraph/internal/topologystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDynamic is a minimal task.Dynamic.
type stubDynamic struct{ v any }

func (s *stubDynamic) Value() any       { return s.v }
func (s *stubDynamic) Owner() uuid.UUID { return uuid.Nil }

func noop(context.Context, *task.Task) error { return nil }

// fixture builds a -> b, a -> c with order a, c, b.
func fixture(t *testing.T, params task.Params) (topologystore.Store, nodestore.Store) {
	t.Helper()
	ctx := context.Background()
	topo := inmemorytopology.New()
	bindings := make(map[nodeid.ID]node.Binding)
	for i, name := range []string{"a", "b", "c"} {
		n, err := node.New(nodeid.ID(i), name, []task.Body{noop, noop}, params, nil)
		require.NoError(t, err)
		require.NoError(t, topo.AddNode(ctx, n))
		bindings[n.ID()] = n.Binding()
	}
	require.NoError(t, topo.AddDependency(ctx, 0, 1))
	require.NoError(t, topo.AddDependency(ctx, 0, 2))
	require.NoError(t, topo.SetOrder(ctx, []nodeid.ID{0, 2, 1}))
	return topo, inmemorystore.New(bindings)
}

func TestBuild_LaysOutStepsInOrder(t *testing.T) {
	ctx := context.Background()
	topo, state := fixture(t, nil)
	sub := uuid.New()

	plan, err := Build(ctx, topo, state, Options{Graph: "g", Submission: sub})
	require.NoError(t, err)

	assert.Equal(t, sub, plan.Submission)
	var ids []nodeid.ID
	for _, s := range plan.Steps {
		ids = append(ids, s.ID)
	}
	if diff := cmp.Diff([]nodeid.ID{0, 2, 1}, ids); diff != "" {
		t.Errorf("step order mismatch (-want +got):\n%s", diff)
	}

	root := plan.Steps[0]
	assert.Equal(t, 0, root.Deps)
	assert.ElementsMatch(t, []int{1, 2}, root.Dependents)
	assert.Equal(t, 1, plan.Steps[1].Deps)
	assert.Equal(t, "c", plan.Steps[1].Name)
	assert.Equal(t, sub, plan.Steps[1].Task.Submission)
}

func TestBuild_GeneratesSubmissionID(t *testing.T) {
	topo, state := fixture(t, nil)
	p1, err := Build(context.Background(), topo, state, Options{})
	require.NoError(t, err)
	p2, err := Build(context.Background(), topo, state, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p1.Submission)
	assert.NotEqual(t, p1.Submission, p2.Submission)
}

func TestBuild_SnapshotsBindings(t *testing.T) {
	ctx := context.Background()
	dyn := &stubDynamic{v: 1.0}
	topo, state := fixture(t, task.Params{"alpha": dyn})

	before, err := Build(ctx, topo, state, Options{})
	require.NoError(t, err)

	dyn.v = 2.0
	require.NoError(t, state.Update(ctx, 0, node.Binding{Active: 1, Params: task.Params{"alpha": dyn}}))

	after, err := Build(ctx, topo, state, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, before.Steps[0].Task.Inputs["alpha"])
	assert.Equal(t, 0, before.Steps[0].Task.Variant)
	assert.Equal(t, 2.0, after.Steps[0].Task.Inputs["alpha"])
	assert.Equal(t, 1, after.Steps[0].Task.Variant)
}

func TestBuild_RejectsOutOfRangeActiveIndex(t *testing.T) {
	ctx := context.Background()
	topo, state := fixture(t, nil)
	require.NoError(t, state.Update(ctx, 1, node.Binding{Active: 5}))

	_, err := Build(ctx, topo, state, Options{})
	require.ErrorIs(t, err, errs.ErrInvalidBodyIndex)
}

func TestCheckLiveness(t *testing.T) {
	ctx := context.Background()
	buf := resource.NewBuffer("x", 4)
	dyn := &stubDynamic{v: buf}
	topo, state := fixture(t, task.Params{"x": dyn})

	require.NoError(t, CheckLiveness(ctx, "finalize", topo, state, nil))

	fresh := resource.NewBuffer("y", 4)
	buf.Release()
	err := CheckLiveness(ctx, "finalize", topo, state, nil)
	require.ErrorIs(t, err, errs.ErrDanglingResource)

	overrides := map[nodeid.ID]node.Binding{
		0: {Params: task.Params{"x": fresh}},
		1: {Params: task.Params{"x": fresh}},
		2: {Params: task.Params{"x": fresh}},
	}
	assert.NoError(t, CheckLiveness(ctx, "update", topo, state, overrides))
}
