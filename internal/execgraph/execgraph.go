package execgraph

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/cmdgraph/internal/builder"
	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
	"github.com/specialistvlad/cmdgraph/internal/dag"
	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/graph"
	"github.com/specialistvlad/cmdgraph/internal/inmemorystore"
	"github.com/specialistvlad/cmdgraph/internal/inmemorytopology"
	"github.com/specialistvlad/cmdgraph/internal/metrics"
	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/nodestore"
	"github.com/specialistvlad/cmdgraph/internal/queue"
	"github.com/specialistvlad/cmdgraph/internal/task"
	"github.com/specialistvlad/cmdgraph/internal/topologystore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/specialistvlad/cmdgraph/execgraph"

// Graph is a finalized, submission-ready command graph.
type Graph struct {
	mu sync.RWMutex

	id            uuid.UUID
	source        uuid.UUID
	// bound is the graph the current bindings were copied from. It starts
	// as source and moves with whole-graph updates.
	bound         uuid.UUID
	label         string
	device        queue.Device
	assumeOutlive bool
	updatable     bool

	topo  topologystore.Store
	state nodestore.Store
	shape shape
}

// Finalize validates g and freezes it into an executable graph. It fails
// with errs.ErrCyclicGraph when the dependency relation has a cycle and with
// errs.ErrDanglingResource when a node references a released resource,
// unless g was created with graph.WithAssumeResourcesOutlive. On failure no
// executable graph is produced.
func Finalize(ctx context.Context, g *graph.Graph, opts ...Option) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "execgraph.Finalize",
		trace.WithAttributes(
			attribute.String("cmdgraph.graph", g.Label()),
			attribute.Bool("cmdgraph.updatable", cfg.updatable),
		),
	)
	defer span.End()

	eg, err := finalize(ctx, g.Snapshot(), cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.Finalizations.WithLabelValues(metrics.ResultError).Inc()
		logger.Debug("Finalize: graph rejected.", "graph", g.Label(), "error", err)
		return nil, err
	}
	metrics.Finalizations.WithLabelValues(metrics.ResultOK).Inc()
	span.SetStatus(codes.Ok, "")
	logger.Debug("Finalize: executable graph created.", "graph", eg.label, "node_count", eg.topo.Len(ctx), "updatable", eg.updatable)
	return eg, nil
}

func finalize(ctx context.Context, snap *graph.Snapshot, cfg config) (*Graph, error) {
	d := dag.New(len(snap.Nodes))
	for _, n := range snap.Nodes {
		for _, p := range n.Predecessors() {
			if err := d.AddEdge(p.Index(), n.ID().Index()); err != nil {
				return nil, errs.New("finalize", errs.ErrDanglingDependency, n.ID(), "%v", err)
			}
		}
	}

	if err := d.DetectCycles(); err != nil {
		var ce *dag.CycleError
		if errors.As(err, &ce) && len(ce.Path) > 0 {
			path := ce.Format(func(v int) string { return nodeid.ID(v).String() })
			return nil, errs.New("finalize", errs.ErrCyclicGraph, nodeid.ID(ce.Path[0]), "%s", path)
		}
		return nil, errs.New("finalize", errs.ErrCyclicGraph, nodeid.None, "%v", err)
	}

	if !snap.AssumeOutlive {
		for _, n := range snap.Nodes {
			if err := builder.CheckBinding("finalize", n.ID(), n.Params()); err != nil {
				return nil, err
			}
		}
	}

	order, err := d.TopologicalSort()
	if err != nil {
		return nil, errs.New("finalize", errs.ErrCyclicGraph, nodeid.None, "%v", err)
	}

	topo := inmemorytopology.New()
	bindings := make(map[nodeid.ID]node.Binding, len(snap.Nodes))
	for _, n := range snap.Nodes {
		if err := topo.AddNode(ctx, n); err != nil {
			return nil, err
		}
		b := n.Binding()
		if !cfg.updatable {
			b.Params = task.ResolveAll(b.Params)
		}
		bindings[n.ID()] = b
	}
	for _, n := range snap.Nodes {
		for _, p := range n.Predecessors() {
			if err := topo.AddDependency(ctx, p, n.ID()); err != nil {
				return nil, err
			}
		}
	}
	ids := make([]nodeid.ID, len(order))
	for i, v := range order {
		ids[i] = nodeid.ID(v)
	}
	if err := topo.SetOrder(ctx, ids); err != nil {
		return nil, fmt.Errorf("storing execution order: %w", err)
	}

	var state nodestore.Store
	if cfg.updatable {
		state = inmemorystore.New(bindings)
	} else {
		state = inmemorystore.NewFrozen(bindings)
	}

	return &Graph{
		id:            uuid.New(),
		source:        snap.ID,
		bound:         snap.ID,
		label:         snap.Label,
		device:        snap.Device,
		assumeOutlive: snap.AssumeOutlive,
		updatable:     cfg.updatable,
		topo:          topo,
		state:         state,
		shape:         shapeOf(snap),
	}, nil
}

// ID returns the identity of the executable graph.
func (eg *Graph) ID() uuid.UUID {
	return eg.id
}

// Source returns the identity of the graph eg was finalized from.
func (eg *Graph) Source() uuid.UUID {
	return eg.source
}

func (eg *Graph) Label() string {
	return eg.label
}

func (eg *Graph) Device() queue.Device {
	return eg.device
}

func (eg *Graph) Updatable() bool {
	return eg.updatable
}

// Len returns the number of nodes.
func (eg *Graph) Len() int {
	return eg.topo.Len(context.Background())
}

// Order returns the execution order fixed at finalize.
func (eg *Graph) Order() []nodeid.ID {
	return eg.topo.Order(context.Background())
}
