package graph

import (
	"context"

	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/event"
	"github.com/specialistvlad/cmdgraph/internal/metrics"
	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/queue"
	"github.com/specialistvlad/cmdgraph/internal/resource"
	"github.com/specialistvlad/cmdgraph/internal/task"
)

// BeginRecording intercepts q: until EndRecording, commands submitted to q
// become nodes of this graph instead of executing.
func (g *Graph) BeginRecording(q *queue.Queue) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if q.Device() != g.device {
		return errs.New("begin recording", errs.ErrDeviceMismatch, nodeid.None,
			"graph %s targets %q, queue %s targets %q", g.label, g.device, q.ID(), q.Device())
	}
	if g.recording != nil {
		return errs.New("begin recording", errs.ErrAlreadyRecording, nodeid.None,
			"graph %s is already recording queue %s", g.label, g.recording.ID())
	}
	if err := q.Intercept(g); err != nil {
		return err
	}
	g.recording = q
	return nil
}

// EndRecording releases the recorded queue back to immediate execution.
func (g *Graph) EndRecording() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.recording == nil {
		return errs.New("end recording", errs.ErrNotRecording, nodeid.None, "graph %s", g.label)
	}
	if err := g.recording.Release(g); err != nil {
		return err
	}
	g.recording = nil
	return nil
}

// IsRecording reports whether the graph currently intercepts a queue.
func (g *Graph) IsRecording() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recording != nil
}

// touch is the merged access of one command to one resource.
type touch struct {
	res  resource.Resource
	mode resource.Mode
}

// Record converts an intercepted submission into a node. It is called by the
// queue while in Recording mode.
//
// Predecessors are the union of the edges inferred from the declared resource
// accesses and the nodes behind the recorded tokens in cmd.DependsOn. All
// validation happens before the graph is touched, so a rejected command
// leaves no trace.
func (g *Graph) Record(ctx context.Context, cmd queue.Command) (*event.Event, error) {
	logger := ctxlog.FromContext(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	const op = "record"
	next := nodeid.ID(len(g.nodes))

	if g.recording == nil {
		return nil, errs.New(op, errs.ErrNotRecording, next, "graph %s", g.label)
	}

	var touches []touch
	seen := make(map[resource.ID]int)
	for _, slot := range cmd.Access.Slots() {
		bound, ok := cmd.Params[slot]
		if !ok {
			return nil, errs.New(op, errs.ErrInvalidCommand, next, "access declared for slot %q without a binding", slot)
		}
		res, ok := task.Resolve(bound).(resource.Resource)
		if !ok {
			return nil, errs.New(op, errs.ErrInvalidCommand, next, "slot %q is bound to %T, not a resource", slot, task.Resolve(bound))
		}
		if _, known := g.registry.Lookup(res.ID()); !known {
			return nil, errs.New(op, errs.ErrUnknownResource, next, "slot %q: resource %d was never registered with graph %s", slot, res.ID(), g.label)
		}
		if i, dup := seen[res.ID()]; dup {
			touches[i].mode = touches[i].mode.Union(cmd.Access[slot])
			continue
		}
		seen[res.ID()] = len(touches)
		touches = append(touches, touch{res: res, mode: cmd.Access[slot]})
	}

	var explicit []nodeid.ID
	for _, dep := range cmd.DependsOn {
		owner, id, ok := dep.RecordedNode()
		if !ok || owner != g.id || !g.exists(id) {
			return nil, errs.New(op, errs.ErrDanglingDependency, next, "command %q depends on an event that is not a node of graph %s", cmd.Name, g.label)
		}
		explicit = append(explicit, id)
	}
	if err := g.checkParams(op, next, cmd.Params); err != nil {
		return nil, err
	}

	n, err := node.New(next, cmd.Name, cmd.Bodies(), cmd.Params, cmd.Access)
	if err != nil {
		return nil, errs.New(op, errs.ErrInvalidCommand, next, "%v", err)
	}

	var preds []nodeid.ID
	for _, t := range touches {
		inferred, err := g.registry.RecordAccess(t.res.ID(), next, t.mode)
		if err != nil {
			return nil, err
		}
		preds = append(preds, inferred...)
	}
	preds = append(preds, explicit...)

	g.nodes = append(g.nodes, n)
	for _, p := range preds {
		node.Link(g.nodes[p], n)
	}

	metrics.RecordedCommands.Inc()
	logger.Debug("Record: command captured as node.",
		"graph", g.label,
		"node", next.String(),
		"name", n.Name,
		"predecessors", nodeid.Strings(n.Predecessors()),
	)
	return event.Recorded(g.id, next), nil
}
