package resource

import (
	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
)

// accessors is the "current accessors" entry of a single resource.
type accessors struct {
	writer    nodeid.ID
	hasWriter bool
	readers   []nodeid.ID
}

// Registry tracks the resources known to a graph and, while recording, the
// nodes that last accessed each of them.
//
// Ordering policy per resource:
//   - a read depends on the last write;
//   - a write depends on the last write and on every read since it;
//   - reads never depend on each other.
//
// Registry is not safe for concurrent use. The owning graph serializes access.
type Registry struct {
	resources map[ID]Resource
	order     []ID
	access    map[ID]*accessors
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		resources: make(map[ID]Resource),
		access:    make(map[ID]*accessors),
	}
}

// Register makes res known. Registering the same resource twice is a no-op.
func (r *Registry) Register(res Resource) {
	if _, ok := r.resources[res.ID()]; ok {
		return
	}
	r.resources[res.ID()] = res
	r.order = append(r.order, res.ID())
}

// Lookup returns a registered resource.
func (r *Registry) Lookup(id ID) (Resource, bool) {
	res, ok := r.resources[id]
	return res, ok
}

// Resources lists registered resources in registration order.
func (r *Registry) Resources() []Resource {
	out := make([]Resource, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.resources[id])
	}
	return out
}

// RecordAccess records that node n accesses resource id with the given mode
// and returns the nodes n must now depend on. The result never contains n.
func (r *Registry) RecordAccess(id ID, n nodeid.ID, mode Mode) ([]nodeid.ID, error) {
	if _, ok := r.resources[id]; !ok {
		return nil, errs.New("record access", errs.ErrUnknownResource, n, "resource %d was never registered with the graph", id)
	}

	acc := r.access[id]
	if acc == nil {
		acc = &accessors{}
		r.access[id] = acc
	}

	var preds []nodeid.ID
	add := func(p nodeid.ID) {
		if p == n {
			return
		}
		for _, existing := range preds {
			if existing == p {
				return
			}
		}
		preds = append(preds, p)
	}

	if acc.hasWriter {
		add(acc.writer)
	}

	if mode.Writes() {
		for _, reader := range acc.readers {
			add(reader)
		}
		acc.writer = n
		acc.hasWriter = true
		acc.readers = acc.readers[:0]
		return preds, nil
	}

	acc.readers = append(acc.readers, n)
	return preds, nil
}
