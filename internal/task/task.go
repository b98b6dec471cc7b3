package task

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/resource"
)

// Body is a command body. It receives the task describing one execution and
// produces side effects against the resources bound in the task inputs.
type Body func(ctx context.Context, t *Task) error

// Params maps parameter slots to bound values. A value may be a scalar, a
// resource, or a Dynamic indirection cell.
type Params map[string]any

// Clone returns a shallow copy.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return maps.Clone(p)
}

// Slots returns the slot names in sorted order.
func (p Params) Slots() []string {
	return slices.Sorted(maps.Keys(p))
}

// Accesses maps parameter slots to the access mode the body uses on the
// resource bound in that slot.
type Accesses map[string]resource.Mode

// Clone returns a shallow copy.
func (a Accesses) Clone() Accesses {
	if a == nil {
		return Accesses{}
	}
	return maps.Clone(a)
}

// Slots returns the slot names in sorted order.
func (a Accesses) Slots() []string {
	return slices.Sorted(maps.Keys(a))
}

// Dynamic is a shared, rebindable parameter value. It is resolved once per
// submission, when the task is built.
type Dynamic interface {
	// Value returns the currently bound value.
	Value() any
	// Owner identifies the graph the parameter was created for.
	Owner() uuid.UUID
}

// Resolve dereferences a Dynamic value. Other values are returned unchanged.
func Resolve(v any) any {
	if d, ok := v.(Dynamic); ok {
		return d.Value()
	}
	return v
}

// ResolveAll resolves every slot into a fresh map.
func ResolveAll(p Params) Params {
	out := make(Params, len(p))
	for slot, v := range p {
		out[slot] = Resolve(v)
	}
	return out
}

// Task represents a node that is fully prepared for execution. It is built
// once per submission and never mutated afterwards, so updates issued while
// a submission is in flight cannot affect it.
type Task struct {
	// Node is the graph node this task executes, or nodeid.None for
	// commands run immediately on a queue.
	Node nodeid.ID
	// Name is the human-readable name of the node or command.
	Name string
	// Submission identifies the submission the task belongs to.
	Submission uuid.UUID
	// Variant is the index of the body selected for this execution.
	Variant int
	// Inputs contains the resolved parameter values.
	Inputs Params
}

// Input returns a resolved input value.
func (t *Task) Input(slot string) (any, bool) {
	v, ok := t.Inputs[slot]
	return v, ok
}

// Get returns a resolved input converted to T.
func Get[T any](t *Task, slot string) (T, error) {
	var zero T
	v, ok := t.Inputs[slot]
	if !ok {
		return zero, fmt.Errorf("%s: missing input %q", t.Name, slot)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s: input %q is %T, want %T", t.Name, slot, v, zero)
	}
	return typed, nil
}

// Buffer returns the buffer bound to slot.
func (t *Task) Buffer(slot string) (*resource.Buffer, error) {
	return Get[*resource.Buffer](t, slot)
}

// Float returns a numeric input as float64.
func (t *Task) Float(slot string) (float64, error) {
	v, ok := t.Inputs[slot]
	if !ok {
		return 0, fmt.Errorf("%s: missing input %q", t.Name, slot)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%s: input %q is %T, want a number", t.Name, slot, v)
}

// FloatOr returns a numeric input, or def when the slot is absent.
func (t *Task) FloatOr(slot string, def float64) (float64, error) {
	if _, ok := t.Inputs[slot]; !ok {
		return def, nil
	}
	return t.Float(slot)
}
