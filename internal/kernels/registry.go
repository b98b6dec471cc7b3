package kernels

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/cmdgraph/internal/queue"
	"github.com/specialistvlad/cmdgraph/internal/task"
)

// Kernel is a named command body with its declared slot accesses.
type Kernel struct {
	Name   string
	Access task.Accesses
	Run    task.Body
}

// Registry maps kernel names to kernels.
type Registry struct {
	kernels map[string]Kernel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kernels: make(map[string]Kernel)}
}

// Default returns a registry holding every built-in kernel.
func Default() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

// Register adds k. Registering a name twice panics.
func (r *Registry) Register(k Kernel) {
	if _, exists := r.kernels[k.Name]; exists {
		panic(fmt.Sprintf("kernel with name '%s' already registered", k.Name))
	}
	slog.Debug("Registering kernel.", "name", k.Name, "slots", k.Access.Slots())
	r.kernels[k.Name] = k
}

// Lookup returns the kernel registered under name.
func (r *Registry) Lookup(name string) (Kernel, bool) {
	k, ok := r.kernels[name]
	return k, ok
}

// Names lists the registered kernels alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.kernels))
	for name := range r.kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Command builds a queue command running kernel name on params. Every slot
// the kernel declares an access for must be bound.
func (r *Registry) Command(name string, params task.Params) (queue.Command, error) {
	k, ok := r.kernels[name]
	if !ok {
		return queue.Command{}, fmt.Errorf("unknown kernel %q, available: %v", name, r.Names())
	}
	for _, slot := range k.Access.Slots() {
		if _, bound := params[slot]; !bound {
			return queue.Command{}, fmt.Errorf("kernel %q: slot %q is not bound", name, slot)
		}
	}
	return queue.Command{
		Name:   name,
		Body:   k.Run,
		Params: params,
		Access: k.Access.Clone(),
	}, nil
}

// Variants builds a dynamic command from several kernels sharing params.
// Accesses are merged slot by slot.
func (r *Registry) Variants(name string, kernels []string, params task.Params) (queue.Command, error) {
	cmd := queue.Command{Name: name, Params: params, Access: task.Accesses{}}
	for _, kn := range kernels {
		c, err := r.Command(kn, params)
		if err != nil {
			return queue.Command{}, err
		}
		cmd.Variants = append(cmd.Variants, c.Body)
		for slot, m := range c.Access {
			cmd.Access[slot] = cmd.Access[slot].Union(m)
		}
	}
	if len(cmd.Variants) == 0 {
		return queue.Command{}, fmt.Errorf("dynamic command %q has no variants", name)
	}
	return cmd, nil
}

// Bodies returns the bodies of the named kernels in order.
func (r *Registry) Bodies(names ...string) ([]task.Body, error) {
	out := make([]task.Body, 0, len(names))
	for _, name := range names {
		k, ok := r.kernels[name]
		if !ok {
			return nil, fmt.Errorf("unknown kernel %q", name)
		}
		out = append(out, k.Run)
	}
	return out, nil
}
