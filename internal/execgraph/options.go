package execgraph

type config struct {
	updatable bool
}

// Option configures Finalize.
type Option func(*config)

// Updatable keeps the executable graph's bindings rewritable.
func Updatable() Option {
	return func(c *config) {
		c.updatable = true
	}
}

// UpdateOption describes a targeted update.
type UpdateOption func(*nodeUpdate)

type nodeUpdate struct {
	active    *int
	params    map[string]any
	hasParams bool
}

// WithActiveIndex selects the body the node runs from the next submission on.
func WithActiveIndex(i int) UpdateOption {
	return func(u *nodeUpdate) {
		u.active = &i
	}
}

// WithParams rebinds the given parameter slots. Slots not listed keep their
// binding.
func WithParams(params map[string]any) UpdateOption {
	return func(u *nodeUpdate) {
		if u.params == nil {
			u.params = make(map[string]any, len(params))
		}
		for k, v := range params {
			u.params[k] = v
		}
		u.hasParams = true
	}
}
