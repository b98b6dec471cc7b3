package testutil

import "time"

// ExecutionRecord is the wall-clock window in which one task body ran.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two windows intersect.
func (r ExecutionRecord) Overlaps(o ExecutionRecord) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}
