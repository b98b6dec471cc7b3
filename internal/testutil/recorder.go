package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/specialistvlad/cmdgraph/internal/task"
)

// Recorder builds task bodies that record when and in which order they ran.
// It is shared by all bodies it creates and is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	order   []string
	records map[string][]ExecutionRecord
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{records: make(map[string][]ExecutionRecord)}
}

// Body returns a body that records its execution under label.
func (r *Recorder) Body(label string) task.Body {
	return r.Sleep(label, 0)
}

// Sleep returns a body that records its execution under label and takes at
// least d to complete.
func (r *Recorder) Sleep(label string, d time.Duration) task.Body {
	return func(ctx context.Context, _ *task.Task) error {
		start := time.Now()
		if d > 0 {
			time.Sleep(d)
		}
		r.add(label, ExecutionRecord{Start: start, End: time.Now()})
		return nil
	}
}

// Named returns a body that records its execution under the name of the
// task it runs, taking at least d. One body can then serve many nodes.
func (r *Recorder) Named(d time.Duration) task.Body {
	return func(ctx context.Context, t *task.Task) error {
		return r.Sleep(t.Name, d)(ctx, t)
	}
}

// Fail returns a body that records its execution under label and returns err.
func (r *Recorder) Fail(label string, err error) task.Body {
	return func(ctx context.Context, _ *task.Task) error {
		now := time.Now()
		r.add(label, ExecutionRecord{Start: now, End: now})
		return err
	}
}

// Block returns a body that waits until release is closed, then records its
// execution under label. started is closed the first time the body begins.
func (r *Recorder) Block(label string, started chan<- struct{}, release <-chan struct{}) task.Body {
	var once sync.Once
	return func(ctx context.Context, _ *task.Task) error {
		start := time.Now()
		if started != nil {
			once.Do(func() { close(started) })
		}
		<-release
		r.add(label, ExecutionRecord{Start: start, End: time.Now()})
		return nil
	}
}

func (r *Recorder) add(label string, rec ExecutionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, label)
	r.records[label] = append(r.records[label], rec)
}

// Order returns the labels in completion order.
func (r *Recorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Count returns how many times label ran.
func (r *Recorder) Count(label string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records[label])
}

// Records returns the executions recorded under label.
func (r *Recorder) Records(label string) []ExecutionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ExecutionRecord(nil), r.records[label]...)
}

// Before reports whether every execution of a completed before the first
// execution of b started. It is false if either never ran.
func (r *Recorder) Before(a, b string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ra, rb := r.records[a], r.records[b]
	if len(ra) == 0 || len(rb) == 0 {
		return false
	}
	first := rb[0].Start
	for _, x := range rb {
		if x.Start.Before(first) {
			first = x.Start
		}
	}
	for _, x := range ra {
		if x.End.After(first) {
			return false
		}
	}
	return true
}
