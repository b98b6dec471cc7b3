package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/event"
	"github.com/specialistvlad/cmdgraph/internal/metrics"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/task"
	"golang.org/x/sync/semaphore"
)

// Device names the execution target a queue drives. Graphs are bound to a
// device and only run on queues of the same device.
type Device string

// HostDevice is the default device: the host CPU.
const HostDevice Device = "host"

// Mode is the submission mode of a queue.
type Mode int32

const (
	Immediate Mode = iota
	Recording
)

func (m Mode) String() string {
	switch m {
	case Immediate:
		return "immediate"
	case Recording:
		return "recording"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

// Command is a unit of work submitted to a queue.
type Command struct {
	// Name is used in logs and as the node name when recorded.
	Name string
	// Body is the command body. Ignored when Variants is set.
	Body task.Body
	// Variants holds alternative bodies. When recorded, the command becomes
	// a dynamic node with the first variant active. Executed immediately,
	// the first variant runs.
	Variants []task.Body
	// Params are the parameter bindings passed to the body.
	Params task.Params
	// Access declares, per parameter slot, how the body uses the resource
	// bound in that slot.
	Access task.Accesses
	// DependsOn lists events that must complete first. While recording,
	// these must be tokens returned by earlier recorded submissions.
	DependsOn []*event.Event
}

// Bodies returns the command's bodies.
func (c Command) Bodies() []task.Body {
	if len(c.Variants) > 0 {
		return c.Variants
	}
	if c.Body == nil {
		return nil
	}
	return []task.Body{c.Body}
}

// Recorder intercepts submissions while a queue is recording.
type Recorder interface {
	ID() uuid.UUID
	Record(ctx context.Context, cmd Command) (*event.Event, error)
}

// Option configures a Queue.
type Option func(*Queue)

// WithWorkers sets the number of worker slots. Values below one are ignored.
func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// DefaultWorkers is the slot count used when WithWorkers is not given.
const DefaultWorkers = 4

// Queue is an execution queue bound to one device.
type Queue struct {
	id      uuid.UUID
	device  Device
	workers int
	slots   *semaphore.Weighted

	mu       sync.Mutex
	mode     Mode
	recorder Recorder

	inflight sync.WaitGroup
}

// New creates a queue in Immediate mode.
func New(device Device, opts ...Option) *Queue {
	q := &Queue{
		id:      uuid.New(),
		device:  device,
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.slots = semaphore.NewWeighted(int64(q.workers))
	return q
}

func (q *Queue) ID() uuid.UUID {
	return q.id
}

func (q *Queue) Device() Device {
	return q.device
}

// Workers returns the number of worker slots.
func (q *Queue) Workers() int {
	return q.workers
}

// Mode returns the current submission mode.
func (q *Queue) Mode() Mode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mode
}

// Recorder returns the recorder intercepting the queue, if any.
func (q *Queue) Recorder() (Recorder, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.recorder, q.recorder != nil
}

// Intercept switches the queue into Recording mode on behalf of r.
func (q *Queue) Intercept(r Recorder) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.recorder != nil {
		return errs.New("begin recording", errs.ErrAlreadyRecording, nodeid.None,
			"queue %s is already recorded by graph %s", q.id, q.recorder.ID())
	}
	q.recorder = r
	q.mode = Recording
	return nil
}

// Release returns the queue to Immediate mode. Only the recorder that
// intercepted the queue may release it.
func (q *Queue) Release(r Recorder) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.recorder == nil || q.recorder.ID() != r.ID() {
		return errs.New("end recording", errs.ErrNotRecording, nodeid.None,
			"graph %s is not recording queue %s", r.ID(), q.id)
	}
	q.recorder = nil
	q.mode = Immediate
	return nil
}

// Submit either records cmd into the intercepting graph or schedules it for
// immediate asynchronous execution.
func (q *Queue) Submit(ctx context.Context, cmd Command) (*event.Event, error) {
	for {
		q.mu.Lock()
		mode, rec := q.mode, q.recorder
		q.mu.Unlock()

		if mode != Recording {
			return q.submitImmediate(ctx, cmd)
		}
		ev, err := rec.Record(ctx, cmd)
		if errors.Is(err, errs.ErrNotRecording) && !q.interceptedBy(rec) {
			// Recording ended after the mode was read.
			continue
		}
		return ev, err
	}
}

func (q *Queue) interceptedBy(rec Recorder) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mode == Recording && q.recorder.ID() == rec.ID()
}

func (q *Queue) submitImmediate(ctx context.Context, cmd Command) (*event.Event, error) {
	logger := ctxlog.FromContext(ctx)

	bodies := cmd.Bodies()
	if len(bodies) == 0 || bodies[0] == nil {
		return nil, errs.New("submit", errs.ErrInvalidCommand, nodeid.None, "command %q has no body", cmd.Name)
	}
	for _, dep := range cmd.DependsOn {
		if _, _, recorded := dep.RecordedNode(); recorded {
			return nil, errs.New("submit", errs.ErrDanglingDependency, nodeid.None,
				"command %q depends on a recorded token, which never executes", cmd.Name)
		}
	}

	tk := &task.Task{
		Node:       nodeid.None,
		Name:       cmd.Name,
		Submission: uuid.New(),
		Inputs:     task.ResolveAll(cmd.Params),
	}
	body := bodies[0]
	deps := cmd.DependsOn
	done := event.New()

	metrics.Submissions.WithLabelValues(metrics.KindCommand).Inc()
	logger.Debug("Queue: command submitted.", "queue", q.id, "command", cmd.Name, "dependencies", len(deps))

	runCtx := context.WithoutCancel(ctx)
	q.Go(func() {
		if err := event.WaitAll(deps...); err != nil {
			done.Complete(fmt.Errorf("command %q: dependency failed: %w", cmd.Name, err))
			return
		}
		err := q.Exec(runCtx, func(ctx context.Context) error {
			return body(ctx, tk)
		})
		if err != nil {
			logger.Debug("Queue: command failed.", "command", cmd.Name, "error", err)
		}
		done.Complete(err)
	})
	return done, nil
}

// Exec runs fn on one worker slot, blocking until a slot is free. A panic in
// fn is converted into an error.
func (q *Queue) Exec(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := q.slots.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquiring worker slot: %w", err)
	}
	defer q.slots.Release(1)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// Go runs fn in a goroutine tracked by Wait.
func (q *Queue) Go(fn func()) {
	q.inflight.Add(1)
	go func() {
		defer q.inflight.Done()
		fn()
	}()
}

// Wait blocks until all work submitted so far has finished.
func (q *Queue) Wait() {
	q.inflight.Wait()
}
