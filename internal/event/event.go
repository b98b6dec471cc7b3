// Package event provides the completion handle returned by every submission.
//
// An Event is a one-shot future: it completes exactly once, with or without
// an error, and can be waited on any number of times. Events also serve as
// dependency sources: a later submission that lists an event in its
// dependencies does not start until the event completes.
//
// While a graph is recording, submissions are not executed. They return a
// recorded token instead: an already-completed event that remembers which
// graph node it stands for, so it can be used to declare explicit ordering
// between recorded commands.
package event

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
)

// Event is a completion handle.
type Event struct {
	id   uuid.UUID
	done chan struct{}
	once sync.Once
	err  error

	recorded bool
	graph    uuid.UUID
	node     nodeid.ID
}

// New returns a pending event.
func New() *Event {
	return &Event{
		id:   uuid.New(),
		done: make(chan struct{}),
		node: nodeid.None,
	}
}

// Completed returns an event that has already completed with err.
func Completed(err error) *Event {
	e := New()
	e.Complete(err)
	return e
}

// Recorded returns the token for node n of the given graph.
func Recorded(graph uuid.UUID, n nodeid.ID) *Event {
	e := Completed(nil)
	e.recorded = true
	e.graph = graph
	e.node = n
	return e
}

func (e *Event) ID() uuid.UUID {
	return e.id
}

// Complete resolves the event. Only the first call has an effect.
func (e *Event) Complete(err error) {
	e.once.Do(func() {
		e.err = err
		close(e.done)
	})
}

// Done returns a channel closed on completion.
func (e *Event) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the event completes and returns its error.
func (e *Event) Wait() error {
	<-e.done
	return e.err
}

// WaitContext is Wait with an abort on ctx. Aborting only stops waiting; the
// underlying work keeps running.
func (e *Event) WaitContext(ctx context.Context) error {
	select {
	case <-e.done:
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the completion error, or nil while the event is pending.
func (e *Event) Err() error {
	select {
	case <-e.done:
		return e.err
	default:
		return nil
	}
}

// IsComplete reports whether the event has completed.
func (e *Event) IsComplete() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// RecordedNode returns the graph and node a recorded token stands for.
func (e *Event) RecordedNode() (uuid.UUID, nodeid.ID, bool) {
	if !e.recorded {
		return uuid.Nil, nodeid.None, false
	}
	return e.graph, e.node, true
}

// WaitAll blocks until every given event has completed.
func WaitAll(events ...*Event) error {
	var errs []error
	for _, e := range events {
		if e == nil {
			continue
		}
		if err := e.Wait(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
