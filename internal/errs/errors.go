// Package errs defines the structural error taxonomy of the command-graph
// engine.
//
// Every structural failure is reported synchronously as a *GraphError whose
// Unwrap returns one of the sentinel values below, so callers can branch with
// errors.Is and recover the offending node with errors.As:
//
//	var ge *errs.GraphError
//	if errors.As(err, &ge) && errors.Is(err, errs.ErrCyclicGraph) {
//		log.Printf("cycle through %s", ge.Node)
//	}
//
// None of these errors are retried by the engine. They indicate a caller
// programming error.
package errs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/cmdgraph/internal/nodeid"
)

var (
	ErrCyclicGraph        = errors.New("cyclic graph")
	ErrDanglingResource   = errors.New("dangling resource")
	ErrDanglingDependency = errors.New("dangling dependency")
	ErrUnknownResource    = errors.New("unknown resource")
	ErrAlreadyRecording   = errors.New("already recording")
	ErrNotUpdatable       = errors.New("executable graph is not updatable")
	ErrInvalidBodyIndex   = errors.New("invalid body index")
	ErrIncompatibleGraph  = errors.New("incompatible graph")

	ErrNotRecording     = errors.New("not recording")
	ErrDeviceMismatch   = errors.New("device mismatch")
	ErrQueueRecording   = errors.New("queue is recording")
	ErrUnknownNode      = errors.New("unknown node")
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrForeignParameter = errors.New("dynamic parameter belongs to another graph")
	ErrInvalidCommand   = errors.New("invalid command")
)

// GraphError is the concrete error returned for every structural failure.
type GraphError struct {
	// Op is the operation that failed, e.g. "finalize" or "record".
	Op string
	// Node is the node the failure is attributed to, or nodeid.None.
	Node nodeid.ID
	// Detail is a human readable elaboration.
	Detail string
	// Err is the sentinel describing the kind of failure.
	Err error
}

// New builds a GraphError. Pass nodeid.None when no node is involved.
func New(op string, kind error, id nodeid.ID, format string, args ...any) *GraphError {
	return &GraphError{
		Op:     op,
		Node:   id,
		Detail: fmt.Sprintf(format, args...),
		Err:    kind,
	}
}

func (e *GraphError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Node.Valid() {
		b.WriteString(": ")
		b.WriteString(e.Node.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// NodeOf returns the node an error is attributed to, if any.
func NodeOf(err error) (nodeid.ID, bool) {
	var ge *GraphError
	if errors.As(err, &ge) && ge.Node.Valid() {
		return ge.Node, true
	}
	return nodeid.None, false
}
