// Package resource defines the contract for externally owned data that
// commands read and write, and the registry that turns declared accesses
// into dependency edges while a graph is recording.
//
// Resources are never owned by the engine. A graph only references them,
// so the caller must keep every referenced resource alive for as long as
// any graph built on it exists, unless that graph was created with the
// lifetime exemption flag.
package resource

import (
	"fmt"
	"sync/atomic"
)

// ID is the stable identity of a resource, used for dependency tracking.
type ID uint64

// Resource is the boundary contract for externally owned data.
type Resource interface {
	// ID returns the stable identity of the resource.
	ID() ID
	// Alive reports whether the resource may still be accessed.
	Alive() bool
}

var lastID atomic.Uint64

// NewID hands out a process-unique resource identity.
func NewID() ID {
	return ID(lastID.Add(1))
}

// Mode is the access intent a command declares for a resource.
type Mode uint8

const (
	Read Mode = iota + 1
	Write
	ReadWrite
)

// Reads reports whether the mode observes the resource.
func (m Mode) Reads() bool {
	return m == Read || m == ReadWrite
}

// Writes reports whether the mode modifies the resource.
func (m Mode) Writes() bool {
	return m == Write || m == ReadWrite
}

// Union combines two access modes declared by the same command.
func (m Mode) Union(o Mode) Mode {
	if m == 0 {
		return o
	}
	if o == 0 || m == o {
		return m
	}
	return ReadWrite
}

func (m Mode) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "read_write"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode converts the textual form produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "read", "r":
		return Read, nil
	case "write", "w":
		return Write, nil
	case "read_write", "rw":
		return ReadWrite, nil
	}
	return 0, fmt.Errorf("unknown access mode %q", s)
}
