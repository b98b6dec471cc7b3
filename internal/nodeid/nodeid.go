// Package nodeid defines the identifier of a node inside a command graph.
//
// Nodes live in an arena owned by their graph and are addressed by their
// index into it. The index is assigned at creation, never reused, and stays
// stable across finalize and update, so an ID taken from a mutable graph can
// be used directly against every executable graph finalized from it.
package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
)

// ID is the arena index of a node. Creation order and ID order coincide.
type ID int32

// None marks the absence of a node, e.g. for commands executed immediately.
const None ID = -1

// Valid reports whether the ID can address a node.
func (id ID) Valid() bool {
	return id >= 0
}

// Index returns the ID as a slice index.
func (id ID) Index() int {
	return int(id)
}

// String returns the canonical form, e.g. "node[3]".
func (id ID) String() string {
	if !id.Valid() {
		return "node[none]"
	}
	return fmt.Sprintf("node[%d]", int32(id))
}

// idRegex accepts the canonical form or a bare index.
var idRegex = regexp.MustCompile(`^(?:node\[(\d+)\]|(\d+))$`)

// Parse converts the canonical string form (or a bare index) into an ID.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return None, fmt.Errorf("identifier cannot be empty")
	}
	matches := idRegex.FindStringSubmatch(raw)
	if matches == nil {
		return None, fmt.Errorf("invalid node identifier: %q", raw)
	}
	digits := matches[1]
	if digits == "" {
		digits = matches[2]
	}
	n, err := strconv.ParseInt(digits, 10, 32)
	if err != nil {
		return None, fmt.Errorf("invalid node index in %q: %w", raw, err)
	}
	return ID(n), nil
}

// Strings renders a list of IDs in canonical form.
func Strings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
