// Package app wires a loaded recipe to a queue and drives it: build and
// finalize the executable graph, submit it for the requested number of
// iterations, apply scheduled updates, and print final buffer contents.
// It knows nothing about flags or exit codes; see package cli for that.
package app
