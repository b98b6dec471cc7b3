// Package kernels provides the host-side command bodies shipped with
// cmdgraph, together with the access mode each of them declares per
// parameter slot.
//
// Buffers are passed in resource slots (conventionally x, y, src, dst, out);
// scalars are passed as numbers. Every kernel validates its inputs and
// returns an error instead of panicking on a length mismatch.
package kernels
