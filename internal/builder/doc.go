/*
Package builder turns the stored form of an executable graph into the
per-submission snapshot the executor runs.

An executable graph keeps two halves: the frozen topology (topologystore)
and the rewritable node bindings (nodestore). Neither is safe to hand to a
running submission directly, since bindings may be replaced by an update
while the submission is still in flight.

# Why Builder Exists

The builder is the single place where live state is copied into immutable
per-submission values:

 1. Ordering: nodes are laid out in the execution order fixed at finalize,
    and every node's dependents are converted into plan indices.

 2. Binding resolution: for every node the current binding is read once. The
    active body index selects the body, and every parameter slot is resolved,
    dereferencing dynamic parameters to their current value.

 3. Task creation: the resolved values are sealed into a *task.Task. From
    here on, updates to the executable graph or to dynamic parameters cannot
    reach the submission.

Build never mutates the stores, so any number of submissions may be built
concurrently from the same executable graph.

CheckLiveness is exported for the finalize and update paths, which must
reject bindings that reference released resources before they are stored.
*/
package builder
