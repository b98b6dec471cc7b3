/*
Package recipe loads declarative command graph definitions from HCL files and
assembles them into graphs.

A recipe declares buffers, dynamic parameters, nodes and update steps:

	graph {
	  label      = "dynamic"
	  mode       = "record"   # or "explicit"
	  updatable  = true
	  iterations = 2
	}

	buffer "x" {
	  size = 4
	}

	param "v" {
	  value = 1
	}

	node "pattern" {
	  variant "constant" { kernel = "fill" }
	  variant "ramp"     { kernel = "iota" }
	  args {
	    out   = buffer.x
	    value = param.v
	  }
	}

	update {
	  after_iteration = 1
	  node            = "pattern"
	  active          = 1
	}

Argument values are either literals or references of the form buffer.<name>
and param.<name>. In record mode nodes are submitted to a recording queue in
file order and their edges are inferred from the access modes the kernels
declare; depends_on adds edges to earlier nodes by name. In explicit mode
depends_on is the only source of edges.

Loading happens in two phases, mirroring the rest of the engine: the HCL
schema is decoded and translated into the format-agnostic Recipe model,
which is validated; Build then turns a Recipe into a graph bound to freshly
allocated buffers.
*/
package recipe
