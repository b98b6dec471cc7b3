package system

import (
	"context"
	"testing"

	"github.com/specialistvlad/cmdgraph/internal/app"
	"github.com/specialistvlad/cmdgraph/internal/test/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test for: dot product of two vectors computed by a three-level graph.
func TestCoreExecution_DotProduct(t *testing.T) {
	// --- Arrange ---
	hcl := `
		graph {
			label = "dot-product"
		}

		buffer "x" {
			size = 10
		}
		buffer "y" {
			size = 10
		}
		buffer "z" {
			size = 10
		}
		buffer "dotp" {
			size = 1
		}

		node "init_x" {
			kernel = "fill"
			args {
				out   = buffer.x
				value = 1
			}
		}
		node "init_y" {
			kernel = "fill"
			args {
				out   = buffer.y
				value = 3
			}
		}
		node "init_z" {
			kernel = "fill"
			args {
				out   = buffer.z
				value = 2
			}
		}
		node "x_update" {
			kernel     = "axpby"
			depends_on = ["init_x", "init_y"]
			args {
				x     = buffer.y
				y     = buffer.x
				alpha = 2
				beta  = 1
			}
		}
		node "z_update" {
			kernel     = "axpby"
			depends_on = ["init_y", "init_z"]
			args {
				x     = buffer.y
				y     = buffer.z
				alpha = 2
				beta  = 3
			}
		}
		node "dot" {
			kernel     = "dot"
			depends_on = ["x_update", "z_update"]
			args {
				x   = buffer.x
				y   = buffer.z
				out = buffer.dotp
			}
		}
	`
	dir := harness.WriteRecipe(t, map[string]string{"main.hcl": hcl})
	testApp, out, _ := harness.SetupAppTest(t, app.Config{RecipePath: dir}, nil)

	// --- Act ---
	err := testApp.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out.String(), "dotp = [840]\n")
}

// Test for: recorded read-write buffers form a diamond.
func TestCoreExecution_RecordedDiamond(t *testing.T) {
	// --- Arrange ---
	hcl := `
		graph {
			mode = "record"
		}

		buffer "a" {
			size = 3
		}
		buffer "b" {
			size = 3
		}
		buffer "c" {
			size = 3
		}

		node "inc_a" {
			kernel = "inc"
			args {
				dst = buffer.a
			}
		}
		node "add_ab" {
			kernel = "add"
			args {
				src = buffer.a
				dst = buffer.b
			}
		}
		node "sub_ac" {
			kernel = "sub"
			args {
				src = buffer.a
				dst = buffer.c
			}
		}
		node "dec_bc" {
			kernel = "dec_both"
			args {
				a = buffer.b
				b = buffer.c
			}
		}
	`
	dir := harness.WriteRecipe(t, map[string]string{"main.hcl": hcl})
	testApp, out, _ := harness.SetupAppTest(t, app.Config{RecipePath: dir}, nil)

	// --- Act ---
	err := testApp.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "a = [1, 1, 1]\nb = [0, 0, 0]\nc = [-2, -2, -2]\n", out.String())
}

// Test for: a whole-graph update moves the same sequence onto other buffers.
func TestCoreExecution_WholeGraphUpdate(t *testing.T) {
	// --- Arrange ---
	hcl := `
		graph {
			mode       = "record"
			updatable  = true
			iterations = 2
		}

		buffer "a" {
			size = 3
		}
		buffer "b" {
			size = 3
		}
		buffer "a2" {
			size = 3
		}
		buffer "b2" {
			size = 3
		}

		node "fill_a" {
			kernel = "fill"
			args {
				out   = buffer.a
				value = 1
			}
		}
		node "fill_b" {
			kernel = "fill"
			args {
				out   = buffer.b
				value = 2
			}
		}
		node "add" {
			kernel = "add"
			args {
				src = buffer.a
				dst = buffer.b
			}
		}

		update {
			after_iteration = 1
			rebind          = { a = "a2", b = "b2" }
		}
	`
	dir := harness.WriteRecipe(t, map[string]string{"main.hcl": hcl})

	t.Run("rebind applied", func(t *testing.T) {
		testApp, out, _ := harness.SetupAppTest(t, app.Config{RecipePath: dir}, nil)
		require.NoError(t, testApp.Run(context.Background()))
		assert.Equal(t, "a = [1, 1, 1]\nb = [3, 3, 3]\na2 = [1, 1, 1]\nb2 = [3, 3, 3]\n", out.String())
	})

	t.Run("iterations override skips the rebind", func(t *testing.T) {
		testApp, out, logs := harness.SetupAppTest(t, app.Config{RecipePath: dir, Iterations: 1}, nil)
		require.NoError(t, testApp.Run(context.Background()))
		assert.Equal(t, "a = [1, 1, 1]\nb = [3, 3, 3]\na2 = [0, 0, 0]\nb2 = [0, 0, 0]\n", out.String())
		assert.Contains(t, logs.String(), "Update skipped")
	})
}

// Test for: switching the active variant of a dynamic node between runs.
func TestCoreExecution_DynamicNodeSwitch(t *testing.T) {
	// --- Arrange ---
	hcl := `
		graph {
			updatable  = true
			iterations = 2
		}

		buffer "x" {
			size = 4
		}

		node "pattern" {
			variant "ones" {
				kernel = "fill"
			}
			variant "ramp" {
				kernel = "iota"
			}
			args {
				out   = buffer.x
				value = 1
			}
		}

		update {
			after_iteration = 1
			node            = "pattern"
			active          = 1
		}
	`
	dir := harness.WriteRecipe(t, map[string]string{"main.hcl": hcl})
	testApp, out, _ := harness.SetupAppTest(t, app.Config{RecipePath: dir}, nil)

	// --- Act ---
	err := testApp.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "x = [0, 1, 2, 3]\n", out.String())
}
