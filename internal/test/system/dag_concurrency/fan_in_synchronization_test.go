package system

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/cmdgraph/internal/app"
	"github.com/specialistvlad/cmdgraph/internal/test/harness"
	"github.com/specialistvlad/cmdgraph/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test for: Fan-in synchronization waits for all parallel nodes.
func TestDagConcurrency_FanInSynchronization(t *testing.T) {
	// --- Arrange ---
	hcl := `
		node "A" {
			kernel = "sleeper"
		}
		node "B" {
			kernel = "sleeper"
		}
		node "C" {
			kernel = "sleeper"
		}
		node "D" {
			kernel     = "sleeper"
			depends_on = ["A", "B", "C"]
		}
	`
	dir := harness.WriteRecipe(t, map[string]string{"main.hcl": hcl})
	rec := testutil.NewRecorder()
	reg := harness.Kernels(sleeperKernel(rec, 50*time.Millisecond))
	testApp, _, _ := harness.SetupAppTest(t, app.Config{RecipePath: dir, Workers: 4}, reg)

	// --- Act ---
	err := testApp.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	for _, prereq := range []string{"A", "B", "C"} {
		assert.True(t, rec.Before(prereq, "D"), "fan-in synchronization failed: D started before %s completed", prereq)
	}
}
