package system

import (
	"time"

	"github.com/specialistvlad/cmdgraph/internal/kernels"
	"github.com/specialistvlad/cmdgraph/internal/testutil"
)

// sleeperKernel records every node it runs for under the node's name.
func sleeperKernel(rec *testutil.Recorder, d time.Duration) kernels.Kernel {
	return kernels.Kernel{Name: "sleeper", Run: rec.Named(d)}
}
