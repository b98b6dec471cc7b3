package system

import (
	"time"

	"github.com/specialistvlad/cmdgraph/internal/kernels"
	"github.com/specialistvlad/cmdgraph/internal/resource"
	"github.com/specialistvlad/cmdgraph/internal/task"
	"github.com/specialistvlad/cmdgraph/internal/testutil"
)

// tracedKernels returns kernels that record their node's execution and
// declare the given access on slot "buf".
func tracedKernels(rec *testutil.Recorder, d time.Duration) []kernels.Kernel {
	return []kernels.Kernel{
		{Name: "writer", Access: task.Accesses{"buf": resource.Write}, Run: rec.Named(d)},
		{Name: "reader", Access: task.Accesses{"buf": resource.Read}, Run: rec.Named(d)},
		{Name: "plain", Run: rec.Named(d)},
	}
}
