package kernels

import (
	"context"
	"fmt"

	"github.com/specialistvlad/cmdgraph/internal/resource"
	"github.com/specialistvlad/cmdgraph/internal/task"
)

const (
	read      = resource.Read
	write     = resource.Write
	readWrite = resource.ReadWrite
)

// RegisterBuiltins adds the built-in kernels to reg.
func RegisterBuiltins(reg *Registry) {
	reg.Register(Kernel{Name: "fill", Access: task.Accesses{"out": write}, Run: fill})
	reg.Register(Kernel{Name: "iota", Access: task.Accesses{"out": write}, Run: ramp})
	reg.Register(Kernel{Name: "copy", Access: task.Accesses{"src": read, "dst": write}, Run: copyBuf})
	reg.Register(Kernel{Name: "axpy", Access: task.Accesses{"x": read, "y": readWrite}, Run: axpy})
	reg.Register(Kernel{Name: "axpby", Access: task.Accesses{"x": read, "y": readWrite}, Run: axpby})
	reg.Register(Kernel{Name: "add", Access: task.Accesses{"src": read, "dst": readWrite}, Run: add})
	reg.Register(Kernel{Name: "sub", Access: task.Accesses{"src": read, "dst": readWrite}, Run: sub})
	reg.Register(Kernel{Name: "scale", Access: task.Accesses{"dst": readWrite}, Run: scale})
	reg.Register(Kernel{Name: "inc", Access: task.Accesses{"dst": readWrite}, Run: inc})
	reg.Register(Kernel{Name: "dec", Access: task.Accesses{"dst": readWrite}, Run: dec})
	reg.Register(Kernel{Name: "dec_both", Access: task.Accesses{"a": readWrite, "b": readWrite}, Run: decBoth})
	reg.Register(Kernel{Name: "dot", Access: task.Accesses{"x": read, "y": read, "out": readWrite}, Run: dot})
}

// fill sets every element of out to value (default 0).
func fill(_ context.Context, t *task.Task) error {
	out, err := t.Buffer("out")
	if err != nil {
		return err
	}
	v, err := t.FloatOr("value", 0)
	if err != nil {
		return err
	}
	out.Fill(v)
	return nil
}

// ramp sets out[i] = start + i*step.
func ramp(_ context.Context, t *task.Task) error {
	out, err := t.Buffer("out")
	if err != nil {
		return err
	}
	start, err := t.FloatOr("start", 0)
	if err != nil {
		return err
	}
	step, err := t.FloatOr("step", 1)
	if err != nil {
		return err
	}
	data := out.Data()
	for i := range data {
		data[i] = start + float64(i)*step
	}
	return nil
}

func copyBuf(_ context.Context, t *task.Task) error {
	src, dst, err := pair(t, "src", "dst")
	if err != nil {
		return err
	}
	copy(dst.Data(), src.Data())
	return nil
}

// axpy computes y = alpha*x + y.
func axpy(_ context.Context, t *task.Task) error {
	x, y, err := pair(t, "x", "y")
	if err != nil {
		return err
	}
	alpha, err := t.FloatOr("alpha", 1)
	if err != nil {
		return err
	}
	yd := y.Data()
	for i, v := range x.Data() {
		yd[i] += alpha * v
	}
	return nil
}

// axpby computes y = alpha*x + beta*y.
func axpby(_ context.Context, t *task.Task) error {
	x, y, err := pair(t, "x", "y")
	if err != nil {
		return err
	}
	alpha, err := t.FloatOr("alpha", 1)
	if err != nil {
		return err
	}
	beta, err := t.FloatOr("beta", 1)
	if err != nil {
		return err
	}
	yd := y.Data()
	for i, v := range x.Data() {
		yd[i] = alpha*v + beta*yd[i]
	}
	return nil
}

func add(_ context.Context, t *task.Task) error {
	src, dst, err := pair(t, "src", "dst")
	if err != nil {
		return err
	}
	dd := dst.Data()
	for i, v := range src.Data() {
		dd[i] += v
	}
	return nil
}

func sub(_ context.Context, t *task.Task) error {
	src, dst, err := pair(t, "src", "dst")
	if err != nil {
		return err
	}
	dd := dst.Data()
	for i, v := range src.Data() {
		dd[i] -= v
	}
	return nil
}

func scale(_ context.Context, t *task.Task) error {
	dst, err := t.Buffer("dst")
	if err != nil {
		return err
	}
	f, err := t.FloatOr("factor", 1)
	if err != nil {
		return err
	}
	dd := dst.Data()
	for i := range dd {
		dd[i] *= f
	}
	return nil
}

func inc(_ context.Context, t *task.Task) error {
	return shift(t, "dst", 1)
}

func dec(_ context.Context, t *task.Task) error {
	return shift(t, "dst", -1)
}

func decBoth(_ context.Context, t *task.Task) error {
	if err := shift(t, "a", -1); err != nil {
		return err
	}
	return shift(t, "b", -1)
}

// dot accumulates sum(x[i]*y[i]) into out[0].
func dot(_ context.Context, t *task.Task) error {
	x, y, err := pair(t, "x", "y")
	if err != nil {
		return err
	}
	out, err := t.Buffer("out")
	if err != nil {
		return err
	}
	if out.Len() == 0 {
		return fmt.Errorf("%s: output buffer %s is empty", t.Name, out.Name())
	}
	var sum float64
	yd := y.Data()
	for i, v := range x.Data() {
		sum += v * yd[i]
	}
	out.Data()[0] += sum
	return nil
}

// shift adds sign*amount (default amount 1) to every element of slot.
func shift(t *task.Task, slot string, sign float64) error {
	b, err := t.Buffer(slot)
	if err != nil {
		return err
	}
	amount, err := t.FloatOr("amount", 1)
	if err != nil {
		return err
	}
	d := b.Data()
	for i := range d {
		d[i] += sign * amount
	}
	return nil
}

// pair fetches two buffers of equal length.
func pair(t *task.Task, a, b string) (*resource.Buffer, *resource.Buffer, error) {
	ba, err := t.Buffer(a)
	if err != nil {
		return nil, nil, err
	}
	bb, err := t.Buffer(b)
	if err != nil {
		return nil, nil, err
	}
	if ba.Len() != bb.Len() {
		return nil, nil, fmt.Errorf("%s: %s has %d elements, %s has %d", t.Name, ba.Name(), ba.Len(), bb.Name(), bb.Len())
	}
	return ba, bb, nil
}
