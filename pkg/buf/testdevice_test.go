package buf

import (
	"context"
	"sync/atomic"

	"github.com/gokernel/rescore/pkg/device"
)

// countingDevice wraps an in-memory device and counts reads/writes,
// used to assert that a cache hit never touches the device.
type countingDevice struct {
	inner  *device.Memory
	reads  atomic.Int64
	writes atomic.Int64
}

func newCountingDevice() *countingDevice {
	return &countingDevice{inner: device.NewMemory()}
}

func (c *countingDevice) RW(ctx context.Context, dev, blockno uint32, buf []byte, write bool) error {
	if write {
		c.writes.Add(1)
	} else {
		c.reads.Add(1)
	}
	return c.inner.RW(ctx, dev, blockno, buf, write)
}
