package buf

import (
	"context"
	"fmt"

	"github.com/gokernel/rescore/pkg/device"
	"github.com/gokernel/rescore/pkg/lock"
	"github.com/gokernel/rescore/pkg/metrics"
	"go.uber.org/zap"
)

// BaselineCache protects a fixed pool of buffers and a single global
// LRU list with one spinlock. Bget scans the list forward for a hit
// and, on a miss, backward from the list's tail for the
// least-recently-used unused buffer.
type BaselineCache struct {
	mu   *lock.Spinlock
	lru  *ring
	bufs []Buf

	dev     device.Device
	metrics *metrics.BufferCache
	log     *zap.Logger
}

// NewBaselineCache allocates nbuf buffer descriptors of bsize bytes
// each, all initially on the LRU list. log may be nil (no-op logging);
// m may be nil (no metrics).
func NewBaselineCache(nbuf, bsize int, dev device.Device, m *metrics.BufferCache, log *zap.Logger) *BaselineCache {
	if log == nil {
		log = zap.NewNop()
	}
	c := &BaselineCache{
		mu:      lock.NewSpinlock("bcache"),
		lru:     newRing(nbuf),
		bufs:    make([]Buf, nbuf),
		dev:     dev,
		metrics: m,
		log:     log,
	}
	for i := range c.bufs {
		c.bufs[i].Data = make([]byte, bsize)
		c.bufs[i].sleep = lock.NewSleepLock("buffer")
		c.bufs[i].idx = uint16(i + 1)
		c.lru.pushFront(c.bufs[i].idx)
	}
	return c
}

// bget returns a sleep-locked buffer for (dev, blockno), recycling the
// least-recently-used unused buffer on a miss.
func (c *BaselineCache) bget(dev, blockno uint32) *Buf {
	c.mu.Lock()

	var hit *Buf
	c.lru.forEach(func(idx uint16) bool {
		b := &c.bufs[idx-1]
		if b.Dev == dev && b.BlockNo == blockno {
			hit = b
			return false
		}
		return true
	})
	if hit != nil {
		hit.refcnt++
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.Hits.Inc()
		}
		hit.sleep.Acquire()
		return hit
	}

	var victim *Buf
	for idx := c.lru.back(); idx != 0; idx = c.lru.prevOf(idx) {
		b := &c.bufs[idx-1]
		if b.refcnt == 0 {
			victim = b
			break
		}
	}
	if victim == nil {
		c.mu.Unlock()
		c.log.Error("buffer cache exhausted", zap.Int("nbuf", len(c.bufs)))
		panic("bget: no buffers")
	}

	victim.Dev, victim.BlockNo, victim.Valid, victim.refcnt = dev, blockno, false, 1
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.Misses.Inc()
		c.metrics.Evictions.Inc()
	}
	victim.sleep.Acquire()
	return victim
}

// Bread implements Cache.
func (c *BaselineCache) Bread(ctx context.Context, dev, blockno uint32) (*Buf, error) {
	b := c.bget(dev, blockno)
	if !b.Valid {
		if err := c.dev.RW(ctx, dev, blockno, b.Data, false); err != nil {
			return nil, fmt.Errorf("bread: %w", err)
		}
		b.Valid = true
	}
	return b, nil
}

// Bwrite implements Cache.
func (c *BaselineCache) Bwrite(ctx context.Context, b *Buf) error {
	if !b.sleep.Holding() {
		c.log.Error("bwrite without sleep lock held", zap.Uint32("blockno", b.BlockNo))
		panic("bwrite")
	}
	if err := c.dev.RW(ctx, b.Dev, b.BlockNo, b.Data, true); err != nil {
		return fmt.Errorf("bwrite: %w", err)
	}
	return nil
}

// Brelse implements Cache.
func (c *BaselineCache) Brelse(b *Buf) {
	if !b.sleep.Holding() {
		c.log.Error("brelse without sleep lock held", zap.Uint32("blockno", b.BlockNo))
		panic("brelse")
	}
	b.sleep.Release()

	c.mu.Lock()
	b.refcnt--
	if b.refcnt == 0 {
		c.lru.remove(b.idx)
		c.lru.pushFront(b.idx)
	}
	c.mu.Unlock()
}

// Bpin implements Cache.
func (c *BaselineCache) Bpin(b *Buf) {
	c.mu.Lock()
	b.refcnt++
	c.mu.Unlock()
}

// Bunpin implements Cache.
func (c *BaselineCache) Bunpin(b *Buf) {
	c.mu.Lock()
	b.refcnt--
	c.mu.Unlock()
}
