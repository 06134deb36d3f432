package buf

import (
	"context"
	"fmt"

	"github.com/gokernel/rescore/pkg/clock"
	"github.com/gokernel/rescore/pkg/device"
	"github.com/gokernel/rescore/pkg/lock"
	"github.com/gokernel/rescore/pkg/metrics"
	"go.uber.org/zap"
)

type bucket struct {
	mu   *lock.Spinlock
	ring *ring
}

// ShardedCache shards the buffer pool across B hash buckets, each with
// its own spinlock, plus one additional eviction mutex (hashLock) that
// serializes every cache-miss eviction decision. See spec §4.1.2 for
// the three-phase bget protocol this implements phase for phase.
type ShardedCache struct {
	buckets  []bucket
	hashLock *lock.Spinlock
	bufs     []Buf

	dev     device.Device
	clk     clock.Source
	metrics *metrics.BufferCache
	log     *zap.Logger
}

// NewShardedCache allocates nbuf buffer descriptors of bsize bytes
// each, distributed across `buckets` hash buckets, all initially in
// bucket 0 — the same "every buffer starts life in bucket 0" init the
// original scaled buffer cache uses. log and m may be nil.
func NewShardedCache(nbuf, bsize int, buckets uint32, dev device.Device, clk clock.Source, m *metrics.BufferCache, log *zap.Logger) *ShardedCache {
	if buckets < 1 {
		panic("buf: NewShardedCache requires buckets >= 1")
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &ShardedCache{
		buckets:  make([]bucket, buckets),
		hashLock: lock.NewSpinlock("bcacheHashLock"),
		bufs:     make([]Buf, nbuf),
		dev:      dev,
		clk:      clk,
		metrics:  m,
		log:      log,
	}
	for i := range c.buckets {
		c.buckets[i] = bucket{
			mu:   lock.NewSpinlock(fmt.Sprintf("bcacheBucket%d", i)),
			ring: newRing(nbuf),
		}
	}
	for i := range c.bufs {
		c.bufs[i].Data = make([]byte, bsize)
		c.bufs[i].sleep = lock.NewSleepLock("buffer")
		c.bufs[i].idx = uint16(i + 1)
		c.bufs[i].timestamp = clk.Now()
		c.buckets[0].ring.pushFront(c.bufs[i].idx)
	}
	return c
}

func (c *ShardedCache) hash(blockno uint32) uint32 {
	return hashBlockNo(blockno, uint32(len(c.buckets)))
}

// scanBucket looks for (dev, blockno) in bucket h and returns the
// matching buffer, or nil. It does not touch refcnt; the caller
// increments it while still holding the bucket lock.
func (c *ShardedCache) scanBucket(h uint32, dev, blockno uint32) *Buf {
	var hit *Buf
	c.buckets[h].ring.forEach(func(idx uint16) bool {
		b := &c.bufs[idx-1]
		if b.Dev == dev && b.BlockNo == blockno {
			hit = b
			return false
		}
		return true
	})
	return hit
}

// bget implements the three-phase protocol: a single-spinlock fast
// path, a hashLock-serialized rescan to catch a racing eviction, and a
// hashLock-held steal across every bucket in index order.
func (c *ShardedCache) bget(dev, blockno uint32) *Buf {
	h := c.hash(blockno)

	// Phase 1: fast path.
	c.buckets[h].mu.Lock()
	if b := c.scanBucket(h, dev, blockno); b != nil {
		b.refcnt++
		c.buckets[h].mu.Unlock()
		if c.metrics != nil {
			c.metrics.Hits.Inc()
		}
		b.sleep.Acquire()
		return b
	}
	c.buckets[h].mu.Unlock()

	// Phase 2: serialize eviction, rescan in case another hart won
	// the race for this exact (dev, blockno) while we held no lock.
	c.hashLock.Lock()
	c.buckets[h].mu.Lock()
	if b := c.scanBucket(h, dev, blockno); b != nil {
		b.refcnt++
		c.buckets[h].mu.Unlock()
		c.hashLock.Unlock()
		if c.metrics != nil {
			c.metrics.Hits.Inc()
		}
		b.sleep.Acquire()
		return b
	}
	c.buckets[h].mu.Unlock()

	// Phase 3: steal a victim. At most one bucket lock is held at a
	// time; candidate selection stops at the first bucket (in index
	// order) containing any refcnt==0 buffer, using the smallest
	// timestamp seen within that bucket, ties won by the first seen —
	// this is why eviction isn't strictly global LRU under contention.
	var (
		candidate   uint16
		candidateAt uint32
		minTS       = c.clk.Now()
	)
	for i := uint32(0); i < uint32(len(c.buckets)); i++ {
		c.buckets[i].mu.Lock()
		c.buckets[i].ring.forEach(func(idx uint16) bool {
			b := &c.bufs[idx-1]
			if b.refcnt == 0 && (candidate == 0 || b.timestamp < minTS) {
				candidate, candidateAt, minTS = idx, i, b.timestamp
			}
			return true
		})

		if candidate == 0 {
			c.buckets[i].mu.Unlock()
			continue
		}

		victim := &c.bufs[candidate-1]
		victim.Dev, victim.BlockNo, victim.Valid, victim.refcnt = dev, blockno, false, 1

		if candidateAt != h {
			c.buckets[candidateAt].ring.remove(candidate)
			c.buckets[i].mu.Unlock()
			c.buckets[h].mu.Lock()
			c.buckets[h].ring.pushFront(candidate)
			c.buckets[h].mu.Unlock()
			if c.metrics != nil {
				c.metrics.Steals.Inc()
			}
			c.log.Debug("cross-bucket steal",
				zap.Uint32("from_bucket", candidateAt), zap.Uint32("to_bucket", h),
				zap.Uint32("blockno", blockno))
		} else {
			c.buckets[i].mu.Unlock()
		}

		c.hashLock.Unlock()
		if c.metrics != nil {
			c.metrics.Misses.Inc()
			c.metrics.Evictions.Inc()
		}
		victim.sleep.Acquire()
		return victim
	}

	c.hashLock.Unlock()
	c.log.Error("buffer cache exhausted", zap.Int("nbuf", len(c.bufs)))
	panic("bget: no buffers")
}

// Bread implements Cache.
func (c *ShardedCache) Bread(ctx context.Context, dev, blockno uint32) (*Buf, error) {
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
func (c *ShardedCache) Bwrite(ctx context.Context, b *Buf) error {
	if !b.sleep.Holding() {
		c.log.Error("bwrite without sleep lock held", zap.Uint32("blockno", b.BlockNo))
		panic("bwrite")
	}
	if err := c.dev.RW(ctx, b.Dev, b.BlockNo, b.Data, true); err != nil {
		return fmt.Errorf("bwrite: %w", err)
	}
	return nil
}

// Brelse implements Cache. The buffer stays in its current bucket; no
// list shuffling happens here, only a timestamp stamp on last release.
func (c *ShardedCache) Brelse(b *Buf) {
	if !b.sleep.Holding() {
		c.log.Error("brelse without sleep lock held", zap.Uint32("blockno", b.BlockNo))
		panic("brelse")
	}
	b.sleep.Release()

	h := c.hash(b.BlockNo)
	c.buckets[h].mu.Lock()
	b.refcnt--
	if b.refcnt == 0 {
		b.timestamp = c.clk.Now()
	}
	c.buckets[h].mu.Unlock()
}

// Bpin implements Cache. It takes hashLock before the bucket lock,
// closing the race spec §9's Open Question describes: without
// hashLock, a phase-3 steal could be mid-transition (blockno already
// rewritten, bucket membership not yet moved) when Bpin computes its
// bucket index from the new blockno and locks the wrong bucket.
// hashLock is never held on the bget fast path, so this costs nothing
// there; bpin call sites in this design only ever pin buffers already
// held with refcnt > 0, which never reach phase 3 concurrently with
// their own Bpin, but hashLock makes that safe even if a future caller
// violates the assumption.
func (c *ShardedCache) Bpin(b *Buf) {
	c.hashLock.Lock()
	h := c.hash(b.BlockNo)
	c.buckets[h].mu.Lock()
	b.refcnt++
	c.buckets[h].mu.Unlock()
	c.hashLock.Unlock()
}

// Bunpin implements Cache, symmetric with Bpin.
func (c *ShardedCache) Bunpin(b *Buf) {
	c.hashLock.Lock()
	h := c.hash(b.BlockNo)
	c.buckets[h].mu.Lock()
	b.refcnt--
	c.buckets[h].mu.Unlock()
	c.hashLock.Unlock()
}
