// Package buf implements the block buffer cache: a baseline design
// with one global mutex and LRU list, and a hart-contention-scaled
// design with B hash buckets and ordered cross-bucket eviction.
package buf

import (
	"context"

	"github.com/gokernel/rescore/pkg/lock"
)

// Buf is a cached copy of one disk block. Dev, BlockNo, Valid and Data
// are safe to read once a Cache method has handed the buffer back;
// Data is safe to mutate between Bread and Bwrite. The remaining
// fields are cache-internal bookkeeping.
type Buf struct {
	Dev     uint32
	BlockNo uint32
	Valid   bool
	Data    []byte

	sleep     *lock.SleepLock
	refcnt    int
	timestamp uint32
	idx       uint16 // 1-based index into the owning cache's descriptor array
}

// Cache is the interface both BufferCache designs satisfy.
type Cache interface {
	// Bread returns a sleep-locked buffer containing the block's
	// contents, performing a device read on a cache miss.
	Bread(ctx context.Context, dev, blockno uint32) (*Buf, error)
	// Bwrite flushes b's data to the device. The caller must be
	// holding b's sleep lock, or Bwrite panics.
	Bwrite(ctx context.Context, b *Buf) error
	// Brelse releases b's sleep lock and decrements its reference
	// count. The caller must be holding b's sleep lock, or Brelse
	// panics.
	Brelse(b *Buf)
	// Bpin increments b's reference count without touching the sleep
	// lock, keeping the buffer resident across a later Brelse.
	Bpin(b *Buf)
	// Bunpin decrements the reference count Bpin added.
	Bunpin(b *Buf)
}

func hashBlockNo(blockno uint32, buckets uint32) uint32 {
	return blockno % buckets
}
