// Package config holds the constant table the spec fixes as
// compile-time/init-time configuration: buffer count, hart count,
// page size, the top of physical memory, and the cache's bucket count.
// There is deliberately no CLI flag or environment variable surface
// inside the core — only cmd/rescorebench parses flags, and only to
// populate these structs.
package config

import "github.com/cockroachdb/errors"

// PageSize is the fixed frame size in bytes (spec §6: PGSIZE).
const PageSize = 4096

// Allocator holds the page allocator's sizing parameters.
type Allocator struct {
	// NCPU is the number of simulated harts, each owning a free list.
	NCPU int
	// Frames is the number of 4 KiB frames carved out of the arena.
	// Stands in for the span [end, PHYSTOP) in the original kernel,
	// which this module cannot address directly since it runs hosted.
	Frames int
}

// Validate checks the allocator config is usable.
func (c Allocator) Validate() error {
	if c.NCPU < 1 {
		return errors.Newf("config: NCPU must be >= 1, got %d", c.NCPU)
	}
	if c.Frames < 1 {
		return errors.Newf("config: Frames must be >= 1, got %d", c.Frames)
	}
	return nil
}

// Cache holds the buffer cache's sizing parameters.
type Cache struct {
	// NBUF is the number of buffer descriptors in the pool.
	NBUF int
	// BSize is the block payload size in bytes.
	BSize int
	// Buckets is B, the sharded cache's hash bucket count. Ignored by
	// the baseline cache. The spec recommends a prime (e.g. 13).
	Buckets uint32
}

// Validate checks the cache config is usable.
func (c Cache) Validate() error {
	if c.NBUF < 1 {
		return errors.Newf("config: NBUF must be >= 1, got %d", c.NBUF)
	}
	if c.BSize < 1 {
		return errors.Newf("config: BSize must be >= 1, got %d", c.BSize)
	}
	if c.Buckets < 1 {
		return errors.Newf("config: Buckets must be >= 1, got %d", c.Buckets)
	}
	return nil
}

// Default mirrors the spec's literal example constants: NBUF=30,
// B=13, BSIZE sized to a disk sector, NCPU and Frames picked to give a
// demonstration-sized arena.
func Default() (Allocator, Cache) {
	return Allocator{NCPU: 8, Frames: 4096},
		Cache{NBUF: 30, BSize: 512, Buckets: 13}
}
