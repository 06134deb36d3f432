// Package device defines the block-device transport the buffer cache
// treats as an opaque collaborator (spec §6, "device_rw"). This
// package and its backends are outside the spec's core — the cache
// only ever imports the Device interface.
package device

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// Device performs synchronous block I/O. RW fills buf from
// (dev, blockno) when write is false, or flushes buf to (dev, blockno)
// when write is true. The call may block indefinitely; the cache makes
// no retry attempt and propagates any error unchanged.
type Device interface {
	RW(ctx context.Context, dev, blockno uint32, buf []byte, write bool) error
}

// ErrShortBlock is returned by a backend when a stored block's length
// differs from the caller's buffer, shorter or longer; buf is left
// untouched rather than partly filled.
var ErrShortBlock = errors.New("device: short block read")

// key formats the string a backend stores (dev, blockno) under, kept
// legible in a redis-cli session during manual testing.
func key(dev, blockno uint32) string {
	return "blk:" + itoa(dev) + ":" + itoa(blockno)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// FingerprintKey returns a 64-bit xxhash digest of (dev, blockno),
// used for the in-memory backend's shard selection — distinct from the buffer cache's own blockno-mod-B
// bucketing, which stays exactly the hash function spec §4.1.2 fixes.
func FingerprintKey(dev, blockno uint32) uint64 {
	return xxhash.Sum64String(strconv.FormatUint(uint64(dev), 10) + ":" + strconv.FormatUint(uint64(blockno), 10))
}
