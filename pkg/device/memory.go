package device

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// memoryShards is the number of independent locked maps Memory splits
// its blocks across, keyed by FingerprintKey — the same
// hash-into-N-buckets shape the pack's own in-memory caches use to keep
// a single mutex from serializing every block in the device.
const memoryShards = 16

type memoryShard struct {
	mu     sync.Mutex
	blocks map[string][]byte
}

// Memory is an in-process Device backed by memoryShards independent
// maps, used by tests and by the bench harness's "no network" mode.
// Unwritten blocks read back as all zero bytes, same as a freshly
// provisioned disk.
type Memory struct {
	shards [memoryShards]*memoryShard
}

// NewMemory constructs an empty in-memory device.
func NewMemory() *Memory {
	m := &Memory{}
	for i := range m.shards {
		m.shards[i] = &memoryShard{blocks: make(map[string][]byte)}
	}
	return m
}

func (m *Memory) shardFor(dev, blockno uint32) *memoryShard {
	return m.shards[FingerprintKey(dev, blockno)%memoryShards]
}

// RW implements Device.
func (m *Memory) RW(ctx context.Context, dev, blockno uint32, buf []byte, write bool) error {
	k := key(dev, blockno)
	s := m.shardFor(dev, blockno)
	s.mu.Lock()
	defer s.mu.Unlock()
	if write {
		stored := make([]byte, len(buf))
		copy(stored, buf)
		s.blocks[k] = stored
		return nil
	}
	stored, ok := s.blocks[k]
	if !ok {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	if len(stored) != len(buf) {
		return errors.Wrapf(ErrShortBlock, "dev=%d blockno=%d", dev, blockno)
	}
	copy(buf, stored)
	return nil
}
