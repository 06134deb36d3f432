package device

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gomodule/redigo/redis"
)

// RedigoPool is a Device backed by a redigo connection pool, the
// classic pre-context Redis client generation. Each RW call borrows
// and returns one pooled connection, same as any redigo command site.
type RedigoPool struct {
	pool *redis.Pool
}

// NewRedigoPool wraps an already-constructed redigo pool.
func NewRedigoPool(pool *redis.Pool) *RedigoPool {
	return &RedigoPool{pool: pool}
}

// RW implements Device. ctx is accepted for interface uniformity but
// redigo's Pool.Get has no context-aware variant to forward it to.
func (r *RedigoPool) RW(ctx context.Context, dev, blockno uint32, buf []byte, write bool) error {
	conn := r.pool.Get()
	defer conn.Close()

	k := key(dev, blockno)
	if write {
		if _, err := conn.Do("SET", k, buf); err != nil {
			return errors.Wrapf(err, "redigo: set %s", k)
		}
		return nil
	}
	data, err := redis.Bytes(conn.Do("GET", k))
	if errors.Is(err, redis.ErrNil) {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "redigo: get %s", k)
	}
	if len(data) != len(buf) {
		return errors.Wrapf(ErrShortBlock, "dev=%d blockno=%d", dev, blockno)
	}
	copy(buf, data)
	return nil
}
