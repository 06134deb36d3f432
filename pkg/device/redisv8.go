package device

import (
	"context"

	"github.com/cockroachdb/errors"
	redisv8 "github.com/go-redis/redis/v8"
)

// RedisV8 is a Device backed by a go-redis v8 client, the cache's
// primary network-backed block-device transport.
type RedisV8 struct {
	client *redisv8.Client
}

// NewRedisV8 wraps an already-constructed go-redis v8 client.
func NewRedisV8(client *redisv8.Client) *RedisV8 {
	return &RedisV8{client: client}
}

// RW implements Device.
func (r *RedisV8) RW(ctx context.Context, dev, blockno uint32, buf []byte, write bool) error {
	k := key(dev, blockno)
	if write {
		if err := r.client.Set(ctx, k, buf, 0).Err(); err != nil {
			return errors.Wrapf(err, "redisv8: set %s", k)
		}
		return nil
	}
	data, err := r.client.Get(ctx, k).Bytes()
	if errors.Is(err, redisv8.Nil) {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "redisv8: get %s", k)
	}
	if len(data) != len(buf) {
		return errors.Wrapf(ErrShortBlock, "dev=%d blockno=%d", dev, blockno)
	}
	copy(buf, data)
	return nil
}
