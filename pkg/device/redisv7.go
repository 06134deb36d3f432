package device

import (
	"context"

	"github.com/cockroachdb/errors"
	redisv7 "github.com/go-redis/redis/v7"
)

// RedisV7 is a Device backed by the older go-redis v7 client
// generation, which predates context-first method signatures — we
// thread ctx through WithContext instead.
type RedisV7 struct {
	client *redisv7.Client
}

// NewRedisV7 wraps an already-constructed go-redis v7 client.
func NewRedisV7(client *redisv7.Client) *RedisV7 {
	return &RedisV7{client: client}
}

// RW implements Device.
func (r *RedisV7) RW(ctx context.Context, dev, blockno uint32, buf []byte, write bool) error {
	k := key(dev, blockno)
	c := r.client.WithContext(ctx)
	if write {
		if err := c.Set(k, buf, 0).Err(); err != nil {
			return errors.Wrapf(err, "redisv7: set %s", k)
		}
		return nil
	}
	data, err := c.Get(k).Bytes()
	if errors.Is(err, redisv7.Nil) {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "redisv7: get %s", k)
	}
	if len(data) != len(buf) {
		return errors.Wrapf(ErrShortBlock, "dev=%d blockno=%d", dev, blockno)
	}
	copy(buf, data)
	return nil
}
