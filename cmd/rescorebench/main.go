// Command rescorebench drives randomized concurrent traces against a
// ShardedCache and a ShardedAllocator across simulated harts, printing
// a single completion line when the trace ends and optionally serving
// Prometheus metrics. It prints no throughput figures. It
// replaces the out-of-scope demonstration programs (find, xargs,
// pingpong, primes) the original kernel shipped alongside its core —
// this module is a library, not a bootable image, so one harness
// stands in for all of them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	redisv7 "github.com/go-redis/redis/v7"
	redisv8 "github.com/go-redis/redis/v8"
	"github.com/gomodule/redigo/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/gokernel/rescore/internal/config"
	"github.com/gokernel/rescore/pkg/buf"
	"github.com/gokernel/rescore/pkg/clock"
	"github.com/gokernel/rescore/pkg/device"
	"github.com/gokernel/rescore/pkg/hart"
	"github.com/gokernel/rescore/pkg/metrics"
	"github.com/gokernel/rescore/pkg/page"
)

func main() {
	var (
		harts       = flag.Int("harts", 8, "number of simulated harts")
		nbuf        = flag.Int("nbuf", 30, "buffer cache pool size")
		buckets     = flag.Uint("buckets", 13, "buffer cache bucket count")
		frames      = flag.Int("frames", 4096, "page allocator frame count")
		blocks      = flag.Uint("blocks", 64, "distinct (dev, blockno) identities touched")
		duration    = flag.Duration("duration", 2*time.Second, "how long to run the trace")
		metricsAddr = flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :2112)")
		seed        = flag.Uint64("seed", 1, "PRNG seed for the randomized trace")
		backend     = flag.String("backend", "memory", "block device backend: memory, redisv8, redisv7, or redigo")
		redisAddr   = flag.String("redis-addr", "localhost:6379", "address for the redisv8/redisv7/redigo backends")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("rescorebench: build logger: %v", err)
	}
	defer logger.Sync()

	allocCfg := config.Allocator{NCPU: *harts, Frames: *frames}
	cacheCfg := config.Cache{NBUF: *nbuf, BSize: 512, Buckets: uint32(*buckets)}
	if err := allocCfg.Validate(); err != nil {
		logger.Fatal("invalid allocator config", zap.Error(err))
	}
	if err := cacheCfg.Validate(); err != nil {
		logger.Fatal("invalid cache config", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	bufMetrics := metrics.NewBufferCache(reg)
	pageMetrics := metrics.NewPageAllocator(reg)

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics server exited", zap.Error(err))
			}
		}()
		logger.Info("serving metrics", zap.String("addr", *metricsAddr))
	}

	dev, closeDev, err := buildDevice(*backend, *redisAddr)
	if err != nil {
		logger.Fatal("build device backend", zap.String("backend", *backend), zap.Error(err))
	}
	defer closeDev()

	clk := clock.NewReal(10 * time.Millisecond)
	defer clk.Close()

	cache := buf.NewShardedCache(cacheCfg.NBUF, cacheCfg.BSize, cacheCfg.Buckets, dev, clk, bufMetrics, logger)
	allocator := page.NewShardedAllocator(allocCfg.NCPU, allocCfg.Frames, pageMetrics)
	registry := hart.NewRegistry(allocCfg.NCPU)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	group, gctx := errgroup.WithContext(ctx)
	for w := 0; w < allocCfg.NCPU; w++ {
		id := registry.Lease()
		workerSeed := *seed + uint64(w)
		group.Go(func() error {
			return runWorker(gctx, id, workerSeed, cache, allocator, uint32(*blocks))
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Fatal("worker failed", zap.Error(err))
	}

	fmt.Println("rescorebench: trace complete")
}

// buildDevice constructs the block device backend named by backend,
// returning a cleanup func to run on shutdown. "memory" never touches
// the network; the other three dial redisAddr using the client
// generation their name advertises.
func buildDevice(backend, redisAddr string) (device.Device, func(), error) {
	switch backend {
	case "memory":
		return device.NewMemory(), func() {}, nil
	case "redisv8":
		client := redisv8.NewClient(&redisv8.Options{Addr: redisAddr})
		return device.NewRedisV8(client), func() { client.Close() }, nil
	case "redisv7":
		client := redisv7.NewClient(&redisv7.Options{Addr: redisAddr})
		return device.NewRedisV7(client), func() { client.Close() }, nil
	case "redigo":
		pool := &redis.Pool{
			Dial: func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr) },
		}
		return device.NewRedigoPool(pool), func() { pool.Close() }, nil
	default:
		return nil, nil, errors.Newf("rescorebench: unknown backend %q", backend)
	}
}

// runWorker simulates one hart issuing a stream of bread/bwrite/brelse
// and alloc/free calls until ctx is done.
func runWorker(ctx context.Context, id hart.ID, seed uint64, cache buf.Cache, allocator *page.ShardedAllocator, blocks uint32) error {
	var result error
	hart.Pin(ctx, id, func(ctx context.Context) {
		rng := rand.New(rand.NewSource(seed))
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			blockno := rng.Uint32() % blocks
			b, err := cache.Bread(ctx, 1, blockno)
			if err != nil {
				result = err
				return
			}
			b.Data[0] = byte(rng.Uint32())
			if err := cache.Bwrite(ctx, b); err != nil {
				cache.Brelse(b)
				result = err
				return
			}
			cache.Brelse(b)

			if f, ok := allocator.Alloc(id); ok {
				allocator.Free(id, f)
			}
		}
	})
	return result
}
