package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/flowclass/flowclass/pkg/reachability"
	"github.com/flowclass/flowclass/pkg/topology"
	"github.com/flowclass/flowclass/pkg/util"
)

// RedisStore is a Store backed by a shared Redis instance, for sharing
// memoized answers across multiple engine processes querying the same
// topology. Entries expire after the store's TTL, or never when the TTL
// is zero; a miss or a decode failure is
// treated as a cache miss rather than an error, so a stale or corrupt
// entry never fails a query.
type RedisStore struct {
	client *redis.Client
	graph  *topology.Graph
	db     int
	ttl    time.Duration
}

// NewRedisStore opens a RedisStore against addr, scoped to db, decoding
// cached paths against graph. ttl of zero means entries never expire.
func NewRedisStore(addr string, db int, graph *topology.Graph, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		graph:  graph,
		db:     db,
		ttl:    ttl,
	}
}

// Connect verifies the Redis connection is reachable.
func (r *RedisStore) Connect(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Get(ctx context.Context, key string) (reachability.AnswerElement, bool) {
	buf, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return reachability.AnswerElement{}, false
	}
	ans, err := decodeAnswer(buf, r.graph)
	if err != nil {
		util.WithField("key", key).WithField("error", err).Warn("cache: discarding undecodable entry")
		return reachability.AnswerElement{}, false
	}
	return ans, true
}

func (r *RedisStore) Set(ctx context.Context, key string, ans reachability.AnswerElement) {
	buf, err := encodeAnswer(ans)
	if err != nil {
		util.WithField("key", key).WithField("error", err).Warn("cache: failed to encode answer")
		return
	}
	if err := r.client.Set(ctx, key, buf, r.ttl).Err(); err != nil {
		util.WithField("key", key).WithField("error", err).Warn("cache: failed to write entry")
	}
}
