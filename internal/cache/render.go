package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"k8s.io/klog/v2"
)

// RenderCache stores finished render outputs. A miss or a backend failure
// both report ok=false; the caller renders again.
type RenderCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
	Flush(ctx context.Context) error
}

// RenderKey builds a cache key from everything that determines an output.
// Map order does not affect the key.
func RenderKey(kind, templateID string, updatedAt time.Time, values map[string]string, showBackground bool, format string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%d|%t|%s", kind, templateID, updatedAt.UnixNano(), showBackground, format)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%q=%q", k, values[k])
	}
	hash := md5.Sum([]byte(b.String()))
	return "render:" + hex.EncodeToString(hash[:])
}

// MemoryRenderCache keeps outputs in process memory.
type MemoryRenderCache struct {
	c *gocache.Cache
}

func NewMemoryRenderCache(ttl time.Duration) *MemoryRenderCache {
	return &MemoryRenderCache{c: gocache.New(ttl, 2*ttl)}
}

func (m *MemoryRenderCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (m *MemoryRenderCache) Set(_ context.Context, key string, data []byte) {
	m.c.Set(key, data, gocache.DefaultExpiration)
}

func (m *MemoryRenderCache) Flush(context.Context) error {
	m.c.Flush()
	return nil
}

// ItemCount reports the number of cached outputs.
func (m *MemoryRenderCache) ItemCount() int {
	return m.c.ItemCount()
}

// RedisRenderCache shares outputs between instances through Redis or Valkey.
type RedisRenderCache struct {
	client *redis.Client
	ttl    time.Duration
}

// ConnectRedis creates a client and verifies the connection with a ping.
func ConnectRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	klog.Infof("redis connected: addr=%s", addr)
	return client, nil
}

func NewRedisRenderCache(client *redis.Client, ttl time.Duration) *RedisRenderCache {
	return &RedisRenderCache{client: client, ttl: ttl}
}

func (r *RedisRenderCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			klog.Warningf("render cache get %s: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

func (r *RedisRenderCache) Set(ctx context.Context, key string, data []byte) {
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		klog.Warningf("render cache set %s: %v", key, err)
	}
}

// Flush deletes every render key.
func (r *RedisRenderCache) Flush(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, "render:*", 500).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan render keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete render keys: %w", err)
	}
	return nil
}
