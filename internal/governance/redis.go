package governance

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures a Redis-backed store
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// KeyPrefix is prepended to the map names to form the hash keys
	KeyPrefix string
}

// RedisStore reads member maps from Redis hashes, one hash per map.
// Hash fields are member ids; info values are JSON-encoded status records.
type RedisStore struct {
	certs  *redisMap[[]byte]
	info   *redisMap[MemberInfo]
	closer io.Closer
}

// NewRedisStore creates a store backed by a new Redis client
func NewRedisStore(cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	store := NewRedisStoreWithClient(client, cfg.KeyPrefix)
	store.closer = client
	return store
}

// NewRedisStoreWithClient creates a store using an existing client
func NewRedisStoreWithClient(client redis.Cmdable, keyPrefix string) *RedisStore {
	return &RedisStore{
		certs: &redisMap[[]byte]{
			client: client,
			hash:   keyPrefix + MemberCertsMap,
			decode: func(_ string, raw []byte) ([]byte, error) { return raw, nil },
		},
		info: &redisMap[MemberInfo]{
			client: client,
			hash:   keyPrefix + MemberInfoMap,
			decode: decodeMemberInfo,
		},
	}
}

// MemberCerts implements Store
func (s *RedisStore) MemberCerts() Map[[]byte] {
	return s.certs
}

// MemberInfo implements Store
func (s *RedisStore) MemberInfo() Map[MemberInfo] {
	return s.info
}

// Ping checks connectivity to Redis
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.certs.client.Ping(ctx).Err()
}

// Close closes the client if the store created it
func (s *RedisStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

type redisMap[V any] struct {
	client redis.Cmdable
	hash   string
	decode func(key string, raw []byte) (V, error)
}

func (m *redisMap[V]) Has(ctx context.Context, key string) (bool, error) {
	ok, err := m.client.HExists(ctx, m.hash, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s in %s: %w", key, m.hash, err)
	}
	return ok, nil
}

func (m *redisMap[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	raw, err := m.client.HGet(ctx, m.hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("failed to get %s from %s: %w", key, m.hash, err)
	}

	v, err := m.decode(key, raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}
