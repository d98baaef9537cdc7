package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// defaultStaleRetention is how many logical TTLs an entry physically survives
// in redis so that GetStale can still find it after expiry.
const defaultStaleRetention = 10

// keyPrefix namespaces gateway entries in a shared redis
const keyPrefix = "payout_gateway:"

// redisEnvelope carries the payload together with its logical expiry. Redis
// only enforces the physical retention TTL; logical freshness is checked on
// read so expired entries stay available for the stale fallback.
type redisEnvelope struct {
	Payload   json.RawMessage `json:"payload"`
	ExpiresAt int64           `json:"expires_at"` // unix seconds, 0 = never
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// redisClient is the slice of the go-redis API the store uses
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Close() error
}

// RedisStore is a Store backed by redis, for deployments that want cache
// entries shared across gateway replicas. Failures degrade to cache misses;
// the cache is best effort by contract.
type RedisStore struct {
	client         redisClient
	ownsClient     bool
	staleRetention int
	logger         *zap.Logger
}

// RedisStoreOption configures a RedisStore
type RedisStoreOption func(*RedisStore)

// WithStaleRetention sets how many logical TTLs an entry is physically kept
func WithStaleRetention(multiplier int) RedisStoreOption {
	return func(s *RedisStore) {
		if multiplier > 0 {
			s.staleRetention = multiplier
		}
	}
}

// WithRedisLogger sets the logger for the store
func WithRedisLogger(logger *zap.Logger) RedisStoreOption {
	return func(s *RedisStore) {
		s.logger = logger
	}
}

// NewRedisStore connects to redis and returns a Store backed by it
func NewRedisStore(cfg RedisConfig, opts ...RedisStoreOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	store := &RedisStore{
		client:         client,
		ownsClient:     true,
		staleRetention: defaultStaleRetention,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// NewRedisStoreWithClient wraps an existing client. The caller retains
// ownership of the client and is responsible for closing it.
func NewRedisStoreWithClient(client redisClient, opts ...RedisStoreOption) *RedisStore {
	store := &RedisStore{
		client:         client,
		staleRetention: defaultStaleRetention,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore) load(ctx context.Context, key string) (*redisEnvelope, bool) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("redis get failed, treating as miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	var env redisEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn("corrupt cache envelope, dropping", zap.String("key", key), zap.Error(err))
		_ = s.client.Del(ctx, keyPrefix+key)
		return nil, false
	}
	return &env, true
}

// Get implements Store
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	env, ok := s.load(ctx, key)
	if !ok {
		return nil, false
	}
	if env.ExpiresAt != 0 && time.Now().Unix() > env.ExpiresAt {
		// Logically expired; keep the physical entry for GetStale
		return nil, false
	}
	return env.Payload, true
}

// GetStale implements Store
func (s *RedisStore) GetStale(ctx context.Context, key string) ([]byte, bool) {
	env, ok := s.load(ctx, key)
	if !ok {
		return nil, false
	}
	return env.Payload, true
}

// Set implements Store
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	env := redisEnvelope{Payload: value}
	var physical time.Duration
	if ttl > 0 {
		env.ExpiresAt = time.Now().Add(ttl).Unix()
		physical = ttl * time.Duration(s.staleRetention)
	}

	data, err := json.Marshal(env)
	if err != nil {
		s.logger.Warn("failed to marshal cache envelope", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, physical).Err(); err != nil {
		s.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete implements Store
func (s *RedisStore) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		s.logger.Warn("redis delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Clear implements Store
func (s *RedisStore) Clear(ctx context.Context) {
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn("redis delete failed during clear", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn("redis scan failed during clear", zap.Error(err))
	}
}

// Close releases the redis client if this store created it
func (s *RedisStore) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}
