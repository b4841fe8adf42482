package cart

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	store "github.com/medatechnology/storefront"
)

const (
	DefaultKeyPrefix = "storefront:cart:"
	DefaultTTL       = 14 * 24 * time.Hour
)

// RedisConfig carries the connection settings for the Redis-backed blob
// store. Zero values fall back to the defaults above.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisBlobStore keeps cart blobs in Redis so sessions survive restarts and
// can be shared between storefront instances. Each save refreshes the TTL,
// an idle cart expires on its own.
type RedisBlobStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisBlobStore(cfg RedisConfig) (*RedisBlobStore, error) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, store.WrapConnectionError(err)
	}
	return &RedisBlobStore{client: client, prefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

func (s *RedisBlobStore) key(sessionKey string) string {
	return s.prefix + sessionKey
}

func (s *RedisBlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, store.WrapError(err, "REDIS:GET", "")
	}
	return blob, nil
}

func (s *RedisBlobStore) Save(ctx context.Context, key string, blob []byte) error {
	if err := s.client.Set(ctx, s.key(key), blob, s.ttl).Err(); err != nil {
		return store.WrapError(err, "REDIS:SET", "")
	}
	return nil
}

func (s *RedisBlobStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return store.WrapError(err, "REDIS:DEL", "")
	}
	return nil
}

// Close releases the underlying Redis client.
func (s *RedisBlobStore) Close() error {
	return s.client.Close()
}
