package token

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker remembers revoked token ids until the token would have expired anyway.
// Revoke is atomic: it reports false when jti was already revoked, so exactly
// one caller wins for a given token.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevoker keeps revoked ids in-process (single instance only)
type MemoryRevoker struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		tokens: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Revoke returns false for an already expired ttl. Such a token is no longer usable.
func (r *MemoryRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.revoked(jti) {
		return false, nil
	}
	r.tokens[jti] = r.now().Add(ttl)
	return true, nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked(jti), nil
}

// revoked must be called with mu held
func (r *MemoryRevoker) revoked(jti string) bool {
	expiry, ok := r.tokens[jti]
	if !ok {
		return false
	}
	if r.now().After(expiry) {
		delete(r.tokens, jti)
		return false
	}
	return true
}

// RedisRevoker stores revoked ids as keys that expire with the token
type RedisRevoker struct {
	client *redis.Client
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

// Revoke uses SET NX so concurrent revocations of one jti have a single winner
func (r *RedisRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	return r.client.SetNX(ctx, revocationKey(jti), "1", ttl).Result()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revocationKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping checks the Redis connection
func (r *RedisRevoker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func revocationKey(jti string) string {
	return "storytelling:revoked:" + jti
}
