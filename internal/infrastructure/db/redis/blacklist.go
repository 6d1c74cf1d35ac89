package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist stores revoked access tokens in Redis. Keys carry a TTL
// equal to the token's residual lifetime, so the set shrinks itself as the
// revoked tokens would have expired anyway.
// Key format: blacklist:<sha256(token)>
type TokenBlacklist struct {
	client *redis.Client
}

// NewTokenBlacklist creates a TokenBlacklist wrapping the given Redis client.
func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

// Add marks the token as revoked until ttl elapses.
func (b *TokenBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return b.client.Set(ctx, b.key(token), "1", ttl).Err()
}

// Contains reports whether the token has been revoked.
func (b *TokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, b.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist check: %w", err)
	}
	return n > 0, nil
}

// key hashes the token so Redis keys stay short and the raw token string
// never appears in the keyspace.
func (b *TokenBlacklist) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "blacklist:" + hex.EncodeToString(sum[:])
}
