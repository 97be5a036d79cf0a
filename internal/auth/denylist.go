package auth

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Denylist stores the jti of tokens revoked by logout until they would
// have expired anyway. A nil *Denylist is valid and disables revocation
// (deployments without Redis).
type Denylist struct {
	rdb *redis.Client
}

func NewDenylist(addr string) *Denylist {
	if addr == "" {
		return nil
	}
	return &Denylist{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func denylistKey(jti string) string { return "denylist:" + jti }

// Revoke keeps the jti until the token's own expiry.
func (d *Denylist) Revoke(ctx context.Context, jti string, hasta time.Time) error {
	if d == nil || jti == "" {
		return nil
	}
	ttl := time.Until(hasta)
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, denylistKey(jti), "1", ttl).Err()
}

// IsRevoked fails open: if Redis is unreachable the token is accepted,
// matching the rest of the system's no-retry error posture.
func (d *Denylist) IsRevoked(ctx context.Context, jti string) bool {
	if d == nil || jti == "" {
		return false
	}
	n, err := d.rdb.Exists(ctx, denylistKey(jti)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
