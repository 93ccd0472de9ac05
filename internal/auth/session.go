package auth

import (
	"context"
	"sync"
	"time"

	"projecthub-api/internal/cache"
)

const revokedPrefix = "revoked:"

var (
	revokedMu sync.RWMutex
	revoked   cache.Store = cache.NewMemory()
)

// SetRevocationStore swaps the store used to remember signed-out tokens.
func SetRevocationStore(s cache.Store) {
	revokedMu.Lock()
	defer revokedMu.Unlock()
	revoked = s
}

func revocationStore() cache.Store {
	revokedMu.RLock()
	defer revokedMu.RUnlock()
	return revoked
}

// Revoke ends the session carried by claims. The entry lives until the token
// would have expired anyway.
func Revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return revocationStore().Set(ctx, revokedPrefix+claims.ID, claims.UserID, ttl)
}

// IsRevoked reports whether the token was signed out.
func IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	if claims.ID == "" {
		return false, nil
	}
	_, ok, err := revocationStore().Get(ctx, revokedPrefix+claims.ID)
	return ok, err
}
