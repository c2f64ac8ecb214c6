// Package revocation keeps the ids of signed-out tokens until they would
// have expired anyway.
package revocation

import (
	"context"
	"time"
)

// Store records revoked token ids. An id is forgotten once its ttl has
// passed; the token is expired by then.
type Store interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
