package auth

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bankapi/internal/server/models"
)

type ctxKey int

const principalKey ctxKey = iota

// Principal is the authenticated caller of a request.
type Principal struct {
	Login     string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

// WithPrincipal attaches p to ctx. An already attached principal is kept.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if _, ok := PrincipalFromContext(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
