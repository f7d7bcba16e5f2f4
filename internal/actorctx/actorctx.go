package actorctx

import (
	"context"

	"github.com/geocoder89/learnhub/internal/access"
)

type ctxKey string

const keyIdentity ctxKey = "actor_identity"

func WithIdentity(ctx context.Context, id access.Identity) context.Context {
	return context.WithValue(ctx, keyIdentity, id)
}

// IdentityFrom returns the caller stored by the auth middleware, or an
// anonymous identity.
func IdentityFrom(ctx context.Context) (access.Identity, bool) {
	v, ok := ctx.Value(keyIdentity).(access.Identity)

	return v, ok && v.Authenticated()
}
