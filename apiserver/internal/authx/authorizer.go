package authx

import (
	"context"

	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
)

// AuthorizeFn is the signature of a function for confirming that the user
// bound to a context holds one of the allowed roles.
type AuthorizeFn func(ctx context.Context, allowedRoles ...Role) error

// Authorize returns nil if the user bound to ctx holds one of allowedRoles
// and an *meta.ErrAuthorization otherwise. The access control gate has
// already loaded the user's CURRENT record, so the role consulted here is
// never a stale copy from session establishment.
func Authorize(ctx context.Context, allowedRoles ...Role) error {
	user, ok := UserFromContext(ctx)
	if !ok {
		return &meta.ErrAuthorization{}
	}
	for _, role := range allowedRoles {
		if user.Role == role {
			return nil
		}
	}
	return &meta.ErrAuthorization{}
}
