package core

import (
	"context"

	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
)

// ProjectAuthorizeFn is the signature for functions that assert the current
// user may access a given Project.
type ProjectAuthorizeFn func(ctx context.Context, project Project) error

// AuthorizeProjectRead asserts that the current user may view the specified
// Project and its findings. Admins see everything; everyone else must be on
// one of the Project's rosters.
func AuthorizeProjectRead(ctx context.Context, project Project) error {
	user, ok := authx.UserFromContext(ctx)
	if !ok {
		return &meta.ErrAuthorization{}
	}
	if user.Role == authx.RoleAdmin ||
		project.HasPentester(user.ID) ||
		project.HasClient(user.ID) {
		return nil
	}
	return &meta.ErrAuthorization{}
}

// AuthorizeProjectWrite asserts that the current user may record or amend
// findings on the specified Project. Admins may; so may the Project's own
// pentesters. Clients are strictly readers.
func AuthorizeProjectWrite(ctx context.Context, project Project) error {
	user, ok := authx.UserFromContext(ctx)
	if !ok {
		return &meta.ErrAuthorization{}
	}
	if user.Role == authx.RoleAdmin || project.HasPentester(user.ID) {
		return nil
	}
	return &meta.ErrAuthorization{}
}
