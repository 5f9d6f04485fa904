package rest

import (
	"context"
	"net/http"

	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
)

// passthroughFilter stands in for the auth and role filters so endpoint tests
// exercise endpoint logic alone.
type passthroughFilter struct{}

func (p *passthroughFilter) Decorate(
	handle http.HandlerFunc,
) http.HandlerFunc {
	return handle
}

// userInjectingFilter binds a fixed User to every request's context, the way
// the role filter does for requests it admits.
type userInjectingFilter struct {
	user authx.User
}

func (f *userInjectingFilter) Decorate(
	handle http.HandlerFunc,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle(w, r.WithContext(authx.ContextWithUser(r.Context(), f.user)))
	}
}

type mockSessionsService struct {
	LoginLocalFn func(
		ctx context.Context,
		username string,
		password string,
	) (string, authx.User, error)
	StartLoginFn    func(ctx context.Context, roleHint authx.Role) (string, error)
	CompleteLoginFn func(
		ctx context.Context,
		state string,
		code string,
	) (string, authx.User, error)
	GetByTokenFn func(
		ctx context.Context,
		token string,
	) (authx.SessionRecord, error)
	UpdateFn func(
		ctx context.Context,
		token string,
		principal authx.Principal,
	) error
	DeleteFn        func(ctx context.Context, token string) error
	LogoutFn        func(ctx context.Context, token string) error
	EndSessionURLFn func(ctx context.Context) string
}

func (m *mockSessionsService) LoginLocal(
	ctx context.Context,
	username string,
	password string,
) (string, authx.User, error) {
	return m.LoginLocalFn(ctx, username, password)
}

func (m *mockSessionsService) StartLogin(
	ctx context.Context,
	roleHint authx.Role,
) (string, error) {
	return m.StartLoginFn(ctx, roleHint)
}

func (m *mockSessionsService) CompleteLogin(
	ctx context.Context,
	state string,
	code string,
) (string, authx.User, error) {
	return m.CompleteLoginFn(ctx, state, code)
}

func (m *mockSessionsService) GetByToken(
	ctx context.Context,
	token string,
) (authx.SessionRecord, error) {
	return m.GetByTokenFn(ctx, token)
}

func (m *mockSessionsService) Update(
	ctx context.Context,
	token string,
	principal authx.Principal,
) error {
	return m.UpdateFn(ctx, token, principal)
}

func (m *mockSessionsService) Delete(ctx context.Context, token string) error {
	return m.DeleteFn(ctx, token)
}

func (m *mockSessionsService) Logout(ctx context.Context, token string) error {
	return m.LogoutFn(ctx, token)
}

func (m *mockSessionsService) EndSessionURL(ctx context.Context) string {
	if m.EndSessionURLFn == nil {
		return ""
	}
	return m.EndSessionURLFn(ctx)
}

type mockUsersService struct {
	CreateFn func(
		ctx context.Context,
		user authx.User,
		password string,
	) (authx.User, error)
	ListFn func(
		ctx context.Context,
		opts meta.ListOptions,
	) (authx.UserList, error)
	GetFn        func(ctx context.Context, id string) (authx.User, error)
	UpdateFn     func(ctx context.Context, user authx.User) (authx.User, error)
	UpdateRoleFn func(ctx context.Context, id string, role authx.Role) error
	ActivateFn   func(ctx context.Context, id string) error
	DeactivateFn func(ctx context.Context, id string) error
	DeleteFn     func(ctx context.Context, id string) error
}

func (m *mockUsersService) Create(
	ctx context.Context,
	user authx.User,
	password string,
) (authx.User, error) {
	return m.CreateFn(ctx, user, password)
}

func (m *mockUsersService) List(
	ctx context.Context,
	opts meta.ListOptions,
) (authx.UserList, error) {
	return m.ListFn(ctx, opts)
}

func (m *mockUsersService) Get(
	ctx context.Context,
	id string,
) (authx.User, error) {
	return m.GetFn(ctx, id)
}

func (m *mockUsersService) Update(
	ctx context.Context,
	user authx.User,
) (authx.User, error) {
	return m.UpdateFn(ctx, user)
}

func (m *mockUsersService) UpdateRole(
	ctx context.Context,
	id string,
	role authx.Role,
) error {
	return m.UpdateRoleFn(ctx, id, role)
}

func (m *mockUsersService) Activate(ctx context.Context, id string) error {
	return m.ActivateFn(ctx, id)
}

func (m *mockUsersService) Deactivate(ctx context.Context, id string) error {
	return m.DeactivateFn(ctx, id)
}

func (m *mockUsersService) Delete(ctx context.Context, id string) error {
	return m.DeleteFn(ctx, id)
}
