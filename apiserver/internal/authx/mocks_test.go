package authx

import (
	"context"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
)

type mockUsersStore struct {
	CreateFn        func(context.Context, User) error
	CountByRoleFn   func(context.Context, Role, bool) (int64, error)
	ListFn          func(context.Context, meta.ListOptions) (UserList, error)
	GetFn           func(context.Context, string) (User, error)
	GetByUsernameFn func(context.Context, string) (User, error)
	GetBySubjectFn  func(context.Context, string) (User, error)
	UpdateFn        func(context.Context, User) error
	UpdateRoleFn    func(context.Context, string, Role) error
	SetActiveFn     func(context.Context, string, bool) error
	DeleteFn        func(context.Context, string) error
}

func (m *mockUsersStore) Create(ctx context.Context, user User) error {
	return m.CreateFn(ctx, user)
}

func (m *mockUsersStore) CountByRole(
	ctx context.Context,
	role Role,
	activeOnly bool,
) (int64, error) {
	return m.CountByRoleFn(ctx, role, activeOnly)
}

func (m *mockUsersStore) List(
	ctx context.Context,
	opts meta.ListOptions,
) (UserList, error) {
	return m.ListFn(ctx, opts)
}

func (m *mockUsersStore) Get(ctx context.Context, id string) (User, error) {
	return m.GetFn(ctx, id)
}

func (m *mockUsersStore) GetByUsername(
	ctx context.Context,
	username string,
) (User, error) {
	return m.GetByUsernameFn(ctx, username)
}

func (m *mockUsersStore) GetBySubject(
	ctx context.Context,
	subject string,
) (User, error) {
	return m.GetBySubjectFn(ctx, subject)
}

func (m *mockUsersStore) Update(ctx context.Context, user User) error {
	return m.UpdateFn(ctx, user)
}

func (m *mockUsersStore) UpdateRole(
	ctx context.Context,
	id string,
	role Role,
) error {
	return m.UpdateRoleFn(ctx, id, role)
}

func (m *mockUsersStore) SetActive(
	ctx context.Context,
	id string,
	active bool,
) error {
	return m.SetActiveFn(ctx, id, active)
}

func (m *mockUsersStore) Delete(ctx context.Context, id string) error {
	return m.DeleteFn(ctx, id)
}

type mockSessionsStore struct {
	SaveFn func(
		ctx context.Context,
		hashedToken string,
		record SessionRecord,
		ttl time.Duration,
	) error
	LoadFn             func(context.Context, string) (SessionRecord, error)
	DeleteFn           func(context.Context, string) error
	SavePendingLoginFn func(
		ctx context.Context,
		hashedState string,
		pending PendingLogin,
		ttl time.Duration,
	) error
	TakePendingLoginFn func(context.Context, string) (PendingLogin, error)
}

func (m *mockSessionsStore) Save(
	ctx context.Context,
	hashedToken string,
	record SessionRecord,
	ttl time.Duration,
) error {
	return m.SaveFn(ctx, hashedToken, record, ttl)
}

func (m *mockSessionsStore) Load(
	ctx context.Context,
	hashedToken string,
) (SessionRecord, error) {
	return m.LoadFn(ctx, hashedToken)
}

func (m *mockSessionsStore) Delete(
	ctx context.Context,
	hashedToken string,
) error {
	return m.DeleteFn(ctx, hashedToken)
}

func (m *mockSessionsStore) SavePendingLogin(
	ctx context.Context,
	hashedState string,
	pending PendingLogin,
	ttl time.Duration,
) error {
	return m.SavePendingLoginFn(ctx, hashedState, pending, ttl)
}

func (m *mockSessionsStore) TakePendingLogin(
	ctx context.Context,
	hashedState string,
) (PendingLogin, error) {
	return m.TakePendingLoginFn(ctx, hashedState)
}

type mockCredentialsValidator struct {
	ValidateFn func(ctx context.Context, username, password string) (User, error)
}

func (m *mockCredentialsValidator) Validate(
	ctx context.Context,
	username string,
	password string,
) (User, error) {
	return m.ValidateFn(ctx, username, password)
}

type mockIdentityVerifier struct {
	AuthCodeURLFn   func(ctx context.Context, state string) (string, error)
	ExchangeFn      func(ctx context.Context, code string) (Principal, error)
	EndSessionURLFn func(ctx context.Context) string
}

func (m *mockIdentityVerifier) AuthCodeURL(
	ctx context.Context,
	state string,
) (string, error) {
	return m.AuthCodeURLFn(ctx, state)
}

func (m *mockIdentityVerifier) Exchange(
	ctx context.Context,
	code string,
) (Principal, error) {
	return m.ExchangeFn(ctx, code)
}

func (m *mockIdentityVerifier) EndSessionURL(ctx context.Context) string {
	if m.EndSessionURLFn == nil {
		return ""
	}
	return m.EndSessionURLFn(ctx)
}
