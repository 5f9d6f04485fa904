package core

import (
	"context"
	"io"

	"github.com/H420Prajyot/Matrix/apiserver/internal/audit"
	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
)

// captureSink collects audit events so tests can assert what was recorded.
type captureSink struct {
	events []audit.Event
}

func (c *captureSink) Record(_ context.Context, event audit.Event) {
	c.events = append(c.events, event)
}

type mockProjectsStore struct {
	CreateFn func(context.Context, Project) error
	ListFn   func(context.Context, meta.ListOptions) (ProjectList, error)
	ListByMemberFn func(
		ctx context.Context,
		userID string,
		opts meta.ListOptions,
	) (ProjectList, error)
	GetFn             func(ctx context.Context, id string) (Project, error)
	UpdateFn          func(context.Context, Project) error
	AddClientFn       func(ctx context.Context, projectID, userID string) error
	RemoveClientFn    func(ctx context.Context, projectID, userID string) error
	AddPentesterFn    func(ctx context.Context, projectID, userID string) error
	RemovePentesterFn func(ctx context.Context, projectID, userID string) error
	DeleteFn          func(ctx context.Context, id string) error
}

func (m *mockProjectsStore) Create(
	ctx context.Context,
	project Project,
) error {
	return m.CreateFn(ctx, project)
}

func (m *mockProjectsStore) List(
	ctx context.Context,
	opts meta.ListOptions,
) (ProjectList, error) {
	return m.ListFn(ctx, opts)
}

func (m *mockProjectsStore) ListByMember(
	ctx context.Context,
	userID string,
	opts meta.ListOptions,
) (ProjectList, error) {
	return m.ListByMemberFn(ctx, userID, opts)
}

func (m *mockProjectsStore) Get(
	ctx context.Context,
	id string,
) (Project, error) {
	return m.GetFn(ctx, id)
}

func (m *mockProjectsStore) Update(
	ctx context.Context,
	project Project,
) error {
	return m.UpdateFn(ctx, project)
}

func (m *mockProjectsStore) AddClient(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	return m.AddClientFn(ctx, projectID, userID)
}

func (m *mockProjectsStore) RemoveClient(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	return m.RemoveClientFn(ctx, projectID, userID)
}

func (m *mockProjectsStore) AddPentester(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	return m.AddPentesterFn(ctx, projectID, userID)
}

func (m *mockProjectsStore) RemovePentester(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	return m.RemovePentesterFn(ctx, projectID, userID)
}

func (m *mockProjectsStore) Delete(ctx context.Context, id string) error {
	return m.DeleteFn(ctx, id)
}

type mockVulnerabilitiesStore struct {
	CreateFn func(context.Context, Vulnerability) error
	ListFn   func(
		ctx context.Context,
		selector VulnerabilitiesSelector,
		opts meta.ListOptions,
	) (VulnerabilityList, error)
	GetFn          func(ctx context.Context, id string) (Vulnerability, error)
	UpdateFn       func(context.Context, Vulnerability) error
	UpdateStatusFn func(
		ctx context.Context,
		id string,
		status VulnerabilityStatus,
	) error
	DeleteFn          func(ctx context.Context, id string) error
	DeleteByProjectFn func(ctx context.Context, projectID string) error
}

func (m *mockVulnerabilitiesStore) Create(
	ctx context.Context,
	vulnerability Vulnerability,
) error {
	return m.CreateFn(ctx, vulnerability)
}

func (m *mockVulnerabilitiesStore) List(
	ctx context.Context,
	selector VulnerabilitiesSelector,
	opts meta.ListOptions,
) (VulnerabilityList, error) {
	return m.ListFn(ctx, selector, opts)
}

func (m *mockVulnerabilitiesStore) Get(
	ctx context.Context,
	id string,
) (Vulnerability, error) {
	return m.GetFn(ctx, id)
}

func (m *mockVulnerabilitiesStore) Update(
	ctx context.Context,
	vulnerability Vulnerability,
) error {
	return m.UpdateFn(ctx, vulnerability)
}

func (m *mockVulnerabilitiesStore) UpdateStatus(
	ctx context.Context,
	id string,
	status VulnerabilityStatus,
) error {
	return m.UpdateStatusFn(ctx, id, status)
}

func (m *mockVulnerabilitiesStore) Delete(
	ctx context.Context,
	id string,
) error {
	return m.DeleteFn(ctx, id)
}

func (m *mockVulnerabilitiesStore) DeleteByProject(
	ctx context.Context,
	projectID string,
) error {
	return m.DeleteByProjectFn(ctx, projectID)
}

type mockReportsStore struct {
	CreateFn func(context.Context, Report) error
	ListFn   func(
		ctx context.Context,
		selector ReportsSelector,
		opts meta.ListOptions,
	) (ReportList, error)
	GetFn             func(ctx context.Context, id string) (Report, error)
	DeleteFn          func(ctx context.Context, id string) error
	DeleteByProjectFn func(
		ctx context.Context,
		projectID string,
	) ([]Report, error)
}

func (m *mockReportsStore) Create(ctx context.Context, report Report) error {
	return m.CreateFn(ctx, report)
}

func (m *mockReportsStore) List(
	ctx context.Context,
	selector ReportsSelector,
	opts meta.ListOptions,
) (ReportList, error) {
	return m.ListFn(ctx, selector, opts)
}

func (m *mockReportsStore) Get(
	ctx context.Context,
	id string,
) (Report, error) {
	return m.GetFn(ctx, id)
}

func (m *mockReportsStore) Delete(ctx context.Context, id string) error {
	return m.DeleteFn(ctx, id)
}

func (m *mockReportsStore) DeleteByProject(
	ctx context.Context,
	projectID string,
) ([]Report, error) {
	return m.DeleteByProjectFn(ctx, projectID)
}

type mockBlobStore struct {
	PutFn func(
		ctx context.Context,
		key string,
		contentType string,
		body io.Reader,
	) error
	OpenFn   func(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteFn func(ctx context.Context, key string) error
}

func (m *mockBlobStore) Put(
	ctx context.Context,
	key string,
	contentType string,
	body io.Reader,
) error {
	return m.PutFn(ctx, key, contentType, body)
}

func (m *mockBlobStore) Open(
	ctx context.Context,
	key string,
) (io.ReadCloser, error) {
	return m.OpenFn(ctx, key)
}

func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	return m.DeleteFn(ctx, key)
}

type mockUsersStore struct {
	CreateFn      func(context.Context, authx.User) error
	CountByRoleFn func(
		ctx context.Context,
		role authx.Role,
		activeOnly bool,
	) (int64, error)
	ListFn func(
		ctx context.Context,
		opts meta.ListOptions,
	) (authx.UserList, error)
	GetFn           func(ctx context.Context, id string) (authx.User, error)
	GetByUsernameFn func(
		ctx context.Context,
		username string,
	) (authx.User, error)
	GetBySubjectFn func(
		ctx context.Context,
		subject string,
	) (authx.User, error)
	UpdateFn     func(context.Context, authx.User) error
	UpdateRoleFn func(ctx context.Context, id string, role authx.Role) error
	SetActiveFn  func(ctx context.Context, id string, active bool) error
	DeleteFn     func(ctx context.Context, id string) error
}

func (m *mockUsersStore) Create(ctx context.Context, user authx.User) error {
	return m.CreateFn(ctx, user)
}

func (m *mockUsersStore) CountByRole(
	ctx context.Context,
	role authx.Role,
	activeOnly bool,
) (int64, error) {
	return m.CountByRoleFn(ctx, role, activeOnly)
}

func (m *mockUsersStore) List(
	ctx context.Context,
	opts meta.ListOptions,
) (authx.UserList, error) {
	return m.ListFn(ctx, opts)
}

func (m *mockUsersStore) Get(
	ctx context.Context,
	id string,
) (authx.User, error) {
	return m.GetFn(ctx, id)
}

func (m *mockUsersStore) GetByUsername(
	ctx context.Context,
	username string,
) (authx.User, error) {
	return m.GetByUsernameFn(ctx, username)
}

func (m *mockUsersStore) GetBySubject(
	ctx context.Context,
	subject string,
) (authx.User, error) {
	return m.GetBySubjectFn(ctx, subject)
}

func (m *mockUsersStore) Update(ctx context.Context, user authx.User) error {
	return m.UpdateFn(ctx, user)
}

func (m *mockUsersStore) UpdateRole(
	ctx context.Context,
	id string,
	role authx.Role,
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
