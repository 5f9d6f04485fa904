package rest

import (
	"context"
	"io"
	"net/http"

	"github.com/H420Prajyot/Matrix/apiserver/internal/core"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
)

// passthroughFilter stands in for the auth and user filters so endpoint tests
// exercise endpoint logic alone.
type passthroughFilter struct{}

func (p *passthroughFilter) Decorate(
	handle http.HandlerFunc,
) http.HandlerFunc {
	return handle
}

type mockProjectsService struct {
	CreateFn func(context.Context, core.Project) (core.Project, error)
	ListFn   func(
		ctx context.Context,
		opts meta.ListOptions,
	) (core.ProjectList, error)
	GetFn    func(ctx context.Context, id string) (core.Project, error)
	UpdateFn func(context.Context, core.Project) (core.Project, error)
	AddClientFn func(
		ctx context.Context,
		projectID string,
		userID string,
	) error
	RemoveClientFn func(
		ctx context.Context,
		projectID string,
		userID string,
	) error
	AddPentesterFn func(
		ctx context.Context,
		projectID string,
		userID string,
	) error
	RemovePentesterFn func(
		ctx context.Context,
		projectID string,
		userID string,
	) error
	DeleteFn func(ctx context.Context, id string) error
}

func (m *mockProjectsService) Create(
	ctx context.Context,
	project core.Project,
) (core.Project, error) {
	return m.CreateFn(ctx, project)
}

func (m *mockProjectsService) List(
	ctx context.Context,
	opts meta.ListOptions,
) (core.ProjectList, error) {
	return m.ListFn(ctx, opts)
}

func (m *mockProjectsService) Get(
	ctx context.Context,
	id string,
) (core.Project, error) {
	return m.GetFn(ctx, id)
}

func (m *mockProjectsService) Update(
	ctx context.Context,
	project core.Project,
) (core.Project, error) {
	return m.UpdateFn(ctx, project)
}

func (m *mockProjectsService) AddClient(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	return m.AddClientFn(ctx, projectID, userID)
}

func (m *mockProjectsService) RemoveClient(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	return m.RemoveClientFn(ctx, projectID, userID)
}

func (m *mockProjectsService) AddPentester(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	return m.AddPentesterFn(ctx, projectID, userID)
}

func (m *mockProjectsService) RemovePentester(
	ctx context.Context,
	projectID string,
	userID string,
) error {
	return m.RemovePentesterFn(ctx, projectID, userID)
}

func (m *mockProjectsService) Delete(ctx context.Context, id string) error {
	return m.DeleteFn(ctx, id)
}

type mockVulnerabilitiesService struct {
	CreateFn func(
		context.Context,
		core.Vulnerability,
	) (core.Vulnerability, error)
	ListFn func(
		ctx context.Context,
		selector core.VulnerabilitiesSelector,
		opts meta.ListOptions,
	) (core.VulnerabilityList, error)
	GetFn func(
		ctx context.Context,
		id string,
	) (core.Vulnerability, error)
	UpdateFn func(
		context.Context,
		core.Vulnerability,
	) (core.Vulnerability, error)
	UpdateStatusFn func(
		ctx context.Context,
		id string,
		status core.VulnerabilityStatus,
	) error
	DeleteFn func(ctx context.Context, id string) error
}

func (m *mockVulnerabilitiesService) Create(
	ctx context.Context,
	vulnerability core.Vulnerability,
) (core.Vulnerability, error) {
	return m.CreateFn(ctx, vulnerability)
}

func (m *mockVulnerabilitiesService) List(
	ctx context.Context,
	selector core.VulnerabilitiesSelector,
	opts meta.ListOptions,
) (core.VulnerabilityList, error) {
	return m.ListFn(ctx, selector, opts)
}

func (m *mockVulnerabilitiesService) Get(
	ctx context.Context,
	id string,
) (core.Vulnerability, error) {
	return m.GetFn(ctx, id)
}

func (m *mockVulnerabilitiesService) Update(
	ctx context.Context,
	vulnerability core.Vulnerability,
) (core.Vulnerability, error) {
	return m.UpdateFn(ctx, vulnerability)
}

func (m *mockVulnerabilitiesService) UpdateStatus(
	ctx context.Context,
	id string,
	status core.VulnerabilityStatus,
) error {
	return m.UpdateStatusFn(ctx, id, status)
}

func (m *mockVulnerabilitiesService) Delete(
	ctx context.Context,
	id string,
) error {
	return m.DeleteFn(ctx, id)
}

type mockReportsService struct {
	UploadFn func(
		ctx context.Context,
		projectID string,
		title string,
		filename string,
		contentType string,
		size int64,
		body io.Reader,
	) (core.Report, error)
	ListFn func(
		ctx context.Context,
		selector core.ReportsSelector,
		opts meta.ListOptions,
	) (core.ReportList, error)
	GetFn  func(ctx context.Context, id string) (core.Report, error)
	OpenFn func(
		ctx context.Context,
		id string,
	) (core.Report, io.ReadCloser, error)
	DeleteFn func(ctx context.Context, id string) error
}

func (m *mockReportsService) Upload(
	ctx context.Context,
	projectID string,
	title string,
	filename string,
	contentType string,
	size int64,
	body io.Reader,
) (core.Report, error) {
	return m.UploadFn(ctx, projectID, title, filename, contentType, size, body)
}

func (m *mockReportsService) List(
	ctx context.Context,
	selector core.ReportsSelector,
	opts meta.ListOptions,
) (core.ReportList, error) {
	return m.ListFn(ctx, selector, opts)
}

func (m *mockReportsService) Get(
	ctx context.Context,
	id string,
) (core.Report, error) {
	return m.GetFn(ctx, id)
}

func (m *mockReportsService) Open(
	ctx context.Context,
	id string,
) (core.Report, io.ReadCloser, error) {
	return m.OpenFn(ctx, id)
}

func (m *mockReportsService) Delete(ctx context.Context, id string) error {
	return m.DeleteFn(ctx, id)
}
