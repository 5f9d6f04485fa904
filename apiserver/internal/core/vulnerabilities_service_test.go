package core

import (
	"context"
	"testing"

	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// rosterProjectsStore returns a projects store whose one project has fixed
// rosters, which is all the vulnerabilities service ever asks of it.
func rosterProjectsStore() *mockProjectsStore {
	return &mockProjectsStore{
		GetFn: func(_ context.Context, id string) (Project, error) {
			return Project{
				ObjectMeta: meta.ObjectMeta{
					ID: id,
				},
				ClientIDs:    []string{"client-1"},
				PentesterIDs: []string{"pentester-1"},
			}, nil
		},
	}
}

func testVulnerabilitiesService(
	projectsStore ProjectsStore,
	vulnerabilitiesStore VulnerabilitiesStore,
) *vulnerabilitiesService {
	if projectsStore == nil {
		projectsStore = rosterProjectsStore()
	}
	return NewVulnerabilitiesService(
		projectsStore,
		vulnerabilitiesStore,
	).(*vulnerabilitiesService)
}

func TestVulnerabilityCreateValidation(t *testing.T) {
	service := testVulnerabilitiesService(nil, nil)
	ctx := contextWithRole(authx.RolePentester, "pentester-1")

	testCases := []struct {
		name          string
		vulnerability Vulnerability
		reason        string
	}{
		{
			name: "missing project ID",
			vulnerability: Vulnerability{
				Title:    "SQL injection in login form",
				Severity: SeverityHigh,
			},
			reason: "project ID is required",
		},
		{
			name: "missing title",
			vulnerability: Vulnerability{
				ProjectID: "project-1",
				Severity:  SeverityHigh,
			},
			reason: "title is required",
		},
		{
			name: "unrecognized severity",
			vulnerability: Vulnerability{
				ProjectID: "project-1",
				Title:     "SQL injection in login form",
				Severity:  "catastrophic",
			},
			reason: `The severity "catastrophic" is not recognized.`,
		},
		{
			name: "CVSS score out of range",
			vulnerability: Vulnerability{
				ProjectID: "project-1",
				Title:     "SQL injection in login form",
				Severity:  SeverityHigh,
				CVSS:      11.0,
			},
			reason: "between 0.0 and 10.0",
		},
		{
			name: "unrecognized status",
			vulnerability: Vulnerability{
				ProjectID: "project-1",
				Title:     "SQL injection in login form",
				Severity:  SeverityHigh,
				Status:    "wontfix",
			},
			reason: `The status "wontfix" is not recognized.`,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := service.Create(ctx, testCase.vulnerability)
			require.Error(t, err)
			require.IsType(t, &meta.ErrBadRequest{}, errors.Cause(err))
			require.Contains(t, err.Error(), testCase.reason)
		})
	}
}

func TestVulnerabilityCreateDeniedToClient(t *testing.T) {
	service := testVulnerabilitiesService(
		nil,
		&mockVulnerabilitiesStore{
			CreateFn: func(context.Context, Vulnerability) error {
				require.Fail(t, "the store should not have been touched")
				return nil
			},
		},
	)
	_, err := service.Create(
		contextWithRole(authx.RoleClient, "client-1"),
		Vulnerability{
			ProjectID: "project-1",
			Title:     "SQL injection in login form",
			Severity:  SeverityHigh,
		},
	)
	require.Error(t, err)
	require.IsType(t, &meta.ErrAuthorization{}, errors.Cause(err))
}

func TestVulnerabilityCreateSuccess(t *testing.T) {
	var created Vulnerability
	service := testVulnerabilitiesService(
		nil,
		&mockVulnerabilitiesStore{
			CreateFn: func(
				_ context.Context,
				vulnerability Vulnerability,
			) error {
				created = vulnerability
				return nil
			},
		},
	)
	vulnerability, err := service.Create(
		contextWithRole(authx.RolePentester, "pentester-1"),
		Vulnerability{
			ProjectID: "project-1",
			Title:     "SQL injection in login form",
			Severity:  SeverityHigh,
			CVSS:      8.6,
		},
	)
	require.NoError(t, err)
	require.NotEmpty(t, vulnerability.ID)
	require.NotNil(t, vulnerability.Created)
	require.Equal(t, created, vulnerability)
	// New findings open as open and carry the reporter's identity.
	require.Equal(t, StatusOpen, created.Status)
	require.Equal(t, "pentester-1", created.ReportedBy)
}

func TestVulnerabilityListRequiresProjectID(t *testing.T) {
	service := testVulnerabilitiesService(nil, nil)
	_, err := service.List(
		contextWithRole(authx.RoleAdmin, "admin-1"),
		VulnerabilitiesSelector{},
		meta.ListOptions{},
	)
	require.Error(t, err)
	require.IsType(t, &meta.ErrBadRequest{}, errors.Cause(err))
	require.Contains(t, err.Error(), "project ID is required")
}

func TestVulnerabilityListWithInvalidSelector(t *testing.T) {
	service := testVulnerabilitiesService(nil, nil)
	ctx := contextWithRole(authx.RoleAdmin, "admin-1")

	_, err := service.List(
		ctx,
		VulnerabilitiesSelector{
			ProjectID: "project-1",
			Severity:  "catastrophic",
		},
		meta.ListOptions{},
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), `The severity "catastrophic"`)

	_, err = service.List(
		ctx,
		VulnerabilitiesSelector{
			ProjectID: "project-1",
			Status:    "wontfix",
		},
		meta.ListOptions{},
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), `The status "wontfix"`)
}

func TestVulnerabilityListAsRosterClient(t *testing.T) {
	service := testVulnerabilitiesService(
		nil,
		&mockVulnerabilitiesStore{
			ListFn: func(
				_ context.Context,
				selector VulnerabilitiesSelector,
				opts meta.ListOptions,
			) (VulnerabilityList, error) {
				require.Equal(t, "project-1", selector.ProjectID)
				require.Equal(t, SeverityCritical, selector.Severity)
				require.Equal(t, int64(20), opts.Limit)
				return VulnerabilityList{}, nil
			},
		},
	)
	_, err := service.List(
		contextWithRole(authx.RoleClient, "client-1"),
		VulnerabilitiesSelector{
			ProjectID: "project-1",
			Severity:  SeverityCritical,
		},
		meta.ListOptions{},
	)
	require.NoError(t, err)
}

func TestVulnerabilityListDeniedOffRoster(t *testing.T) {
	service := testVulnerabilitiesService(
		nil,
		&mockVulnerabilitiesStore{
			ListFn: func(
				context.Context,
				VulnerabilitiesSelector,
				meta.ListOptions,
			) (VulnerabilityList, error) {
				require.Fail(t, "the store should not have been touched")
				return VulnerabilityList{}, nil
			},
		},
	)
	_, err := service.List(
		contextWithRole(authx.RoleClient, "client-2"),
		VulnerabilitiesSelector{
			ProjectID: "project-1",
		},
		meta.ListOptions{},
	)
	require.Error(t, err)
	require.IsType(t, &meta.ErrAuthorization{}, errors.Cause(err))
}

func TestVulnerabilityGet(t *testing.T) {
	service := testVulnerabilitiesService(
		nil,
		&mockVulnerabilitiesStore{
			GetFn: func(
				_ context.Context,
				id string,
			) (Vulnerability, error) {
				return Vulnerability{
					ObjectMeta: meta.ObjectMeta{
						ID: id,
					},
					ProjectID: "project-1",
					Title:     "SQL injection in login form",
				}, nil
			},
		},
	)
	vulnerability, err := service.Get(
		contextWithRole(authx.RoleClient, "client-1"),
		"vulnerability-1",
	)
	require.NoError(t, err)
	require.Equal(t, "SQL injection in login form", vulnerability.Title)

	_, err = service.Get(
		contextWithRole(authx.RoleClient, "client-2"),
		"vulnerability-1",
	)
	require.Error(t, err)
	require.IsType(t, &meta.ErrAuthorization{}, errors.Cause(err))
}

func TestVulnerabilityUpdatePinsProject(t *testing.T) {
	var updated Vulnerability
	service := testVulnerabilitiesService(
		nil,
		&mockVulnerabilitiesStore{
			GetFn: func(
				_ context.Context,
				id string,
			) (Vulnerability, error) {
				return Vulnerability{
					ObjectMeta: meta.ObjectMeta{
						ID: id,
					},
					ProjectID: "project-1",
					Title:     "SQL injection in login form",
					Severity:  SeverityHigh,
				}, nil
			},
			UpdateFn: func(
				_ context.Context,
				vulnerability Vulnerability,
			) error {
				updated = vulnerability
				return nil
			},
		},
	)
	_, err := service.Update(
		contextWithRole(authx.RolePentester, "pentester-1"),
		Vulnerability{
			ObjectMeta: meta.ObjectMeta{
				ID: "vulnerability-1",
			},
			// The submitted project ID is ignored. Findings never move
			// between projects.
			ProjectID: "project-2",
			Title:     "SQL injection in login and search forms",
			Severity:  SeverityCritical,
			CVSS:      9.1,
		},
	)
	require.NoError(t, err)
	require.Equal(t, "project-1", updated.ProjectID)
	require.Equal(t, "SQL injection in login and search forms", updated.Title)
	require.Equal(t, SeverityCritical, updated.Severity)
}

func TestVulnerabilityUpdateDeniedToClient(t *testing.T) {
	service := testVulnerabilitiesService(
		nil,
		&mockVulnerabilitiesStore{
			GetFn: func(
				_ context.Context,
				id string,
			) (Vulnerability, error) {
				return Vulnerability{
					ObjectMeta: meta.ObjectMeta{
						ID: id,
					},
					ProjectID: "project-1",
					Title:     "SQL injection in login form",
					Severity:  SeverityHigh,
				}, nil
			},
			UpdateFn: func(context.Context, Vulnerability) error {
				require.Fail(t, "the store should not have been touched")
				return nil
			},
		},
	)
	_, err := service.Update(
		contextWithRole(authx.RoleClient, "client-1"),
		Vulnerability{
			ObjectMeta: meta.ObjectMeta{
				ID: "vulnerability-1",
			},
			ProjectID: "project-1",
			Title:     "SQL injection in login form",
			Severity:  SeverityHigh,
		},
	)
	require.Error(t, err)
	require.IsType(t, &meta.ErrAuthorization{}, errors.Cause(err))
}

func TestVulnerabilityUpdateStatus(t *testing.T) {
	statusUpdated := false
	service := testVulnerabilitiesService(
		nil,
		&mockVulnerabilitiesStore{
			GetFn: func(
				_ context.Context,
				id string,
			) (Vulnerability, error) {
				return Vulnerability{
					ObjectMeta: meta.ObjectMeta{
						ID: id,
					},
					ProjectID: "project-1",
				}, nil
			},
			UpdateStatusFn: func(
				_ context.Context,
				id string,
				status VulnerabilityStatus,
			) error {
				statusUpdated = true
				require.Equal(t, "vulnerability-1", id)
				require.Equal(t, StatusFixed, status)
				return nil
			},
		},
	)
	err := service.UpdateStatus(
		contextWithRole(authx.RolePentester, "pentester-1"),
		"vulnerability-1",
		StatusFixed,
	)
	require.NoError(t, err)
	require.True(t, statusUpdated)
}

func TestVulnerabilityUpdateStatusWithUnrecognizedStatus(t *testing.T) {
	service := testVulnerabilitiesService(nil, nil)
	err := service.UpdateStatus(
		contextWithRole(authx.RolePentester, "pentester-1"),
		"vulnerability-1",
		"wontfix",
	)
	require.Error(t, err)
	require.IsType(t, &meta.ErrBadRequest{}, errors.Cause(err))
}

func TestVulnerabilityDelete(t *testing.T) {
	deleted := false
	service := testVulnerabilitiesService(
		nil,
		&mockVulnerabilitiesStore{
			GetFn: func(
				_ context.Context,
				id string,
			) (Vulnerability, error) {
				return Vulnerability{
					ObjectMeta: meta.ObjectMeta{
						ID: id,
					},
					ProjectID: "project-1",
				}, nil
			},
			DeleteFn: func(_ context.Context, id string) error {
				deleted = true
				require.Equal(t, "vulnerability-1", id)
				return nil
			},
		},
	)
	err := service.Delete(
		contextWithRole(authx.RolePentester, "pentester-1"),
		"vulnerability-1",
	)
	require.NoError(t, err)
	require.True(t, deleted)
}

func TestVulnerabilityDeleteDeniedToClient(t *testing.T) {
	service := testVulnerabilitiesService(
		nil,
		&mockVulnerabilitiesStore{
			GetFn: func(
				_ context.Context,
				id string,
			) (Vulnerability, error) {
				return Vulnerability{
					ObjectMeta: meta.ObjectMeta{
						ID: id,
					},
					ProjectID: "project-1",
				}, nil
			},
			DeleteFn: func(context.Context, string) error {
				require.Fail(t, "the store should not have been touched")
				return nil
			},
		},
	)
	err := service.Delete(
		contextWithRole(authx.RoleClient, "client-1"),
		"vulnerability-1",
	)
	require.Error(t, err)
	require.IsType(t, &meta.ErrAuthorization{}, errors.Cause(err))
}
