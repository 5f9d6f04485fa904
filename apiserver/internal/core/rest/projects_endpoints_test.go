package rest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/H420Prajyot/Matrix/apiserver/internal/core"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/restmachinery"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProjectsRouter(service core.ProjectsService) *mux.Router {
	router := mux.NewRouter()
	NewProjectsEndpoints(
		&restmachinery.BaseEndpoints{
			Logger: zap.NewNop(),
		},
		&passthroughFilter{},
		&passthroughFilter{},
		service,
	).Register(router)
	return router
}

func TestProjectCreate(t *testing.T) {
	service := &mockProjectsService{
		CreateFn: func(
			_ context.Context,
			project core.Project,
		) (core.Project, error) {
			require.Equal(t, "acme-corp-external", project.Name)
			require.Equal(t, "External perimeter assessment", project.Description)
			project.ID = "project-1"
			return project, nil
		},
	}
	router := newProjectsRouter(service)
	req, err := http.NewRequest(
		http.MethodPost,
		"/v2/projects",
		bytes.NewBufferString(
			`{
				"name": "acme-corp-external",
				"description": "External perimeter assessment"
			}`,
		),
	)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"kind":"Project"`)
	require.Contains(t, rr.Body.String(), `"name":"acme-corp-external"`)
}

func TestProjectCreateWithMissingName(t *testing.T) {
	service := &mockProjectsService{
		CreateFn: func(
			context.Context,
			core.Project,
		) (core.Project, error) {
			require.Fail(
				t,
				"the service should not have been invoked for an invalid body",
			)
			return core.Project{}, nil
		},
	}
	router := newProjectsRouter(service)
	req, err := http.NewRequest(
		http.MethodPost,
		"/v2/projects",
		bytes.NewBufferString(`{"description": "no name"}`),
	)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProjectList(t *testing.T) {
	service := &mockProjectsService{
		ListFn: func(
			_ context.Context,
			opts meta.ListOptions,
		) (core.ProjectList, error) {
			require.Equal(t, int64(25), opts.Limit)
			return core.ProjectList{
				Items: []core.Project{
					{
						Name: "acme-corp-external",
					},
				},
			}, nil
		},
	}
	router := newProjectsRouter(service)
	req, err := http.NewRequest(http.MethodGet, "/v2/projects?limit=25", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"kind":"ProjectList"`)
}

func TestProjectListWithInvalidLimit(t *testing.T) {
	service := &mockProjectsService{
		ListFn: func(
			context.Context,
			meta.ListOptions,
		) (core.ProjectList, error) {
			require.Fail(
				t,
				"the service should not have been invoked for an invalid limit",
			)
			return core.ProjectList{}, nil
		},
	}
	router := newProjectsRouter(service)
	req, err := http.NewRequest(http.MethodGet, "/v2/projects?limit=9000", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProjectGet(t *testing.T) {
	service := &mockProjectsService{
		GetFn: func(_ context.Context, id string) (core.Project, error) {
			require.Equal(t, "project-1", id)
			return core.Project{
				ObjectMeta: meta.ObjectMeta{
					ID: id,
				},
				Name: "acme-corp-external",
			}, nil
		},
	}
	router := newProjectsRouter(service)
	req, err := http.NewRequest(http.MethodGet, "/v2/projects/project-1", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"name":"acme-corp-external"`)
}

func TestProjectGetUnauthorized(t *testing.T) {
	service := &mockProjectsService{
		GetFn: func(context.Context, string) (core.Project, error) {
			return core.Project{}, &meta.ErrAuthorization{}
		},
	}
	router := newProjectsRouter(service)
	req, err := http.NewRequest(http.MethodGet, "/v2/projects/project-1", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestProjectUpdate(t *testing.T) {
	service := &mockProjectsService{
		UpdateFn: func(
			_ context.Context,
			project core.Project,
		) (core.Project, error) {
			require.Equal(t, "project-1", project.ID)
			require.Equal(t, "acme-corp-internal", project.Name)
			return project, nil
		},
	}
	router := newProjectsRouter(service)
	req, err := http.NewRequest(
		http.MethodPut,
		"/v2/projects/project-1",
		bytes.NewBufferString(`{"name": "acme-corp-internal"}`),
	)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestProjectRosterOperations(t *testing.T) {
	var calls []string
	record := func(name string) func(
		ctx context.Context,
		projectID string,
		userID string,
	) error {
		return func(_ context.Context, projectID, userID string) error {
			require.Equal(t, "project-1", projectID)
			require.Equal(t, "user-1", userID)
			calls = append(calls, name)
			return nil
		}
	}
	service := &mockProjectsService{
		AddClientFn:       record("addClient"),
		RemoveClientFn:    record("removeClient"),
		AddPentesterFn:    record("addPentester"),
		RemovePentesterFn: record("removePentester"),
	}
	router := newProjectsRouter(service)

	testCases := []struct {
		method string
		target string
	}{
		{http.MethodPut, "/v2/projects/project-1/clients/user-1"},
		{http.MethodDelete, "/v2/projects/project-1/clients/user-1"},
		{http.MethodPut, "/v2/projects/project-1/pentesters/user-1"},
		{http.MethodDelete, "/v2/projects/project-1/pentesters/user-1"},
	}
	for _, testCase := range testCases {
		req, err := http.NewRequest(testCase.method, testCase.target, nil)
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	require.Equal(
		t,
		[]string{"addClient", "removeClient", "addPentester", "removePentester"},
		calls,
	)
}

func TestProjectRosterOperationDenied(t *testing.T) {
	service := &mockProjectsService{
		AddClientFn: func(context.Context, string, string) error {
			return &meta.ErrAuthorization{}
		},
	}
	router := newProjectsRouter(service)
	req, err := http.NewRequest(
		http.MethodPut,
		"/v2/projects/project-1/clients/user-1",
		nil,
	)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestProjectDelete(t *testing.T) {
	deleted := false
	service := &mockProjectsService{
		DeleteFn: func(_ context.Context, id string) error {
			deleted = true
			require.Equal(t, "project-1", id)
			return nil
		},
	}
	router := newProjectsRouter(service)
	req, err := http.NewRequest(
		http.MethodDelete,
		"/v2/projects/project-1",
		nil,
	)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, deleted)
}
