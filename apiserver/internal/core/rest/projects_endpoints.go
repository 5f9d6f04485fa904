package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/H420Prajyot/Matrix/apiserver/internal/core"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/restmachinery"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/gorilla/mux"
	"github.com/xeipuuv/gojsonschema"
)

type projectCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type projectsEndpoints struct {
	*restmachinery.BaseEndpoints
	authFilter                restmachinery.Filter
	userFilter                restmachinery.Filter
	projectCreateSchemaLoader gojsonschema.JSONLoader
	projectUpdateSchemaLoader gojsonschema.JSONLoader
	service                   core.ProjectsService
}

// NewProjectsEndpoints returns a collection of REST API endpoints for managing
// Projects. Routes require an authenticated, active User; the service decides
// per Project who may see or change what.
func NewProjectsEndpoints(
	baseEndpoints *restmachinery.BaseEndpoints,
	authFilter restmachinery.Filter,
	userFilter restmachinery.Filter,
	service core.ProjectsService,
) restmachinery.Endpoints {
	return &projectsEndpoints{
		BaseEndpoints:             baseEndpoints,
		authFilter:                authFilter,
		userFilter:                userFilter,
		projectCreateSchemaLoader: gojsonschema.NewStringLoader(projectCreateSchema),
		projectUpdateSchemaLoader: gojsonschema.NewStringLoader(projectUpdateSchema),
		service:                   service,
	}
}

func (p *projectsEndpoints) decorate(handle http.HandlerFunc) http.HandlerFunc {
	return p.authFilter.Decorate(p.userFilter.Decorate(handle))
}

func (p *projectsEndpoints) Register(router *mux.Router) {
	// Create project
	router.HandleFunc(
		"/v2/projects",
		p.decorate(p.create),
	).Methods(http.MethodPost)

	// List projects
	router.HandleFunc(
		"/v2/projects",
		p.decorate(p.list),
	).Methods(http.MethodGet)

	// Get project
	router.HandleFunc(
		"/v2/projects/{id}",
		p.decorate(p.get),
	).Methods(http.MethodGet)

	// Update project
	router.HandleFunc(
		"/v2/projects/{id}",
		p.decorate(p.update),
	).Methods(http.MethodPut)

	// Add client to project
	router.HandleFunc(
		"/v2/projects/{id}/clients/{userID}",
		p.decorate(p.addClient),
	).Methods(http.MethodPut)

	// Remove client from project
	router.HandleFunc(
		"/v2/projects/{id}/clients/{userID}",
		p.decorate(p.removeClient),
	).Methods(http.MethodDelete)

	// Add pentester to project
	router.HandleFunc(
		"/v2/projects/{id}/pentesters/{userID}",
		p.decorate(p.addPentester),
	).Methods(http.MethodPut)

	// Remove pentester from project
	router.HandleFunc(
		"/v2/projects/{id}/pentesters/{userID}",
		p.decorate(p.removePentester),
	).Methods(http.MethodDelete)

	// Delete project
	router.HandleFunc(
		"/v2/projects/{id}",
		p.decorate(p.delete),
	).Methods(http.MethodDelete)
}

func (p *projectsEndpoints) create(w http.ResponseWriter, r *http.Request) {
	req := projectCreateRequest{}
	p.ServeRequest(
		restmachinery.InboundRequest{
			W:                   w,
			R:                   r,
			ReqBodySchemaLoader: p.projectCreateSchemaLoader,
			ReqBodyObj:          &req,
			EndpointLogic: func() (interface{}, error) {
				return p.service.Create(
					r.Context(),
					core.Project{
						Name:        req.Name,
						Description: req.Description,
					},
				)
			},
			SuccessCode: http.StatusCreated,
		},
	)
}

func (p *projectsEndpoints) list(w http.ResponseWriter, r *http.Request) {
	opts := meta.ListOptions{
		Continue: r.URL.Query().Get("continue"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		if opts.Limit, err = strconv.ParseInt(limitStr, 10, 64); err != nil ||
			opts.Limit < 1 || opts.Limit > 100 {
			p.WriteAPIResponse(
				w,
				http.StatusBadRequest,
				&meta.ErrBadRequest{
					Reason: fmt.Sprintf(
						`Invalid value %q for "limit" query parameter`,
						limitStr,
					),
				},
			)
			return
		}
	}
	p.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return p.service.List(r.Context(), opts)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (p *projectsEndpoints) get(w http.ResponseWriter, r *http.Request) {
	p.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return p.service.Get(r.Context(), mux.Vars(r)["id"])
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (p *projectsEndpoints) update(w http.ResponseWriter, r *http.Request) {
	req := projectCreateRequest{}
	p.ServeRequest(
		restmachinery.InboundRequest{
			W:                   w,
			R:                   r,
			ReqBodySchemaLoader: p.projectUpdateSchemaLoader,
			ReqBodyObj:          &req,
			EndpointLogic: func() (interface{}, error) {
				return p.service.Update(
					r.Context(),
					core.Project{
						ObjectMeta: meta.ObjectMeta{
							ID: mux.Vars(r)["id"],
						},
						Name:        req.Name,
						Description: req.Description,
					},
				)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (p *projectsEndpoints) addClient(w http.ResponseWriter, r *http.Request) {
	p.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return nil, p.service.AddClient(
					r.Context(),
					mux.Vars(r)["id"],
					mux.Vars(r)["userID"],
				)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (p *projectsEndpoints) removeClient(
	w http.ResponseWriter,
	r *http.Request,
) {
	p.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return nil, p.service.RemoveClient(
					r.Context(),
					mux.Vars(r)["id"],
					mux.Vars(r)["userID"],
				)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (p *projectsEndpoints) addPentester(
	w http.ResponseWriter,
	r *http.Request,
) {
	p.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return nil, p.service.AddPentester(
					r.Context(),
					mux.Vars(r)["id"],
					mux.Vars(r)["userID"],
				)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (p *projectsEndpoints) removePentester(
	w http.ResponseWriter,
	r *http.Request,
) {
	p.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return nil, p.service.RemovePentester(
					r.Context(),
					mux.Vars(r)["id"],
					mux.Vars(r)["userID"],
				)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (p *projectsEndpoints) delete(w http.ResponseWriter, r *http.Request) {
	p.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return nil, p.service.Delete(r.Context(), mux.Vars(r)["id"])
			},
			SuccessCode: http.StatusOK,
		},
	)
}
