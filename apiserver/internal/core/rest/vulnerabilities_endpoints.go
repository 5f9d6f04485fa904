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

type vulnerabilityCreateRequest struct {
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	Severity    core.VulnerabilitySeverity `json:"severity"`
	Status      core.VulnerabilityStatus   `json:"status"`
	CVSS        float64                    `json:"cvss"`
	CVE         string                     `json:"cve"`
}

type vulnerabilityUpdateRequest struct {
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	Severity    core.VulnerabilitySeverity `json:"severity"`
	CVSS        float64                    `json:"cvss"`
	CVE         string                     `json:"cve"`
}

type vulnerabilityStatusRequest struct {
	Status core.VulnerabilityStatus `json:"status"`
}

type vulnerabilitiesEndpoints struct {
	*restmachinery.BaseEndpoints
	authFilter         restmachinery.Filter
	userFilter         restmachinery.Filter
	createSchemaLoader gojsonschema.JSONLoader
	updateSchemaLoader gojsonschema.JSONLoader
	statusSchemaLoader gojsonschema.JSONLoader
	service            core.VulnerabilitiesService
}

// NewVulnerabilitiesEndpoints returns a collection of REST API endpoints for
// managing findings. Routes require an authenticated, active User; the service
// decides per Project who may see or change what.
func NewVulnerabilitiesEndpoints(
	baseEndpoints *restmachinery.BaseEndpoints,
	authFilter restmachinery.Filter,
	userFilter restmachinery.Filter,
	service core.VulnerabilitiesService,
) restmachinery.Endpoints {
	return &vulnerabilitiesEndpoints{
		BaseEndpoints:      baseEndpoints,
		authFilter:         authFilter,
		userFilter:         userFilter,
		createSchemaLoader: gojsonschema.NewStringLoader(vulnerabilityCreateSchema),
		updateSchemaLoader: gojsonschema.NewStringLoader(vulnerabilityUpdateSchema),
		statusSchemaLoader: gojsonschema.NewStringLoader(vulnerabilityStatusSchema),
		service:            service,
	}
}

func (v *vulnerabilitiesEndpoints) decorate(
	handle http.HandlerFunc,
) http.HandlerFunc {
	return v.authFilter.Decorate(v.userFilter.Decorate(handle))
}

func (v *vulnerabilitiesEndpoints) Register(router *mux.Router) {
	// Record finding
	router.HandleFunc(
		"/v2/projects/{projectID}/vulnerabilities",
		v.decorate(v.create),
	).Methods(http.MethodPost)

	// List findings
	router.HandleFunc(
		"/v2/projects/{projectID}/vulnerabilities",
		v.decorate(v.list),
	).Methods(http.MethodGet)

	// Get finding
	router.HandleFunc(
		"/v2/vulnerabilities/{id}",
		v.decorate(v.get),
	).Methods(http.MethodGet)

	// Update finding
	router.HandleFunc(
		"/v2/vulnerabilities/{id}",
		v.decorate(v.update),
	).Methods(http.MethodPut)

	// Change finding status
	router.HandleFunc(
		"/v2/vulnerabilities/{id}/status",
		v.decorate(v.updateStatus),
	).Methods(http.MethodPut)

	// Delete finding
	router.HandleFunc(
		"/v2/vulnerabilities/{id}",
		v.decorate(v.delete),
	).Methods(http.MethodDelete)
}

func (v *vulnerabilitiesEndpoints) create(
	w http.ResponseWriter,
	r *http.Request,
) {
	req := vulnerabilityCreateRequest{}
	v.ServeRequest(
		restmachinery.InboundRequest{
			W:                   w,
			R:                   r,
			ReqBodySchemaLoader: v.createSchemaLoader,
			ReqBodyObj:          &req,
			EndpointLogic: func() (interface{}, error) {
				return v.service.Create(
					r.Context(),
					core.Vulnerability{
						ProjectID:   mux.Vars(r)["projectID"],
						Title:       req.Title,
						Description: req.Description,
						Severity:    req.Severity,
						Status:      req.Status,
						CVSS:        req.CVSS,
						CVE:         req.CVE,
					},
				)
			},
			SuccessCode: http.StatusCreated,
		},
	)
}

func (v *vulnerabilitiesEndpoints) list(
	w http.ResponseWriter,
	r *http.Request,
) {
	selector := core.VulnerabilitiesSelector{
		ProjectID: mux.Vars(r)["projectID"],
		Severity: core.VulnerabilitySeverity(
			r.URL.Query().Get("severity"),
		),
		Status: core.VulnerabilityStatus(r.URL.Query().Get("status")),
	}
	opts := meta.ListOptions{
		Continue: r.URL.Query().Get("continue"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		if opts.Limit, err = strconv.ParseInt(limitStr, 10, 64); err != nil ||
			opts.Limit < 1 || opts.Limit > 100 {
			v.WriteAPIResponse(
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
	v.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return v.service.List(r.Context(), selector, opts)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (v *vulnerabilitiesEndpoints) get(
	w http.ResponseWriter,
	r *http.Request,
) {
	v.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return v.service.Get(r.Context(), mux.Vars(r)["id"])
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (v *vulnerabilitiesEndpoints) update(
	w http.ResponseWriter,
	r *http.Request,
) {
	req := vulnerabilityUpdateRequest{}
	v.ServeRequest(
		restmachinery.InboundRequest{
			W:                   w,
			R:                   r,
			ReqBodySchemaLoader: v.updateSchemaLoader,
			ReqBodyObj:          &req,
			EndpointLogic: func() (interface{}, error) {
				return v.service.Update(
					r.Context(),
					core.Vulnerability{
						ObjectMeta: meta.ObjectMeta{
							ID: mux.Vars(r)["id"],
						},
						Title:       req.Title,
						Description: req.Description,
						Severity:    req.Severity,
						CVSS:        req.CVSS,
						CVE:         req.CVE,
					},
				)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (v *vulnerabilitiesEndpoints) updateStatus(
	w http.ResponseWriter,
	r *http.Request,
) {
	req := vulnerabilityStatusRequest{}
	v.ServeRequest(
		restmachinery.InboundRequest{
			W:                   w,
			R:                   r,
			ReqBodySchemaLoader: v.statusSchemaLoader,
			ReqBodyObj:          &req,
			EndpointLogic: func() (interface{}, error) {
				return nil, v.service.UpdateStatus(
					r.Context(),
					mux.Vars(r)["id"],
					req.Status,
				)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (v *vulnerabilitiesEndpoints) delete(
	w http.ResponseWriter,
	r *http.Request,
) {
	v.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return nil, v.service.Delete(r.Context(), mux.Vars(r)["id"])
			},
			SuccessCode: http.StatusOK,
		},
	)
}
