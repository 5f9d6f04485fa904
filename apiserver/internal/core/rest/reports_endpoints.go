package rest

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/H420Prajyot/Matrix/apiserver/internal/core"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/restmachinery"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type reportsEndpoints struct {
	*restmachinery.BaseEndpoints
	authFilter restmachinery.Filter
	userFilter restmachinery.Filter
	service    core.ReportsService
}

// NewReportsEndpoints returns a collection of REST API endpoints for managing
// report documents. Routes require an authenticated, active User; the service
// decides per Project who may see or change what.
func NewReportsEndpoints(
	baseEndpoints *restmachinery.BaseEndpoints,
	authFilter restmachinery.Filter,
	userFilter restmachinery.Filter,
	service core.ReportsService,
) restmachinery.Endpoints {
	return &reportsEndpoints{
		BaseEndpoints: baseEndpoints,
		authFilter:    authFilter,
		userFilter:    userFilter,
		service:       service,
	}
}

func (re *reportsEndpoints) decorate(
	handle http.HandlerFunc,
) http.HandlerFunc {
	return re.authFilter.Decorate(re.userFilter.Decorate(handle))
}

func (re *reportsEndpoints) Register(router *mux.Router) {
	// Upload report document
	router.HandleFunc(
		"/v2/projects/{projectID}/reports",
		re.decorate(re.upload),
	).Methods(http.MethodPost)

	// List reports
	router.HandleFunc(
		"/v2/projects/{projectID}/reports",
		re.decorate(re.list),
	).Methods(http.MethodGet)

	// Get report metadata
	router.HandleFunc(
		"/v2/reports/{id}",
		re.decorate(re.get),
	).Methods(http.MethodGet)

	// Download report document
	router.HandleFunc(
		"/v2/reports/{id}/content",
		re.decorate(re.download),
	).Methods(http.MethodGet)

	// Delete report
	router.HandleFunc(
		"/v2/reports/{id}",
		re.decorate(re.delete),
	).Methods(http.MethodDelete)
}

// upload reads the report document straight from the request body. Metadata
// rides along as query parameters and headers so the document itself never
// needs to be wrapped in an envelope.
func (re *reportsEndpoints) upload(w http.ResponseWriter, r *http.Request) {
	re.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				defer r.Body.Close() // nolint: errcheck
				return re.service.Upload(
					r.Context(),
					mux.Vars(r)["projectID"],
					r.URL.Query().Get("title"),
					r.URL.Query().Get("filename"),
					r.Header.Get("Content-Type"),
					r.ContentLength,
					r.Body,
				)
			},
			SuccessCode: http.StatusCreated,
		},
	)
}

func (re *reportsEndpoints) list(w http.ResponseWriter, r *http.Request) {
	selector := core.ReportsSelector{
		ProjectID: mux.Vars(r)["projectID"],
	}
	opts := meta.ListOptions{
		Continue: r.URL.Query().Get("continue"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		if opts.Limit, err = strconv.ParseInt(limitStr, 10, 64); err != nil ||
			opts.Limit < 1 || opts.Limit > 100 {
			re.WriteAPIResponse(
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
	re.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return re.service.List(r.Context(), selector, opts)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (re *reportsEndpoints) get(w http.ResponseWriter, r *http.Request) {
	re.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return re.service.Get(r.Context(), mux.Vars(r)["id"])
			},
			SuccessCode: http.StatusOK,
		},
	)
}

// download streams the stored document back to the client. The response is
// the document itself rather than JSON, so errors are mapped here instead of
// going through ServeRequest.
func (re *reportsEndpoints) download(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	report, body, err := re.service.Open(r.Context(), id)
	if err != nil {
		switch e := errors.Cause(err).(type) {
		case *meta.ErrAuthorization:
			re.WriteAPIResponse(w, http.StatusForbidden, e)
		case *meta.ErrNotFound:
			re.WriteAPIResponse(w, http.StatusNotFound, e)
		default:
			re.Logger.Error(
				"error opening report document",
				zap.String("report", id),
				zap.Error(err),
			)
			re.WriteAPIResponse(
				w,
				http.StatusInternalServerError,
				&meta.ErrInternalServer{},
			)
		}
		return
	}
	defer body.Close() // nolint: errcheck

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", report.Filename),
	)
	if report.SizeBytes > 0 {
		w.Header().Set(
			"Content-Length",
			strconv.FormatInt(report.SizeBytes, 10),
		)
	}
	if _, err = io.Copy(w, body); err != nil {
		re.Logger.Error(
			"error streaming report document",
			zap.String("report", id),
			zap.Error(err),
		)
	}
}

func (re *reportsEndpoints) delete(w http.ResponseWriter, r *http.Request) {
	re.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return nil, re.service.Delete(r.Context(), mux.Vars(r)["id"])
			},
			SuccessCode: http.StatusOK,
		},
	)
}
