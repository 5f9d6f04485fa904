package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/restmachinery"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/gorilla/mux"
	"github.com/xeipuuv/gojsonschema"
)

type userCreateRequest struct {
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	Role      authx.Role `json:"role"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
}

type userUpdateRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Picture   string `json:"picture"`
}

type userRoleRequest struct {
	Role authx.Role `json:"role"`
}

type usersEndpoints struct {
	*restmachinery.BaseEndpoints
	authFilter             restmachinery.Filter
	adminFilter            restmachinery.Filter
	userCreateSchemaLoader gojsonschema.JSONLoader
	userUpdateSchemaLoader gojsonschema.JSONLoader
	userRoleSchemaLoader   gojsonschema.JSONLoader
	service                authx.UsersService
}

// NewUsersEndpoints returns a collection of REST API endpoints for managing
// Users. Every route is restricted to admins.
func NewUsersEndpoints(
	baseEndpoints *restmachinery.BaseEndpoints,
	authFilter restmachinery.Filter,
	adminFilter restmachinery.Filter,
	service authx.UsersService,
) restmachinery.Endpoints {
	return &usersEndpoints{
		BaseEndpoints:          baseEndpoints,
		authFilter:             authFilter,
		adminFilter:            adminFilter,
		userCreateSchemaLoader: gojsonschema.NewStringLoader(userCreateSchema),
		userUpdateSchemaLoader: gojsonschema.NewStringLoader(userUpdateSchema),
		userRoleSchemaLoader:   gojsonschema.NewStringLoader(userRoleSchema),
		service:                service,
	}
}

func (u *usersEndpoints) decorate(handle http.HandlerFunc) http.HandlerFunc {
	return u.authFilter.Decorate(u.adminFilter.Decorate(handle))
}

func (u *usersEndpoints) Register(router *mux.Router) {
	// Create user
	router.HandleFunc(
		"/v2/users",
		u.decorate(u.create),
	).Methods(http.MethodPost)

	// List users
	router.HandleFunc(
		"/v2/users",
		u.decorate(u.list),
	).Methods(http.MethodGet)

	// Get user
	router.HandleFunc(
		"/v2/users/{id}",
		u.decorate(u.get),
	).Methods(http.MethodGet)

	// Update user profile
	router.HandleFunc(
		"/v2/users/{id}",
		u.decorate(u.update),
	).Methods(http.MethodPut)

	// Reassign user role
	router.HandleFunc(
		"/v2/users/{id}/role",
		u.decorate(u.updateRole),
	).Methods(http.MethodPut)

	// Deactivate user
	router.HandleFunc(
		"/v2/users/{id}/deactivation",
		u.decorate(u.deactivate),
	).Methods(http.MethodPut)

	// Reactivate user
	router.HandleFunc(
		"/v2/users/{id}/deactivation",
		u.decorate(u.activate),
	).Methods(http.MethodDelete)

	// Delete user
	router.HandleFunc(
		"/v2/users/{id}",
		u.decorate(u.delete),
	).Methods(http.MethodDelete)
}

func (u *usersEndpoints) create(w http.ResponseWriter, r *http.Request) {
	req := userCreateRequest{}
	u.ServeRequest(
		restmachinery.InboundRequest{
			W:                   w,
			R:                   r,
			ReqBodySchemaLoader: u.userCreateSchemaLoader,
			ReqBodyObj:          &req,
			EndpointLogic: func() (interface{}, error) {
				return u.service.Create(
					r.Context(),
					authx.User{
						Username:  req.Username,
						Role:      req.Role,
						Email:     req.Email,
						FirstName: req.FirstName,
						LastName:  req.LastName,
					},
					req.Password,
				)
			},
			SuccessCode: http.StatusCreated,
		},
	)
}

func (u *usersEndpoints) list(w http.ResponseWriter, r *http.Request) {
	opts := meta.ListOptions{
		Continue: r.URL.Query().Get("continue"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		if opts.Limit, err = strconv.ParseInt(limitStr, 10, 64); err != nil ||
			opts.Limit < 1 || opts.Limit > 100 {
			u.WriteAPIResponse(
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
	u.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return u.service.List(r.Context(), opts)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (u *usersEndpoints) get(w http.ResponseWriter, r *http.Request) {
	u.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return u.service.Get(r.Context(), mux.Vars(r)["id"])
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (u *usersEndpoints) update(w http.ResponseWriter, r *http.Request) {
	req := userUpdateRequest{}
	u.ServeRequest(
		restmachinery.InboundRequest{
			W:                   w,
			R:                   r,
			ReqBodySchemaLoader: u.userUpdateSchemaLoader,
			ReqBodyObj:          &req,
			EndpointLogic: func() (interface{}, error) {
				return u.service.Update(
					r.Context(),
					authx.User{
						ObjectMeta: meta.ObjectMeta{
							ID: mux.Vars(r)["id"],
						},
						Email:     req.Email,
						FirstName: req.FirstName,
						LastName:  req.LastName,
						Picture:   req.Picture,
					},
				)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (u *usersEndpoints) updateRole(w http.ResponseWriter, r *http.Request) {
	req := userRoleRequest{}
	u.ServeRequest(
		restmachinery.InboundRequest{
			W:                   w,
			R:                   r,
			ReqBodySchemaLoader: u.userRoleSchemaLoader,
			ReqBodyObj:          &req,
			EndpointLogic: func() (interface{}, error) {
				return nil,
					u.service.UpdateRole(r.Context(), mux.Vars(r)["id"], req.Role)
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (u *usersEndpoints) deactivate(w http.ResponseWriter, r *http.Request) {
	u.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return nil, u.service.Deactivate(r.Context(), mux.Vars(r)["id"])
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (u *usersEndpoints) activate(w http.ResponseWriter, r *http.Request) {
	u.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return nil, u.service.Activate(r.Context(), mux.Vars(r)["id"])
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (u *usersEndpoints) delete(w http.ResponseWriter, r *http.Request) {
	u.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				return nil, u.service.Delete(r.Context(), mux.Vars(r)["id"])
			},
			SuccessCode: http.StatusOK,
		},
	)
}
