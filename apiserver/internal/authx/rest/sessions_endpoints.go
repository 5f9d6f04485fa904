package rest

import (
	"net/http"

	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/restmachinery"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

type localLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionsEndpoints struct {
	*restmachinery.BaseEndpoints
	authFilter             restmachinery.Filter
	userFilter             restmachinery.Filter
	localLoginSchemaLoader gojsonschema.JSONLoader
	service                authx.SessionsService
	secureCookies          bool
}

// NewSessionsEndpoints returns a collection of REST API endpoints that carry
// out the login flows and end, or describe, established sessions.
func NewSessionsEndpoints(
	baseEndpoints *restmachinery.BaseEndpoints,
	authFilter restmachinery.Filter,
	userFilter restmachinery.Filter,
	service authx.SessionsService,
	secureCookies bool,
) restmachinery.Endpoints {
	return &sessionsEndpoints{
		BaseEndpoints: baseEndpoints,
		authFilter:    authFilter,
		userFilter:    userFilter,
		localLoginSchemaLoader: gojsonschema.NewStringLoader(
			localLoginSchema,
		),
		service:       service,
		secureCookies: secureCookies,
	}
}

func (s *sessionsEndpoints) Register(router *mux.Router) {
	// Log in with local credentials
	router.HandleFunc(
		"/local-login",
		s.localLogin, // No filters applied to this request
	).Methods(http.MethodPost)

	// Begin an OpenID Connect login
	router.HandleFunc(
		"/login",
		s.startLogin, // No filters applied to this request
	).Methods(http.MethodGet)

	// Begin an OpenID Connect login with a role hint
	router.HandleFunc(
		"/login/{role}",
		s.startLogin, // No filters applied to this request
	).Methods(http.MethodGet)

	// OpenID Connect callback
	router.HandleFunc(
		"/callback",
		s.callback, // No filters applied to this request
	).Methods(http.MethodGet)

	// Log out
	router.HandleFunc(
		"/logout",
		s.logout, // No filters applied to this request
	).Methods(http.MethodGet)

	// Describe the current session's user
	router.HandleFunc(
		"/v2/session",
		s.authFilter.Decorate(s.userFilter.Decorate(s.whoami)),
	).Methods(http.MethodGet)
}

func (s *sessionsEndpoints) localLogin(w http.ResponseWriter, r *http.Request) {
	login := localLoginRequest{}
	s.ServeRequest(
		restmachinery.InboundRequest{
			W:                   w,
			R:                   r,
			ReqBodySchemaLoader: s.localLoginSchemaLoader,
			ReqBodyObj:          &login,
			EndpointLogic: func() (interface{}, error) {
				token, user, err := s.service.LoginLocal(
					r.Context(),
					login.Username,
					login.Password,
				)
				if err != nil {
					return nil, err
				}
				setSessionCookie(w, token, s.secureCookies)
				return user, nil
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (s *sessionsEndpoints) startLogin(w http.ResponseWriter, r *http.Request) {
	roleHint := authx.Role(mux.Vars(r)["role"])
	authCodeURL, err := s.service.StartLogin(r.Context(), roleHint)
	if err != nil {
		s.ServeHumanRequest(restmachinery.HumanRequest{
			W: w,
			EndpointLogic: func() (interface{}, error) {
				return nil, err
			},
		})
		return
	}
	http.Redirect(w, r, authCodeURL, http.StatusFound)
}

func (s *sessionsEndpoints) callback(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close() // nolint: errcheck

	oauth2State := r.URL.Query().Get("state")
	oidcCode := r.URL.Query().Get("code")
	if oauth2State == "" || oidcCode == "" {
		s.ServeHumanRequest(restmachinery.HumanRequest{
			W: w,
			EndpointLogic: func() (interface{}, error) {
				return nil, &meta.ErrBadRequest{
					Reason: `The OpenID Connect callback request lacked one or ` +
						`both of the "state" and "code" query parameters.`,
				}
			},
		})
		return
	}

	token, _, err := s.service.CompleteLogin(r.Context(), oauth2State, oidcCode)
	if err != nil {
		s.ServeHumanRequest(restmachinery.HumanRequest{
			W: w,
			EndpointLogic: func() (interface{}, error) {
				return nil, err
			},
		})
		return
	}
	setSessionCookie(w, token, s.secureCookies)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *sessionsEndpoints) logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionTokenFromRequest(r); token != "" {
		if err := s.service.Logout(r.Context(), token); err != nil {
			s.Logger.Error("error ending session", zap.Error(err))
		}
	}
	clearSessionCookie(w, s.secureCookies)
	redirectURL := s.service.EndSessionURL(r.Context())
	if redirectURL == "" {
		redirectURL = "/"
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (s *sessionsEndpoints) whoami(w http.ResponseWriter, r *http.Request) {
	s.ServeRequest(
		restmachinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				user, ok := authx.UserFromContext(r.Context())
				if !ok {
					return nil, errors.New(
						"error: request authenticated, but no user found in request " +
							"context",
					)
				}
				return user, nil
			},
			SuccessCode: http.StatusOK,
		},
	)
}
