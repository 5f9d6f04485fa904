package rest

import (
	"net/http"

	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/metrics"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/restmachinery"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type roleFilter struct {
	resolveUser  authx.ResolveUserFn
	metrics      *metrics.Metrics
	logger       *zap.Logger
	allowedRoles []authx.Role
}

// NewRoleFilter returns a filter that resolves the authenticated Principal
// to a User and rejects the request unless that User is active and holds one
// of the specified roles. With no roles specified, any active User passes.
// Requests that pass get the resolved User added to their context.
func NewRoleFilter(
	resolveUser authx.ResolveUserFn,
	metrics *metrics.Metrics,
	logger *zap.Logger,
	allowedRoles ...authx.Role,
) restmachinery.Filter {
	return &roleFilter{
		resolveUser:  resolveUser,
		metrics:      metrics,
		logger:       logger,
		allowedRoles: allowedRoles,
	}
}

func (f *roleFilter) Decorate(handle http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := authx.PrincipalFromContext(r.Context())
		if !ok {
			f.metrics.CountGateRejection(metrics.RejectionNoSession)
			writeResponse(
				f.logger,
				w,
				http.StatusUnauthorized,
				&meta.ErrAuthentication{
					Reason: "The request has not been authenticated.",
				},
			)
			return
		}

		user, err := f.resolveUser(r.Context(), principal)
		if err != nil {
			switch typedErr := errors.Cause(err).(type) {
			case *meta.ErrNotFound:
				f.metrics.CountGateRejection(metrics.RejectionUserNotFound)
				writeResponse(
					f.logger,
					w,
					http.StatusUnauthorized,
					&meta.ErrAuthentication{
						Reason: "No user account is associated with this session. " +
							"Please log in again.",
					},
				)
			case *authx.ErrUnknownPrincipalKind:
				f.logger.Error(
					"principal has unknown kind",
					zap.String("kind", string(typedErr.Kind)),
				)
				writeResponse(
					f.logger,
					w,
					http.StatusInternalServerError,
					&meta.ErrInternalServer{},
				)
			default:
				f.logger.Error("error resolving user", zap.Error(err))
				writeResponse(
					f.logger,
					w,
					http.StatusInternalServerError,
					&meta.ErrInternalServer{},
				)
			}
			return
		}

		if !user.Active {
			f.metrics.CountGateRejection(metrics.RejectionInactive)
			writeResponse(
				f.logger,
				w,
				http.StatusForbidden,
				&meta.ErrAuthorization{},
			)
			return
		}

		if len(f.allowedRoles) > 0 {
			allowed := false
			for _, role := range f.allowedRoles {
				if user.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				f.metrics.CountGateRejection(metrics.RejectionForbidden)
				writeResponse(
					f.logger,
					w,
					http.StatusForbidden,
					&meta.ErrAuthorization{},
				)
				return
			}
		}

		ctx := authx.ContextWithUser(r.Context(), user)
		handle(w, r.WithContext(ctx))
	}
}
