package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/metrics"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/restmachinery"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FindSessionFn is the signature for a function that retrieves the session
// record bound to an opaque session token.
type FindSessionFn func(
	ctx context.Context,
	token string,
) (authx.SessionRecord, error)

// EnsureFreshFn is the signature for a function that refreshes an expired
// Principal's tokens, returning the possibly updated Principal and whether a
// refresh took place.
type EnsureFreshFn func(
	ctx context.Context,
	principal authx.Principal,
) (authx.Principal, bool, error)

// UpdateSessionFn is the signature for a function that replaces the
// Principal bound to an opaque session token.
type UpdateSessionFn func(
	ctx context.Context,
	token string,
	principal authx.Principal,
) error

// DeleteSessionFn is the signature for a function that ends the session
// bound to an opaque session token.
type DeleteSessionFn func(ctx context.Context, token string) error

type sessionAuthFilter struct {
	findSession   FindSessionFn
	findUser      authx.FindUserFn
	ensureFresh   EnsureFreshFn
	updateSession UpdateSessionFn
	deleteSession DeleteSessionFn
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewSessionAuthFilter returns a filter that authenticates requests using
// the session cookie. Requests that pass get the session's Principal and
// token added to their context; requests that don't are rejected outright.
func NewSessionAuthFilter(
	findSession FindSessionFn,
	findUser authx.FindUserFn,
	ensureFresh EnsureFreshFn,
	updateSession UpdateSessionFn,
	deleteSession DeleteSessionFn,
	metrics *metrics.Metrics,
	logger *zap.Logger,
) restmachinery.Filter {
	return &sessionAuthFilter{
		findSession:   findSession,
		findUser:      findUser,
		ensureFresh:   ensureFresh,
		updateSession: updateSession,
		deleteSession: deleteSession,
		metrics:       metrics,
		logger:        logger,
	}
}

func (s *sessionAuthFilter) Decorate(
	handle http.HandlerFunc,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionTokenFromRequest(r)
		if token == "" {
			s.metrics.CountGateRejection(metrics.RejectionNoSession)
			writeResponse(
				s.logger,
				w,
				http.StatusUnauthorized,
				&meta.ErrAuthentication{
					Reason: "The session cookie is missing. Please log in.",
				},
			)
			return
		}

		record, err := s.findSession(r.Context(), token)
		if err != nil {
			if _, ok := errors.Cause(err).(*meta.ErrNotFound); ok {
				s.metrics.CountGateRejection(metrics.RejectionNoSession)
				writeResponse(
					s.logger,
					w,
					http.StatusUnauthorized,
					&meta.ErrAuthentication{
						Reason: "Session not found. Please log in again.",
					},
				)
				return
			}
			s.logger.Error("error retrieving session", zap.Error(err))
			writeResponse(
				s.logger,
				w,
				http.StatusInternalServerError,
				&meta.ErrInternalServer{},
			)
			return
		}

		principal, err := authx.DeserializePrincipal(
			r.Context(),
			record,
			s.findUser,
		)
		if err != nil {
			switch typedErr := errors.Cause(err).(type) {
			case *meta.ErrAuthentication:
				// The session is bound to a user that no longer exists or is
				// otherwise beyond repair. It has nothing left to offer anyone.
				if err := s.deleteSession(r.Context(), token); err != nil {
					s.logger.Error("error deleting dead session", zap.Error(err))
				}
				s.metrics.CountGateRejection(metrics.RejectionUserNotFound)
				writeResponse(s.logger, w, http.StatusUnauthorized, typedErr)
			case *authx.ErrUnknownPrincipalKind:
				s.logger.Error(
					"session record has unknown principal kind",
					zap.String("kind", string(typedErr.Kind)),
				)
				writeResponse(
					s.logger,
					w,
					http.StatusInternalServerError,
					&meta.ErrInternalServer{},
				)
			default:
				s.logger.Error("error deserializing principal", zap.Error(err))
				writeResponse(
					s.logger,
					w,
					http.StatusInternalServerError,
					&meta.ErrInternalServer{},
				)
			}
			return
		}

		fresh, refreshed, err := s.ensureFresh(r.Context(), principal)
		if err != nil {
			// A session with no refresh token never reaches the provider, so it
			// doesn't count as a refresh attempt.
			if _, ok := errors.Cause(err).(*authx.ErrNoRefreshToken); ok {
				s.metrics.CountGateRejection(metrics.RejectionSessionExpired)
				if err := s.deleteSession(r.Context(), token); err != nil {
					s.logger.Error("error deleting expired session", zap.Error(err))
				}
				writeResponse(
					s.logger,
					w,
					http.StatusUnauthorized,
					&meta.ErrAuthentication{Reason: errors.Cause(err).Error()},
				)
				return
			}
			s.metrics.CountTokenRefresh(metrics.OutcomeFailure)
			s.metrics.CountGateRejection(metrics.RejectionRefreshFailed)
			if _, ok := errors.Cause(err).(*meta.ErrAuthentication); ok {
				if err := s.deleteSession(r.Context(), token); err != nil {
					s.logger.Error("error deleting expired session", zap.Error(err))
				}
				writeResponse(s.logger, w, http.StatusUnauthorized, errors.Cause(err))
				return
			}
			s.logger.Error("error refreshing session tokens", zap.Error(err))
			writeResponse(
				s.logger,
				w,
				http.StatusInternalServerError,
				&meta.ErrInternalServer{},
			)
			return
		}
		if refreshed {
			s.metrics.CountTokenRefresh(metrics.OutcomeSuccess)
			// The refreshed tokens must be persisted even if this request is
			// abandoned mid-flight. A failed write leaves the old record in
			// place and the next request simply refreshes again.
			if err := s.updateSession(
				context.WithoutCancel(r.Context()),
				token,
				fresh,
			); err != nil {
				s.logger.Warn(
					"error persisting refreshed session tokens",
					zap.Error(err),
				)
			}
		}

		ctx := authx.ContextWithPrincipal(r.Context(), fresh)
		ctx = authx.ContextWithSessionToken(ctx, token)
		handle(w, r.WithContext(ctx))
	}
}

func writeResponse(
	logger *zap.Logger,
	w http.ResponseWriter,
	statusCode int,
	response interface{},
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	responseBody, ok := response.([]byte)
	if !ok {
		var err error
		if responseBody, err = json.Marshal(response); err != nil {
			logger.Error("error marshaling response body", zap.Error(err))
		}
	}
	if _, err := w.Write(responseBody); err != nil {
		logger.Error("error writing response body", zap.Error(err))
	}
}
