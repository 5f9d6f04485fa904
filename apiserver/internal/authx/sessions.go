package authx

import (
	"context"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
)

const (
	// SessionTTL is how long a session lives in the store without use. Loading
	// a session slides its expiry forward, so only idle sessions lapse.
	SessionTTL = 7 * 24 * time.Hour
	// PendingLoginTTL is how long an OIDC authorization round trip may take
	// before its state lapses.
	PendingLoginTTL = 10 * time.Minute
	// SessionTokenLength is the length of the opaque token handed to clients.
	SessionTokenLength = 64
	// OAuth2StateLength is the length of the opaque state bound to one OIDC
	// authorization round trip.
	OAuth2StateLength = 30
)

// SessionRecord is the stored form of one session. Like Principal, it is a
// tagged union: Type indicates which of the remaining fields are meaningful.
// This is the wire format persisted to the session store; changing a field
// tag invalidates every live session.
type SessionRecord struct {
	// Type discriminates the record's shape.
	Type PrincipalKind `json:"type"`
	// Claims, AccessToken, RefreshToken, and ExpiresAt are set on federated
	// records. ExpiresAt is seconds since the Unix epoch.
	Claims       *IdentityClaims `json:"claims,omitempty"`
	AccessToken  string          `json:"access_token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	ExpiresAt    int64           `json:"expires_at,omitempty"`
	// UserID is set on local records.
	UserID string `json:"userId,omitempty"`
}

// PendingLogin tracks one OIDC authorization round trip that has redirected
// the user to the provider and awaits the provider's callback.
type PendingLogin struct {
	// RoleHint optionally carries a requested role for first-time users. It is
	// recorded only when the server permits role hints.
	RoleHint Role `json:"roleHint,omitempty"`
	// Started indicates when the round trip began.
	Started time.Time `json:"started"`
}

// SerializePrincipal converts a Principal to its stored form.
func SerializePrincipal(principal Principal) (SessionRecord, error) {
	switch principal.Kind {
	case PrincipalKindOIDC:
		claims := principal.Claims
		return SessionRecord{
			Type:         PrincipalKindOIDC,
			Claims:       &claims,
			AccessToken:  principal.AccessToken,
			RefreshToken: principal.RefreshToken,
			ExpiresAt:    principal.ExpiresAt.Unix(),
		}, nil
	case PrincipalKindLocal:
		return SessionRecord{
			Type:   PrincipalKindLocal,
			UserID: principal.UserID,
		}, nil
	}
	return SessionRecord{}, &ErrUnknownPrincipalKind{Kind: principal.Kind}
}

// FindUserFn is the signature of a function for retrieving one user by ID.
type FindUserFn func(ctx context.Context, id string) (User, error)

// DeserializePrincipal converts a stored session record back to a Principal.
// Reconstructing a local principal confirms the referenced user still exists;
// a session whose user is gone fails authentication immediately. Federated
// principals are rebuilt entirely from the record, without I/O.
func DeserializePrincipal(
	ctx context.Context,
	record SessionRecord,
	findUser FindUserFn,
) (Principal, error) {
	switch record.Type {
	case PrincipalKindOIDC:
		if record.Claims == nil {
			return Principal{}, &meta.ErrAuthentication{
				Reason: "The session record is malformed. Please log in again.",
			}
		}
		return NewFederatedPrincipal(
			*record.Claims,
			record.AccessToken,
			record.RefreshToken,
			time.Unix(record.ExpiresAt, 0),
		), nil
	case PrincipalKindLocal:
		user, err := findUser(ctx, record.UserID)
		if err != nil {
			if _, ok := errors.Cause(err).(*meta.ErrNotFound); ok {
				return Principal{}, &meta.ErrAuthentication{
					Reason: "The user bound to the session no longer exists. " +
						"Please log in again.",
				}
			}
			return Principal{}, errors.Wrapf(
				err,
				"error retrieving user %q bound to session",
				record.UserID,
			)
		}
		return NewLocalPrincipal(user.ID), nil
	}
	return Principal{}, &ErrUnknownPrincipalKind{Kind: record.Type}
}

// SessionsStore is an interface for components that manage persistent
// sessions and pending OIDC logins. Implementations key everything by HASHES
// of the opaque values held by clients, so a leaked store yields nothing
// usable.
type SessionsStore interface {
	// Save stores a session record under the hashed session token with the
	// specified time to live, replacing any existing record.
	Save(
		ctx context.Context,
		hashedToken string,
		record SessionRecord,
		ttl time.Duration,
	) error
	// Load retrieves the session record stored under the hashed session token
	// and, on success, slides the record's expiry forward by SessionTTL.
	Load(ctx context.Context, hashedToken string) (SessionRecord, error)
	// Delete removes the session record stored under the hashed session token.
	// Deleting an absent record is not an error.
	Delete(ctx context.Context, hashedToken string) error
	// SavePendingLogin stores a pending OIDC login under the hashed OAuth2
	// state with the specified time to live.
	SavePendingLogin(
		ctx context.Context,
		hashedState string,
		pending PendingLogin,
		ttl time.Duration,
	) error
	// TakePendingLogin retrieves AND removes the pending login stored under
	// the hashed OAuth2 state. Each pending login is redeemable exactly once.
	TakePendingLogin(
		ctx context.Context,
		hashedState string,
	) (PendingLogin, error)
}
