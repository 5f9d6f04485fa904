package authx

import (
	"context"
	"fmt"
	"time"
)

// PrincipalKind is a type whose values disambiguate the two sanctioned shapes
// of a Principal. The kind is assigned once, at construction, and is the ONLY
// discriminator consulted anywhere a Principal's shape matters. It is never
// inferred from which fields happen to be populated.
type PrincipalKind string

const (
	// PrincipalKindOIDC identifies a principal authenticated by an external
	// OpenID Connect identity provider.
	PrincipalKindOIDC PrincipalKind = "oidc"
	// PrincipalKindLocal identifies a principal authenticated with a local
	// username and password.
	PrincipalKindLocal PrincipalKind = "local"
)

// IdentityClaims is the subset of OpenID Connect identity token claims that
// Matrix retains. Field tags match standard claim names so a verified token's
// claims unmarshal directly into this type.
type IdentityClaims struct {
	Subject    string `json:"sub" bson:"sub"`
	Email      string `json:"email,omitempty" bson:"email,omitempty"`
	GivenName  string `json:"given_name,omitempty" bson:"givenName,omitempty"`
	FamilyName string `json:"family_name,omitempty" bson:"familyName,omitempty"` // nolint: lll
	Picture    string `json:"picture,omitempty" bson:"picture,omitempty"`
}

// Principal represents an authenticated caller for the duration of one
// request. It is a tagged union: Kind indicates which of the remaining fields
// are meaningful. Use NewFederatedPrincipal and NewLocalPrincipal; they are
// the only two sanctioned construction paths.
type Principal struct {
	// Kind discriminates the principal's shape.
	Kind PrincipalKind
	// Claims carries the verified identity claims of a federated principal.
	Claims IdentityClaims
	// AccessToken is the provider-issued access token of a federated
	// principal.
	AccessToken string
	// RefreshToken is the provider-issued refresh token of a federated
	// principal, when the provider granted one.
	RefreshToken string
	// ExpiresAt indicates when a federated principal's credentials lapse.
	ExpiresAt time.Time
	// UserID identifies the local account of a local principal.
	UserID string
}

// NewFederatedPrincipal returns a Principal representing a caller whose
// identity was verified by the OpenID Connect provider.
func NewFederatedPrincipal(
	claims IdentityClaims,
	accessToken string,
	refreshToken string,
	expiresAt time.Time,
) Principal {
	return Principal{
		Kind:         PrincipalKindOIDC,
		Claims:       claims,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}
}

// NewLocalPrincipal returns a Principal representing a caller who
// authenticated with local credentials.
func NewLocalPrincipal(userID string) Principal {
	return Principal{
		Kind:   PrincipalKindLocal,
		UserID: userID,
	}
}

// Expired returns true if the principal carries federated credentials that
// have lapsed as of the provided time and false otherwise. Local principals
// never expire; their sessions do.
func (p Principal) Expired(now time.Time) bool {
	return p.Kind == PrincipalKindOIDC && now.After(p.ExpiresAt)
}

// ErrUnknownPrincipalKind indicates that a Principal or session record
// carried a Kind tag outside the sanctioned set. It always signals a
// programming error, never bad input from a caller.
type ErrUnknownPrincipalKind struct {
	Kind PrincipalKind
}

func (e *ErrUnknownPrincipalKind) Error() string {
	return fmt.Sprintf("unknown principal kind %q", e.Kind)
}

type principalContextKey struct{}

type sessionTokenContextKey struct{}

type userContextKey struct{}

// ContextWithPrincipal returns a context with the provided Principal bound to
// it.
func ContextWithPrincipal(
	ctx context.Context,
	principal Principal,
) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext returns the Principal bound to the context, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	return principal, ok
}

// ContextWithSessionToken returns a context with the provided session token
// bound to it.
func ContextWithSessionToken(
	ctx context.Context,
	token string,
) context.Context {
	return context.WithValue(ctx, sessionTokenContextKey{}, token)
}

// SessionTokenFromContext returns the session token bound to the context, if
// any.
func SessionTokenFromContext(ctx context.Context) string {
	token := ctx.Value(sessionTokenContextKey{})
	if token == nil {
		return ""
	}
	return token.(string)
}

// ContextWithUser returns a context with the provided User bound to it.
func ContextWithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the User bound to the context, if any. The access
// control gate binds the freshly loaded user record to the context of every
// request it admits.
func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userContextKey{}).(User)
	return user, ok
}
