package authx

import (
	"context"
	"encoding/json"

	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
)

// User represents one account known to Matrix. An account is either local
// (Username and password hash material set) or federated (Subject set); the
// two halves are never populated together.
type User struct {
	meta.ObjectMeta `json:"metadata" bson:",inline"`
	// Username is the login name of a local account.
	Username string `json:"username,omitempty" bson:"username,omitempty"`
	// PasswordHash and PasswordSalt are the Argon2id hash material of a local
	// account. They are persisted, but never serialized to JSON.
	PasswordHash []byte `json:"-" bson:"passwordHash,omitempty"`
	PasswordSalt []byte `json:"-" bson:"passwordSalt,omitempty"`
	// Subject is the OpenID Connect subject identifier of a federated account.
	Subject string `json:"subject,omitempty" bson:"subject,omitempty"`
	// Profile fields. For federated accounts these are refreshed from verified
	// identity claims at every login.
	Email     string `json:"email,omitempty" bson:"email,omitempty"`
	FirstName string `json:"firstName,omitempty" bson:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Picture   string `json:"picture,omitempty" bson:"picture,omitempty"`
	// Role is the user's single access level.
	Role Role `json:"role" bson:"role"`
	// Active indicates whether the account may be used. Deactivated accounts
	// fail authentication and authorization everywhere.
	Active bool `json:"active" bson:"active"`
}

func (u User) MarshalJSON() ([]byte, error) {
	type Alias User
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "User",
			},
			Alias: (Alias)(u),
		},
	)
}

// UserList is an ordered and pageable list of Users.
type UserList struct {
	// ListMeta contains list metadata.
	meta.ListMeta `json:"metadata"`
	// Items is a slice of Users.
	Items []User `json:"items,omitempty"`
}

func (u UserList) MarshalJSON() ([]byte, error) {
	type Alias UserList
	return json.Marshal(
		struct {
			meta.TypeMeta `json:",inline"`
			Alias         `json:",inline"`
		}{
			TypeMeta: meta.TypeMeta{
				APIVersion: meta.APIVersion,
				Kind:       "UserList",
			},
			Alias: (Alias)(u),
		},
	)
}

// UsersStore is an interface for components that manage persistent User
// records. It's decoupled from underlying technology choices (e.g. data
// store) to keep business logic reusable and consistent while the underlying
// tech stack remains free to change.
type UsersStore interface {
	Create(context.Context, User) error
	// CountByRole counts users holding the specified role, optionally limited
	// to active accounts.
	CountByRole(ctx context.Context, role Role, activeOnly bool) (int64, error)
	List(context.Context, meta.ListOptions) (UserList, error)
	Get(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetBySubject(ctx context.Context, subject string) (User, error)
	// Update replaces a user's profile fields (username, email, names,
	// picture). Role, active flag, and password material are updated through
	// dedicated operations.
	Update(context.Context, User) error
	UpdateRole(ctx context.Context, id string, role Role) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// ResolveUserFn is the signature for a function that resolves a Principal to
// the User it represents.
type ResolveUserFn func(ctx context.Context, principal Principal) (User, error)

// NewUserResolver returns a ResolveUserFn backed by the specified store.
// Resolution always goes back to the store so that role and activation
// changes take effect on the very next request, not when a session happens
// to be reissued.
func NewUserResolver(usersStore UsersStore) ResolveUserFn {
	return func(ctx context.Context, principal Principal) (User, error) {
		switch principal.Kind {
		case PrincipalKindOIDC:
			return usersStore.GetBySubject(ctx, principal.Claims.Subject)
		case PrincipalKindLocal:
			return usersStore.Get(ctx, principal.UserID)
		default:
			return User{}, &ErrUnknownPrincipalKind{Kind: principal.Kind}
		}
	}
}
