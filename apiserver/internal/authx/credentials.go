package authx

import (
	"context"

	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/crypto"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
)

// invalidCredentialsReason is returned verbatim for an unknown username AND
// for a wrong password. The two failures must stay indistinguishable so the
// login endpoint cannot be used to probe for valid usernames.
const invalidCredentialsReason = "Could not authenticate the request using " +
	"the supplied credentials."

// CredentialsValidator is an interface for the component that authenticates
// local username/password credentials.
type CredentialsValidator interface {
	// Validate checks the provided credentials and, when they are good,
	// returns the account they belong to.
	Validate(ctx context.Context, username, password string) (User, error)
}

type credentialsValidator struct {
	usersStore UsersStore
}

// NewCredentialsValidator returns a component that authenticates local
// username/password credentials against the users store.
func NewCredentialsValidator(usersStore UsersStore) CredentialsValidator {
	return &credentialsValidator{
		usersStore: usersStore,
	}
}

func (c *credentialsValidator) Validate(
	ctx context.Context,
	username string,
	password string,
) (User, error) {
	user, err := c.usersStore.GetByUsername(ctx, username)
	if err != nil {
		if _, ok := errors.Cause(err).(*meta.ErrNotFound); ok {
			return User{}, &meta.ErrAuthentication{
				Reason: invalidCredentialsReason,
			}
		}
		return User{}, errors.Wrapf(
			err,
			"error retrieving user %q from store",
			username,
		)
	}
	// A federated account carries no local credential material and can never
	// authenticate this way.
	if len(user.PasswordHash) == 0 ||
		!crypto.VerifyPassword(
			[]byte(password),
			user.PasswordSalt,
			user.PasswordHash,
		) {
		return User{}, &meta.ErrAuthentication{
			Reason: invalidCredentialsReason,
		}
	}
	if !user.Active {
		return User{}, &meta.ErrAuthentication{
			Reason: "This account has been deactivated.",
		}
	}
	return user, nil
}
