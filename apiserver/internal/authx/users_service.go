package authx

import (
	"context"
	"fmt"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/audit"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/crypto"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

// minPasswordLength is the shortest password accepted for a local account.
const minPasswordLength = 8

// UsersService is the specialized interface for managing Users. It's
// decoupled from underlying technology choices (e.g. data store) to keep
// business logic reusable and consistent while the underlying tech stack
// remains free to change.
type UsersService interface {
	// Create creates a new local User with the specified password. It
	// returns a *meta.ErrConflict if a User having the same username already
	// exists.
	Create(ctx context.Context, user User, password string) (User, error)
	// List returns a UserList.
	List(ctx context.Context, opts meta.ListOptions) (UserList, error)
	// Get retrieves a single User specified by their identifier.
	Get(ctx context.Context, id string) (User, error)
	// Update updates the profile fields of the specified User.
	Update(ctx context.Context, user User) (User, error)
	// UpdateRole reassigns the specified User to the specified role.
	UpdateRole(ctx context.Context, id string, role Role) error
	// Activate restores a deactivated User's ability to log in.
	Activate(ctx context.Context, id string) error
	// Deactivate revokes a User's ability to log in without removing their
	// record.
	Deactivate(ctx context.Context, id string) error
	// Delete removes the specified User entirely.
	Delete(ctx context.Context, id string) error
}

type usersService struct {
	authorize  AuthorizeFn
	usersStore UsersStore
	audits     audit.Sink
}

// NewUsersService returns a specialized interface for managing Users.
func NewUsersService(usersStore UsersStore, audits audit.Sink) UsersService {
	return &usersService{
		authorize:  Authorize,
		usersStore: usersStore,
		audits:     audits,
	}
}

func auditActor(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID
	}
	return ""
}

func (u *usersService) Create(
	ctx context.Context,
	user User,
	password string,
) (User, error) {
	if err := u.authorize(ctx, RoleAdmin); err != nil {
		return User{}, err
	}
	if user.Username == "" {
		return User{}, &meta.ErrBadRequest{
			Reason: "A username is required.",
		}
	}
	if !ValidRole(user.Role) {
		return User{}, &meta.ErrBadRequest{
			Reason: fmt.Sprintf("The role %q is not recognized.", user.Role),
		}
	}
	if len(password) < minPasswordLength {
		return User{}, &meta.ErrBadRequest{
			Reason: fmt.Sprintf(
				"The password must be at least %d characters long.",
				minPasswordLength,
			),
		}
	}
	adminCount, err := u.usersStore.CountByRole(ctx, RoleAdmin, false)
	if err != nil {
		return User{}, errors.Wrap(err, "error counting admin users")
	}
	if adminCount == 0 {
		user.Role = RoleAdmin
	}
	salt, err := crypto.RandBytes(crypto.SaltLength)
	if err != nil {
		return User{}, errors.Wrap(err, "error generating password salt")
	}
	now := time.Now().UTC()
	user.ObjectMeta = meta.ObjectMeta{
		ID:      uuid.NewV4().String(),
		Created: &now,
	}
	user.Subject = ""
	user.PasswordSalt = salt
	user.PasswordHash = crypto.HashPassword([]byte(password), salt)
	user.Active = true
	if err = u.usersStore.Create(ctx, user); err != nil {
		return User{}, errors.Wrapf(
			err,
			"error storing new user %q",
			user.Username,
		)
	}
	u.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionUserCreate,
		Target:  user.ID,
		Outcome: audit.OutcomeSuccess,
	})
	return user, nil
}

func (u *usersService) List(
	ctx context.Context,
	opts meta.ListOptions,
) (UserList, error) {
	if err := u.authorize(ctx, RoleAdmin); err != nil {
		return UserList{}, err
	}
	if opts.Limit == 0 {
		opts.Limit = 20
	}
	users, err := u.usersStore.List(ctx, opts)
	if err != nil {
		return users, errors.Wrap(err, "error retrieving users from store")
	}
	return users, nil
}

func (u *usersService) Get(ctx context.Context, id string) (User, error) {
	if err := u.authorize(ctx, RoleAdmin); err != nil {
		return User{}, err
	}
	user, err := u.usersStore.Get(ctx, id)
	if err != nil {
		return user, errors.Wrapf(
			err,
			"error retrieving user %q from store",
			id,
		)
	}
	return user, nil
}

func (u *usersService) Update(ctx context.Context, user User) (User, error) {
	if err := u.authorize(ctx, RoleAdmin); err != nil {
		return User{}, err
	}
	if err := u.usersStore.Update(ctx, user); err != nil {
		return User{}, errors.Wrapf(err, "error updating user %q", user.ID)
	}
	updated, err := u.usersStore.Get(ctx, user.ID)
	if err != nil {
		return User{}, errors.Wrapf(
			err,
			"error retrieving user %q from store",
			user.ID,
		)
	}
	u.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionUserUpdate,
		Target:  user.ID,
		Outcome: audit.OutcomeSuccess,
	})
	return updated, nil
}

func (u *usersService) UpdateRole(
	ctx context.Context,
	id string,
	role Role,
) error {
	if err := u.authorize(ctx, RoleAdmin); err != nil {
		return err
	}
	if !ValidRole(role) {
		return &meta.ErrBadRequest{
			Reason: fmt.Sprintf("The role %q is not recognized.", role),
		}
	}
	if caller, ok := UserFromContext(ctx); ok &&
		caller.ID == id && role != RoleAdmin {
		return &meta.ErrBadRequest{
			Reason: "Administrators cannot remove their own admin role.",
		}
	}
	target, err := u.usersStore.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "error retrieving user %q from store", id)
	}
	if target.Role == RoleAdmin && role != RoleAdmin {
		adminCount, err := u.usersStore.CountByRole(ctx, RoleAdmin, false)
		if err != nil {
			return errors.Wrap(err, "error counting admin users")
		}
		if adminCount <= 1 {
			return &meta.ErrBadRequest{
				Reason: "The last remaining admin cannot be demoted.",
			}
		}
	}
	if err := u.usersStore.UpdateRole(ctx, id, role); err != nil {
		return errors.Wrapf(err, "error updating role of user %q", id)
	}
	u.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionUserRoleUpdate,
		Target:  id,
		Outcome: audit.OutcomeSuccess,
		Note:    string(role),
	})
	return nil
}

func (u *usersService) Activate(ctx context.Context, id string) error {
	if err := u.authorize(ctx, RoleAdmin); err != nil {
		return err
	}
	if err := u.usersStore.SetActive(ctx, id, true); err != nil {
		return errors.Wrapf(err, "error activating user %q", id)
	}
	u.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionUserActivate,
		Target:  id,
		Outcome: audit.OutcomeSuccess,
	})
	return nil
}

func (u *usersService) Deactivate(ctx context.Context, id string) error {
	if err := u.authorize(ctx, RoleAdmin); err != nil {
		return err
	}
	target, err := u.usersStore.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "error retrieving user %q from store", id)
	}
	if target.Role == RoleAdmin && target.Active {
		activeAdmins, err := u.usersStore.CountByRole(ctx, RoleAdmin, true)
		if err != nil {
			return errors.Wrap(err, "error counting active admin users")
		}
		if activeAdmins <= 1 {
			return &meta.ErrBadRequest{
				Reason: "The last remaining active admin cannot be " +
					"deactivated.",
			}
		}
	}
	if err := u.usersStore.SetActive(ctx, id, false); err != nil {
		return errors.Wrapf(err, "error deactivating user %q", id)
	}
	u.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionUserDeactivate,
		Target:  id,
		Outcome: audit.OutcomeSuccess,
	})
	return nil
}

func (u *usersService) Delete(ctx context.Context, id string) error {
	if err := u.authorize(ctx, RoleAdmin); err != nil {
		return err
	}
	if caller, ok := UserFromContext(ctx); ok && caller.ID == id {
		return &meta.ErrBadRequest{
			Reason: "Users cannot delete themselves.",
		}
	}
	if err := u.usersStore.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "error removing user %q from store", id)
	}
	u.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionUserDelete,
		Target:  id,
		Outcome: audit.OutcomeSuccess,
	})
	return nil
}
