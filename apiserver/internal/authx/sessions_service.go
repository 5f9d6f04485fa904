package authx

import (
	"context"
	"fmt"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/audit"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/crypto"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/metrics"
	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"
)

// SessionsService is the specialized interface for managing Sessions. It's
// decoupled from underlying technology choices (e.g. data store) to keep
// business logic reusable and consistent while the underlying tech stack
// remains free to change.
type SessionsService interface {
	// LoginLocal authenticates the specified username and password and, on
	// success, creates a new session bound to the matching User, returning
	// the opaque session token and the User.
	LoginLocal(
		ctx context.Context,
		username string,
		password string,
	) (string, User, error)
	// StartLogin begins an OpenID Connect authorization code flow, returning
	// the provider URL the user should be redirected to. A non-empty
	// roleHint, honored only when role hints are enabled, previews the role
	// the resulting User will be assigned if the login creates one.
	StartLogin(ctx context.Context, roleHint Role) (string, error)
	// CompleteLogin concludes an OpenID Connect authorization code flow. It
	// consumes the pending login identified by the specified state, trades
	// the specified code for verified identity claims, creates or updates
	// the corresponding User, and creates a new session, returning the
	// opaque session token and the User.
	CompleteLogin(
		ctx context.Context,
		state string,
		code string,
	) (string, User, error)
	// GetByToken retrieves the session record bound to the specified opaque
	// session token. Retrieval slides the session's expiry forward.
	GetByToken(ctx context.Context, token string) (SessionRecord, error)
	// Update replaces the session record bound to the specified opaque
	// session token with one serialized from the specified Principal.
	Update(ctx context.Context, token string, principal Principal) error
	// Delete ends the session bound to the specified opaque session token. A
	// token with no session is not an error.
	Delete(ctx context.Context, token string) error
	// Logout ends the session bound to the specified opaque session token and
	// records the logout.
	Logout(ctx context.Context, token string) error
	// EndSessionURL returns the identity provider's logout URL, or the empty
	// string when there isn't one.
	EndSessionURL(ctx context.Context) string
}

// SessionsServiceConfig encapsulates session service configuration options.
type SessionsServiceConfig struct {
	// RoleHintsEnabled indicates whether login role hints are honored. Role
	// hints exist to ease demos and testing and have no place in a
	// production deployment.
	RoleHintsEnabled bool
}

type sessionsService struct {
	sessionsStore SessionsStore
	usersStore    UsersStore
	credentials   CredentialsValidator
	verifier      IdentityVerifier
	audits        audit.Sink
	metrics       *metrics.Metrics
	logger        *zap.Logger
	config        SessionsServiceConfig
}

// NewSessionsService returns a specialized interface for managing Sessions.
func NewSessionsService(
	sessionsStore SessionsStore,
	usersStore UsersStore,
	credentials CredentialsValidator,
	verifier IdentityVerifier,
	audits audit.Sink,
	metrics *metrics.Metrics,
	logger *zap.Logger,
	config SessionsServiceConfig,
) SessionsService {
	return &sessionsService{
		sessionsStore: sessionsStore,
		usersStore:    usersStore,
		credentials:   credentials,
		verifier:      verifier,
		audits:        audits,
		metrics:       metrics,
		logger:        logger,
		config:        config,
	}
}

func (s *sessionsService) LoginLocal(
	ctx context.Context,
	username string,
	password string,
) (string, User, error) {
	user, err := s.credentials.Validate(ctx, username, password)
	if err != nil {
		s.metrics.CountLogin(metrics.LoginMethodLocal, metrics.OutcomeFailure)
		s.audits.Record(ctx, audit.Event{
			Actor:   username,
			Action:  audit.ActionLogin,
			Outcome: audit.OutcomeDenied,
			Note:    "local credentials rejected",
		})
		return "", User{}, err
	}
	token, err := s.createSession(
		ctx,
		SessionRecord{
			Type:   PrincipalKindLocal,
			UserID: user.ID,
		},
	)
	if err != nil {
		s.metrics.CountLogin(metrics.LoginMethodLocal, metrics.OutcomeFailure)
		return "", User{}, err
	}
	s.metrics.CountLogin(metrics.LoginMethodLocal, metrics.OutcomeSuccess)
	s.audits.Record(ctx, audit.Event{
		Actor:   username,
		Action:  audit.ActionLogin,
		Target:  user.ID,
		Outcome: audit.OutcomeSuccess,
	})
	return token, user, nil
}

func (s *sessionsService) StartLogin(
	ctx context.Context,
	roleHint Role,
) (string, error) {
	if roleHint != "" && !ValidRole(roleHint) {
		return "", &meta.ErrBadRequest{
			Reason: fmt.Sprintf("The role %q is not recognized.", roleHint),
		}
	}
	if roleHint != "" && !s.config.RoleHintsEnabled {
		s.logger.Debug(
			"ignoring login role hint; role hints are not enabled",
			zap.String("roleHint", string(roleHint)),
		)
		roleHint = ""
	}
	state := crypto.NewToken(OAuth2StateLength)
	if err := s.sessionsStore.SavePendingLogin(
		ctx,
		crypto.ShortSHA("", state),
		PendingLogin{
			RoleHint: roleHint,
			Started:  time.Now().UTC(),
		},
		PendingLoginTTL,
	); err != nil {
		return "", errors.Wrap(err, "error storing new pending login")
	}
	authCodeURL, err := s.verifier.AuthCodeURL(ctx, state)
	if err != nil {
		return "", err
	}
	return authCodeURL, nil
}

func (s *sessionsService) CompleteLogin(
	ctx context.Context,
	state string,
	code string,
) (string, User, error) {
	pending, err := s.sessionsStore.TakePendingLogin(
		ctx,
		crypto.ShortSHA("", state),
	)
	if err != nil {
		if _, ok := errors.Cause(err).(*meta.ErrNotFound); ok {
			s.metrics.CountLogin(metrics.LoginMethodOIDC, metrics.OutcomeFailure)
			return "", User{}, &meta.ErrAuthentication{
				Reason: "The login attempt is unknown or has expired. Please " +
					"log in again.",
			}
		}
		return "", User{}, errors.Wrap(err, "error retrieving pending login")
	}
	principal, err := s.verifier.Exchange(ctx, code)
	if err != nil {
		s.metrics.CountLogin(metrics.LoginMethodOIDC, metrics.OutcomeFailure)
		s.audits.Record(ctx, audit.Event{
			Action:  audit.ActionLogin,
			Outcome: audit.OutcomeFailure,
			Note:    "authorization code exchange failed",
		})
		return "", User{}, err
	}
	user, err := s.upsertFederatedUser(ctx, principal.Claims, pending.RoleHint)
	if err != nil {
		outcome := audit.OutcomeFailure
		if _, ok := errors.Cause(err).(*meta.ErrAuthentication); ok {
			outcome = audit.OutcomeDenied
		}
		s.metrics.CountLogin(metrics.LoginMethodOIDC, metrics.OutcomeFailure)
		s.audits.Record(ctx, audit.Event{
			Actor:   principal.Claims.Subject,
			Action:  audit.ActionLogin,
			Outcome: outcome,
		})
		return "", User{}, err
	}
	record, err := SerializePrincipal(principal)
	if err != nil {
		return "", User{}, err
	}
	token, err := s.createSession(ctx, record)
	if err != nil {
		s.metrics.CountLogin(metrics.LoginMethodOIDC, metrics.OutcomeFailure)
		return "", User{}, err
	}
	s.metrics.CountLogin(metrics.LoginMethodOIDC, metrics.OutcomeSuccess)
	s.audits.Record(ctx, audit.Event{
		Actor:   principal.Claims.Subject,
		Action:  audit.ActionLogin,
		Target:  user.ID,
		Outcome: audit.OutcomeSuccess,
	})
	return token, user, nil
}

// createSession mints a new opaque session token and stores the specified
// record under its hash. Only the hash is ever persisted; the token itself
// exists only in the response that delivers it to the client.
func (s *sessionsService) createSession(
	ctx context.Context,
	record SessionRecord,
) (string, error) {
	token := crypto.NewToken(SessionTokenLength)
	if err := s.sessionsStore.Save(
		ctx,
		crypto.ShortSHA("", token),
		record,
		SessionTTL,
	); err != nil {
		return "", errors.Wrap(err, "error storing new session")
	}
	return token, nil
}

// upsertFederatedUser finds the User identified by the specified claims'
// subject, creating one if no such User exists yet. An existing User's
// profile fields are refreshed from the claims; their role is never touched.
func (s *sessionsService) upsertFederatedUser(
	ctx context.Context,
	claims IdentityClaims,
	roleHint Role,
) (User, error) {
	user, err := s.usersStore.GetBySubject(ctx, claims.Subject)
	if err == nil {
		if !user.Active {
			return User{}, &meta.ErrAuthentication{
				Reason: "This account has been deactivated.",
			}
		}
		user.Email = claims.Email
		user.FirstName = claims.GivenName
		user.LastName = claims.FamilyName
		user.Picture = claims.Picture
		if err = s.usersStore.Update(ctx, user); err != nil {
			return User{}, errors.Wrapf(err, "error updating user %q", user.ID)
		}
		return user, nil
	}
	if _, ok := errors.Cause(err).(*meta.ErrNotFound); !ok {
		return User{}, errors.Wrapf(
			err,
			"error retrieving user with subject %q",
			claims.Subject,
		)
	}

	role := RoleClient
	if s.config.RoleHintsEnabled && roleHint != "" {
		role = roleHint
	}
	// The very first user to ever log in becomes an admin. Every deployment
	// needs at least one and there is no one yet who could grant the role.
	adminCount, err := s.usersStore.CountByRole(ctx, RoleAdmin, false)
	if err != nil {
		return User{}, errors.Wrap(err, "error counting admin users")
	}
	if adminCount == 0 {
		role = RoleAdmin
	}

	now := time.Now().UTC()
	user = User{
		ObjectMeta: meta.ObjectMeta{
			ID:      uuid.NewV4().String(),
			Created: &now,
		},
		Subject:   claims.Subject,
		Email:     claims.Email,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		Picture:   claims.Picture,
		Role:      role,
		Active:    true,
	}
	if err = s.usersStore.Create(ctx, user); err != nil {
		return User{}, errors.Wrapf(
			err,
			"error creating user with subject %q",
			claims.Subject,
		)
	}
	s.audits.Record(ctx, audit.Event{
		Actor:   claims.Subject,
		Action:  audit.ActionUserCreate,
		Target:  user.ID,
		Outcome: audit.OutcomeSuccess,
		Note:    "created on first federated login",
	})
	return user, nil
}

func (s *sessionsService) GetByToken(
	ctx context.Context,
	token string,
) (SessionRecord, error) {
	return s.sessionsStore.Load(ctx, crypto.ShortSHA("", token))
}

func (s *sessionsService) Update(
	ctx context.Context,
	token string,
	principal Principal,
) error {
	record, err := SerializePrincipal(principal)
	if err != nil {
		return err
	}
	return s.sessionsStore.Save(
		ctx,
		crypto.ShortSHA("", token),
		record,
		SessionTTL,
	)
}

func (s *sessionsService) Delete(ctx context.Context, token string) error {
	return s.sessionsStore.Delete(ctx, crypto.ShortSHA("", token))
}

func (s *sessionsService) Logout(ctx context.Context, token string) error {
	if err := s.Delete(ctx, token); err != nil {
		return err
	}
	s.audits.Record(ctx, audit.Event{
		Actor:   auditActor(ctx),
		Action:  audit.ActionLogout,
		Outcome: audit.OutcomeSuccess,
	})
	return nil
}

func (s *sessionsService) EndSessionURL(ctx context.Context) string {
	return s.verifier.EndSessionURL(ctx)
}
