package authx

import (
	"context"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// RefreshManager is the interface for the component that keeps a federated
// Principal's tokens fresh.
type RefreshManager interface {
	// EnsureFresh returns a Principal whose access token is usable. A
	// Principal that is not federated, or whose token has not expired, is
	// returned unchanged without any network activity. An expired federated
	// Principal is refreshed against the provider: on success the returned
	// Principal is a new value carrying the fresh tokens (the argument is
	// never mutated) and the boolean is true so the caller knows to persist
	// it; on failure the original Principal is returned along with the
	// error.
	EnsureFresh(ctx context.Context, p Principal) (Principal, bool, error)
}

// ErrNoRefreshToken indicates an expired federated Principal could not be
// refreshed because its session carries no refresh token. No refresh grant is
// ever attempted in this case; the session has simply lapsed.
type ErrNoRefreshToken struct{}

func (e *ErrNoRefreshToken) Error() string {
	return "The session's token has expired and no refresh token is " +
		"available. Please log in again."
}

type refreshManager struct {
	providers     *ProviderCache
	config        IdentityVerifierConfig
	logger        *zap.Logger
	verifyIDToken VerifyIDTokenFn
	now           func() time.Time
}

// NewRefreshManager returns a RefreshManager that refreshes tokens against
// the provider described by the specified ProviderCache.
func NewRefreshManager(
	providers *ProviderCache,
	config IdentityVerifierConfig,
	logger *zap.Logger,
) RefreshManager {
	return &refreshManager{
		providers:     providers,
		config:        config,
		logger:        logger,
		verifyIDToken: VerifyIDToken,
		now:           time.Now,
	}
}

func (r *refreshManager) EnsureFresh(
	ctx context.Context,
	p Principal,
) (Principal, bool, error) {
	if p.Kind != PrincipalKindOIDC || !p.Expired(r.now()) {
		return p, false, nil
	}
	if p.RefreshToken == "" {
		return p, false, &ErrNoRefreshToken{}
	}

	// The refresh must run to completion even if the request that triggered
	// it is abandoned, or an interrupted rotation could strand the stored
	// session with a spent refresh token.
	ctx = context.WithoutCancel(ctx)

	provider, err := r.providers.Get(ctx)
	if err != nil {
		return p, false, err
	}
	oauth2Config := oauth2.Config{
		ClientID:     r.config.ClientID,
		ClientSecret: r.config.ClientSecret,
		Endpoint:     provider.Endpoint(),
	}
	token, err := oauth2Config.TokenSource(
		ctx,
		&oauth2.Token{RefreshToken: p.RefreshToken},
	).Token()
	if err != nil {
		r.logger.Warn(
			"error refreshing tokens",
			zap.String("subject", p.Claims.Subject),
			zap.Error(err),
		)
		return p, false, &meta.ErrAuthentication{
			Reason: "The session's token could not be refreshed. Please log " +
				"in again.",
		}
	}

	fresh := p
	fresh.AccessToken = token.AccessToken
	fresh.ExpiresAt = token.Expiry
	// Providers may rotate the refresh token on use. A response that omits
	// one means the existing token remains valid.
	if token.RefreshToken != "" {
		fresh.RefreshToken = token.RefreshToken
	}
	if rawIDToken, ok := token.Extra("id_token").(string); ok {
		claims, idTokenExpiry, err := r.verifyIDToken(
			ctx,
			provider,
			r.config.ClientID,
			rawIDToken,
		)
		if err != nil {
			r.logger.Warn(
				"error verifying identity token from refresh response",
				zap.String("subject", p.Claims.Subject),
				zap.Error(err),
			)
			return p, false, &meta.ErrAuthentication{
				Reason: "The session's token could not be refreshed. Please " +
					"log in again.",
			}
		}
		fresh.Claims = claims
		if fresh.ExpiresAt.IsZero() {
			fresh.ExpiresAt = idTokenExpiry
		}
	}
	return fresh, true, nil
}
