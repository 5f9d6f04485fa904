package authx

import (
	"context"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/coreos/go-oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// IdentityVerifier is the interface for the component that handles the
// server's side of an OpenID Connect authorization code flow: producing the
// URL a user is redirected to, then exchanging the code the provider hands
// back for verified identity claims.
type IdentityVerifier interface {
	// AuthCodeURL returns the provider URL that begins an authorization code
	// flow bound to the specified opaque state.
	AuthCodeURL(ctx context.Context, state string) (string, error)
	// Exchange trades an authorization code for tokens, verifies the identity
	// token among them, and returns a federated Principal carrying the
	// verified claims and the tokens.
	Exchange(ctx context.Context, code string) (Principal, error)
	// EndSessionURL returns the provider's logout URL, or the empty string
	// when the provider does not advertise one.
	EndSessionURL(ctx context.Context) string
}

// IdentityVerifierConfig encapsulates the OAuth2 client details an
// IdentityVerifier needs.
type IdentityVerifierConfig struct {
	// ClientID is the OAuth2 client ID registered with the provider.
	ClientID string
	// ClientSecret is the OAuth2 client secret registered with the provider.
	ClientSecret string
	// RedirectURL is the callback URL registered with the provider.
	RedirectURL string
}

// VerifyIDTokenFn is the signature of a function used to cryptographically
// verify a raw identity token against provider metadata, returning the
// claims it carries and its expiry.
type VerifyIDTokenFn func(
	ctx context.Context,
	provider *oidc.Provider,
	clientID string,
	rawIDToken string,
) (IdentityClaims, time.Time, error)

// VerifyIDToken verifies a raw identity token using the provider's published
// signing keys.
func VerifyIDToken(
	ctx context.Context,
	provider *oidc.Provider,
	clientID string,
	rawIDToken string,
) (IdentityClaims, time.Time, error) {
	idToken, err := provider.Verifier(
		&oidc.Config{ClientID: clientID},
	).Verify(ctx, rawIDToken)
	if err != nil {
		return IdentityClaims{}, time.Time{}, err
	}
	claims := IdentityClaims{}
	if err := idToken.Claims(&claims); err != nil {
		return IdentityClaims{}, time.Time{}, err
	}
	return claims, idToken.Expiry, nil
}

type oidcIdentityVerifier struct {
	providers     *ProviderCache
	config        IdentityVerifierConfig
	logger        *zap.Logger
	verifyIDToken VerifyIDTokenFn
}

// NewIdentityVerifier returns an IdentityVerifier that speaks to the
// provider described by the specified ProviderCache.
func NewIdentityVerifier(
	providers *ProviderCache,
	config IdentityVerifierConfig,
	logger *zap.Logger,
) IdentityVerifier {
	return &oidcIdentityVerifier{
		providers:     providers,
		config:        config,
		logger:        logger,
		verifyIDToken: VerifyIDToken,
	}
}

func (o *oidcIdentityVerifier) oauth2Config(
	provider *oidc.Provider,
) oauth2.Config {
	return oauth2.Config{
		ClientID:     o.config.ClientID,
		ClientSecret: o.config.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  o.config.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
}

func (o *oidcIdentityVerifier) AuthCodeURL(
	ctx context.Context,
	state string,
) (string, error) {
	provider, err := o.providers.Get(ctx)
	if err != nil {
		return "", err
	}
	oauth2Config := o.oauth2Config(provider)
	// offline_access asks the provider for a refresh token so the session can
	// outlive the first access token.
	return oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

func (o *oidcIdentityVerifier) Exchange(
	ctx context.Context,
	code string,
) (Principal, error) {
	provider, err := o.providers.Get(ctx)
	if err != nil {
		return Principal{}, err
	}
	oauth2Config := o.oauth2Config(provider)
	token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		o.logger.Error(
			"error exchanging authorization code for tokens",
			zap.Error(err),
		)
		return Principal{}, &meta.ErrAuthentication{
			Reason: "Could not exchange the authorization code for tokens. " +
				"Please log in again.",
		}
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return Principal{}, &meta.ErrAuthentication{
			Reason: "The token response did not include an identity token.",
		}
	}
	claims, idTokenExpiry, err := o.verifyIDToken(
		ctx,
		provider,
		o.config.ClientID,
		rawIDToken,
	)
	if err != nil {
		o.logger.Error("error verifying identity token", zap.Error(err))
		return Principal{}, &meta.ErrAuthentication{
			Reason: "Could not verify the identity token.",
		}
	}
	if claims.Subject == "" {
		return Principal{}, &meta.ErrAuthentication{
			Reason: "The identity token did not include a subject.",
		}
	}
	expiry := token.Expiry
	if expiry.IsZero() {
		expiry = idTokenExpiry
	}
	return NewFederatedPrincipal(
		claims,
		token.AccessToken,
		token.RefreshToken,
		expiry,
	), nil
}

func (o *oidcIdentityVerifier) EndSessionURL(ctx context.Context) string {
	return o.providers.EndSessionURL(ctx)
}
