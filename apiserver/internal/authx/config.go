package authx

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	identityEnvconfigPrefix = "OIDC"
	sessionsEnvconfigPrefix = "SESSIONS"
)

type identityConfig struct {
	// IssuerURL examples:
	//   Google: https://accounts.google.com
	//   Azure Active Directory: https://login.microsoftonline.com/{tenant id}/v2.0
	IssuerURL        string        `envconfig:"ISSUER_URL" required:"true"`
	ClientID         string        `envconfig:"CLIENT_ID" required:"true"`
	ClientSecret     string        `envconfig:"CLIENT_SECRET" required:"true"`
	RedirectURLBase  string        `envconfig:"REDIRECT_URL_BASE" required:"true"`
	ProviderCacheTTL time.Duration `envconfig:"PROVIDER_CACHE_TTL"`
}

type sessionsConfig struct {
	RoleHintsEnabled bool `envconfig:"ROLE_HINTS_ENABLED"`
}

// GetIdentityConfigFromEnvironment returns the OpenID Connect issuer URL,
// client configuration, and provider metadata cache TTL, all derived from
// environment variables. A zero TTL gets the provider cache's default.
func GetIdentityConfigFromEnvironment() (
	string,
	IdentityVerifierConfig,
	time.Duration,
	error,
) {
	c := identityConfig{}
	if err := envconfig.Process(identityEnvconfigPrefix, &c); err != nil {
		return "", IdentityVerifierConfig{}, 0, errors.Wrap(
			err,
			"error getting oidc configuration from environment",
		)
	}
	return c.IssuerURL,
		IdentityVerifierConfig{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  fmt.Sprintf("%s/callback", c.RedirectURLBase),
		},
		c.ProviderCacheTTL,
		nil
}

// GetSessionsServiceConfigFromEnvironment returns sessions service
// configuration derived from environment variables.
func GetSessionsServiceConfigFromEnvironment() (SessionsServiceConfig, error) {
	c := sessionsConfig{}
	if err := envconfig.Process(sessionsEnvconfigPrefix, &c); err != nil {
		return SessionsServiceConfig{}, errors.Wrap(
			err,
			"error getting sessions configuration from environment",
		)
	}
	return SessionsServiceConfig{
		RoleHintsEnabled: c.RoleHintsEnabled,
	}, nil
}
