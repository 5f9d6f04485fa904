package authx

import (
	"context"
	"sync"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/meta"
	"github.com/coreos/go-oidc"
	"go.uber.org/zap"
)

// DefaultProviderCacheTTL is how long fetched OpenID Connect provider
// metadata remains usable before it must be fetched again.
const DefaultProviderCacheTTL = time.Hour

// ProviderCache lazily fetches OpenID Connect provider metadata from the
// provider's discovery endpoint and caches it for a bounded time. It is safe
// for concurrent use. Staleness is tolerated in one direction only:
// concurrent callers finding the cache stale may fetch redundantly, and the
// last fetch to complete wins. The alternative, serializing callers behind a
// lock held across the network fetch, would stall every request in the
// system on one slow discovery round trip.
type ProviderCache struct {
	issuerURL string
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.RWMutex
	provider  *oidc.Provider
	fetchedAt time.Time
}

// NewProviderCache returns a ProviderCache for the specified issuer. A
// nonpositive ttl gets the default.
func NewProviderCache(
	issuerURL string,
	ttl time.Duration,
	logger *zap.Logger,
) *ProviderCache {
	if ttl <= 0 {
		ttl = DefaultProviderCacheTTL
	}
	return &ProviderCache{
		issuerURL: issuerURL,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns provider metadata, fetching it when the cache is empty or its
// TTL has lapsed. A fetch failure with a stale (or empty) cache is a hard
// failure; stale metadata is never served past its TTL.
func (p *ProviderCache) Get(ctx context.Context) (*oidc.Provider, error) {
	p.mu.RLock()
	provider, fetchedAt := p.provider, p.fetchedAt
	p.mu.RUnlock()
	if provider != nil && p.now().Sub(fetchedAt) < p.ttl {
		return provider, nil
	}

	// No lock is held across this network round trip.
	fetched, err := oidc.NewProvider(ctx, p.issuerURL)
	if err != nil {
		p.logger.Error(
			"error fetching OpenID Connect provider metadata",
			zap.String("issuer", p.issuerURL),
			zap.Error(err),
		)
		return nil, &meta.ErrAuthentication{
			Reason: "Could not reach the OpenID Connect provider. Please try " +
				"again.",
		}
	}

	p.mu.Lock()
	p.provider = fetched
	p.fetchedAt = p.now()
	p.mu.Unlock()
	return fetched, nil
}

// endSessionClaims captures the single piece of provider metadata that the
// OIDC library does not surface through its own API.
type endSessionClaims struct {
	EndSessionEndpoint string `json:"end_session_endpoint"`
}

// EndSessionURL returns the provider's advertised end-session (logout) URL,
// or the empty string when the provider does not advertise one or its
// metadata cannot be retrieved.
func (p *ProviderCache) EndSessionURL(ctx context.Context) string {
	provider, err := p.Get(ctx)
	if err != nil {
		return ""
	}
	claims := endSessionClaims{}
	if err := provider.Claims(&claims); err != nil {
		return ""
	}
	return claims.EndSessionEndpoint
}
