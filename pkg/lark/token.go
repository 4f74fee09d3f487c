package lark

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// SafetyMargin is subtracted from a token's expiry before it is reused, so a
// token is never presented after the platform considers it expired.
const SafetyMargin = 60 * time.Second

// TokenIssuer obtains a fresh tenant access token. *Client implements it.
type TokenIssuer interface {
	IssueTenantToken(ctx context.Context, baseURL string, creds Credentials) (string, time.Duration, error)
}

// CacheObserver is notified of every cache lookup.
type CacheObserver interface {
	ObserveTokenLookup(baseURL string, hit bool)
}

// TokenCacheConfig configures a TokenCache.
type TokenCacheConfig struct {
	// Credentials of the internal app. Required for any lookup to succeed.
	Credentials Credentials

	// Issuer fetches tokens on a miss. Required.
	Issuer TokenIssuer

	// Observer (optional).
	Observer CacheObserver

	// Now returns the current time (optional, defaults to time.Now).
	Now func() time.Time

	// Logger (optional).
	Logger hclog.Logger
}

// TokenCache holds at most one tenant access token per platform base address.
//
// Entries are replaced whole under mu, so a token is never paired with another
// fetch's expiry. Concurrent misses for the same base address share a single
// issuance call.
type TokenCache struct {
	creds    Credentials
	issuer   TokenIssuer
	observer CacheObserver
	now      func() time.Time
	logger   hclog.Logger

	mu      sync.Mutex
	entries map[string]*oauth2.Token

	flights singleflight.Group
}

// NewTokenCache creates an empty token cache.
func NewTokenCache(cfg TokenCacheConfig) (*TokenCache, error) {
	if cfg.Issuer == nil {
		return nil, errors.New("token issuer is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	return &TokenCache{
		creds:    cfg.Credentials,
		issuer:   cfg.Issuer,
		observer: cfg.Observer,
		now:      cfg.Now,
		logger:   cfg.Logger.Named("token-cache"),
		entries:  make(map[string]*oauth2.Token),
	}, nil
}

// Token returns a usable token for baseURL, fetching one if the cached entry
// is missing or within SafetyMargin of expiry.
//
// The fetch itself is not tied to ctx, since other callers may be waiting on
// it; it is bounded by the issuer's own timeout. Token returns as soon as ctx
// is done.
func (c *TokenCache) Token(ctx context.Context, baseURL string) (*oauth2.Token, error) {
	const op = "Token"

	if !c.creds.Complete() {
		return nil, newError(KindConfiguration, op, "app_id and app_secret must be configured", nil)
	}

	if tok := c.lookup(baseURL); tok != nil {
		c.observe(baseURL, true)
		return tok, nil
	}
	c.observe(baseURL, false)

	if err := ctx.Err(); err != nil {
		return nil, newError(KindUpstreamAuth, op, "gave up waiting for token", err)
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(baseURL, func() (any, error) {
		// A flight that finished just before this one started may have
		// stored a fresh token already.
		if tok := c.lookup(baseURL); tok != nil {
			return tok, nil
		}
		return c.fetch(fetchCtx, baseURL)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		tok := *res.Val.(*oauth2.Token)
		return &tok, nil
	case <-ctx.Done():
		return nil, newError(KindUpstreamAuth, op, "gave up waiting for token", ctx.Err())
	}
}

// Invalidate drops the cached token for baseURL, if any.
func (c *TokenCache) Invalidate(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, baseURL)
}

// lookup returns a copy of the cached token when it is still usable.
func (c *TokenCache) lookup(baseURL string) *oauth2.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	tok, ok := c.entries[baseURL]
	if !ok || !c.now().Before(tok.Expiry.Add(-SafetyMargin)) {
		return nil
	}
	cp := *tok
	return &cp
}

func (c *TokenCache) fetch(ctx context.Context, baseURL string) (*oauth2.Token, error) {
	issuedAt := c.now()

	access, ttl, err := c.issuer.IssueTenantToken(ctx, baseURL, c.creds)
	if err != nil {
		c.logger.Warn("token issuance failed", "base_url", baseURL, "error", err)
		return nil, err
	}

	tok := &oauth2.Token{
		AccessToken: access,
		TokenType:   "Bearer",
		Expiry:      issuedAt.Add(ttl),
	}

	c.mu.Lock()
	c.entries[baseURL] = tok
	c.mu.Unlock()

	c.logger.Debug("cached tenant access token", "base_url", baseURL, "expiry", tok.Expiry)

	return tok, nil
}

func (c *TokenCache) observe(baseURL string, hit bool) {
	if c.observer != nil {
		c.observer.ObserveTokenLookup(baseURL, hit)
	}
}
