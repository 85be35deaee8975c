package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Clock abstracts time for refresh decisions
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// KeySetCacheConfig configures a KeySetCache
type KeySetCacheConfig struct {
	URL    string
	APIKey string // sent as the apikey header when set

	// RefreshInterval re-fetches a set older than this on the next lookup. Zero disables.
	RefreshInterval time.Duration
	// MinRefreshInterval bounds refetches triggered by unknown key ids
	MinRefreshInterval time.Duration

	HTTPClient *http.Client
	Clock      Clock
}

const defaultFetchTimeout = 5 * time.Second

type snapshot struct {
	set       *KeySet
	fetchedAt time.Time
}

type flight struct {
	done chan struct{}
	err  error
}

// KeySetCache owns the signing key set for one identity provider.
// The set is fetched lazily, replaced only by a successful fetch and
// refreshed when stale or when a token names an unknown key.
type KeySetCache struct {
	cfg    KeySetCacheConfig
	client *http.Client
	clock  Clock
	logger *zap.Logger

	current atomic.Pointer[snapshot]
	fetches atomic.Int64

	mu          sync.Mutex
	inflight    *flight
	lastAttempt time.Time
}

// NewKeySetCache creates an empty cache; nothing is fetched until first use
func NewKeySetCache(cfg KeySetCacheConfig, logger *zap.Logger) *KeySetCache {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &KeySetCache{
		cfg:    cfg,
		client: client,
		clock:  clock,
		logger: logger,
	}
}

// Key returns the signing key for kid.
// Errors are ErrUpstreamUnavailable or ErrUnknownSigningKey wrapped in *AuthError.
func (c *KeySetCache) Key(ctx context.Context, kid string) (SigningKey, error) {
	snap := c.current.Load()

	switch {
	case snap == nil:
		if err := c.refresh(ctx, nil); err != nil {
			return SigningKey{}, authError(ErrUpstreamUnavailable, err)
		}
	case c.stale(snap):
		if err := c.refresh(ctx, snap); err != nil {
			c.logger.Warn("jwks refresh failed, serving cached keys",
				zap.Error(err),
				zap.Time("fetched_at", snap.fetchedAt),
			)
		}
	}

	snap = c.current.Load()
	if key, ok := snap.set.Lookup(kid); ok {
		return key, nil
	}

	if !c.missRefreshAllowed() {
		return SigningKey{}, authError(ErrUnknownSigningKey, fmt.Errorf("kid %q", kid))
	}
	if err := c.refresh(ctx, snap); err != nil {
		return SigningKey{}, authError(ErrUpstreamUnavailable, err)
	}
	if key, ok := c.current.Load().set.Lookup(kid); ok {
		return key, nil
	}
	return SigningKey{}, authError(ErrUnknownSigningKey, fmt.Errorf("kid %q", kid))
}

// Ready ensures a key set has been loaded
func (c *KeySetCache) Ready(ctx context.Context) error {
	if c.current.Load() != nil {
		return nil
	}
	return c.refresh(ctx, nil)
}

// Stats reports cache state
func (c *KeySetCache) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"jwks_cached":  false,
		"jwks_fetches": c.fetches.Load(),
	}
	if snap := c.current.Load(); snap != nil {
		stats["jwks_cached"] = true
		stats["jwks_keys_count"] = snap.set.Len()
		stats["jwks_fetched_at"] = snap.fetchedAt
	}
	return stats
}

func (c *KeySetCache) stale(snap *snapshot) bool {
	return c.cfg.RefreshInterval > 0 && c.clock.Now().Sub(snap.fetchedAt) >= c.cfg.RefreshInterval
}

func (c *KeySetCache) missRefreshAllowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		return true
	}
	return c.cfg.MinRefreshInterval <= 0 || c.clock.Now().Sub(c.lastAttempt) >= c.cfg.MinRefreshInterval
}

// refresh fetches the set, joining an in-flight fetch if there is one.
// seen is the snapshot the caller found wanting; if another fetch has
// already replaced it there is nothing to do. The fetch runs detached from
// ctx so a caller that gives up does not fail the others waiting on it.
func (c *KeySetCache) refresh(ctx context.Context, seen *snapshot) error {
	c.mu.Lock()
	f := c.inflight
	if f == nil {
		if c.current.Load() != seen {
			c.mu.Unlock()
			return nil
		}
		f = &flight{done: make(chan struct{})}
		c.inflight = f
		c.lastAttempt = c.clock.Now()
		go c.run(context.WithoutCancel(ctx), f)
	}
	c.mu.Unlock()

	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *KeySetCache) run(ctx context.Context, f *flight) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout())
	defer cancel()

	set, err := c.fetch(ctx)
	if err == nil {
		c.current.Store(&snapshot{set: set, fetchedAt: c.clock.Now()})
		c.logger.Info("jwks loaded", zap.Strings("kids", set.Kids()))
	} else {
		c.logger.Warn("jwks fetch failed", zap.Error(err))
	}

	c.mu.Lock()
	f.err = err
	c.inflight = nil
	c.mu.Unlock()
	close(f.done)
}

func (c *KeySetCache) fetchTimeout() time.Duration {
	if c.client.Timeout > 0 {
		return c.client.Timeout
	}
	return defaultFetchTimeout
}

func (c *KeySetCache) fetch(ctx context.Context) (*KeySet, error) {
	c.fetches.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("apikey", c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jwks fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("jwks fetch failed: status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS: %w", err)
	}
	return ParseKeySet(body)
}
