package processing

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"torn_war_odds/internal/app"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

const rankedWarsCacheKey = "rankedwars"

// APICacheConfig configures caching behavior
type APICacheConfig struct {
	// RankedWarsTTL is how long to cache the ranked war list (scores move during wars)
	RankedWarsTTL time.Duration
	// FactionBasicTTL is how long to cache faction profiles (respect and rank move slowly)
	FactionBasicTTL time.Duration
	// CleanupInterval is how often expired entries are purged
	CleanupInterval time.Duration
}

// DefaultAPICacheConfig returns sensible cache defaults
func DefaultAPICacheConfig() APICacheConfig {
	return APICacheConfig{
		RankedWarsTTL:   2 * time.Minute,
		FactionBasicTTL: 30 * time.Minute,
		CleanupInterval: 10 * time.Minute,
	}
}

// CachedTornClient wraps a TornClient with caching. Factions that appear in
// several sampled wars are fetched once per TTL.
type CachedTornClient struct {
	client  TornClientInterface
	config  APICacheConfig
	tracker *APICallTracker
	cache   *cache.Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedTornClient creates a caching wrapper around a TornClient
func NewCachedTornClient(client TornClientInterface, tracker *APICallTracker) *CachedTornClient {
	return NewCachedTornClientWithConfig(client, tracker, DefaultAPICacheConfig())
}

// NewCachedTornClientWithConfig creates a caching wrapper with custom TTLs
func NewCachedTornClientWithConfig(client TornClientInterface, tracker *APICallTracker, config APICacheConfig) *CachedTornClient {
	return &CachedTornClient{
		client:  client,
		config:  config,
		tracker: tracker,
		cache:   cache.New(config.FactionBasicTTL, config.CleanupInterval),
	}
}

// GetRankedWars returns the cached ranked war list or fetches fresh data
func (c *CachedTornClient) GetRankedWars(ctx context.Context) (*app.RankedWarsResponse, error) {
	if cached, ok := c.cache.Get(rankedWarsCacheKey); ok {
		c.hits.Add(1)
		log.Debug().Msg("Using cached ranked wars (API call saved)")
		return cached.(*app.RankedWarsResponse), nil
	}

	c.misses.Add(1)
	log.Debug().Msg("Fetching fresh ranked wars from API")
	data, err := c.client.GetRankedWars(ctx)
	if err != nil {
		return nil, err
	}

	c.tracker.RecordCall("GetRankedWars")
	c.cache.Set(rankedWarsCacheKey, data, c.config.RankedWarsTTL)

	return data, nil
}

// GetFactionBasic returns the cached faction profile or fetches fresh data
func (c *CachedTornClient) GetFactionBasic(ctx context.Context, factionID int) (*app.FactionBasicResponse, error) {
	key := fmt.Sprintf("faction_basic:%d", factionID)
	if cached, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		log.Debug().
			Int("faction_id", factionID).
			Msg("Using cached faction basic data (API call saved)")
		return cached.(*app.FactionBasicResponse), nil
	}

	c.misses.Add(1)
	log.Debug().
		Int("faction_id", factionID).
		Msg("Fetching fresh faction basic data from API")
	data, err := c.client.GetFactionBasic(ctx, factionID)
	if err != nil {
		return nil, err
	}

	c.tracker.RecordCall("GetFactionBasic")
	c.cache.Set(key, data, c.config.FactionBasicTTL)

	return data, nil
}

// ClearCache invalidates all cached data
func (c *CachedTornClient) ClearCache() {
	c.cache.Flush()
	log.Info().Msg("API cache cleared")
}

// GetCacheStats returns cache hit/miss statistics
func (c *CachedTornClient) GetCacheStats() CacheStats {
	return CacheStats{
		Entries: c.cache.ItemCount(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}
