package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"divscope/database"
	"divscope/models"
)

// ResultCache serves fresh-enough analysis results from three layers:
// an in-process map, Redis, and the persistent Postgres store. Every
// layer is optional and every fault degrades to a miss with a logged
// warning; the orchestrator must always be able to produce a fresh
// result.
type ResultCache struct {
	memory *gocache.Cache
	redis  *RedisClient
	repo   *database.AnalysisRepository
	maxAge time.Duration
}

// NewResultCache creates the layered result cache. redis and repo may be
// nil; the corresponding layer is then skipped.
func NewResultCache(redis *RedisClient, repo *database.AnalysisRepository, maxAge time.Duration) *ResultCache {
	return &ResultCache{
		memory: gocache.New(maxAge, 10*time.Minute),
		redis:  redis,
		repo:   repo,
		maxAge: maxAge,
	}
}

// HashOptions fingerprints an option set into a stable cache key
// component. Options are canonicalized through a key-sorted JSON object
// so that identical option sets hash identically regardless of how the
// caller assembled them.
func HashOptions(opts models.AnalysisOptions) string {
	canonical := map[string]interface{}{
		"years":          opts.Years,
		"requiredReturn": opts.RequiredReturn,
		"provider":       opts.Provider,
	}
	keys := make([]string, 0, len(canonical))
	for k := range canonical {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		encoded, _ := json.Marshal(canonical[k])
		fmt.Fprintf(&sb, "%s=%s;", k, encoded)
	}
	hash := md5.Sum([]byte(sb.String()))
	return fmt.Sprintf("%x", hash[:8]) // first 8 bytes for a compact key
}

func cacheKey(ticker, optionsHash string) string {
	return fmt.Sprintf("analysis:%s:%s", ticker, optionsHash)
}

// GetRecent returns a rehydrated result for (ticker, optionsHash) when a
// record newer than maxAge exists in any layer. Store faults are
// downgraded to warnings and a miss.
func (c *ResultCache) GetRecent(ctx context.Context, ticker, optionsHash string) (*models.AnalysisResult, bool) {
	key := cacheKey(ticker, optionsHash)

	if cached, found := c.memory.Get(key); found {
		if result, ok := cached.(*models.AnalysisResult); ok && c.isFresh(result) {
			return copyResult(result), true
		}
	}

	if c.redis != nil {
		var result models.AnalysisResult
		if err := c.redis.Get(ctx, key, &result); err == nil && c.isFresh(&result) {
			c.memory.Set(key, &result, gocache.DefaultExpiration)
			return &result, true
		}
	}

	if c.repo != nil {
		record, err := c.repo.GetRecent(ticker, optionsHash, c.maxAge)
		if err != nil {
			log.Printf("⚠️  Cache store read failed for %s, computing fresh: %v", ticker, err)
			return nil, false
		}
		if record != nil {
			result, err := record.Rehydrate()
			if err != nil {
				log.Printf("⚠️  Cache record rehydration failed for %s: %v", ticker, err)
				return nil, false
			}
			c.memory.Set(key, result, gocache.DefaultExpiration)
			return result, true
		}
	}

	return nil, false
}

// Save persists a fresh result through all layers, best effort. A write
// failure never fails the analysis; the computed result is still
// returned to the caller. Returns the persistent record id when the
// store write succeeded.
func (c *ResultCache) Save(ctx context.Context, result *models.AnalysisResult, optionsHash string) string {
	key := cacheKey(result.Ticker, optionsHash)
	c.memory.Set(key, copyResult(result), gocache.DefaultExpiration)

	if c.redis != nil {
		if err := c.redis.Set(ctx, key, result, c.maxAge); err != nil {
			log.Printf("⚠️  Redis cache write failed for %s: %v", result.Ticker, err)
		}
	}

	if c.repo != nil {
		id, err := c.repo.Save(result, optionsHash)
		if err != nil {
			log.Printf("⚠️  Cache store write failed for %s: %v", result.Ticker, err)
			return ""
		}
		return id
	}
	return ""
}

func (c *ResultCache) isFresh(result *models.AnalysisResult) bool {
	return time.Since(result.ObservedAt) <= c.maxAge
}

// copyResult shields cached entries from caller mutation of the
// FromCache flag and warning slice.
func copyResult(result *models.AnalysisResult) *models.AnalysisResult {
	clone := *result
	clone.Warnings = append([]string(nil), result.Warnings...)
	clone.AnnualSeries = append([]models.AnnualDividendPoint(nil), result.AnnualSeries...)
	return &clone
}
