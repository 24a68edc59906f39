package cache

import (
	"context"
	"testing"
	"time"

	"divscope/models"
)

func baseOptions() models.AnalysisOptions {
	return models.AnalysisOptions{
		Years:          15,
		RequiredReturn: 0.09,
		Provider:       models.ProviderDefault,
	}
}

func TestHashOptionsIgnoresCacheControlFlags(t *testing.T) {
	plain := baseOptions()

	flagged := baseOptions()
	flagged.SaveToCache = true
	flagged.ForceFresh = true

	if HashOptions(plain) != HashOptions(flagged) {
		t.Error("expected cache-control flags to be excluded from the hash")
	}
}

func TestHashOptionsIsStable(t *testing.T) {
	first := HashOptions(baseOptions())
	second := HashOptions(baseOptions())
	if first != second {
		t.Errorf("expected identical hashes, got %s and %s", first, second)
	}
	if len(first) != 16 {
		t.Errorf("expected a 16-hex-char hash, got %q", first)
	}
}

func TestHashOptionsDistinguishesInputs(t *testing.T) {
	base := HashOptions(baseOptions())

	years := baseOptions()
	years.Years = 20
	if HashOptions(years) == base {
		t.Error("expected a different hash for a different years window")
	}

	rate := baseOptions()
	rate.RequiredReturn = 0.08
	if HashOptions(rate) == base {
		t.Error("expected a different hash for a different required return")
	}

	provider := baseOptions()
	provider.Provider = models.ProviderPrecision
	if HashOptions(provider) == base {
		t.Error("expected a different hash for a different provider")
	}
}

func testResult(ticker string, observedAt time.Time) *models.AnalysisResult {
	return &models.AnalysisResult{
		Ticker:     ticker,
		Quote:      models.Quote{Symbol: ticker, Price: 100},
		TotalScore: 75,
		Warnings:   []string{"initial warning"},
		ObservedAt: observedAt,
	}
}

func TestResultCacheRoundTrip(t *testing.T) {
	c := NewResultCache(nil, nil, time.Hour)
	ctx := context.Background()
	hash := HashOptions(baseOptions())

	if _, ok := c.GetRecent(ctx, "KO", hash); ok {
		t.Fatal("expected a miss on an empty cache")
	}

	c.Save(ctx, testResult("KO", time.Now()), hash)

	cached, ok := c.GetRecent(ctx, "KO", hash)
	if !ok {
		t.Fatal("expected a hit after save")
	}
	if cached.TotalScore != 75 {
		t.Errorf("expected score 75, got %d", cached.TotalScore)
	}

	// A different option set must not collide.
	other := baseOptions()
	other.Years = 20
	if _, ok := c.GetRecent(ctx, "KO", HashOptions(other)); ok {
		t.Error("expected a miss for a different option set")
	}
}

func TestResultCacheStaleEntryIsAMiss(t *testing.T) {
	c := NewResultCache(nil, nil, time.Hour)
	ctx := context.Background()
	hash := HashOptions(baseOptions())

	c.Save(ctx, testResult("KO", time.Now().Add(-2*time.Hour)), hash)

	if _, ok := c.GetRecent(ctx, "KO", hash); ok {
		t.Error("expected a stale entry to be a miss")
	}
}

func TestResultCacheShieldsCachedEntries(t *testing.T) {
	c := NewResultCache(nil, nil, time.Hour)
	ctx := context.Background()
	hash := HashOptions(baseOptions())

	original := testResult("KO", time.Now())
	c.Save(ctx, original, hash)

	first, ok := c.GetRecent(ctx, "KO", hash)
	if !ok {
		t.Fatal("expected a hit")
	}
	first.FromCache = true
	first.Warnings[0] = "mutated"
	first.Warnings = append(first.Warnings, "extra")

	second, ok := c.GetRecent(ctx, "KO", hash)
	if !ok {
		t.Fatal("expected a hit")
	}
	if second.FromCache {
		t.Error("expected the cached entry's FromCache flag to be untouched")
	}
	if len(second.Warnings) != 1 || second.Warnings[0] != "initial warning" {
		t.Errorf("expected the cached warnings to be untouched, got %v", second.Warnings)
	}
}
