package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"divscope/app"
	"divscope/cache"
	"divscope/config"
	"divscope/database"
	"divscope/models"
)

func main() {
	years := flag.Int("years", 15, "dividend history window in years")
	requiredReturn := flag.Float64("required-return", 0, "discount rate for the fair value model (default from config)")
	provider := flag.String("provider", models.ProviderDefault, "data provider: default, precision or auto")
	noCache := flag.Bool("no-cache", false, "do not persist the result")
	forceFresh := flag.Bool("force-fresh", false, "bypass cached results and recompute")
	asJSON := flag.Bool("json", false, "emit the raw result as JSON")
	flag.Parse()

	tickers := flag.Args()
	if len(tickers) == 0 {
		fmt.Fprintln(os.Stderr, "usage: divscope [flags] TICKER [TICKER...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Load config from .env file
	cfg := config.LoadFromEnv()
	if *requiredReturn == 0 {
		*requiredReturn = cfg.Analysis.RequiredReturn
	}

	resultCache := buildCache(cfg)
	analyzer := app.New(cfg, resultCache)

	opts := models.AnalysisOptions{
		Years:          *years,
		RequiredReturn: *requiredReturn,
		Provider:       *provider,
		SaveToCache:    !*noCache,
		ForceFresh:     *forceFresh,
	}

	ctx := context.Background()
	failed := 0
	for _, ticker := range tickers {
		result, err := analyzer.Analyze(ctx, ticker, opts)
		if err != nil {
			log.Printf("⛔ Analysis for %s failed: %v", strings.ToUpper(ticker), err)
			failed++
			continue
		}
		if *asJSON {
			printJSON(result)
		} else {
			printReport(result)
		}
	}

	if failed == len(tickers) {
		os.Exit(1)
	}
}

// buildCache wires up the optional cache layers. Either backend being
// unreachable just disables that layer.
func buildCache(cfg *config.Config) *cache.ResultCache {
	var repo *database.AnalysisRepository
	port, err := strconv.Atoi(cfg.DatabasePort)
	if err != nil {
		log.Printf("⚠️  Invalid DB_PORT %q, skipping persistent cache", cfg.DatabasePort)
	} else {
		db, err := database.Connect(cfg.DatabaseHost, port, cfg.DatabaseName, cfg.DatabaseUser, cfg.DatabasePassword)
		if err != nil {
			log.Printf("⚠️  Database unavailable, persistent cache disabled: %v", err)
		} else {
			repo = database.NewAnalysisRepository(db)
			if err := repo.InitSchema(); err != nil {
				log.Printf("⚠️  Schema migration failed, persistent cache disabled: %v", err)
				repo = nil
			}
		}
	}

	redisClient := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	return cache.NewResultCache(redisClient, repo, cfg.Analysis.CacheMaxAge)
}

func printJSON(result *models.AnalysisResult) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		log.Printf("⚠️  JSON encoding failed for %s: %v", result.Ticker, err)
	}
}

func printReport(result *models.AnalysisResult) {
	fmt.Printf("\n📊 %s", result.Ticker)
	if result.Quote.DisplayName != "" {
		fmt.Printf(" (%s)", result.Quote.DisplayName)
	}
	if result.FromCache {
		fmt.Print("  [cached]")
	}
	fmt.Println()

	fmt.Printf("   Price:            %s %.2f\n", result.Quote.Currency, result.Quote.Price)
	fmt.Printf("   TTM dividends:    %.4f", result.TtmDividends)
	if result.TtmYield != nil {
		fmt.Printf("  (yield %.2f%%)", *result.TtmYield*100)
	}
	fmt.Println()

	fmt.Printf("   Streak:           %d years", result.Streak)
	if result.StreakAdjusted {
		fmt.Printf("  (computed %d, adjusted)", result.RawStreak)
	}
	fmt.Println()

	if result.Cagr3 != nil {
		fmt.Printf("   Growth 3y:        %.2f%%\n", *result.Cagr3*100)
	}
	if result.Cagr5 != nil {
		fmt.Printf("   Growth 5y:        %.2f%%\n", *result.Cagr5*100)
	}
	fmt.Printf("   Safe growth:      %.2f%%\n", result.SafeGrowth*100)

	if result.ForwardDividend != nil {
		fmt.Printf("   Forward dividend: %.4f", *result.ForwardDividend)
		if result.ForwardYield != nil {
			fmt.Printf("  (yield %.2f%%)", *result.ForwardYield*100)
		}
		fmt.Println()
	}
	if result.FairValue != nil {
		upside := (*result.FairValue/result.Quote.Price - 1) * 100
		fmt.Printf("   Fair value:       %.2f  (%+.1f%% vs price)\n", *result.FairValue, upside)
	} else {
		fmt.Println("   Fair value:       n/a")
	}

	fmt.Printf("   Score:            %d/100  %s\n", result.TotalScore, scoreLabel(result.TotalScore))
	fmt.Printf("     payout %.0f | fcf %.0f | streak %.0f | growth %.0f | trend %.0f | macd %.0f | rsi %.0f\n",
		result.Scores.Payout, result.Scores.Fcf, result.Scores.Streak, result.Scores.Growth,
		result.Scores.Trend, result.Scores.Macd, result.Scores.Rsi)

	for _, warning := range result.Warnings {
		fmt.Printf("   ⚠️  %s\n", warning)
	}
}

// scoreLabel buckets the composite score into a human verdict.
func scoreLabel(score int) string {
	switch {
	case score >= 80:
		return "STRONG"
	case score >= 65:
		return "SOLID"
	case score >= 50:
		return "WATCH"
	default:
		return "WEAK"
	}
}
