// Command loadtest hammers a cache store through the cached combinator and
// reports throughput, hit rate and memory use.
//
// Knobs are environment variables:
//
//	N      total lookups (default 200000)
//	W      concurrent workers (default 8)
//	KEYS   distinct token key space (default 1000)
//	TTL    entry lifetime (default 5s)
//	SIZE   store capacity in entries (default 10000)
//	DELAY  simulated upstream latency (default 0)
//	SF     1 enables single-flight fetch dedup (default 0)
//
// Run with: go run ./cmd/loadtest
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codewandler/crux-go/core/cache"
	"github.com/codewandler/crux-go/core/cached"
)

// === Config ===

var (
	logLevel   = slog.LevelInfo
	n          = getEnvInt("N", 200_000)
	workers    = getEnvInt("W", 8)
	keySpace   = getEnvInt("KEYS", 1_000)
	ttl        = getEnvDuration("TTL", 5*time.Second)
	maxSize    = getEnvInt("SIZE", 10_000)
	fetchDelay = getEnvDuration("DELAY", 0)
	useSF      = getEnvBool("SF", false)
)

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	return v == "1" || strings.ToLower(v) == "true"
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		return fallback
	}
	return v
}

// === Domain ===

type (
	lookupQuery struct {
		TokenID string `json:"token_id"`
	}

	tick struct {
		TokenID string  `json:"token_id"`
		Price   float64 `json:"price"`
	}
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	fmt.Printf("lookups:  %d\n", n)
	fmt.Printf("workers:  %d\n", workers)
	fmt.Printf("keys:     %d\n", keySpace)
	fmt.Printf("ttl:      %s\n", ttl)
	fmt.Printf("capacity: %d\n", maxSize)
	fmt.Printf("sf:       %v\n", useSF)

	store := cache.New(
		cache.WithMaxSize(maxSize),
		cache.WithCleanupInterval(time.Minute),
		cache.WithLogger(log),
	)
	store.StartReaper()
	defer store.StopReaper()

	var fetches atomic.Int64
	fetch := func(_ context.Context, q lookupQuery) (*tick, error) {
		fetches.Add(1)
		if fetchDelay > 0 {
			time.Sleep(fetchDelay)
		}
		return &tick{TokenID: q.TokenID, Price: rand.Float64()}, nil
	}

	opts := []cached.Option[lookupQuery]{
		cached.WithPrefix[lookupQuery]("price"),
		cached.WithTTL[lookupQuery](ttl),
	}
	if useSF {
		opts = append(opts, cached.WithSingleFlight[lookupQuery]())
	}
	lookup := cached.Wrap(store, "get_price", fetch, opts...)

	// === START ===

	log.Info("==================================")
	log.Info("starting ...")

	var done atomic.Int64
	startAt := time.Now()

	stopReport := make(chan struct{})
	var reportWG sync.WaitGroup
	reportWG.Add(1)
	go func() {
		defer reportWG.Done()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		var last int64
		for {
			select {
			case <-stopReport:
				return
			case <-ticker.C:
				cur := done.Load()
				snap := store.Stats()
				mu := getMemUsage()
				fmt.Printf("| %8d ops | %7d ops/s | hit rate %5.1f%% | %6d entries | (%d / %d) MiB mem (sys) |\n",
					cur, cur-last, snap.HitRate, snap.Entries, mu.Alloc/1024/1024, mu.Sys/1024/1024)
				last = cur
			}
		}
	}()

	ctx := context.Background()
	perWorker := n / workers

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				q := lookupQuery{TokenID: fmt.Sprintf("tok-%d", rand.N(keySpace))}
				_, err := lookup(ctx, q)
				checkErr(err)
				done.Add(1)
			}
		}()
	}
	wg.Wait()
	close(stopReport)
	reportWG.Wait()

	// === stats ===

	took := time.Since(startAt)
	runtime.GC()
	snap := store.Stats()

	println("")
	println("==========================================")
	fmt.Printf("total runtime: %.3f seconds\n", took.Seconds())
	fmt.Printf("      lookups: %d\n", done.Load())
	fmt.Printf("   avg. ops/s: %d\n", int(float64(done.Load())/took.Seconds()))
	fmt.Printf("      fetches: %d\n", fetches.Load())
	fmt.Printf("     hit rate: %.1f%%\n", snap.HitRate)
	fmt.Printf("      entries: %d\n", snap.Entries)
	fmt.Printf("    evictions: %d\n", snap.Evictions)
	fmt.Printf("  expirations: %d\n", snap.Expirations)
}

// === stats helpers ===

type MemUsage struct {
	Alloc      uint64 // bytes allocated and not yet freed (heap)
	TotalAlloc uint64 // cumulative bytes allocated
	Sys        uint64 // total bytes obtained from OS
	NumGC      uint32 // gc cycles
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// === Helpers ===

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}
