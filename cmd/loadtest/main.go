package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
)

var vocabulary = []string{
	"distributed", "systems", "search", "engine", "analytics", "platform",
	"indexing", "documents", "query", "processing", "cache", "ranking",
	"inverted", "index", "posting", "bitmap", "token", "stemming",
	"fuzzy", "suggest", "levenshtein", "roaring", "shard", "latency",
}

var kinds = []string{metrics.KindPlain, metrics.KindOptions, metrics.KindFuzzy, metrics.KindSuggest}

type Stats struct {
	total     atomic.Int64
	empty     atomic.Int64
	mu        sync.Mutex
	latencies map[string][]time.Duration
}

func NewStats() *Stats {
	return &Stats{latencies: make(map[string][]time.Duration)}
}

func (s *Stats) Record(kind string, d time.Duration, results int) {
	s.total.Add(1)
	if results == 0 {
		s.empty.Add(1)
	}
	s.mu.Lock()
	s.latencies[kind] = append(s.latencies[kind], d)
	s.mu.Unlock()
}

func main() {
	snapshot := flag.String("snapshot", "", "snapshot to load; a synthetic corpus is generated when empty")
	numDocs := flag.Int("docs", 20000, "synthetic corpus size")
	concurrency := flag.Int("concurrency", 8, "number of concurrent query workers")
	duration := flag.Duration("duration", 10*time.Second, "test duration")
	writeEvery := flag.Duration("write-every", 0, "append a document at this interval to exercise rebuilds under load")
	flag.Parse()

	logger.Setup("warn", "text")
	svc := service.New(config.DefaultIndexConfig(), metrics.New(prometheus.NewRegistry()))

	start := time.Now()
	if err := load(svc, *snapshot, *numDocs); err != nil {
		fmt.Fprintf(os.Stderr, "loading corpus: %v\n", err)
		os.Exit(1)
	}
	st := svc.Stats()
	fmt.Println("=== Index Load Test ===")
	fmt.Printf("Documents:   %d\n", st.NumDocuments)
	fmt.Printf("Terms:       %d\n", st.NumTokens)
	fmt.Printf("Build time:  %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Println()

	stats := run(svc, *concurrency, *duration, *writeEvery)
	printReport(stats, *duration)
}

func load(svc *service.Service, snapshot string, n int) error {
	ctx := context.Background()
	if snapshot != "" {
		return svc.Load(ctx, snapshot)
	}
	rng := rand.New(rand.NewPCG(1, 2))
	docs := make([]index.Document, 0, n)
	for range n {
		docs = append(docs, index.Document{Fields: map[string]string{
			"title": sentence(rng, 4),
			"body":  sentence(rng, 30),
		}})
	}
	if err := svc.Add(docs...); err != nil {
		return err
	}
	svc.Build(ctx)
	return nil
}

func sentence(rng *rand.Rand, words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = vocabulary[rng.IntN(len(vocabulary))]
	}
	return strings.Join(parts, " ")
}

func run(svc *service.Service, concurrency int, duration, writeEvery time.Duration) *Stats {
	stats := NewStats()
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := range concurrency {
		wg.Go(func() {
			rng := rand.New(rand.NewPCG(uint64(w), 7))
			for ctx.Err() == nil {
				kind := kinds[rng.IntN(len(kinds))]
				query := sentence(rng, 1+rng.IntN(2))
				begin := time.Now()
				results := execute(ctx, svc, kind, query)
				stats.Record(kind, time.Since(begin), results)
			}
		})
	}
	if writeEvery > 0 {
		wg.Go(func() {
			rng := rand.New(rand.NewPCG(99, 7))
			ticker := time.NewTicker(writeEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					fields := map[string]string{"body": sentence(rng, 30)}
					if n := svc.Stats().NumDocuments; n > 0 && rng.IntN(2) == 0 {
						_ = svc.Update(ctx, index.Document{ID: index.DocID(rng.IntN(n)), Fields: fields})
						continue
					}
					_, _ = svc.Append(ctx, fields)
				}
			}
		})
	}
	wg.Wait()
	return stats
}

func execute(ctx context.Context, svc *service.Service, kind, query string) int {
	switch kind {
	case metrics.KindOptions:
		return len(svc.SearchWithOptions(ctx, query, indexer.SearchOptions{
			Limit:        10,
			FieldWeights: map[string]float64{"title": 2},
		}).Documents)
	case metrics.KindFuzzy:
		return len(svc.SearchFuzzy(query, 1))
	case metrics.KindSuggest:
		return len(svc.Suggest(query[:min(3, len(query))], 5))
	default:
		return len(svc.Search(query))
	}
}

func printReport(stats *Stats, duration time.Duration) {
	total := stats.total.Load()
	fmt.Println("=== Results ===")
	fmt.Printf("Total queries:   %d\n", total)
	fmt.Printf("Empty results:   %d\n", stats.empty.Load())
	if total == 0 {
		fmt.Println("WARNING: no queries completed")
		os.Exit(1)
	}
	fmt.Printf("Queries/sec:     %.2f\n", float64(total)/duration.Seconds())

	stats.mu.Lock()
	defer stats.mu.Unlock()
	for _, kind := range kinds {
		latencies := stats.latencies[kind]
		if len(latencies) == 0 {
			continue
		}
		slices.Sort(latencies)
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))
		var sumSquared float64
		for _, l := range latencies {
			diff := float64(l - avg)
			sumSquared += diff * diff
		}
		stddev := time.Duration(math.Sqrt(sumSquared / float64(len(latencies))))

		fmt.Println()
		fmt.Printf("=== %s (%d) ===\n", kind, len(latencies))
		fmt.Printf("Min:    %s\n", latencies[0])
		fmt.Printf("Avg:    %s\n", avg)
		fmt.Printf("P50:    %s\n", percentile(latencies, 50))
		fmt.Printf("P95:    %s\n", percentile(latencies, 95))
		fmt.Printf("P99:    %s\n", percentile(latencies, 99))
		fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])
		fmt.Printf("StdDev: %s\n", stddev)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[min(max(idx, 0), len(sorted)-1)]
}
