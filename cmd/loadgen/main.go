// Command loadgen drives a concurrent KV workload against a running
// kvserver and prints a summary of throughput and per-op latency on exit.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lordbasex/kvbench/internal/genconfig"
	"github.com/lordbasex/kvbench/internal/loadgen"
	"github.com/lordbasex/kvbench/internal/logging"
	"github.com/lordbasex/kvbench/internal/metrics"
	"github.com/lordbasex/kvbench/internal/registry"
)

func main() {
	log := logging.New("loadgen")
	defer log.Sync()

	cfg, err := genconfig.Parse(flag.NewFlagSet("loadgen", flag.ContinueOnError), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "loadgen:", err)
		os.Exit(1)
	}

	m := metrics.New()
	keys := registry.New(cfg.KeyPoolSize)

	if cfg.Workload == genconfig.WorkloadGetPopular {
		seedPopularKeys(cfg, keys, log)
	}

	drivers := make([]*loadgen.Driver, cfg.Threads)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Threads; i++ {
		d := loadgen.NewDriver(i, cfg.ServerURL, m, keys, log)
		drivers[i] = d

		wg.Add(1)
		go func(d *loadgen.Driver) {
			defer wg.Done()
			d.Run(loadgen.SchedulerConfig{
				Workload:  loadgen.Workload(cfg.Workload),
				Mix:       loadgen.MixWeights{Get: cfg.MixGet, Post: cfg.MixPost, Delete: cfg.MixDelete},
				KeyPrefix: cfg.KeyPrefix,
			})
		}(d)
	}

	log.Info("loadgen running",
		zap.String("server", cfg.ServerURL),
		zap.Int("threads", cfg.Threads),
		zap.Duration("duration", cfg.Duration),
		zap.String("workload", string(cfg.Workload)),
	)

	time.Sleep(cfg.Duration)

	for _, d := range drivers {
		d.Stop()
	}
	wg.Wait()

	printSummary(cfg, m)
}

// seedPopularKeys pre-populates the server and the live-key registry with
// cfg.PopularSize keys before a get-popular run starts, so that GETs have a
// hot set to hit from the first request.
func seedPopularKeys(cfg genconfig.Config, keys *registry.Registry, log *zap.Logger) {
	client := &http.Client{Timeout: 5 * time.Second}
	seeded := 0

	for i := 0; i < cfg.PopularSize; i++ {
		key := loadgen.PopularKey(cfg.KeyPrefix, i)
		value := loadgen.PopularValue(i)

		body, err := json.Marshal(struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		}{key, value})
		if err != nil {
			continue
		}

		resp, err := client.Post(cfg.ServerURL, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Warn("popular key seed failed", zap.String("key", key), zap.Error(err))
			continue
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Warn("popular key seed rejected", zap.String("key", key), zap.Int("status", resp.StatusCode))
			continue
		}

		keys.TryAdd(key)
		seeded++
	}

	log.Info("seeded popular keys", zap.Int("count", seeded), zap.Int("requested", cfg.PopularSize))
}

func printSummary(cfg genconfig.Config, m *metrics.Metrics) {
	totals := m.Totals()
	seconds := cfg.Duration.Seconds()
	var throughput float64
	if seconds > 0 {
		throughput = float64(totals.Success) / seconds
	}

	fmt.Println("=== LoadGen Summary ===")
	fmt.Printf("Threads: %d\n", cfg.Threads)
	fmt.Printf("Duration: %d s\n", int(seconds))
	fmt.Printf("Total Requests: %d\n", totals.Requests)
	fmt.Printf("Success: %d, Failure: %d\n", totals.Success, totals.Failure)
	fmt.Printf("Throughput (req/s): %.2f\n", throughput)

	for _, op := range []metrics.Op{metrics.OpGet, metrics.OpPost, metrics.OpDelete} {
		s := m.Snapshot(op)
		fmt.Printf("%s: attempts=%d success=%d fail=%d avg_latency_ms=%.3f\n",
			op, s.Count, s.Success, s.Failure, float64(s.AvgLatency())/float64(time.Millisecond))
	}
}
