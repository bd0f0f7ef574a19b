// Package genconfig loads the loadgen binary's configuration from command
// line flags, following the defaults and flag names fixed by the wire
// contract.
package genconfig

import (
	"flag"
	"fmt"
	"time"
)

// Workload selects the operation mix the load generator drives.
type Workload string

const (
	WorkloadMix         Workload = "mix"
	WorkloadPutAll      Workload = "put-all"
	WorkloadGetAll      Workload = "get-all"
	WorkloadGetPopular  Workload = "get-popular"
)

// Config holds everything cmd/loadgen needs to run one benchmark pass.
type Config struct {
	ServerURL    string
	Threads      int
	Duration     time.Duration
	MixGet       int
	MixPost      int
	MixDelete    int
	KeyPrefix    string
	Workload     Workload
	KeyPoolSize  int
	PopularSize  int
}

// Default returns the compiled-in defaults before flag parsing.
func Default() Config {
	return Config{
		ServerURL:   "http://kv_server:8080/kv",
		Threads:     4,
		Duration:    20 * time.Second,
		MixGet:      60,
		MixPost:     30,
		MixDelete:   10,
		KeyPrefix:   "key",
		Workload:    WorkloadMix,
		KeyPoolSize: 100000,
		PopularSize: 100,
	}
}

// Parse parses args (typically os.Args[1:]) against fs and returns the
// resulting Config. It validates that the mix sums to 100 when Workload is
// "mix".
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Default()

	var (
		durationSeconds int
		mix             string
		workload        string
	)

	fs.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "KV server URL")
	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "number of driver threads")
	fs.IntVar(&durationSeconds, "duration", int(cfg.Duration/time.Second), "run duration in seconds")
	fs.StringVar(&mix, "mix", fmt.Sprintf("%d,%d,%d", cfg.MixGet, cfg.MixPost, cfg.MixDelete), "GET,POST,DELETE percentages, summing to 100")
	fs.StringVar(&cfg.KeyPrefix, "key-prefix", cfg.KeyPrefix, "prefix for generated keys")
	fs.StringVar(&workload, "workload", string(cfg.Workload), "mix|put-all|get-all|get-popular")
	fs.IntVar(&cfg.KeyPoolSize, "key-pool-size", cfg.KeyPoolSize, "live-key registry capacity")
	fs.IntVar(&cfg.PopularSize, "popular-size", cfg.PopularSize, "number of popular keys to seed for get-popular")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Duration = time.Duration(durationSeconds) * time.Second

	var g, p, d int
	if _, err := fmt.Sscanf(mix, "%d,%d,%d", &g, &p, &d); err != nil {
		return Config{}, fmt.Errorf("genconfig: invalid --mix %q: %w", mix, err)
	}
	cfg.MixGet, cfg.MixPost, cfg.MixDelete = g, p, d

	switch Workload(workload) {
	case WorkloadMix, WorkloadPutAll, WorkloadGetAll, WorkloadGetPopular:
		cfg.Workload = Workload(workload)
	default:
		return Config{}, fmt.Errorf("genconfig: unknown --workload %q", workload)
	}

	if cfg.Workload == WorkloadMix && cfg.MixGet+cfg.MixPost+cfg.MixDelete != 100 {
		return Config{}, fmt.Errorf("genconfig: --mix must sum to 100, got %d+%d+%d", cfg.MixGet, cfg.MixPost, cfg.MixDelete)
	}

	return cfg, nil
}
