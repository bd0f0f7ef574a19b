// Package serverconfig loads the kvserver binary's configuration from
// positional command-line arguments and environment variables.
package serverconfig

import (
	"fmt"
	"os"
	"strconv"
)

const (
	defaultCacheCapacity = 1000
	defaultThreads       = 16
	defaultPort          = 8080
	defaultMySQLDSN      = "kvbench:kvbench@tcp(localhost:3306)/kvbench"
)

// Config holds everything cmd/kvserver needs to start.
type Config struct {
	CacheCapacity int
	Threads       int
	Port          int
	MySQLDSN      string
}

// Default returns the compiled-in defaults before argument/env parsing.
func Default() Config {
	return Config{
		CacheCapacity: defaultCacheCapacity,
		Threads:       defaultThreads,
		Port:          defaultPort,
		MySQLDSN:      defaultMySQLDSN,
	}
}

// Load parses positional args (cache_capacity, threads) and applies the
// MYSQL_DSN environment override. The port is fixed and not configurable,
// per the wire contract.
func Load(args []string) (Config, error) {
	cfg := Default()

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return Config{}, fmt.Errorf("serverconfig: invalid cache_capacity %q: %w", args[0], err)
		}
		cfg.CacheCapacity = n
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return Config{}, fmt.Errorf("serverconfig: invalid threads %q: %w", args[1], err)
		}
		cfg.Threads = n
	}
	if len(args) > 2 {
		return Config{}, fmt.Errorf("serverconfig: unexpected extra arguments: %v", args[2:])
	}

	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		cfg.MySQLDSN = dsn
	}

	return cfg, nil
}
