// Package loadgen implements the generator-side pool-of-pools worker: a
// bounded per-driver job queue drained by a fixed set of HTTP executors,
// fed by a scheduler that turns a workload mode into a stream of jobs.
package loadgen

import "github.com/lordbasex/kvbench/internal/metrics"

// Job is one unit of work an executor performs against the server.
type Job struct {
	Op    metrics.Op
	Key   string
	Value string // only meaningful when Op == metrics.OpPost
}
