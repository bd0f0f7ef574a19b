package loadgen

import (
	"fmt"
	"math/rand"

	"github.com/lordbasex/kvbench/internal/metrics"
)

// Workload selects how the scheduler chooses operations and keys.
type Workload string

const (
	WorkloadMix        Workload = "mix"
	WorkloadPutAll     Workload = "put-all"
	WorkloadGetAll     Workload = "get-all"
	WorkloadGetPopular Workload = "get-popular"
)

// MixWeights are the GET/POST/DELETE percentages for WorkloadMix, summing
// to 100.
type MixWeights struct {
	Get    int
	Post   int
	Delete int
}

// SchedulerConfig carries everything the scheduler loop needs beyond the
// driver itself.
type SchedulerConfig struct {
	Workload  Workload
	Mix       MixWeights
	KeyPrefix string
}

// Run starts the executor pool and the scheduler loop for cfg, returning
// once Stop has been called and all in-flight and queued jobs have been
// drained.
func (d *Driver) Run(cfg SchedulerConfig) {
	for i := 0; i < d.executors; i++ {
		d.wg.Add(1)
		go d.executorLoop()
	}
	d.runScheduler(cfg)
	close(d.jobs)
	d.wg.Wait()
}

func (d *Driver) runScheduler(cfg SchedulerConfig) {
	var seq uint64
	rng := rand.New(rand.NewSource(int64(d.id) + 1))

	for {
		select {
		case <-d.stopCh:
			return
		default:
		}

		op := d.chooseOp(cfg, rng)
		seq++

		var job Job
		switch op {
		case metrics.OpPost:
			key := d.syntheticKey(cfg.KeyPrefix, seq)
			job = Job{Op: metrics.OpPost, Key: key, Value: fmt.Sprintf("v_%d_%d", d.id, seq)}
		case metrics.OpGet:
			job = Job{Op: metrics.OpGet, Key: d.chooseGetKey(cfg, rng, seq)}
		case metrics.OpDelete:
			if key, ok := d.keys.RemoveRandom(); ok {
				job = Job{Op: metrics.OpDelete, Key: key}
			} else {
				// registry is empty; fall back to a POST so the driver
				// keeps making forward progress instead of stalling.
				key := d.syntheticKey(cfg.KeyPrefix, seq)
				job = Job{Op: metrics.OpPost, Key: key, Value: fmt.Sprintf("v_%d_%d", d.id, seq)}
			}
		}

		if !d.pushJob(job) {
			return
		}
	}
}

func (d *Driver) chooseOp(cfg SchedulerConfig, rng *rand.Rand) metrics.Op {
	switch cfg.Workload {
	case WorkloadPutAll:
		if rng.Intn(2) == 0 {
			return metrics.OpPost
		}
		return metrics.OpDelete
	case WorkloadGetAll, WorkloadGetPopular:
		return metrics.OpGet
	default: // WorkloadMix
		v := rng.Intn(100)
		if v < cfg.Mix.Get {
			return metrics.OpGet
		}
		if v < cfg.Mix.Get+cfg.Mix.Post {
			return metrics.OpPost
		}
		return metrics.OpDelete
	}
}

func (d *Driver) chooseGetKey(cfg SchedulerConfig, rng *rand.Rand, seq uint64) string {
	switch cfg.Workload {
	case WorkloadGetPopular:
		if key, ok := d.keys.PickRandom(); ok {
			return key
		}
		return d.syntheticMissKey(cfg.KeyPrefix, seq)
	case WorkloadGetAll:
		return d.syntheticMissKey(cfg.KeyPrefix, seq)
	default: // WorkloadMix
		if d.keys.Count() > 0 && rng.Intn(100) < 50 {
			if key, ok := d.keys.PickRandom(); ok {
				return key
			}
		}
		return d.syntheticMissKey(cfg.KeyPrefix, seq)
	}
}

func (d *Driver) syntheticKey(prefix string, seq uint64) string {
	return fmt.Sprintf("%s_thr%d_seq%d", prefix, d.id, seq)
}

func (d *Driver) syntheticMissKey(prefix string, seq uint64) string {
	return fmt.Sprintf("%s_unique_thr%d_seq%d", prefix, d.id, seq)
}

// PopularKey returns the seed key for index i, used by the orchestrator to
// pre-populate the server and registry before a get-popular run.
func PopularKey(prefix string, i int) string {
	return fmt.Sprintf("%s_pop_%d", prefix, i)
}

// PopularValue returns the seed value paired with PopularKey(prefix, i).
func PopularValue(i int) string {
	return fmt.Sprintf("v_pop_%d", i)
}
