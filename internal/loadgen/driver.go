package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lordbasex/kvbench/internal/metrics"
	"github.com/lordbasex/kvbench/internal/registry"
)

const (
	// DefaultQueueCapacity is the bounded job queue size per driver.
	DefaultQueueCapacity = 1024
	// DefaultExecutors is the fixed executor set size per driver.
	DefaultExecutors = 16

	requestTimeout = 5 * time.Second
)

// Driver is one top-level generator thread: it owns a bounded job queue
// and a fixed set of executors, and runs a scheduler that produces jobs
// according to a Workload until told to stop.
type Driver struct {
	id         int
	serverURL  string
	client     *http.Client
	metrics    *metrics.Metrics
	keys       *registry.Registry
	jobs       chan Job
	stopCh     chan struct{}
	log        *zap.Logger
	executors  int
	wg         sync.WaitGroup
}

// NewDriver constructs a driver with the default queue capacity and
// executor count.
func NewDriver(id int, serverURL string, m *metrics.Metrics, keys *registry.Registry, log *zap.Logger) *Driver {
	return &Driver{
		id:        id,
		serverURL: serverURL,
		client:    &http.Client{Timeout: requestTimeout},
		metrics:   m,
		keys:      keys,
		jobs:      make(chan Job, DefaultQueueCapacity),
		stopCh:    make(chan struct{}),
		log:       log,
		executors: DefaultExecutors,
	}
}

// Stop signals the driver's scheduler to stop producing new jobs. It must
// be called at most once (a second call panics). Run returns once every
// executor has drained the queue and exited.
func (d *Driver) Stop() {
	close(d.stopCh)
}

// pushJob blocks while the queue is full, but wakes immediately if Stop is
// called while waiting — the producer then abandons the job rather than
// keep blocking against a shutting-down driver.
func (d *Driver) pushJob(job Job) bool {
	select {
	case d.jobs <- job:
		return true
	case <-d.stopCh:
		return false
	}
}

func (d *Driver) executorLoop() {
	defer d.wg.Done()
	for job := range d.jobs {
		d.execute(job)
	}
}

func (d *Driver) execute(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	start := time.Now()
	var success bool

	switch job.Op {
	case metrics.OpPost:
		success = d.doPost(ctx, job.Key, job.Value)
		if success {
			d.keys.TryAdd(job.Key)
		}
	case metrics.OpGet:
		success = d.doGet(ctx, job.Key)
	case metrics.OpDelete:
		success = d.doDelete(ctx, job.Key)
	}

	d.metrics.Record(job.Op, success, time.Since(start))
}

func (d *Driver) doPost(ctx context.Context, key, value string) bool {
	body, err := json.Marshal(struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}{key, value})
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.serverURL, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	defer drain(resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (d *Driver) doGet(ctx context.Context, key string) bool {
	url := fmt.Sprintf("%s?key=%s", d.serverURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	defer drain(resp.Body)
	// a GET that the server reports as not-found is still a correctly
	// answered query, per the generator's outcome rule.
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound
}

func (d *Driver) doDelete(ctx context.Context, key string) bool {
	url := fmt.Sprintf("%s?key=%s", d.serverURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return false
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	defer drain(resp.Body)
	// unlike GET, a 404 on DELETE means the intended effect did not
	// happen and counts as failure.
	return resp.StatusCode == http.StatusOK
}

func drain(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
