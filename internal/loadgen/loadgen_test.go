package loadgen

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lordbasex/kvbench/internal/metrics"
	"github.com/lordbasex/kvbench/internal/registry"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	var seen int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&seen, 1)
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		case http.MethodGet:
			w.Header().Set("X-Source", "CACHE")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("CACHE:v"))
		case http.MethodDelete:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Deleted"))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDriverPutAllDrainsOnStop(t *testing.T) {
	srv := newTestServer(t)
	m := metrics.New()
	keys := registry.New(1000)

	d := NewDriver(0, srv.URL, m, keys, zap.NewNop())

	done := make(chan struct{})
	go func() {
		d.Run(SchedulerConfig{Workload: WorkloadPutAll, KeyPrefix: "key"})
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	d.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not stop within timeout")
	}

	totals := m.Totals()
	if totals.Requests == 0 {
		t.Fatal("expected at least one request to have been made")
	}
}

func TestDriverGetAllOnlyEverGets(t *testing.T) {
	srv := newTestServer(t)
	m := metrics.New()
	keys := registry.New(1000)

	d := NewDriver(0, srv.URL, m, keys, zap.NewNop())

	done := make(chan struct{})
	go func() {
		d.Run(SchedulerConfig{Workload: WorkloadGetAll, KeyPrefix: "key"})
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	d.Stop()
	<-done

	if m.Snapshot(metrics.OpPost).Count != 0 {
		t.Fatalf("expected zero POST attempts under get-all, got %d", m.Snapshot(metrics.OpPost).Count)
	}
	if m.Snapshot(metrics.OpDelete).Count != 0 {
		t.Fatalf("expected zero DELETE attempts under get-all, got %d", m.Snapshot(metrics.OpDelete).Count)
	}
	if m.Snapshot(metrics.OpGet).Count == 0 {
		t.Fatal("expected at least one GET attempt")
	}
}

func TestPopularKeyFormat(t *testing.T) {
	if got, want := PopularKey("key", 3), "key_pop_3"; got != want {
		t.Fatalf("PopularKey = %q, want %q", got, want)
	}
	if got, want := PopularValue(3), "v_pop_3"; got != want {
		t.Fatalf("PopularValue = %q, want %q", got, want)
	}
}

func TestSyntheticKeyFormats(t *testing.T) {
	m := metrics.New()
	keys := registry.New(10)
	d := NewDriver(2, "http://example.invalid", m, keys, zap.NewNop())

	if got, want := d.syntheticKey("key", 5), "key_thr2_seq5"; got != want {
		t.Fatalf("syntheticKey = %q, want %q", got, want)
	}
	if got, want := d.syntheticMissKey("key", 5), "key_unique_thr2_seq5"; got != want {
		t.Fatalf("syntheticMissKey = %q, want %q", got, want)
	}
}
