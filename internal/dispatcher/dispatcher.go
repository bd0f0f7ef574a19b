// Package dispatcher implements the KV server's single HTTP surface: the
// /kv route and its GET/POST/DELETE handlers, routed through the cache
// fast path and the store of record.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lordbasex/kvbench/internal/cache"
	"github.com/lordbasex/kvbench/internal/health"
	"github.com/lordbasex/kvbench/internal/metrics"
	"github.com/lordbasex/kvbench/internal/store"
)

// KVStore is the persistence dependency the dispatcher needs; *store.Store
// satisfies it. Kept as an interface so handler tests can substitute a
// fake instead of a real database connection.
type KVStore interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Dispatcher wires the cache, store, metrics, rate limiter, and validator
// together behind an http.Handler.
type Dispatcher struct {
	cache     *cache.Cache
	store     KVStore
	metrics   *metrics.Metrics
	limiter   *RateLimiter
	validator *Validator
	health    *health.Checker
	log       *zap.Logger
}

// New assembles a Dispatcher. Any of limiter/validator/checker may be nil,
// in which case that concern is skipped.
func New(c *cache.Cache, s KVStore, m *metrics.Metrics, limiter *RateLimiter, v *Validator, checker *health.Checker, log *zap.Logger) *Dispatcher {
	return &Dispatcher{cache: c, store: s, metrics: m, limiter: limiter, validator: v, health: checker, log: log}
}

// Router builds the chi.Router exposing /kv, /metrics, and /healthz.
func (d *Dispatcher) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(d.requestID)
	if d.limiter != nil {
		r.Use(d.rateLimit)
	}

	r.Method(http.MethodPost, "/kv", http.HandlerFunc(d.handlePost))
	r.Method(http.MethodGet, "/kv", http.HandlerFunc(d.handleGet))
	r.Method(http.MethodDelete, "/kv", http.HandlerFunc(d.handleDelete))
	r.MethodNotAllowed(d.handleMethodNotAllowed)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", d.handleHealthz)

	return r
}

func (d *Dispatcher) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		d.log.Debug("request", zap.String("request_id", id), zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

func (d *Dispatcher) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !d.limiter.Allow(ip) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type putRequest struct {
	Key   *string `json:"key"`
	Value *string `json:"value"`
}

func (d *Dispatcher) handlePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req putRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == nil || req.Value == nil {
		d.metrics.Record(metrics.OpPost, false, time.Since(start))
		writeText(w, http.StatusBadRequest, "bad request: missing key or value")
		return
	}

	if d.validator != nil {
		if err := d.validator.ValidateKey(*req.Key); err != nil {
			d.metrics.Record(metrics.OpPost, false, time.Since(start))
			writeText(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := d.validator.ValidateValue(*req.Value); err != nil {
			d.metrics.Record(metrics.OpPost, false, time.Since(start))
			writeText(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := d.store.Put(r.Context(), *req.Key, *req.Value); err != nil {
		d.log.Error("store put failed", zap.Error(err), zap.String("key", *req.Key))
		d.metrics.Record(metrics.OpPost, false, time.Since(start))
		writeText(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Write-through: cache failures are a performance hint only, never
	// surfaced to the caller.
	d.cache.Put(*req.Key, *req.Value)

	d.metrics.Record(metrics.OpPost, true, time.Since(start))
	writeText(w, http.StatusOK, "OK")
}

func (d *Dispatcher) handleGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	key := r.URL.Query().Get("key")
	if key == "" {
		d.metrics.Record(metrics.OpGet, false, time.Since(start))
		writeText(w, http.StatusBadRequest, "bad request: missing key")
		return
	}

	if v, ok := d.cache.Get(key); ok {
		d.metrics.Record(metrics.OpGet, true, time.Since(start))
		w.Header().Set("X-Source", "CACHE")
		writeText(w, http.StatusOK, "CACHE:"+v)
		return
	}

	v, err := d.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			d.metrics.Record(metrics.OpGet, true, time.Since(start))
			writeText(w, http.StatusNotFound, "not found")
			return
		}
		d.log.Error("store get failed", zap.Error(err), zap.String("key", key))
		d.metrics.Record(metrics.OpGet, false, time.Since(start))
		writeText(w, http.StatusInternalServerError, "internal error")
		return
	}

	d.cache.Put(key, v)
	d.metrics.Record(metrics.OpGet, true, time.Since(start))
	w.Header().Set("X-Source", "DB")
	writeText(w, http.StatusOK, "DB:"+v)
}

func (d *Dispatcher) handleDelete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	key := r.URL.Query().Get("key")
	if key == "" {
		d.metrics.Record(metrics.OpDelete, false, time.Since(start))
		writeText(w, http.StatusBadRequest, "bad request: missing key")
		return
	}

	err := d.store.Delete(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			d.metrics.Record(metrics.OpDelete, false, time.Since(start))
			writeText(w, http.StatusNotFound, "not found")
			return
		}
		d.log.Error("store delete failed", zap.Error(err), zap.String("key", key))
		d.metrics.Record(metrics.OpDelete, false, time.Since(start))
		writeText(w, http.StatusInternalServerError, "internal error")
		return
	}

	d.cache.Delete(key)
	d.metrics.Record(metrics.OpDelete, true, time.Since(start))
	writeText(w, http.StatusOK, "Deleted")
}

func (d *Dispatcher) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (d *Dispatcher) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if d.health == nil {
		writeText(w, http.StatusOK, "ok")
		return
	}
	if err := d.health.Ready(r.Context()); err != nil {
		writeText(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	writeText(w, http.StatusOK, "ok")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(body + "\n"))
}
