package repo

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// storageOps counts storage calls by backend, operation and outcome.
	storageOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_storage_operations_total",
			Help: "Total number of key-value storage operations.",
		},
		[]string{"backend", "op", "outcome"},
	)

	// storageLat records storage call latency in seconds.
	storageLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journal_storage_operation_duration_seconds",
			Help:    "Duration of key-value storage operations in seconds.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"backend", "op"},
	)

	// storageBytes observes the size of values written.
	storageBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journal_storage_value_bytes",
			Help:    "Size of values written to storage in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8), // 256B..4MiB
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(storageOps, storageLat, storageBytes)
}

// Instrumented decorates a Storage with Prometheus metrics labelled by
// backend name.
func Instrumented(next Storage, backend string) Storage {
	return &instrumented{next: next, backend: backend}
}

type instrumented struct {
	next    Storage
	backend string
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storageOps.WithLabelValues(s.backend, op, outcome).Inc()
	storageLat.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
}

func (s *instrumented) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	v, ok, err := s.next.Get(ctx, key)
	s.observe("get", start, err)
	return v, ok, err
}

func (s *instrumented) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.next.Set(ctx, key, value)
	s.observe("set", start, err)
	if err == nil {
		storageBytes.WithLabelValues(s.backend).Observe(float64(len(value)))
	}
	return err
}

func (s *instrumented) Remove(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := s.next.Remove(ctx, keys...)
	s.observe("remove", start, err)
	return err
}
