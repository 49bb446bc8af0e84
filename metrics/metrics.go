// Package metrics records procedure calls as Prometheus metrics through
// dispatcher hooks.
//
//	c, err := metrics.New(prometheus.DefaultRegisterer, "procd")
//	if err != nil {
//	    return err
//	}
//	d := procedure.NewDispatcher(router, c.Options()...)
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bjaus/procedure"
)

// CodeOK is the code label of successful calls.
const CodeOK = "OK"

// Collector holds the call metrics of one dispatcher.
type Collector struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight *prometheus.GaugeVec
}

// New creates a Collector and registers its metrics with reg. The namespace
// may be empty.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "procedure",
			Name:      "calls_total",
			Help:      "Procedure calls by path, kind and result code.",
		}, []string{"path", "kind", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "procedure",
			Name:      "duration_seconds",
			Help:      "Time spent running resolved procedures.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "kind"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "procedure",
			Name:      "inflight",
			Help:      "Procedure calls currently running.",
		}, []string{"path", "kind"}),
	}
	for _, m := range []prometheus.Collector{c.calls, c.duration, c.inflight} {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("register procedure metrics: %w", err)
		}
	}
	return c, nil
}

// Options returns the dispatcher options that feed the collector.
//
// Calls the dispatcher could not resolve (ErrNoProcedure) are counted under
// the path "" so that arbitrary client paths cannot grow the label set.
func (c *Collector) Options() []procedure.Option {
	return []procedure.Option{
		procedure.WithOnDispatch(c.onDispatch),
		procedure.WithOnSuccess(c.onSuccess),
		procedure.WithOnFailure(c.onFailure),
	}
}

func (c *Collector) onDispatch(ctx context.Context, path string, kind procedure.Kind) {
	c.inflight.WithLabelValues(path, kind.String()).Inc()
}

func (c *Collector) onSuccess(ctx context.Context, path string, kind procedure.Kind, d time.Duration) {
	c.finish(path, kind, d)
	c.calls.WithLabelValues(path, kind.String(), CodeOK).Inc()
}

func (c *Collector) onFailure(ctx context.Context, path string, kind procedure.Kind, shape procedure.ErrorShape, err error, d time.Duration) {
	if errors.Is(err, procedure.ErrNoProcedure) {
		c.calls.WithLabelValues("", kind.String(), string(shape.Code)).Inc()
		return
	}
	c.finish(path, kind, d)
	c.calls.WithLabelValues(path, kind.String(), string(shape.Code)).Inc()
}

func (c *Collector) finish(path string, kind procedure.Kind, d time.Duration) {
	c.inflight.WithLabelValues(path, kind.String()).Dec()
	c.duration.WithLabelValues(path, kind.String()).Observe(d.Seconds())
}
