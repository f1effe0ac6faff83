package utils

import (
	"context"
	"net/http"
	"strconv"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a decorator counting processed transactions by message path
// and result code. Counters live on a private registry.
type Metrics struct {
	registry  *prometheus.Registry
	checked   *prometheus.CounterVec
	delivered *prometheus.CounterVec
}

var _ swapchain.Decorator = (*Metrics)(nil)

// NewMetrics creates a Metrics decorator with its own registry.
func NewMetrics() *Metrics {
	checked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swapchain_checked_txs_total",
		Help: "Total number of checked transactions",
	}, []string{"path", "code"})

	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swapchain_delivered_txs_total",
		Help: "Total number of delivered transactions",
	}, []string{"path", "code"})

	r := prometheus.NewRegistry()
	r.MustRegister(checked, delivered)

	return &Metrics{
		registry:  r,
		checked:   checked,
		delivered: delivered,
	}
}

// Handler serves the collected metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry gives access to the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Check(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx, next swapchain.Checker) (*swapchain.CheckResult, error) {
	res, err := next.Check(ctx, db, tx)
	m.checked.WithLabelValues(swapchain.GetPath(tx), resultCode(err)).Inc()
	return res, err
}

func (m *Metrics) Deliver(ctx context.Context, db swapchain.KVStore, tx swapchain.Tx, next swapchain.Deliverer) (*swapchain.DeliverResult, error) {
	res, err := next.Deliver(ctx, db, tx)
	m.delivered.WithLabelValues(swapchain.GetPath(tx), resultCode(err)).Inc()
	return res, err
}

func resultCode(err error) string {
	code, _ := errors.ABCIInfo(err, false)
	return strconv.FormatUint(uint64(code), 10)
}
