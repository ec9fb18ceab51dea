package fabricclient

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type clientMetrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	decodeRepairs prometheus.Counter
	connects      *prometheus.CounterVec
	connected     prometheus.Gauge
}

// initMetrics registers the client metrics with the configured registry.
// Series are labelled with the channel and chaincode; a client aimed at the
// same target as an earlier one on the registry shares its collectors. A nil
// registry leaves the collectors unregistered.
func (c *Client) initMetrics() error {
	reg := c.config.PromRegistry
	constLabels := prometheus.Labels{
		"channel":   c.config.Channel,
		"chaincode": c.config.Chaincode,
	}
	m := &clientMetrics{}
	var err error
	if m.requests, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "credledger_client_requests_total",
			Help:        "number of contract calls by mode, function and result",
			ConstLabels: constLabels,
		},
		[]string{"mode", "function", "result"},
	)); err != nil {
		return err
	}
	if m.duration, err = register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "credledger_client_request_duration_seconds",
			Help:        "time spent waiting for the network to answer a contract call",
			Buckets:     prometheus.ExponentialBuckets(0.005, 2, 12),
			ConstLabels: constLabels,
		},
		[]string{"mode", "function"},
	)); err != nil {
		return err
	}
	if m.decodeRepairs, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "credledger_client_decode_repairs_total",
		Help:        "number of responses rebuilt from a decimal byte list",
		ConstLabels: constLabels,
	})); err != nil {
		return err
	}
	if m.connects, err = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "credledger_client_connects_total",
			Help:        "number of gateway connection attempts by result",
			ConstLabels: constLabels,
		},
		[]string{"result"},
	)); err != nil {
		return err
	}
	if m.connected, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "credledger_client_connected",
		Help:        "1 while the client holds a gateway connection",
		ConstLabels: constLabels,
	})); err != nil {
		return err
	}
	c.metrics = m
	return nil
}

// register adds collector to reg, returning the collector already
// registered under the same descriptor if there is one
func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if reg == nil {
		return collector, nil
	}
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return collector, fmt.Errorf("failed to register client metrics: %w", err)
}

func (m *clientMetrics) observeCall(mode invokeMode, function string, err error, elapsed time.Duration) {
	m.requests.WithLabelValues(string(mode), function, resultLabel(err)).Inc()
	m.duration.WithLabelValues(string(mode), function).Observe(elapsed.Seconds())
}

func (m *clientMetrics) observeConnect(err error) {
	m.connects.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		m.connected.Set(1)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(classify(err), ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
