// Package stats provides the StatsClient interface used to report counters
// and gauges from the index and processor packages, plus a no-op and a
// Prometheus-backed implementation.
package stats

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StatsClient represents a client to a stats server.
type StatsClient interface {
	// Tags returns a sorted list of tags on the client.
	Tags() []string
	// WithTags returns a new client with additional tags appended.
	WithTags(tags ...string) StatsClient
	// Count tracks the number of times something occurs per second.
	Count(name string, value int64, rate float64)
	// Gauge sets the value of a metric.
	Gauge(name string, value float64, rate float64)
}

// NopStatsClient discards everything reported to it.
var NopStatsClient StatsClient = &nopStatsClient{}

type nopStatsClient struct{}

func (c *nopStatsClient) Tags() []string                           { return nil }
func (c *nopStatsClient) WithTags(tags ...string) StatsClient      { return c }
func (c *nopStatsClient) Count(name string, value int64, rate float64) {}
func (c *nopStatsClient) Gauge(name string, value float64, rate float64) {}

// PrometheusStatsClient reports counters and gauges through the standard
// prometheus client, registering one CounterVec and one GaugeVec (keyed by a
// "tags" label holding the joined, sorted tag list) lazily per metric name.
type PrometheusStatsClient struct {
	registerer prometheus.Registerer
	tags       []string

	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
}

// NewPrometheusStatsClient returns a StatsClient that registers its metrics
// against reg.
func NewPrometheusStatsClient(reg prometheus.Registerer) *PrometheusStatsClient {
	return &PrometheusStatsClient{
		registerer: reg,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

func (c *PrometheusStatsClient) Tags() []string {
	out := append([]string(nil), c.tags...)
	sort.Strings(out)
	return out
}

func (c *PrometheusStatsClient) WithTags(tags ...string) StatsClient {
	merged := append(append([]string(nil), c.tags...), tags...)
	sort.Strings(merged)
	return &PrometheusStatsClient{
		registerer: c.registerer,
		tags:       merged,
		counters:   c.counters,
		gauges:     c.gauges,
	}
}

func (c *PrometheusStatsClient) tagLabel() string {
	return strings.Join(c.Tags(), ",")
}

func (c *PrometheusStatsClient) counterVec(name string) *prometheus.CounterVec {
	c.mu.Lock()
	defer c.mu.Unlock()
	cv, ok := c.counters[name]
	if !ok {
		cv = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: sanitizeMetricName(name),
			Help: "tupleproc counter " + name,
		}, []string{"tags"})
		c.registerer.MustRegister(cv)
		c.counters[name] = cv
	}
	return cv
}

func (c *PrometheusStatsClient) gaugeVec(name string) *prometheus.GaugeVec {
	c.mu.Lock()
	defer c.mu.Unlock()
	gv, ok := c.gauges[name]
	if !ok {
		gv = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: sanitizeMetricName(name),
			Help: "tupleproc gauge " + name,
		}, []string{"tags"})
		c.registerer.MustRegister(gv)
		c.gauges[name] = gv
	}
	return gv
}

// Count increments a named counter by value. rate is accepted for interface
// symmetry with sampling stats backends but is not applied; every call is
// counted.
func (c *PrometheusStatsClient) Count(name string, value int64, rate float64) {
	c.counterVec(name).WithLabelValues(c.tagLabel()).Add(float64(value))
}

// Gauge sets a named gauge's current value.
func (c *PrometheusStatsClient) Gauge(name string, value float64, rate float64) {
	c.gaugeVec(name).WithLabelValues(c.tagLabel()).Set(value)
}

func sanitizeMetricName(name string) string {
	return "tupleproc_" + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}
