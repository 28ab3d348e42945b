// Package metrics counts compilation and ingestion activity with
// Prometheus collectors.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/zeromem/internal/ir"
)

// Collector groups the zeromem metrics. A nil *Collector is valid and
// records nothing, so callers never need to branch on whether metrics are
// enabled.
type Collector struct {
	conceptsNew     prometheus.Counter
	factsNew        prometheus.Counter
	episodesNew     prometheus.Counter
	duplicates      prometheus.Counter
	compileTuples   prometheus.Counter
	compileDuration prometheus.Histogram
}

// NewCollector creates the collectors and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		conceptsNew: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zeromem_concepts_new_total",
			Help: "Concepts inserted for the first time.",
		}),
		factsNew: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zeromem_facts_new_total",
			Help: "Facts inserted for the first time.",
		}),
		episodesNew: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zeromem_episodes_new_total",
			Help: "Episodes (fact observations under a context) inserted.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zeromem_duplicates_skipped_total",
			Help: "Concepts merged and episodes skipped as already stored.",
		}),
		compileTuples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zeromem_compile_tuples_total",
			Help: "Semantic tuples compiled.",
		}),
		compileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zeromem_compile_duration_seconds",
			Help:    "Time spent compiling one input.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	for _, col := range []prometheus.Collector{
		c.conceptsNew, c.factsNew, c.episodesNew, c.duplicates, c.compileTuples, c.compileDuration,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

// ObserveInsert records one store insertion.
func (c *Collector) ObserveInsert(r ir.InsertResult) {
	if c == nil {
		return
	}
	c.conceptsNew.Add(float64(r.NewConcepts))
	c.factsNew.Add(float64(r.NewFacts))
	c.episodesNew.Add(float64(r.NewEpisodes))
	c.duplicates.Add(float64(r.DupesSkipped))
}

// ObserveCompile records one compile call.
func (c *Collector) ObserveCompile(tuples int, d time.Duration) {
	if c == nil {
		return
	}
	c.compileTuples.Add(float64(tuples))
	c.compileDuration.Observe(d.Seconds())
}

// WriteTextfile writes every metric gathered by g to path in the Prometheus
// text format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
