package chunkring

import "github.com/prometheus/client_golang/prometheus"

// StatsSource is anything that can report ring statistics.
type StatsSource interface {
	Stats() Stats
}

// Collector exports a ring's Stats as Prometheus metrics. Values are read
// on every scrape, so the ring's hot path does not touch Prometheus at all.
type Collector struct {
	source StatsSource

	capacity *prometheus.Desc
	length   *prometheus.Desc
	claims   *prometheus.Desc
	unavail  *prometheus.Desc
	commits  *prometheus.Desc
	supersed *prometheus.Desc
	releases *prometheus.Desc
	stale    *prometheus.Desc
	spins    *prometheus.Desc
	yields   *prometheus.Desc
}

// NewCollector creates a collector for source, labelled ring=name.
func NewCollector(source StatsSource, name string) *Collector {
	labels := prometheus.Labels{"ring": name}
	desc := func(metric, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName("chunkring", "", metric),
			help, variable, labels)
	}

	return &Collector{
		source:   source,
		capacity: desc("capacity", "Number of chunks in the ring"),
		length:   desc("length", "Positions claimed or committed but not yet consumed"),
		claims:   desc("claims_total", "Successful claims", "side"),
		unavail:  desc("unavailable_total", "Non-blocking claims that found no slot", "side"),
		commits:  desc("commits_total", "Producer commits that published a chunk"),
		supersed: desc("superseded_total", "Non-blocking producer commits that lost their position"),
		releases: desc("releases_total", "Consumer releases"),
		stale:    desc("stale_tickets_total", "Finalizations rejected for a stale ticket"),
		spins:    desc("backoff_spins_total", "Busy-spin iterations spent backing off"),
		yields:   desc("backoff_yields_total", "Processor yields spent backing off"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.length
	ch <- c.claims
	ch <- c.unavail
	ch <- c.commits
	ch <- c.supersed
	ch <- c.releases
	ch <- c.stale
	ch <- c.spins
	ch <- c.yields
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	gauge := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v), labels...)
	}
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	gauge(c.capacity, s.Capacity)
	gauge(c.length, s.Len)
	counter(c.claims, s.ProducerClaims, "producer")
	counter(c.claims, s.ConsumerClaims, "consumer")
	counter(c.unavail, s.ProducerUnavailable, "producer")
	counter(c.unavail, s.ConsumerUnavailable, "consumer")
	counter(c.commits, s.Commits)
	counter(c.supersed, s.Superseded)
	counter(c.releases, s.Releases)
	counter(c.stale, s.StaleTickets)
	counter(c.spins, s.BackoffSpins)
	counter(c.yields, s.BackoffYields)
}
