package session

import (
	"io"
	"sync"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics exposes counters/histograms for an embedding application to
// scrape, wired per SPEC_FULL.md's DOMAIN STACK table.
type Metrics struct {
	set *metrics.Set

	dispatchLatencySeconds *metrics.Histogram
	retransmissionsTotal   *metrics.Counter
	pendingQueriesGauge    *metrics.Gauge
	putsTotal              *metrics.Counter
	getsTotal              *metrics.Counter

	pendingCount int64
	pendingMu    sync.Mutex
}

func newMetrics() *Metrics {
	m := &Metrics{set: metrics.NewSet()}
	m.dispatchLatencySeconds = m.set.NewHistogram(`zenoh_session_dispatch_latency_seconds`)
	m.retransmissionsTotal = m.set.NewCounter(`zenoh_session_retransmissions_total`)
	m.putsTotal = m.set.NewCounter(`zenoh_session_puts_total`)
	m.getsTotal = m.set.NewCounter(`zenoh_session_gets_total`)
	m.pendingQueriesGauge = m.set.NewGauge(`zenoh_session_pending_queries`, func() float64 {
		m.pendingMu.Lock()
		defer m.pendingMu.Unlock()
		return float64(m.pendingCount)
	})
	return m
}

func (m *Metrics) observeDispatch(seconds float64) { m.dispatchLatencySeconds.Update(seconds) }
func (m *Metrics) incRetransmissions()              { m.retransmissionsTotal.Inc() }
func (m *Metrics) incPuts()                          { m.putsTotal.Inc() }
func (m *Metrics) incGets()                          { m.getsTotal.Inc() }

func (m *Metrics) pendingDelta(delta int64) {
	m.pendingMu.Lock()
	m.pendingCount += delta
	m.pendingMu.Unlock()
}

// WritePrometheus writes the session's metrics in Prometheus exposition
// format, for an embedding app's own scrape endpoint.
func (m *Metrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}
