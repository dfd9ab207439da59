package titlesync

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for sweeps. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	sweeps       *prometheus.CounterVec
	duration     prometheus.Histogram
	lastSuccess  prometheus.Gauge
	corporations *prometheus.CounterVec
	invalidated  prometheus.Counter
	membership   *prometheus.CounterVec
}

// NewMetrics registers the sweep collectors with reg. If reg is nil it
// returns nil (no-op metrics).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}
	m := &Metrics{
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unistudent_sweeps_total",
			Help: "Sweeps by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "unistudent_sweep_duration_seconds",
			Help:    "Duration of sweeps in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "unistudent_sweep_last_success_timestamp_seconds",
			Help: "Unix time the last sweep finished.",
		}),
		corporations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unistudent_corporation_passes_total",
			Help: "Corporation passes by stage and result.",
		}, []string{"stage", "result"}),
		invalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unistudent_credentials_invalidated_total",
			Help: "Owner credentials marked invalid.",
		}),
		membership: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unistudent_group_membership_changes_total",
			Help: "Group members added or removed by the sweep.",
		}, []string{"change"}),
	}
	for _, c := range []prometheus.Collector{m.sweeps, m.duration, m.lastSuccess, m.corporations, m.invalidated, m.membership} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) sweep(r Report, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.sweeps.WithLabelValues("error").Inc()
		return
	}
	m.sweeps.WithLabelValues("ok").Inc()
	m.duration.Observe(r.FinishedAt.Sub(r.StartedAt).Seconds())
	m.lastSuccess.Set(float64(r.FinishedAt.Unix()))
}

func (m *Metrics) corporation(o Outcome) {
	if m == nil {
		return
	}
	m.corporations.WithLabelValues("titles", result(o.TitlesSynced)).Inc()
	if o.MappingConfigured {
		m.corporations.WithLabelValues("members", result(o.MembersSynced)).Inc()
	}
}

func (m *Metrics) credentialInvalidated() {
	if m == nil {
		return
	}
	m.invalidated.Inc()
}

func (m *Metrics) membersChanged(added, removed int) {
	if m == nil {
		return
	}
	m.membership.WithLabelValues("added").Add(float64(added))
	m.membership.WithLabelValues("removed").Add(float64(removed))
}

func result(ok bool) string {
	if ok {
		return "synced"
	}
	return "failed"
}
