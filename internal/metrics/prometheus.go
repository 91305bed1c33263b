package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	markerFetches    *prometheus.CounterVec
	throttledFetches *prometheus.CounterVec
	liveMarkers      *prometheus.GaugeVec
	routeCalcs       *prometheus.CounterVec
	historySaves     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	metrics := &Metrics{
		markerFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navd_marker_fetches_total",
			Help: "Marker refresh attempts by manager and result",
		}, []string{"manager", "result"}),
		throttledFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navd_marker_fetches_throttled_total",
			Help: "Marker refresh attempts dropped by the per-manager throttle",
		}, []string{"manager"}),
		liveMarkers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "navd_live_markers",
			Help: "The number of markers in the current snapshot",
		}, []string{"manager"}),
		routeCalcs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navd_route_calculations_total",
			Help: "Route calculations by result",
		}, []string{"result"}),
		historySaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navd_history_saves_total",
			Help: "Route history saves by store",
		}, []string{"store"}),
	}
	metrics.register()
	return metrics
}

func (m *Metrics) register() {
	prometheus.MustRegister(m.markerFetches)
	prometheus.MustRegister(m.throttledFetches)
	prometheus.MustRegister(m.liveMarkers)
	prometheus.MustRegister(m.routeCalcs)
	prometheus.MustRegister(m.historySaves)
}

func (m *Metrics) IncrementMarkerFetches(manager, result string) {
	m.markerFetches.WithLabelValues(manager, result).Inc()
}

func (m *Metrics) IncrementThrottledFetches(manager string) {
	m.throttledFetches.WithLabelValues(manager).Inc()
}

func (m *Metrics) SetLiveMarkers(manager string, count int) {
	m.liveMarkers.WithLabelValues(manager).Set(float64(count))
}

func (m *Metrics) IncrementRouteCalculations(result string) {
	m.routeCalcs.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementHistorySaves(store string) {
	m.historySaves.WithLabelValues(store).Inc()
}
