package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every Vitrine collector plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var (
	// ProbeTotal counts probe cycles by outcome (baseline, unchanged, changed, indeterminate).
	ProbeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_probe_total",
			Help: "Total number of version probe cycles by outcome.",
		},
		[]string{"result"},
	)

	// ProbeInFlight tracks probes that have not returned yet. Probes are not serialized,
	// so a value above 1 means a fetch outlived a poll interval.
	ProbeInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vitrine_probe_in_flight",
			Help: "Number of version probes currently in flight.",
		},
	)

	// UpdatePending is 1 while an update has been detected but not acknowledged.
	UpdatePending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vitrine_update_pending",
			Help: "Whether an update is pending acknowledgement (1) or not (0).",
		},
	)

	NoticeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_notice_total",
			Help: "Total number of update notices shown, by delivery status.",
		},
		[]string{"status"},
	)

	ReloadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_reload_total",
			Help: "Total number of forced reloads, by status.",
		},
		[]string{"status"},
	)

	ReleasePublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vitrine_release_published_total",
			Help: "Total number of version documents published.",
		},
	)

	VersionServedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_version_served_total",
			Help: "Total number of version document requests, by status code class.",
		},
		[]string{"status"},
	)
)

// Status label values shared by the counters above.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ProbeTotal,
		ProbeInFlight,
		UpdatePending,
		NoticeTotal,
		ReloadTotal,
		ReleasePublishedTotal,
		VersionServedTotal,
	)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
