package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RoomsActive tracks rooms currently held by the registry.
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codequad_rooms_active",
		Help: "Rooms with at least one member.",
	})

	// ClientsConnected tracks open websocket connections.
	ClientsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codequad_clients_connected",
		Help: "Open websocket connections.",
	})

	// MutationsTotal counts applied tree mutations by kind.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codequad_tree_mutations_total",
		Help: "Successfully applied file-tree mutations.",
	}, []string{"kind"})

	// BroadcastDropped counts frames dropped because a member's send
	// queue was full.
	BroadcastDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codequad_broadcast_dropped_total",
		Help: "Broadcast frames dropped on full per-connection queues.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
