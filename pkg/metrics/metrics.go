package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts BIRD status queries by outcome
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bird_peerd_queries_total",
			Help: "Total number of BIRD status queries",
		},
		[]string{"status"},
	)

	// QueryDuration tracks how long one full query takes (dial, send, read, parse)
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bird_peerd_query_duration_seconds",
			Help:    "Duration of BIRD status queries",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// BGPPeers tracks the number of BGP peers in the last reply
	BGPPeers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bird_peerd_bgp_peers",
			Help: "Number of BGP peers reported by BIRD",
		},
	)

	// PeerUp reports per-peer session state (1 = Established)
	PeerUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bird_peerd_peer_up",
			Help: "Whether the BGP session with this peer is established",
		},
		[]string{"peer"},
	)

	// PeerRoutes reports per-peer imported/exported route counts
	PeerRoutes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bird_peerd_peer_routes",
			Help: "Routes imported from and exported to this peer",
		},
		[]string{"peer", "direction"},
	)

	// EtcdPublishErrors counts failed peer-state writes to etcd
	EtcdPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bird_peerd_etcd_publish_errors_total",
			Help: "Total number of failed peer state publications to etcd",
		},
	)
)
