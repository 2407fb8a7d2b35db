package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// flushTotal counts flush cycles by result.
	flushTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evolve_bridge_flush_total",
		Help: "Total flush cycles by result",
	}, []string{"result"})

	// flushDuration tracks flush latency, snapshot to last send.
	flushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evolve_bridge_flush_duration_seconds",
		Help:    "Flush duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~400ms
	})

	// documentsSent counts documents handed to the transport.
	documentsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evolve_bridge_documents_sent_total",
		Help: "Total root documents sent to the renderer",
	})

	// nodesCoalesced counts dirty nodes dropped because an ancestor was dirty.
	nodesCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evolve_bridge_nodes_coalesced_total",
		Help: "Dirty nodes folded into a dirty ancestor's document",
	})

	// inboundEvents counts renderer events by event type.
	inboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evolve_bridge_inbound_events_total",
		Help: "Renderer events received by type",
	}, []string{"type"})
)
