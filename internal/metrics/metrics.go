// Package metrics holds the Prometheus counters of the reference backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

type Metrics struct {
	// RPCRequests counts /rpc calls by request type and outcome.
	RPCRequests *prometheus.CounterVec
	// Submits counts stored documents by kind and INSERT/UPDATE.
	Submits *prometheus.CounterVec
	// EditGate counts handshake steps by action and outcome.
	EditGate *prometheus.CounterVec
}

// New registers the counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RPCRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpdocs",
			Name:      "rpc_requests_total",
			Help:      "RPC requests handled, by type and outcome.",
		}, []string{"type", "outcome"}),
		Submits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpdocs",
			Name:      "document_submits_total",
			Help:      "Documents stored, by kind and operation.",
		}, []string{"kind", "op"}),
		EditGate: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "erpdocs",
			Name:      "edit_gate_total",
			Help:      "Edit handshake steps, by action and outcome.",
		}, []string{"action", "outcome"}),
	}
}

// Nop returns counters registered nowhere, for tests and tools.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
