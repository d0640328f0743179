package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// CartMetrics counts cart operations and header-creation conflict retries.
type CartMetrics struct {
	operations *prometheus.CounterVec
	retries    prometheus.Counter
}

// NewCartMetrics registers the cart collectors on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart service operations by name and result.",
	}, []string{"op", "result"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_conflict_retries_total",
		Help: "Cart transactions retried after a unique constraint conflict.",
	})
	reg.MustRegister(operations, retries)
	return &CartMetrics{operations: operations, retries: retries}
}

// Observe increments the operation counter with the result derived from err.
func (c *CartMetrics) Observe(op string, err error) {
	if c == nil || c.operations == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	c.operations.WithLabelValues(normalizeLabel(op), result).Inc()
}

// IncConflictRetry counts one retried transaction.
func (c *CartMetrics) IncConflictRetry() {
	if c == nil || c.retries == nil {
		return
	}
	c.retries.Inc()
}
