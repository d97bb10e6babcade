package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Operation results recorded by the catalog services.
const (
	ResultSuccess  = "success"
	ResultNotFound = "not_found"
	ResultConflict = "conflict"
	ResultInternal = "internal"
	ResultInvalid  = "invalid"
)

// Metrics holds the catalog's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	productOperations *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		productOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "product_operations_total",
			Help:      "Total number of product operations by outcome.",
		}, []string{"operation", "result"}),
	}
	if err := reg.Register(m.productOperations); err != nil {
		return nil, err
	}
	return m, nil
}

// ProductOperation counts one product operation with its result.
func (m *Metrics) ProductOperation(operation, result string) {
	if m == nil {
		return
	}
	m.productOperations.WithLabelValues(operation, result).Inc()
}

// ProductOperations exposes the counter vector, mainly for tests.
func (m *Metrics) ProductOperations() *prometheus.CounterVec {
	return m.productOperations
}
