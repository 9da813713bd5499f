// Package metrics expone contadores Prometheus del motor de stock.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	inventoryapp "github.com/jhoicas/inventory-ledger/internal/application/inventory"
)

var _ inventoryapp.MutationObserver = (*StockMetrics)(nil)

// StockMetrics cuenta mutaciones por operación y resultado, mide su duración
// (incluye reintentos) y expone la existencia de cada item tras su última mutación.
type StockMetrics struct {
	mutations *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	quantity  *prometheus.GaugeVec
}

// NewStockMetrics crea los colectores y los registra en reg.
func NewStockMetrics(reg prometheus.Registerer) (*StockMetrics, error) {
	m := &StockMetrics{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "inventory",
				Name:      "stock_mutations_total",
				Help:      "Mutaciones de stock por operación y resultado",
			},
			[]string{"operation", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "inventory",
				Name:      "stock_mutation_duration_seconds",
				Help:      "Duración de las mutaciones de stock",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		quantity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "inventory",
				Name:      "item_quantity",
				Help:      "Existencia del item tras su última mutación",
			},
			[]string{"item_id", "sku"},
		),
	}
	for _, c := range []prometheus.Collector{m.mutations, m.latency, m.quantity} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveMutation implementa inventoryapp.MutationObserver.
func (m *StockMetrics) ObserveMutation(operation, outcome string, elapsed time.Duration) {
	m.mutations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveQuantity implementa inventoryapp.MutationObserver.
func (m *StockMetrics) ObserveQuantity(itemID int64, sku string, quantity int64) {
	m.quantity.WithLabelValues(strconv.FormatInt(itemID, 10), sku).Set(float64(quantity))
}
