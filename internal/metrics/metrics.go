package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "windowcalc"

// Calculator records pricing and history activity. A nil *Calculator, or one
// built without a registerer, records nothing.
type Calculator struct {
	calculations  *prometheus.CounterVec
	totals        prometheus.Histogram
	historyOps    *prometheus.CounterVec
	storageErrors *prometheus.CounterVec
}

// NewCalculator registers the calculator metrics on the provided registerer.
func NewCalculator(reg prometheus.Registerer) *Calculator {
	if reg == nil {
		return &Calculator{}
	}
	calculations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculations_total",
		Help:      "Price calculations by window type.",
	}, []string{"window_type"})
	totals := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "total_price",
		Help:      "Distribution of computed total prices.",
		Buckets:   prometheus.ExponentialBuckets(1000, 2, 10),
	})
	historyOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_operations_total",
		Help:      "History operations by kind.",
	}, []string{"op"})
	storageErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_errors_total",
		Help:      "Durable storage failures by operation.",
	}, []string{"op"})
	reg.MustRegister(calculations, totals, historyOps, storageErrors)
	return &Calculator{
		calculations:  calculations,
		totals:        totals,
		historyOps:    historyOps,
		storageErrors: storageErrors,
	}
}

// ObserveCalculation counts one calculation and records its total.
func (c *Calculator) ObserveCalculation(windowType string, total float64) {
	if c == nil || c.calculations == nil {
		return
	}
	c.calculations.WithLabelValues(normalizeLabel(windowType)).Inc()
	c.totals.Observe(total)
}

// IncHistory counts a history operation such as "save" or "delete".
func (c *Calculator) IncHistory(op string) {
	if c == nil || c.historyOps == nil {
		return
	}
	c.historyOps.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncStorageError counts a failed durable read or write.
func (c *Calculator) IncStorageError(op string) {
	if c == nil || c.storageErrors == nil {
		return
	}
	c.storageErrors.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
