package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// LedgerOperations counts purchase/sale operations by outcome (ok or an error code)
	LedgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// StockLogEntries counts committed inventory log entries per action
	StockLogEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_stock_log_entries_total",
			Help: "Committed inventory log entries by action",
		},
		[]string{"action"},
	)

	// StockUnits sums absolute committed stock movement per action
	StockUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_stock_units_total",
			Help: "Absolute stock units moved by action",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(RequestCounter, RequestDurationHistogram, LedgerOperations, StockLogEntries, StockUnits)
}

// ObserveOperation records the outcome of one ledger operation
func ObserveOperation(operation, outcome string) {
	LedgerOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveStockEntry records one committed log entry
func ObserveStockEntry(action string, delta int) {
	StockLogEntries.WithLabelValues(action).Inc()
	if delta < 0 {
		delta = -delta
	}
	StockUnits.WithLabelValues(action).Add(float64(delta))
}

// Middleware records request count and latency labelled by route pattern
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		path := c.Route().Path

		RequestCounter.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		RequestDurationHistogram.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default registry on a fiber route
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
