package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ariss_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records request duration in seconds
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ariss_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// NotificationCounter counts best-effort outbound deliveries by channel and result.
	NotificationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ariss_notifications_total",
			Help: "Outbound notification attempts by channel and result",
		},
		[]string{"channel", "result"},
	)

	// DiscountsSwept counts expired discount rows removed by the cleanup.
	DiscountsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ariss_discount_sweep_deleted_total",
		Help: "Expired discounts deleted by the sweep",
	})
)

// Middleware records request count and latency per matched route. Errors are
// rendered here so the recorded status is the one the client receives.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		path := c.Route().Path
		statusStr := strconv.Itoa(status)

		RequestCounter.WithLabelValues(c.Method(), path, statusStr).Inc()
		RequestDuration.WithLabelValues(c.Method(), path, statusStr).Observe(time.Since(start).Seconds())

		return nil
	}
}

// Handler exposes the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
