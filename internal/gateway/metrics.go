package gateway

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests *prometheus.CounterVec
	outcomes *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canteen",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Number of gateway requests by route and status code.",
		}, []string{"route", "status"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canteen",
			Subsystem: "cart",
			Name:      "outcomes_total",
			Help:      "Number of cart operations by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
	reg.MustRegister(m.requests, m.outcomes)
	return m
}

func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
