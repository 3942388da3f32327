package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradedsl_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	backtestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradedsl_backtests_total",
		Help: "Backtest runs by outcome.",
	}, []string{"outcome"})

	parseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradedsl_parse_errors_total",
		Help: "Rule texts rejected by the parser.",
	})
)
