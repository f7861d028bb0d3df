// Package metrics Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "redpacket"

var (
	indexerQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "queries_total",
			Help:      "Total number of indexer queries",
		},
		[]string{"query", "result"},
	)

	indexerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "query_duration_seconds",
			Help:      "Indexer query duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"query"},
	)

	ledgerCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "calls_total",
			Help:      "Total number of ledger reads and writes",
		},
		[]string{"method", "result"},
	)

	txEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "tx_events_total",
			Help:      "Transaction lifecycle events by kind and status",
		},
		[]string{"kind", "status"},
	)

	staleResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "stale_responses_total",
			Help:      "Packet list responses discarded because a newer request was issued",
		},
	)

	historyCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "claim_history_cache_total",
			Help:      "Claim history cache lookups",
		},
		[]string{"result"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveIndexerQuery 记录一次索引查询
func ObserveIndexerQuery(query string, start time.Time, err error) {
	indexerQueries.WithLabelValues(query, result(err)).Inc()
	indexerDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

// ObserveLedgerCall 记录一次链上调用
func ObserveLedgerCall(method string, err error) {
	ledgerCalls.WithLabelValues(method, result(err)).Inc()
}

// ObserveTxEvent 记录交易状态变化
func ObserveTxEvent(kind, status string) {
	txEvents.WithLabelValues(kind, status).Inc()
}

// StaleResponse 丢弃过期响应
func StaleResponse() {
	staleResponses.Inc()
}

// HistoryCacheHit 领取记录缓存命中
func HistoryCacheHit() {
	historyCache.WithLabelValues("hit").Inc()
}

// HistoryCacheMiss 领取记录缓存未命中
func HistoryCacheMiss() {
	historyCache.WithLabelValues("miss").Inc()
}

// ObserveHTTPRequest 记录 API 请求
func ObserveHTTPRequest(method, path, status string) {
	httpRequests.WithLabelValues(method, path, status).Inc()
}

// Handler /metrics 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
