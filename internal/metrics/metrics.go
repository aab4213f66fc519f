// Package metrics 定义采集流水线的 Prometheus 指标，由 /metrics 暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsharvest"

// 单篇文章的处理结果
const (
	OutcomeSaved  = "saved"
	OutcomeFailed = "failed"
	OutcomeEmpty  = "empty"
)

var (
	Articles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "articles_total",
		Help:      "Articles processed per source by outcome.",
	}, []string{"source", "outcome"})

	ListingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_failures_total",
		Help:      "Listing page fetches that failed, per source.",
	}, []string{"source"})

	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of a source extraction run.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"source"})

	TaskRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_runs_total",
		Help:      "Scheduled task attempts by result.",
	}, []string{"task", "result"})
)
