package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ingestFilesProcessedTotal,
		ingestStageLatencyMs,
		ingestItemsExtractedTotal,
		ingestFilesReapedTotal,
		ingestFilesByStatus,
		ingestWorkerQueueDepth,
	)
}

var (
	ingestFilesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_files_processed_total",
			Help: "Total number of uploaded files run to a terminal status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	ingestStageLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_stage_latency_ms",
			Help:    "Pipeline stage latency distribution in milliseconds.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"stage"}, // 'extract_text', 'ai_extract'
	)

	ingestItemsExtractedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_items_extracted_total",
			Help: "Total schedule items persisted across all completed files.",
		},
	)

	ingestFilesReapedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_files_reaped_total",
			Help: "Total stale in-flight files failed by the reaper.",
		},
	)

	ingestFilesByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ingest_files_by_status",
			Help: "Current number of uploaded files per status.",
		},
		[]string{"status"},
	)

	ingestWorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_worker_queue_depth",
			Help: "Tasks waiting in the worker pool queue.",
		},
	)
)

func IncFileProcessed(status string) {
	ingestFilesProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveStage(stage string, ms int64) {
	ingestStageLatencyMs.WithLabelValues(norm(stage)).Observe(float64(ms))
}

func AddItemsExtracted(n int) {
	if n > 0 {
		ingestItemsExtractedTotal.Add(float64(n))
	}
}

func IncFilesReaped(n int) {
	if n > 0 {
		ingestFilesReapedTotal.Add(float64(n))
	}
}

func SetFilesByStatus(status string, n int64) {
	ingestFilesByStatus.WithLabelValues(norm(status)).Set(float64(n))
}

func SetWorkerQueueDepth(n int) {
	ingestWorkerQueueDepth.Set(float64(n))
}
