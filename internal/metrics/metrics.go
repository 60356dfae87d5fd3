package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TranscriptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transcriber",
		Name:      "transcriptions_total",
		Help:      "Transcription jobs by terminal status.",
	}, []string{"status"})

	TranscriptionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "transcriber",
		Name:      "transcription_duration_seconds",
		Help:      "Wall time of the full download-transcribe-upload flow.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	TranscriptionNotes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "transcriber",
		Name:      "transcription_notes",
		Help:      "Notes detected per completed transcription.",
		Buckets:   prometheus.ExponentialBuckets(8, 2, 10),
	})

	InFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "transcriber",
		Name:      "transcriptions_in_flight",
		Help:      "Jobs currently holding a concurrency slot.",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "transcriber",
		Name:      "result_cache_hits_total",
		Help:      "Requests answered from the result cache.",
	})

	ModelDownloadSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "transcriber",
		Name:      "model_download_seconds",
		Help:      "Time spent provisioning the model checkpoint at startup.",
	})
)
