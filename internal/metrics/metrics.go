// Package metrics exposes Prometheus metrics for capture, encoding,
// and viewer delivery. Event-driven values are kept current by the
// Bridge; pipeline counters are scraped on demand by the collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "camstreamer"

var (
	streamingActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "capture",
		Name:      "streaming",
		Help:      "Whether the capture device is streaming (1) or stopped (0)",
	})

	captureFaults = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "capture",
		Name:      "faults_total",
		Help:      "Capture loop faults",
	})

	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "dropped_frames_total",
		Help:      "Frames dropped because the queue was full",
	})

	viewerConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "viewer_connected",
		Help:      "Whether an MJPEG viewer is connected (1) or not (0)",
	})

	viewerSessions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "viewer_sessions_total",
		Help:      "MJPEG viewer sessions accepted",
	})

	framesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "frames_sent_total",
		Help:      "JPEG frames delivered to viewers",
	})

	bytesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "bytes_sent_total",
		Help:      "JPEG payload bytes delivered to viewers",
	})

	encodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "encode_duration_seconds",
		Help:      "Time to convert and JPEG-encode one frame",
		Buckets:   prometheus.DefBuckets,
	})
)

// ObserveEncodeDuration records one frame's convert and encode time.
// Wired into the pipeline as its encode observer.
func ObserveEncodeDuration(d time.Duration) {
	encodeDuration.Observe(d.Seconds())
}
