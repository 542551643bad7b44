package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/pipeline"
)

// pipelineCollector scrapes the pipeline's own counters at collection
// time instead of mirroring every frame into Prometheus as it happens.
type pipelineCollector struct {
	stats func() pipeline.Stats

	encoded        *prometheus.Desc
	encodeFailures *prometheus.Desc
	invalidFrames  *prometheus.Desc
	queueDepth     *prometheus.Desc
	quality        *prometheus.Desc
}

// NewPipelineCollector builds a collector around a stats snapshot
// function.
func NewPipelineCollector(stats func() pipeline.Stats) prometheus.Collector {
	return &pipelineCollector{
		stats: stats,
		encoded: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pipeline", "encoded_frames_total"),
			"Frames successfully converted and JPEG-encoded", nil, nil),
		encodeFailures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pipeline", "encode_failures_total"),
			"Frames lost to JPEG encoder errors", nil, nil),
		invalidFrames: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pipeline", "invalid_frames_total"),
			"Capture buffers rejected as malformed", nil, nil),
		queueDepth: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pipeline", "queue_depth"),
			"Frames currently waiting for the viewer", nil, nil),
		quality: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pipeline", "jpeg_quality"),
			"JPEG quality currently in effect", nil, nil),
	}
}

func (c *pipelineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.encoded
	ch <- c.encodeFailures
	ch <- c.invalidFrames
	ch <- c.queueDepth
	ch <- c.quality
}

func (c *pipelineCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.encoded, prometheus.CounterValue, float64(s.FramesEncoded))
	ch <- prometheus.MustNewConstMetric(c.encodeFailures, prometheus.CounterValue, float64(s.EncodeFailures))
	ch <- prometheus.MustNewConstMetric(c.invalidFrames, prometheus.CounterValue, float64(s.InvalidFrames))
	ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(s.QueueLen))
	ch <- prometheus.MustNewConstMetric(c.quality, prometheus.GaugeValue, float64(s.Quality))
}

var registerPipelineOnce sync.Once

// RegisterPipeline attaches the pipeline collector to the default
// registry. Subsequent calls are no-ops.
func RegisterPipeline(stats func() pipeline.Stats) {
	registerPipelineOnce.Do(func() {
		prometheus.MustRegister(NewPipelineCollector(stats))
	})
}
