package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SweepVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syrk_sweep_verdicts_total",
		Help: "Benchmark case verdicts by outcome and element kind",
	}, []string{"verdict", "elem"})

	DeviceRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "syrk_device_run_duration_ms",
		Help:    "Duration of the timed device SYRK run in milliseconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 18), // 0.1ms to ~13s
	})

	BaselineRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "syrk_baseline_run_duration_ms",
		Help:    "Duration of the host reference SYRK run in milliseconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 18),
	})

	DeviceGFLOPS = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "syrk_device_gflops",
		Help: "Performance of the last successful device run in GFLOPS",
	})

	DeviceBuffersLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "syrk_device_buffers_live",
		Help: "Device buffers currently allocated by benchmark cases",
	})

	DeviceRunsByBackend = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syrk_device_runs_total",
		Help: "Total device runs by backend",
	}, []string{"backend"})
)
