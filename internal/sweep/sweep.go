// Package sweep drives benchmark cases across a configured parameter list
// and the requested element-type variants, records verdicts, and summarizes
// the run for the caller's exit policy.
package sweep

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fxnlabs/syrk-bench/internal/bench"
	"github.com/fxnlabs/syrk-bench/internal/config"
	"github.com/fxnlabs/syrk-bench/internal/device"
	"github.com/fxnlabs/syrk-bench/internal/elem"
	"github.com/fxnlabs/syrk-bench/internal/metrics"
)

// Summary counts terminal verdicts across one sweep.
type Summary struct {
	Passed       int
	Regressed    int
	Skipped      int
	Fatal        int
	NoComparison int
}

// Failed reports whether any case hit a fatal resource or execution error.
// Regressions are counted separately so callers can decide whether slowness
// fails the run.
func (s Summary) Failed() bool { return s.Fatal > 0 }

func (s Summary) Total() int {
	return s.Passed + s.Regressed + s.Skipped + s.Fatal
}

// Runner executes a sweep against one injected device.
type Runner struct {
	dev  device.Device
	cfg  *config.Config
	log  *zap.Logger
	gate bench.Gate
}

func NewRunner(dev device.Device, cfg *config.Config, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		dev:  dev,
		cfg:  cfg,
		log:  log,
		gate: bench.NewGate(cfg.ResourceGate.Divisor),
	}
}

// Run executes every configured case for every requested element kind,
// sequentially on the controlling goroutine. It returns an error only for
// unusable configuration; case failures are reported through the summary.
func (r *Runner) Run() (Summary, error) {
	kinds := make([]elem.Kind, 0, len(r.cfg.Sweep.Kinds))
	for _, s := range r.cfg.Sweep.Kinds {
		k, err := elem.ParseKind(s)
		if err != nil {
			return Summary{}, err
		}
		kinds = append(kinds, k)
	}
	if len(kinds) == 0 {
		return Summary{}, fmt.Errorf("sweep: no element kinds configured")
	}
	if len(r.cfg.Sweep.Cases) == 0 {
		return Summary{}, fmt.Errorf("sweep: no cases configured")
	}

	info := r.dev.Info()
	var sum Summary
	for i, spec := range r.cfg.Sweep.Cases {
		params, err := paramsFromSpec(spec)
		if err != nil {
			return Summary{}, fmt.Errorf("sweep: case %d: %w", i, err)
		}

		for _, kind := range kinds {
			if kind.NeedsFloat64() && !info.SupportsFloat64 {
				r.log.Warn("device lacks native double precision, skipping variant",
					zap.Stringer("elem", kind),
					zap.Stringer("params", params))
				metrics.SweepVerdicts.WithLabelValues(bench.Skipped.String(), kind.String()).Inc()
				sum.Skipped++
				continue
			}

			res := r.runOne(params, kind)
			r.record(params, kind, res, &sum)
		}
	}
	return sum, nil
}

func (r *Runner) runOne(params bench.Params, kind elem.Kind) bench.Result {
	switch kind {
	case elem.F32:
		return runCase[float32](r, params)
	case elem.F64:
		return runCase[float64](r, params)
	case elem.C64:
		return runCase[complex64](r, params)
	default:
		return runCase[complex128](r, params)
	}
}

func runCase[E elem.Number](r *Runner, params bench.Params) bench.Result {
	c, err := bench.NewCase[E](r.dev, params, bench.Options{
		Gate:             r.gate,
		Seed:             r.cfg.Sweep.Seed,
		AllowRowMajorRef: r.cfg.Reference.AllowRowMajor,
		Logger:           r.log,
	})
	if err != nil {
		return bench.Result{Verdict: bench.Fatal, Err: err}
	}
	return c.Run()
}

func (r *Runner) record(params bench.Params, kind elem.Kind, res bench.Result, sum *Summary) {
	metrics.SweepVerdicts.WithLabelValues(res.Verdict.String(), kind.String()).Inc()

	fields := []zap.Field{
		zap.Stringer("elem", kind),
		zap.Stringer("params", params),
		zap.Stringer("verdict", res.Verdict),
	}

	switch res.Verdict {
	case bench.Skipped:
		sum.Skipped++
		r.log.Warn("case skipped, insufficient device resources", fields...)

	case bench.Fatal:
		sum.Fatal++
		r.log.Error("case failed", append(fields,
			zap.Stringer("fatal_kind", res.Fatal),
			zap.Error(res.Err))...)

	case bench.Passed, bench.Regressed:
		if res.Verdict == bench.Regressed {
			sum.Regressed++
			r.log.Warn("device run slower than baseline", append(fields,
				zap.Duration("device_time", res.DeviceTime),
				zap.Duration("baseline_time", res.BaselineTime))...)
		} else {
			sum.Passed++
			if res.BaselineErr != nil {
				sum.NoComparison++
				fields = append(fields, zap.NamedError("baseline", res.BaselineErr))
			} else {
				fields = append(fields, zap.Duration("baseline_time", res.BaselineTime))
			}
			r.log.Info("case passed", append(fields,
				zap.Duration("device_time", res.DeviceTime))...)
		}

		metrics.DeviceRunDuration.Observe(float64(res.DeviceTime.Microseconds()) / 1e3)
		metrics.DeviceRunsByBackend.WithLabelValues(r.dev.Info().Backend).Inc()
		if res.DeviceTime > 0 {
			// Two floating point operations per multiply-add pair.
			gflops := 2 * float64(params.Ops(kind)) / res.DeviceTime.Seconds() / 1e9
			metrics.DeviceGFLOPS.Set(gflops)
		}
		if res.BaselineErr == nil {
			metrics.BaselineRunDuration.Observe(float64(res.BaselineTime.Microseconds()) / 1e3)
		}
	}
}
