//go:build integration

package integration

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/fxnlabs/syrk-bench/internal/baseline"
	"github.com/fxnlabs/syrk-bench/internal/config"
	"github.com/fxnlabs/syrk-bench/internal/device"
	"github.com/fxnlabs/syrk-bench/internal/logger"
	"github.com/fxnlabs/syrk-bench/internal/sweep"
)

func sweepConfig() *config.Config {
	cfg := config.Default()
	cfg.Logger.Verbosity = "debug"
	cfg.Reference.AllowRowMajor = true
	cfg.Sweep.Cases = []config.CaseSpec{
		{Order: "column", Uplo: "upper", TransA: "notrans", N: 96, K: 64, Alpha: 1.25, Beta: 0.5},
		{Order: "column", Uplo: "lower", TransA: "trans", N: 64, K: 96, OffA: 7, OffC: 3, Alpha: -0.5, AlphaImag: 0.25, Beta: 1},
		{Order: "row", Uplo: "upper", TransA: "notrans", N: 48, K: 48, Alpha: 2, Beta: 0},
	}
	return cfg
}

// TestSweep_EndToEnd wires the full stack the way the daemon does and runs
// a small sweep on the simulated device.
func TestSweep_EndToEnd(t *testing.T) {
	var runner *sweep.Runner
	var manager *device.Manager

	app := fxtest.New(t,
		fx.Provide(
			sweepConfig,
			func(cfg *config.Config) (*zap.Logger, error) {
				return logger.New(cfg.Logger.Verbosity)
			},
			func() (*device.Manager, error) {
				return device.NewManager(slog.Default(), device.SimConfig{})
			},
			func(m *device.Manager) device.Device {
				return m.Device()
			},
			sweep.NewRunner,
		),
		fx.Populate(&runner, &manager),
	)

	app.RequireStart()
	defer app.RequireStop()
	defer func() {
		require.NoError(t, manager.Cleanup())
	}()

	summary, err := runner.Run()
	require.NoError(t, err)

	cfg := sweepConfig()
	wantTotal := len(cfg.Sweep.Cases) * len(cfg.Sweep.Kinds)
	assert.Equal(t, wantTotal, summary.Total())
	assert.False(t, summary.Failed())
	assert.Zero(t, summary.Fatal)
	assert.Zero(t, summary.Skipped)

	// Row-major cases run with a baseline because the config allows it, so
	// every case produces a timing comparison when the reference backend
	// is compiled in.
	if baseline.Enabled {
		assert.Zero(t, summary.NoComparison)
	} else {
		assert.Equal(t, wantTotal, summary.NoComparison)
	}
	assert.Equal(t, wantTotal, summary.Passed+summary.Regressed)
}

// TestSweep_ResourceGate shrinks the simulated device until the sweep has
// to skip, and checks nothing leaks.
func TestSweep_ResourceGate(t *testing.T) {
	zl, err := logger.New("warn")
	require.NoError(t, err)

	dev := device.NewSimDevice(nil, device.SimConfig{
		GlobalMemSize:   1 << 20,
		MaxMemAllocSize: 1 << 20,
	})
	defer dev.Close()

	cfg := config.Default()
	cfg.Sweep.Kinds = []string{"float64"}
	cfg.Sweep.Cases = []config.CaseSpec{
		{Order: "column", Uplo: "upper", TransA: "notrans", N: 64, K: 32, Alpha: 1, Beta: 1},
		{Order: "column", Uplo: "upper", TransA: "notrans", N: 4096, K: 4096, Alpha: 1, Beta: 1},
	}

	summary, err := sweep.NewRunner(dev, cfg, zl).Run()
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Fatal)
	assert.Equal(t, 1, summary.Passed+summary.Regressed)
	assert.Zero(t, dev.LiveBuffers())
}
