package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/common-nighthawk/go-figure"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/fxnlabs/syrk-bench/internal/config"
	"github.com/fxnlabs/syrk-bench/internal/device"
	"github.com/fxnlabs/syrk-bench/internal/sweep"
)

func runCommand(log **zap.Logger, cfg **config.Config) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the configured benchmark sweep",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict-slow",
				Usage: "Fail the run when the device is slower than the host baseline",
			},
			&cli.BoolFlag{
				Name:  "no-banner",
				Usage: "Suppress the startup banner",
			},
		},
		Action: func(c *cli.Context) error {
			rootLogger := (*log).Named("run")

			if !c.Bool("no-banner") {
				banner := figure.NewFigure("syrkbench", "", true)
				banner.Print()
				fmt.Println("")
			}

			manager, err := device.NewManager(slog.Default(), device.SimConfig{})
			if err != nil {
				return fmt.Errorf("initialize device: %w", err)
			}
			defer func() {
				if err := manager.Cleanup(); err != nil {
					rootLogger.Warn("device cleanup failed", zap.Error(err))
				}
			}()

			info := manager.Info()
			rootLogger.Info("selected device",
				zap.String("name", info.Name),
				zap.String("backend", info.Backend),
				zap.Uint64("globalMem", info.GlobalMemSize),
				zap.Uint64("maxAlloc", info.MaxMemAllocSize),
				zap.Bool("float64", info.SupportsFloat64))

			if addr := (*cfg).Metrics.ListenAddress; addr != "" {
				go serveMetrics(addr, rootLogger)
			}

			runner := sweep.NewRunner(manager.Device(), *cfg, rootLogger)
			summary, err := runner.Run()
			if err != nil {
				return err
			}

			rootLogger.Info("sweep complete",
				zap.Int("total", summary.Total()),
				zap.Int("passed", summary.Passed),
				zap.Int("regressed", summary.Regressed),
				zap.Int("skipped", summary.Skipped),
				zap.Int("fatal", summary.Fatal),
				zap.Int("noComparison", summary.NoComparison))

			if summary.Failed() {
				return cli.Exit(fmt.Sprintf("%d case(s) failed", summary.Fatal), 1)
			}
			if c.Bool("strict-slow") && summary.Regressed > 0 {
				return cli.Exit(fmt.Sprintf("%d case(s) slower than the host baseline", summary.Regressed), 2)
			}
			return nil
		},
	}
}

func serveMetrics(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("serving metrics", zap.String("address", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics server stopped", zap.Error(err))
	}
}
