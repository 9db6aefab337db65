package main

import (
	"fmt"
	"os"

	"github.com/fxnlabs/syrk-bench/internal/config"
	"github.com/fxnlabs/syrk-bench/internal/logger"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	var cfg *config.Config
	var zapLogger *zap.Logger
	var rootLogger *zap.Logger

	app := &cli.App{
		Name:  "syrkbench",
		Usage: "Correctness-gated SYRK benchmark driver",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to the sweep config file",
				EnvVars:     []string{"SYRKBENCH_CONFIG"},
				Destination: &configPath,
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			if configPath != "" {
				cfg, err = config.Load(configPath)
			} else {
				cfg = config.Default()
			}
			if err != nil {
				return err
			}
			zapLogger, err = logger.New(cfg.Logger.Verbosity)
			if err != nil {
				return err
			}
			rootLogger = zapLogger.Named("syrkbench")
			return nil
		},
		Commands: []*cli.Command{
			runCommand(&rootLogger, &cfg),
			devicesCommand(&rootLogger),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if rootLogger != nil {
			rootLogger.Fatal("failed to run app", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}
