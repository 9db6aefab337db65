package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/fxnlabs/syrk-bench/internal/device"
)

func devicesCommand(log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "Show the device the benchmark would run on",
		Action: func(c *cli.Context) error {
			manager, err := device.NewManager(slog.Default(), device.SimConfig{})
			if err != nil {
				return fmt.Errorf("initialize device: %w", err)
			}
			defer func() {
				if err := manager.Cleanup(); err != nil {
					(*log).Warn("device cleanup failed", zap.Error(err))
				}
			}()

			info := manager.Info()
			fmt.Printf("Name:             %s\n", info.Name)
			fmt.Printf("Backend:          %s\n", info.Backend)
			fmt.Printf("Accelerated:      %v\n", manager.IsAccelerated())
			fmt.Printf("Global memory:    %d bytes\n", info.GlobalMemSize)
			fmt.Printf("Max allocation:   %d bytes\n", info.MaxMemAllocSize)
			fmt.Printf("Float64 support:  %v\n", info.SupportsFloat64)
			return nil
		},
	}
}
