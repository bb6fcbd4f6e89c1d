package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/rollcall/internal/camera"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/scan"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List scanner devices and which one scan would open",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			cam := camera.NewSerialCamera(camera.SerialOptions{
				Globs:    cfg.Scan.DeviceGlobs,
				BaudRate: cfg.Scan.BaudRate,
				LockDir:  cfg.Scan.LockDir,
				Logger:   logger,
			})
			devices, err := cam.Devices(cmd.Context())
			if err != nil {
				return fmt.Errorf("list devices: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(devices) == 0 {
				fmt.Fprintf(out, "No scanner devices match %v\n", cfg.Scan.DeviceGlobs)
				return nil
			}
			fmt.Fprintln(out, devicesTable(devices, cfg.Scan.Device))
			return nil
		},
	}
}

func devicesTable(devices []scan.Device, preferred string) string {
	chosen, ok := scan.SelectDevice(devices, preferred)
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{d.ID, d.Label, yesNo(ok && d.ID == chosen.ID)})
	}
	return renderTable([]string{"Device", "Label", "Selected"}, rows, nil)
}
