package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/rollcall/internal/camera"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/scan"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		occasionID string
		modeFlag   string
		deviceFlag string
		useStdin   bool
		autoAccept bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Check people in for an occasion",
		Long: `Scan codes and record attendance for one occasion.

By default codes come from a USB or serial barcode scanner matched by
scan.device_globs. With --stdin, each line typed or piped on standard input
is treated as a scanned code (keyboard-wedge scanners work this way).

Each resolved person is shown for confirmation; answer y to record or n to
skip. Use --auto-accept when nobody is at the keyboard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}

			occasionID = strings.TrimSpace(occasionID)
			if occasionID == "" {
				return errors.New("--occasion is required")
			}
			modeValue := cfg.Scan.Mode
			if cmd.Flags().Changed("mode") {
				modeValue = modeFlag
			}
			mode, err := scan.ParseMode(modeValue)
			if err != nil {
				return err
			}
			device := cfg.Scan.Device
			if cmd.Flags().Changed("device") {
				device = deviceFlag
			}

			interactive := isTerminal(cmd.InOrStdin())
			if !interactive && !autoAccept {
				return errors.New("standard input is not a terminal; pass --auto-accept to record without confirmation")
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			be, err := openBackend(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer be.Close()

			resolver := service.NewIdentityResolver(be.directory, service.ResolverOptions{
				VerifyEmbedded: cfg.Scan.VerifyEmbedded,
			})
			recorder := service.NewAttendanceRecorder(be.ledger, service.RecorderOptions{
				Policy: cfg.Policy(),
			})

			var (
				cam   scan.Camera
				codes *io.PipeWriter
			)
			if useStdin {
				pr, pw := io.Pipe()
				cam = camera.NewReaderCamera("stdin", "keyboard scanner", pr)
				codes = pw
			} else {
				cam = camera.NewSerialCamera(camera.SerialOptions{
					Globs:    cfg.Scan.DeviceGlobs,
					BaudRate: cfg.Scan.BaudRate,
					LockDir:  cfg.Scan.LockDir,
					Logger:   logger,
				})
			}

			out := cmd.OutOrStdout()
			op := newOperator(out, interactive, autoAccept)
			session := scan.NewSession(cam, resolver, recorder, op, scan.Options{
				OccasionID: occasionID,
				Mode:       mode,
				DeviceID:   device,
				Logger:     logger,
			})
			op.attach(session)

			fmt.Fprintf(out, "occasion %s, %s mode, %s ledger (%s duplicates), session %s\n",
				occasionID, mode, be.name, recorder.Policy(), session.ID())

			go func() {
				var w io.Writer
				if codes != nil {
					w = codes
				}
				if err := op.route(cmd.InOrStdin(), w); err != nil && !errors.Is(err, io.ErrClosedPipe) {
					logger.Warn("operator input failed", "error", err)
				}
			}()

			var view scan.View
			runErr := view.Run(runCtx, session)
			view.Close()
			if codes != nil {
				_ = codes.Close()
			}

			fmt.Fprintf(out, "%d recorded\n", op.Recorded())
			if runErr != nil {
				if errors.Is(runErr, context.Canceled) {
					return nil
				}
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&occasionID, "occasion", "", "Occasion id to record attendance for")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "Override scan.mode (single, batch)")
	cmd.Flags().StringVar(&deviceFlag, "device", "", "Override scan.device (device id or label)")
	cmd.Flags().BoolVar(&useStdin, "stdin", false, "Read codes from standard input instead of a scanner device")
	cmd.Flags().BoolVar(&autoAccept, "auto-accept", false, "Record every resolved person without asking")
	_ = cmd.MarkFlagRequired("occasion")
	return cmd
}
