package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/rollcall/internal/httpapi"
	"github.com/BrandonDHaskell/rollcall/internal/logging"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addrFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger service for remote check-in stations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if cfg.Ledger.Backend == "remote" {
				return errors.New("serve needs a local ledger; set ledger.backend to sqlite or postgres")
			}
			addr := cfg.Server.HTTPAddr
			if cmd.Flags().Changed("addr") {
				addr = addrFlag
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			be, err := openBackend(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer be.Close()

			svc := service.NewLedgerService(be.directory, be.ledger, cfg.Policy(), nil)
			srv := httpapi.NewServer(httpapi.Dependencies{
				Logger:        logger,
				Addr:          addr,
				LedgerService: svc,
			})

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", addr, "backend", be.name, "policy", string(cfg.Policy()))
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
					stop()
				}
			}()

			<-runCtx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown failed", logging.Error(err))
			}

			select {
			case err := <-serveErr:
				return err
			default:
				logger.Info("server stopped")
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&addrFlag, "addr", "", "Override server.http_addr")
	return cmd
}
