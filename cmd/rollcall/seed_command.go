package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the development directory into the ledger database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if cfg.IsProd() {
				return errors.New("refusing to seed development people with env = prod")
			}

			be, err := openBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer be.Close()
			if be.seed == nil {
				return errSeedUnsupported
			}

			n, err := be.seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d people into the %s directory\n", n, be.name)
			return nil
		},
	}
}
