package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/payload"
)

func newPayloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "payload PERSON_ID",
		Short: "Print the self-describing code content for a person",
		Long: `Look a person up in the directory and print the JSON payload their
personal QR code carries. Feed the output to any QR generator.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			be, err := openBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer be.Close()

			id := strings.TrimSpace(args[0])
			people, err := be.directory.FindByID(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("look up %s: %w", id, err)
			}
			switch len(people) {
			case 0:
				return fmt.Errorf("no person with id %q", id)
			case 1:
			default:
				return fmt.Errorf("directory holds %d people with id %q", len(people), id)
			}

			code, err := payload.Encode(people[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
}
