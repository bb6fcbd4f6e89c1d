package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/rollcall/internal/rollcall/payload"
)

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "classify PAYLOAD",
		Short:       "Show how a scanned payload would be read",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), describeIntent(payload.Classify(args[0])))
			return nil
		},
	}
}

func describeIntent(intent payload.Intent) string {
	var rows [][]string
	switch in := intent.(type) {
	case payload.SelfDescribing:
		rows = [][]string{{"id", in.ID}, {"email", in.Email}}
		if in.IssuedAt != nil {
			rows = append(rows, []string{"issued at", in.IssuedAt.UTC().Format(time.RFC3339)})
		}
	case payload.NumericID:
		rows = [][]string{{"school id", in.Value}}
	case payload.TextID:
		rows = [][]string{{"email", in.Value}}
	case payload.Invalid:
		rows = [][]string{{"reason", in.Reason}}
	}
	rows = append([][]string{{"kind", intent.Kind()}}, rows...)

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%-10s %s\n", r[0]+":", r[1])
	}
	return strings.TrimRight(b.String(), "\n")
}
