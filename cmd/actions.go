// File: cmd/actions.go
package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/stepwise/internal/actions"
)

func newActionsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List the supported action types and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := actions.KnownActionTypes()
			if asJSON {
				data, err := jsonAPI.Marshal(names)
				if err != nil {
					return fmt.Errorf("failed to encode action types: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ACTION\tREQUIRED\tOPTIONAL")
			for _, name := range names {
				schema, _ := actions.LookupSchema(name)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, joinOrDash(schema.Required), joinOrDash(schema.Optional))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the names as a JSON array")
	return cmd
}

func joinOrDash(fields []string) string {
	if len(fields) == 0 {
		return "-"
	}
	return strings.Join(fields, ",")
}
