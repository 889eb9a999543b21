// File: cmd/validate.go
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/stepwise/internal/actions"
)

// errInvalidSequence signals a non-zero exit after the report was printed.
var errInvalidSequence = errors.New("sequence is invalid")

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate file",
		Short: "Check a sequence file without running it",
		Long: `Validate prints a step-by-step report of errors and warnings for a
sequence file (JSON or YAML). No browser is started.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSequenceFile(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			report := actions.GenerateValidationReport(data)
			out, err := jsonAPI.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(out)); err != nil {
				return err
			}

			if report.ParseError != "" || report.Summary.InvalidSteps > 0 {
				return errInvalidSequence
			}
			return nil
		},
	}
}
