package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sessionrecorder/backend/internal/actionlog"
	"sessionrecorder/backend/internal/models"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate <action-log.json>",
		Short: "Validate an action log file",
		Long: `Check an action log file against the action log schema.

Examples:
  scriptgen validate session.json
  scriptgen validate session.json --verbose`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := actionlog.Load(args[0])
			if err != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStderr(), "✗ Action log is invalid")
				if verbose {
					_, _ = fmt.Fprintf(cmd.OutOrStderr(), "  Error: %v\n", err)
				}
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %d actions\n", len(actions))

			if verbose {
				counts := make(map[models.ActionType]int)
				for _, a := range actions {
					counts[a.Type]++
				}
				for _, t := range []models.ActionType{models.ActionNavigate, models.ActionClick, models.ActionInput, models.ActionChange} {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %-8s %d\n", t, counts[t])
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")

	return cmd
}
