// Package cli implements scriptgen, the offline companion to the recording
// server: it checks exported action logs and turns them into scripts.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sessionrecorder/backend/pkg/logger"
)

const Version = "1.0.0"

type Config struct {
	Debug bool
}

var GlobalConfig = &Config{}

// NewRootCommand creates the root cobra command for scriptgen.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scriptgen",
		Short: "Generate replay scripts from recorded action logs",
		Long: `scriptgen works with action logs exported from the session recorder.
It exports stored recordings, validates log files, compiles them into
Selenium and JMeter scripts, and shows which locator the recorder would
infer for elements of a saved page.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !GlobalConfig.Debug {
				return nil
			}
			if err := logger.Init("debug", "debug"); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&GlobalConfig.Debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(NewGenerateCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewResolveCommand())
	cmd.AddCommand(NewExportCommand())

	return cmd
}
