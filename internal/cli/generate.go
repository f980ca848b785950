package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sessionrecorder/backend/internal/actionlog"
	"sessionrecorder/backend/internal/generator"
	"sessionrecorder/backend/pkg/logger"
)

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	var (
		formats []string
		name    string
		outDir  string
		cfg     generator.Config
	)

	cmd := &cobra.Command{
		Use:   "generate <action-log.json>",
		Short: "Generate scripts from an action log",
		Long: `Compile an action log into replay scripts.

Examples:
  scriptgen generate session.json
  scriptgen generate session.json --format jmeter --name checkout --out ./scripts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := actionlog.Load(args[0])
			if err != nil {
				return err
			}

			opts := generator.Options{FileName: name, Config: cfg}
			for _, f := range formats {
				format, err := generator.ParseFormat(f)
				if err != nil {
					return err
				}
				opts.Formats = append(opts.Formats, format)
			}

			artifacts, err := generator.GenerateAll(actions, opts)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			for _, a := range artifacts {
				path := filepath.Join(outDir, a.FileName)
				if err := os.WriteFile(path, []byte(a.Content), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				logger.L().Debug("Wrote artifact", zap.String("path", path), zap.String("format", string(a.Format)))
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%d steps, %d skipped)\n", path, a.Emitted, a.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "Formats to generate: selenium, jmeter (default all)")
	cmd.Flags().StringVarP(&name, "name", "n", generator.DefaultFileName, "Base file name for the generated scripts")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	cmd.Flags().IntVar(&cfg.WaitTimeout, "wait-timeout", 0, "Seconds Selenium waits for an element (default 10)")
	cmd.Flags().IntVar(&cfg.NavigateDelay, "navigate-delay", 0, "Seconds to pause after navigation (default 2)")
	cmd.Flags().IntVar(&cfg.StepDelay, "step-delay", 0, "Seconds to pause after each step (default 1)")

	return cmd
}
