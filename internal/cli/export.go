package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sessionrecorder/backend/internal/actionlog"
	"sessionrecorder/backend/internal/config"
	"sessionrecorder/backend/pkg/database"
)

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a stored recording as an action log file",
		Long: `Write the action log of a stopped recording to a JSON file that
generate and validate accept. The database is configured the same way as
the server (CONFIG_FILE and the DB_* environment variables).

Examples:
  scriptgen export 6f1c2e9a-... --out session.json
  DB_DRIVER=sqlite DB_SQLITE_PATH=recorder.db scriptgen export 6f1c2e9a-...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := database.InitDatabase(cfg); err != nil {
				return err
			}

			rec, err := database.NewRecordingStore(database.DB).LoadRecording(context.Background(), sessionID)
			if err != nil {
				if errors.Is(err, database.ErrRecordingNotFound) {
					return fmt.Errorf("recording %s not found", sessionID)
				}
				return err
			}
			if rec.IsRecording {
				return fmt.Errorf("recording %s is still in progress", sessionID)
			}

			actions, err := rec.GetActions()
			if err != nil {
				return fmt.Errorf("failed to decode recorded actions: %w", err)
			}

			path := out
			if path == "" {
				path = sessionID + ".json"
			}
			if err := actionlog.Save(path, actions); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%d actions)\n", path, len(actions))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default <session-id>.json)")

	return cmd
}
