package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"daily-report-bot/internal/config"
	"daily-report-bot/internal/logger"
	"daily-report-bot/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the report database schema up to date and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := config.LoadStore(envFile)
		if err != nil {
			return err
		}
		log, err := logger.New(st.LogLevel, st.LogFormat)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		db, err := storage.New(st.DBPath, storage.WithLogger(log))
		if err != nil {
			return fmt.Errorf("open %s: %w", st.DBPath, err)
		}
		defer db.Close()

		v, err := db.SchemaVersion(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", st.DBPath, v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
