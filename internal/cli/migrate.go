package cli

import (
	"github.com/spf13/cobra"

	"github.com/evanmoran/ganttd/internal/config"
	"github.com/evanmoran/ganttd/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			// OpenDB runs migrations as part of opening.
			database, err := db.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			log.Info().Str("db", cfg.DBPath).Msg("migrations applied")
			return nil
		},
	}
}
