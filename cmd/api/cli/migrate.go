package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"backoffice/api/internal/database"
)

func newMigrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Example: `  api migrate
  api migrate --status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			pool, err := openPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if !statusOnly {
				if err := database.Migrate(ctx, pool); err != nil {
					return err
				}
				logger.Info().Msg("migrations applied")
			}

			version, err := database.MigrationVersion(ctx, pool)
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "only print the current schema version")

	return cmd
}
