package cli

import (
	"github.com/spf13/cobra"
)

var cfgFile string

// Execute builds the command tree and runs it.
func Execute(version, commit string) error {
	return newRootCmd(version, commit).Execute()
}

func newRootCmd(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Back-office administration API",
		Long: `Back-office administration API: cookie-session authentication for admins,
admin management and content categories, backed by Postgres and Redis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newVersionCmd(version, commit))

	return cmd
}
