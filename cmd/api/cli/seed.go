package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"backoffice/api/internal/database"
)

func newSeedCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the super admin if it does not exist",
		Long: `Create the super admin account. Defaults come from the seed.* config keys;
the password is usually supplied through BACKOFFICE_SEED_SUPERADMINPASSWORD.
Running it again for an existing email changes nothing.`,
		Example: `  api seed
  api seed --email root@example.com --password 'change-me-now'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			if email == "" {
				email = cfg.Seed.SuperAdminEmail
			}
			if password == "" {
				password = cfg.Seed.SuperAdminPassword
			}
			if name == "" {
				name = cfg.Seed.SuperAdminName
			}
			if password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
				if password, err = promptPassword(cmd); err != nil {
					return err
				}
			}

			pool, err := openPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.Migrate(ctx, pool); err != nil {
				return err
			}

			services := buildServices(cfg, logger, pool, nil)
			admin, created, err := services.Admins.SeedSuperAdmin(ctx, email, password, name)
			if err != nil {
				return fmt.Errorf("seed super admin: %w", err)
			}

			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created super admin %s (%s)\n", admin.Email, admin.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists, nothing to do\n", admin.Email)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "super admin email (default from seed.superadminemail)")
	cmd.Flags().StringVar(&password, "password", "", "super admin password (default from seed.superadminpassword)")
	cmd.Flags().StringVar(&name, "name", "", "super admin display name")

	return cmd
}

func promptPassword(cmd *cobra.Command) (string, error) {
	out := cmd.OutOrStdout()

	fmt.Fprint(out, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(password), nil
}
