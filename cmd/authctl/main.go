package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/portinscan/portinscan/application/port/inbound"
	"github.com/portinscan/portinscan/application/usecase"
	"github.com/portinscan/portinscan/domain/valueobject"
	"github.com/portinscan/portinscan/infrastructure/adapter/postgres"
	"github.com/portinscan/portinscan/infrastructure/config"
	"github.com/portinscan/portinscan/infrastructure/service/logger"
	"github.com/portinscan/portinscan/infrastructure/service/password"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Operator tasks for the auth service database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCommand(), newCreateUserCommand())
	return root
}

func newMigrateCommand() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage schema migrations",
	}

	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withDB(func(ctx context.Context, _ *config.Config, db *sql.DB) error {
				if err := postgres.Migrate(ctx, db); err != nil {
					return err
				}
				fmt.Println("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: withDB(func(ctx context.Context, _ *config.Config, db *sql.DB) error {
				return postgres.MigrationStatus(ctx, db)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: withDB(func(ctx context.Context, _ *config.Config, db *sql.DB) error {
				return postgres.Rollback(ctx, db)
			}),
		},
	)
	return migrate
}

func newCreateUserCommand() *cobra.Command {
	var email, username, pw, role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user with a bcrypt-hashed password",
		RunE: withDB(func(ctx context.Context, cfg *config.Config, db *sql.DB) error {
			parsed, err := valueobject.ParseRole(role)
			if err != nil {
				return err
			}

			log := logger.NewStructuredLogger(logger.LoggerConfig{
				Level:       cfg.LogLevel,
				Format:      "text",
				ServiceName: "authctl",
			})
			provisioner := usecase.NewUserProvisioner(
				postgres.NewUserRepositoryAdapter(db, cfg.RefreshTokenSalt),
				password.NewBcryptPasswordService(cfg.BcryptCost),
				log,
			)

			id, err := provisioner.Create(ctx, inbound.CreateUserRequest{
				Email:    email,
				Username: username,
				Password: pw,
				Role:     parsed,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created user %s (%s, %s)\n", email, id, parsed)
			return nil
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&username, "username", "", "display name, defaults to the email local part")
	cmd.Flags().StringVar(&pw, "password", "", "initial password (required)")
	cmd.Flags().StringVar(&role, "role", valueobject.RoleUser.String(), "USER or ADMIN")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// withDB loads configuration and opens the database around fn.
func withDB(fn func(ctx context.Context, cfg *config.Config, db *sql.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.StoreBackend != config.StoreBackendPostgres {
			return fmt.Errorf("authctl needs STORE_BACKEND=%s", config.StoreBackendPostgres)
		}

		ctx := cmd.Context()
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		return fn(ctx, cfg, db)
	}
}
