// Command createuser adds a login with a bcrypt-hashed password.
// Usage: createuser --username planner1 --role user (password from POINTAKE_NEW_USER_PASSWORD or --password)
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pointake/internal/config"
	"pointake/internal/domain"
	"pointake/internal/logging"
	"pointake/internal/repository/postgres"
	"pointake/internal/service"
)

const passwordEnv = "POINTAKE_NEW_USER_PASSWORD"

var (
	username string
	password string
	role     string
)

var rootCmd = &cobra.Command{
	Use:          "createuser",
	Short:        "Create a user that can log in to pointake",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&username, "username", "u", "", "login name")
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "password (default: $"+passwordEnv+")")
	rootCmd.Flags().StringVarP(&role, "role", "r", string(domain.RoleUser), "admin or user")
	_ = rootCmd.MarkFlagRequired("username")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if password == "" {
		password = os.Getenv(passwordEnv)
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	users := service.NewUserService(postgres.NewUserRepo(db))
	user, err := users.Create(ctx, service.CreateUserInput{
		Username: username,
		Password: password,
		Role:     domain.UserRole(role),
	})
	if err != nil {
		return fmt.Errorf("create user %s: %w", username, err)
	}

	logger.Info("createuser: user created",
		zap.String("id", user.ID.String()), zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return nil
}
