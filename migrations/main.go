package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

var (
	migrator *migrate.Migrator
	db       *bun.DB
	logger   *logrus.Logger
)

func main() {
	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	var err error
	db, err = setupDatabase()
	if err != nil {
		logger.Fatalf("Failed to setup database: %v", err)
	}
	defer db.Close()

	migrator = migrate.NewMigrator(db, Migrations)

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool for accountsvc",
		Long:  "A database migration tool using Bun's migration system",
	}

	rootCmd.AddCommand(
		createInitCmd(),
		createUpCmd(),
		createDownCmd(),
		createStatusCmd(),
		createCreateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("Command failed: %v", err)
	}
}

// setupDatabase reads connection settings straight from the environment; the
// migration tool has no use for the rest of the service config (JWT keys in
// particular).
func setupDatabase() (*bun.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnvOrDefault("DATABASE_USER", "accountsvc"),
		getEnvOrDefault("DATABASE_PASSWORD", "password"),
		getEnvOrDefault("DATABASE_HOST", "localhost"),
		getEnvOrDefault("DATABASE_PORT", "5432"),
		getEnvOrDefault("DATABASE_NAME", "accountsvc"),
		getEnvOrDefault("DATABASE_SSL_MODE", "disable"),
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Database connected successfully")
	return db, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func createInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize migration tracking table",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			if err := migrator.Init(ctx); err != nil {
				logger.Fatalf("Failed to initialize migrations: %v", err)
			}
			logger.Info("Migration tracking table initialized successfully")
		},
	}
}

func createUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run pending migrations",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			group, err := migrator.Migrate(ctx)
			if err != nil {
				logger.Fatalf("Failed to run migrations: %v", err)
			}

			if group.IsZero() {
				logger.Info("No new migrations to run")
				return
			}

			logger.WithFields(logrus.Fields{
				"group":      group.String(),
				"migrations": len(group.Migrations),
			}).Info("Successfully ran migrations")
		},
	}
}

func createDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Rollback the last migration group",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			group, err := migrator.Rollback(ctx)
			if err != nil {
				logger.Fatalf("Failed to rollback migrations: %v", err)
			}

			if group.IsZero() {
				logger.Info("No migrations to rollback")
				return
			}

			logger.WithFields(logrus.Fields{
				"group":      group.String(),
				"migrations": len(group.Migrations),
			}).Info("Successfully rolled back migrations")
		},
	}
}

func createStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			ms, err := migrator.MigrationsWithStatus(ctx)
			if err != nil {
				logger.Fatalf("Failed to get migration status: %v", err)
			}

			fmt.Printf("Migration Status:\n")
			fmt.Printf("================\n")

			for _, m := range ms {
				status := "pending"
				if m.IsApplied() {
					status = fmt.Sprintf("applied at %s", m.MigratedAt.Format("2006-01-02 15:04:05"))
				}
				fmt.Printf("%-50s %s\n", m.Name, status)
			}
		},
	}
}

func createCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new migration file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			name := args[0]
			file, err := migrator.CreateGoMigration(context.Background(), name)
			if err != nil {
				logger.Fatalf("Failed to create migration: %v", err)
			}

			logger.WithField("file", file.Path).Info("Created migration file")
		},
	}
}
