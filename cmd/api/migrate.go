package main

import (
	"fmt"

	"github.com/NewAcropolis/api-sub000/internal/config"
	"github.com/NewAcropolis/api-sub000/internal/migration"
	"github.com/NewAcropolis/api-sub000/pkg/db"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(conn *gorm.DB) error {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				if err := migration.RunMigrations(sqlDB); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(conn *gorm.DB) error {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				if err := migration.Down(sqlDB); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	})

	return cmd
}

func withDB(fn func(conn *gorm.DB) error) error {
	cfg := db.FromAppConfig(config.Load())
	if cfg.Type != "postgres" {
		return fmt.Errorf("migrations require postgres, got %q", cfg.Type)
	}

	dialector, err := db.Dialect(cfg)
	if err != nil {
		return err
	}
	conn, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return fn(conn)
}
