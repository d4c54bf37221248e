package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/hexs00si/lms-circulation/migrations"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL := os.Getenv("DATABASE_URL")
			if dbURL == "" {
				dbURL = defaultDatabaseURL
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			pool, err := pgxpool.New(ctx, dbURL)
			if err != nil {
				return fmt.Errorf("connect to db: %w", err)
			}
			defer pool.Close()

			if err := migrations.Apply(ctx, pool); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			log.Printf("migrations applied")
			return nil
		},
	}
}
