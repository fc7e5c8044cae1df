package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"token-radar/internal/storage/migrations"
	pgstore "token-radar/internal/storage/postgres"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL and ClickHouse migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.load()
			ctx := cmd.Context()

			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			if cfg.PostgresDSN == "" && cfg.ClickhouseDSN == "" {
				return errors.New("nothing to migrate: set POSTGRES_DSN and/or CLICKHOUSE_DSN")
			}

			if cfg.PostgresDSN != "" {
				pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
				if err != nil {
					return fmt.Errorf("connect to postgres: %w", err)
				}
				defer pool.Close()

				if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
					return fmt.Errorf("postgres migrations: %w", err)
				}
				logger.Info("postgres migrations applied")
			}

			if cfg.ClickhouseDSN != "" {
				conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
				if err != nil {
					return fmt.Errorf("clickhouse migrations: %w", err)
				}
				defer conn.Close()
				logger.Info("clickhouse migrations applied")
			}
			return nil
		},
	}
}
