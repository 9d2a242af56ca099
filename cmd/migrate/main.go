package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	loadEnvFiles()

	if err := run(context.Background(), *command, *name); err != nil {
		slog.Error("migrate failed", "command", *command, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command, name string) error {
	if command == "create" {
		if name == "" {
			return fmt.Errorf("name is required for 'create' command")
		}
		goose.SetBaseFS(nil)
		if err := goose.Create(nil, createDir(), name, "sql"); err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		slog.Info("migration created", "name", name, "dir", createDir())
		return nil
	}

	pool, err := pgxpool.New(ctx, databaseDSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	fsys, dir := migrationSource()
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("migrations applied successfully")
	case "down":
		if err := goose.DownContext(ctx, sqlDB, dir); err != nil {
			return fmt.Errorf("rollback migrations: %w", err)
		}
		slog.Info("migrations rolled back successfully")
	case "status":
		if err := goose.StatusContext(ctx, sqlDB, dir); err != nil {
			return fmt.Errorf("check migration status: %w", err)
		}
	default:
		return fmt.Errorf("unknown command %q: use up, down, status, create", command)
	}
	return nil
}
