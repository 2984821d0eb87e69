package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/user/accounts-go/config"
	"github.com/user/accounts-go/db"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations",
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadDatabaseConfig()
			if err != nil {
				return cli.Exit(fmt.Sprintf("Failed to load config: %v", err), 1)
			}
			if err := db.RunMigrations(cfg, slog.Default()); err != nil {
				return cli.Exit(fmt.Sprintf("Failed to run migrations: %v", err), 1)
			}
			return nil
		},
	}
}
