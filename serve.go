package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/user/accounts-go/auth"
	"github.com/user/accounts-go/config"
	"github.com/user/accounts-go/db"
	"github.com/user/accounts-go/server"
	"github.com/user/accounts-go/users"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API",
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	logger := slog.Default()

	cfg, err := config.LoadConfig()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to load config: %v", err), 1)
	}

	if cfg.DB.AutoMigrate {
		if err := db.RunMigrations(cfg.DB, logger); err != nil {
			return cli.Exit(fmt.Sprintf("Failed to run migrations: %v", err), 1)
		}
	}

	conn, err := db.Open(cfg.DB)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to connect to database: %v", err), 1)
	}
	defer conn.Close()

	// Manual dependency injection: store -> service -> handlers.
	userService := users.NewService(users.NewPostgresStore(conn))
	tokens := auth.NewTokenService(*cfg.Auth)

	router := server.NewRouter(server.Deps{
		Tokens:         tokens,
		AuthHandlers:   auth.NewHandlers(tokens, userService),
		UserHandlers:   users.NewHandlers(userService),
		DB:             conn,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx, ":"+cfg.Server.Port, router, logger); err != nil {
		return cli.Exit(fmt.Sprintf("Server failed: %v", err), 1)
	}
	return nil
}
