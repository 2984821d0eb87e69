// This is the main entry point of the accounts service.
// It builds the command-line app with three subcommands:
//   - serve: runs the user API (registration, token login, profile)
//   - migrate: applies database migrations
//   - run: the lint-then-test quality gate
//
// @title Accounts API
// @version 1.0
// @description User registration, token authentication and profile management.
// @contact.name API Support
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_TOKEN' to authorize
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/user/accounts-go/config"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
)

func main() {
	// .env is a development convenience; in production variables are set directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		// Exit codes carried by cli.Exit are handled inside Run.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp builds the CLI. Output streams are parameters so tests can capture them.
func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "accounts"
	app.Usage = "User accounts API and lint-then-test quality gate"
	app.Version = strings.TrimSuffix(fmt.Sprintf("%s-%s", Version, GitCommit), "-")
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Before = func(c *cli.Context) error {
		logger, err := newLogger(c.App.ErrWriter)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		slog.SetDefault(logger)
		return nil
	}
	app.Commands = []*cli.Command{
		serveCommand(),
		migrateCommand(),
		runCommand(),
	}
	return app
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(w io.Writer) (*slog.Logger, error) {
	cfg, err := config.LoadLogConfig()
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}
