package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/user/accounts-go/config"
	"github.com/user/accounts-go/gate"
)

var (
	targetFlag = &cli.StringFlag{
		Name:  "target",
		Usage: "Directory to analyze and test (env GATE_TARGET)",
	}
	analyzerFlag = &cli.StringFlag{
		Name:  "analyzer",
		Usage: "Static analyzer command line (env GATE_ANALYZER_CMD)",
	}
	testsFlag = &cli.StringFlag{
		Name:  "tests",
		Usage: "Test runner command line (env GATE_TEST_CMD)",
	}
	failOnTestFailureFlag = &cli.BoolFlag{
		Name:  "fail-on-test-failure",
		Usage: "Exit 1 when the test runner exits non-zero (env GATE_FAIL_ON_TEST_FAILURE)",
	}
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run static analysis and, if it is clean, the test suite",
		Flags: []cli.Flag{
			targetFlag,
			analyzerFlag,
			testsFlag,
			failOnTestFailureFlag,
		},
		Action: runGate,
	}
}

// gateConfig merges flags over the environment-derived settings.
func gateConfig(c *cli.Context) (*config.GateConfig, error) {
	cfg, err := config.LoadGateConfig()
	if err != nil {
		return nil, err
	}
	if c.IsSet(targetFlag.Name) {
		cfg.Target = c.String(targetFlag.Name)
	}
	if c.IsSet(analyzerFlag.Name) {
		cfg.AnalyzerCmd = c.String(analyzerFlag.Name)
	}
	if c.IsSet(testsFlag.Name) {
		cfg.TestCmd = c.String(testsFlag.Name)
	}
	if c.IsSet(failOnTestFailureFlag.Name) {
		cfg.FailOnTestFailure = c.Bool(failOnTestFailureFlag.Name)
	}
	return cfg, nil
}

func runGate(c *cli.Context) error {
	logger := slog.Default()

	cfg, err := gateConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to load config: %v", err), 1)
	}

	analyzer, err := gate.ParseCommand(cfg.AnalyzerCmd)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid analyzer command: %v", err), 1)
	}
	tests, err := gate.ParseCommand(cfg.TestCmd)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid test command: %v", err), 1)
	}

	runner := gate.NewRunner(analyzer, tests,
		gate.NewReporter(c.App.Writer, c.App.ErrWriter),
		logger,
		gate.Options{Target: cfg.Target, FailOnTestFailure: cfg.FailOnTestFailure},
	)

	// Ctrl-C kills whichever tool is running.
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome, err := runner.Run(ctx)
	if err != nil {
		logger.Error("quality gate could not run", "err", err)
		return cli.Exit("", 1)
	}
	if code := outcome.ExitCode(); code != 0 {
		return cli.Exit("", code)
	}
	return nil
}
