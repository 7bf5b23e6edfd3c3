package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/itopnl/internal/cli"
	"github.com/alexanderramin/itopnl/internal/itop"
	"github.com/alexanderramin/itopnl/internal/metrics"
	"github.com/alexanderramin/itopnl/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; real environment variables win either way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	itopCfg := itop.LoadConfig()
	if err := itopCfg.Validate(); err != nil {
		return err
	}
	svcCfg, err := service.LoadConfig()
	if err != nil {
		return err
	}

	// stdout carries MCP traffic under "serve", so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: svcCfg.LogLevel}))
	slog.SetDefault(logger)

	observers := itop.MultiObserver{metrics.RemoteObserver{}}
	if itopCfg.LogCalls {
		observers = append(observers, itop.NewLogObserver(os.Stderr))
	}
	client := itop.NewClient(itopCfg, observers)

	app := &cli.App{
		Config: svcCfg,
		Build: func(cfg service.Config) cli.QueryService {
			return service.New(client, cfg,
				service.WithLogger(logger),
				service.WithObserver(service.NewLogUseCaseObserver(os.Stderr, cfg.LogLevel)),
			)
		},
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	return cli.NewRootCmd(app).Execute()
}
