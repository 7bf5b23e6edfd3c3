package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/itopnl/internal/mcpserver"
	"github.com/alexanderramin/itopnl/internal/service"
)

// QueryService is everything the commands call on the pipeline.
type QueryService interface {
	mcpserver.QueryService
	Explain(ctx context.Context, req service.Request) string
}

// App holds what the commands need. Service is built lazily from Config
// once global flags are parsed.
type App struct {
	Config service.Config
	Build  func(cfg service.Config) QueryService

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool

	Service QueryService
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "itopnl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	policy := policyFlag{value: app.Config.Unverified}

	root := &cobra.Command{
		Use:           "itopnl",
		Short:         "Ask an iTop instance questions in plain English",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Service != nil {
				return nil
			}
			if app.Build == nil {
				return fmt.Errorf("no query service configured")
			}
			cfg := app.Config
			if cmd.Flags().Changed("unverified") {
				cfg.Unverified = policy.value
			}
			app.Config = cfg
			app.Service = app.Build(cfg)
			return nil
		},
	}
	root.PersistentFlags().Var(&policy, "unverified", "What to do with filters whose values were guessed (discover, drop, abort)")

	root.AddCommand(
		newServeCmd(app),
		newQueryCmd(app),
		newExplainCmd(app),
		newSchemaCmd(app),
		newValuesCmd(app),
		newOperationsCmd(app),
		newShellCmd(app),
	)

	return root
}
