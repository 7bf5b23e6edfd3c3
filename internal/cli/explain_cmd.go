package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/itopnl/internal/service"
)

func newExplainCmd(app *App) *cobra.Command {
	var class string

	cmd := &cobra.Command{
		Use:   "explain <question>",
		Short: "Show how a question would be read without running it",
		Long: `Print the detected class, the extracted filters and the OQL a question
translates to. Only the class schema is fetched; no query is run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), app.Service.Explain(cmd.Context(), service.Request{
				Query:      strings.Join(args, " "),
				ForceClass: class,
			}))
			return nil
		},
	}

	cmd.Flags().StringVar(&class, "class", "", "Read the question against this iTop class")
	return cmd
}
