package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSchemaCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <class>",
		Short: "Show the fields of an iTop class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), app.Service.DescribeClass(cmd.Context(), args[0]))
			return nil
		},
	}
}

func newValuesCmd(app *App) *cobra.Command {
	var search string
	var limit int

	cmd := &cobra.Command{
		Use:   "values <class> <field>",
		Short: "List the distinct values stored in a field",
		Example: `  itopnl values Server status
  itopnl values Server status --search active`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), app.Service.DiscoverValues(cmd.Context(), args[0], args[1], search, limit))
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Word to match against the stored values")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum distinct values (defaults to ITOP_DISCOVERY_LIMIT)")
	return cmd
}

func newOperationsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "List the REST operations the iTop endpoint supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), app.Service.ListOperations(cmd.Context()))
			return nil
		},
	}
}
