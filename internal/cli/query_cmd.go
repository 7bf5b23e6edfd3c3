package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/formatter"
	"github.com/alexanderramin/itopnl/internal/service"
)

func newQueryCmd(app *App) *cobra.Command {
	var class string
	var limit int
	var format formatFlag

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Run a natural-language query",
		Long: `Translate a question into OQL, run it against iTop and print the result.
Without a question on an interactive terminal, a form asks for one.`,
		Example: `  itopnl query "critical tickets assigned to the support team this week"
  itopnl query --class Server --format table "servers in rack R1"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			if strings.TrimSpace(question) == "" {
				if !app.interactive() {
					return errors.New("a question is required when stdin is not a terminal")
				}
				f := string(format.value)
				if err := queryForm(&question, &f).Run(); err != nil {
					return err
				}
				if err := format.Set(f); err != nil {
					return err
				}
			}

			if !cmd.Flags().Changed("limit") {
				limit = app.Config.DefaultLimit
			}
			req := service.Request{Query: question, ForceClass: class, Limit: limit, Format: string(format.value)}

			var stop func()
			if app.interactive() {
				stop = formatter.StartSpinner(cmd.ErrOrStderr(), "Querying iTop...")
			}
			out := app.Service.Process(cmd.Context(), req)
			if stop != nil {
				stop()
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&class, "class", "", "Query this iTop class instead of the detected one")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum records to return (defaults to ITOP_DEFAULT_LIMIT)")
	cmd.Flags().Var(&format, "format", "Output format (detailed, summary, table, json)")
	return cmd
}

// queryForm asks for a question and an output format.
func queryForm(question, format *string) *huh.Form {
	formats := make([]string, len(domain.ValidOutputFormats))
	for i, f := range domain.ValidOutputFormats {
		formats[i] = string(f)
	}
	if *format == "" {
		*format = string(domain.FormatDetailed)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What do you want to know?").
				Placeholder("open incidents for the network team this week").
				Value(question).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("enter a question")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Format").
				Options(huh.NewOptions(formats...)...).
				Value(format),
		),
	)
}
