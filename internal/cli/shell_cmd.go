package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newShellCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive query shell",
		Long: `Start an interactive shell. Type a question to run it, or a colon command
such as :explain, :schema, :values, :class or :format. Type help for the list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newShellModel(cmd.Context(), app, loadHistory(defaultHistoryPath()))
			_, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}
