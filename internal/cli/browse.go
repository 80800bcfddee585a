package cli

import (
	"github.com/spf13/cobra"

	"slate-cli/internal/tui"
)

func newBrowseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the current document interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, app)
		},
	}
	return cmd
}

func runBrowse(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	w, err := openWorkspace(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer w.Close()
	if err := tui.Run(w.doc.Name, w.sess, func() error { return w.save(ctx) }); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}
