package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"slate-cli/internal/format"
	"slate-cli/internal/session"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigDir  string
	Doc        string
	PrettyJSON bool
	Format     string
	Verbose    bool

	// Clip replaces the system clipboard when set.
	Clip session.Clipboard

	log *slog.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "slate",
		Short:        "Slate: local-first infinite canvas",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create a document and make it current
  slate new "Plans"

  # Add a few objects and connect them
  slate add container --title Roadmap
  slate add text "ship it" --x 450
  slate arrow 1 2

  # Look at it
  slate show --format text
  slate export --as png -o plans.png

  # Browse interactively
  slate browse
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive browser.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runBrowse(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if app.ConfigDir != "" {
			// Everything below resolves paths through the environment.
			if err := os.Setenv("SLATE_CONFIG_DIR", app.ConfigDir); err != nil {
				return err
			}
		}
		app.log = newLogger(cmd, app.Verbose)
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigDir, "config-dir", "", "Config directory (default: $SLATE_CONFIG_DIR or ~/.slate)")
	cmd.PersistentFlags().StringVar(&app.Doc, "doc", envOr("SLATE_DOC", ""), "Document uuid, uuid prefix or name (default: current document)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("SLATE_FORMAT", "json"), "Output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(newNewCmd(app))
	cmd.AddCommand(newLsCmd(app))
	cmd.AddCommand(newOpenCmd(app))
	cmd.AddCommand(newRmDocCmd(app))
	cmd.AddCommand(newRenameCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newArrowCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newMvCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newResizeCmd(app))
	cmd.AddCommand(newTextCmd(app))
	cmd.AddCommand(newStyleCmd(app))
	cmd.AddCommand(newCdCmd(app))
	cmd.AddCommand(newPwdCmd(app))
	cmd.AddCommand(newUndoCmd(app))
	cmd.AddCommand(newRedoCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newCopyCmd(app))
	cmd.AddCommand(newPasteCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newBrowseCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
