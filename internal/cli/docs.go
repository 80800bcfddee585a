package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"slate-cli/internal/docs"
	"slate-cli/internal/render"
)

type docsTopic struct {
	Topic    string `json:"topic"`
	Markdown string `json:"markdown"`
	width    int
}

func (d docsTopic) Text() string { return render.RenderMarkdown(d.Markdown, d.width) }

func newDocsCmd(app *App) *cobra.Command {
	var (
		raw   bool
		width int
	)

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in documentation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"topics": docs.Topics()}})
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (run `slate docs` to list topics)", topic))
			}
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			if app.Format == "text" {
				return writeOut(cmd, app, docsTopic{Topic: topic, Markdown: body, width: width})
			}
			return writeOut(cmd, app, map[string]any{"data": docsTopic{Topic: topic, Markdown: body}})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no JSON envelope)")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --format text")
	return cmd
}
