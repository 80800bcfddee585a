package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"slate-cli/internal/clipboard"
	"slate-cli/internal/render"
)

func newCopyCmd(app *App) *cobra.Command {
	var printOut bool

	cmd := &cobra.Command{
		Use:   "copy <id>...",
		Short: "Copy objects to the clipboard",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var mem *clipboard.Memory
			if printOut {
				mem = &clipboard.Memory{}
				app.Clip = mem
			}
			out, err := view(cmd.Context(), app, func(ws *workspace) (any, error) {
				objs, err := ws.objects(args)
				if err != nil {
					return nil, err
				}
				yes := true
				for i, o := range objs {
					if err := ws.sess.Select(o, i > 0, &yes); err != nil {
						return nil, err
					}
				}
				if err := ws.sess.CopySelected(); err != nil {
					return nil, err
				}
				return map[string]any{"data": viewObjects(ws.store().GetSelected())}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			if mem != nil {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), mem.Content.HTML)
				return err
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().BoolVar(&printOut, "print", false, "Print the copied fragment instead of using the system clipboard")
	return cmd
}

func newPasteCmd(app *App) *cobra.Command {
	var (
		asText  bool
		fromIn  bool
		imgPath string
	)

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Paste the clipboard into the open canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case imgPath != "":
				data, err := os.ReadFile(imgPath)
				if err != nil {
					return writeErr(cmd, err)
				}
				px, err := render.ImageSize(data)
				if err != nil {
					return writeErr(cmd, err)
				}
				app.Clip = &clipboard.Memory{Content: clipboard.Content{Image: &clipboard.Image{Data: data, Size: fitImage(px)}}}
			case fromIn:
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return writeErr(cmd, err)
				}
				app.Clip = &clipboard.Memory{Content: clipboard.Parse(string(b))}
			}
			out, err := mutate(cmd.Context(), app, func(ws *workspace) (any, error) {
				added, err := ws.sess.Paste(asText)
				if err != nil {
					return nil, err
				}
				return map[string]any{"data": viewObjects(added)}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().BoolVar(&asText, "text", false, "Paste as plain text even when the clipboard holds objects")
	cmd.Flags().BoolVar(&fromIn, "stdin", false, "Read the clipboard contents from stdin")
	cmd.Flags().StringVar(&imgPath, "image", "", "Paste an image file")
	return cmd
}
