package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"slate-cli/internal/canvas"
	"slate-cli/internal/model"
)

type pathView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type pathResult struct {
	Data []pathView `json:"data"`
}

func (p pathResult) Text() string {
	names := make([]string, 0, len(p.Data))
	for _, f := range p.Data {
		names = append(names, f.Name)
	}
	return "/" + strings.Join(names[min(1, len(names)):], "/")
}

func folderName(o *model.Object) string {
	if f, ok := o.Content.(*model.FolderContent); ok {
		return strings.TrimSpace(model.StripHTML(f.Name))
	}
	return ""
}

func pathNames(st *canvas.Store) []pathView {
	var out []pathView
	for _, f := range st.Path() {
		out = append(out, pathView{ID: f.ID, Name: folderName(f)})
	}
	return out
}

func newCdCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cd [folder-id|..|/]",
		Short: "Open a folder (no argument or / opens the top of the document)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "/"
			if len(args) == 1 {
				target = args[0]
			}
			out, err := mutate(cmd.Context(), app, func(ws *workspace) (any, error) {
				st := ws.store()
				var folder *model.Object
				switch target {
				case "/":
				case "..":
					path := st.Path()
					if len(path) > 1 {
						folder = path[len(path)-2]
					}
				default:
					o, err := ws.object(target)
					if err != nil {
						return nil, err
					}
					if !o.IsFolder() {
						return nil, wrongKindError{id: o.ID, kind: string(o.Kind()), want: "folder"}
					}
					folder = o
				}
				// Opening a folder is undoable but does not change the document.
				if err := ws.sess.SetCurrentRoot(folder, true, true); err != nil {
					return nil, err
				}
				return pathResult{Data: pathNames(st)}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}
	return cmd
}

func newPwdCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pwd",
		Short: "Print the path of the open folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := view(cmd.Context(), app, func(ws *workspace) (any, error) {
				return pathResult{Data: pathNames(ws.store())}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}
	return cmd
}
