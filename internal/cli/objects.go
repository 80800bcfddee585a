package cli

import (
	"fmt"
	"html"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"slate-cli/internal/canvas"
	"slate-cli/internal/model"
	"slate-cli/internal/render"
	"slate-cli/internal/session"
)

// maxImageWidth caps the canvas width of an added image; larger images are
// scaled down keeping their aspect ratio.
const maxImageWidth = canvas.Unit * 22

func newShowCmd(app *App) *cobra.Command {
	var markdown bool
	var width int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the open canvas as a tree (or as Markdown)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := view(cmd.Context(), app, func(w *workspace) (any, error) {
				if markdown {
					return render.RenderMarkdown(render.Markdown(w.store().CurrentRoot()), width), nil
				}
				if app.Format == "text" {
					return canvasTree(w.store()), nil
				}
				return map[string]any{
					"data": canvasTree(w.store()),
					"meta": map[string]any{"doc": w.doc.UUID, "path": pathNames(w.store())},
				}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			if s, ok := out.(string); ok {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), s)
				return err
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the canvas as Markdown")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --markdown")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	var (
		x, y, w, h float64
		parentArg  string
		title      string
		color      string
		icon       string
		file       string
	)

	cmd := &cobra.Command{
		Use:       "add <text|title|container|folder|image> [text]",
		Short:     "Add an object to the open canvas",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"text", "title", "container", "folder", "image"},
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := session.Tool(args[0])
			size, ok := session.DefaultSize(tool)
			if !ok {
				return writeErr(cmd, fmt.Errorf("%w: %q", session.ErrUnknownTool, args[0]))
			}
			text := ""
			if len(args) == 2 {
				text = args[1]
			}

			out, err := mutate(cmd.Context(), app, func(ws *workspace) (any, error) {
				var parent *model.Object
				if parentArg != "" {
					p, err := ws.object(parentArg)
					if err != nil {
						return nil, err
					}
					parent = p
				}

				var content model.Content
				switch tool {
				case session.ToolText:
					content = model.NewText("<div>" + html.EscapeString(text) + "</div>")
				case session.ToolTitle:
					content = model.NewTitle("<h2>" + html.EscapeString(text) + "</h2>")
				case session.ToolContainer:
					if title == "" {
						title = text
					}
					content = model.EmptyContainer(title)
				case session.ToolFolder:
					if color == "" {
						color = session.DefaultFolderColor
					}
					content = model.EmptyFolder(html.EscapeString(text), color, icon)
				case session.ToolImage:
					if file == "" {
						return nil, fmt.Errorf("add image: --file is required")
					}
					data, err := os.ReadFile(file)
					if err != nil {
						return nil, err
					}
					px, err := render.ImageSize(data)
					if err != nil {
						return nil, err
					}
					size = fitImage(px)
					handle, err := ws.assets.CreateImage(data)
					if err != nil {
						return nil, err
					}
					content = model.NewImage(handle, false)
				}
				if w > 0 {
					size.W = w
				}
				if h > 0 {
					size.H = h
				}

				obj, err := ws.sess.AddContent(canvas.AddOptions{
					Position: model.Vec2{X: x, Y: y},
					Size:     size,
					Selected: true,
				}, content, parent)
				if err != nil {
					return nil, err
				}
				if err := ws.sess.AddMomentToHistory(false); err != nil {
					return nil, err
				}
				return map[string]any{"data": viewObject(obj)}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().Float64Var(&x, "x", 0, "X position (relative to the parent when --parent is set)")
	cmd.Flags().Float64Var(&y, "y", 0, "Y position")
	cmd.Flags().Float64Var(&w, "w", 0, "Width (default depends on kind)")
	cmd.Flags().Float64Var(&h, "h", 0, "Height (default depends on kind)")
	cmd.Flags().StringVar(&parentArg, "parent", "", "Container id to add into")
	cmd.Flags().StringVar(&title, "title", "", "Container title")
	cmd.Flags().StringVar(&color, "color", "", "Folder color (name or #hex)")
	cmd.Flags().StringVar(&icon, "icon", "", "Folder icon")
	cmd.Flags().StringVar(&file, "file", "", "Image file (png, jpeg, gif, bmp, webp)")
	return cmd
}

// fitImage converts pixel dimensions to a canvas size no wider than
// maxImageWidth.
func fitImage(px model.Size2) model.Size2 {
	if px.W <= maxImageWidth || px.W == 0 {
		return px
	}
	return model.Size2{W: maxImageWidth, H: math.Round(px.H * maxImageWidth / px.W)}
}

func newArrowCmd(app *App) *cobra.Command {
	var tips string

	cmd := &cobra.Command{
		Use:   "arrow <from-id> <to-id>",
		Short: "Connect two objects with an arrow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var left, right bool
			switch tips {
			case "right", "":
				right = true
			case "left":
				left = true
			case "both":
				left, right = true, true
			case "none":
			default:
				return writeErr(cmd, fmt.Errorf("unknown --tips %q (left|right|both|none)", tips))
			}
			out, err := mutate(cmd.Context(), app, func(ws *workspace) (any, error) {
				objs, err := ws.objects(args)
				if err != nil {
					return nil, err
				}
				arrow, err := ws.sess.Connect(objs[0], objs[1], left, right)
				if err != nil {
					return nil, err
				}
				if err := ws.sess.AddMomentToHistory(false); err != nil {
					return nil, err
				}
				return map[string]any{"data": viewObject(arrow)}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&tips, "tips", "right", "Arrowheads (left|right|both|none)")
	return cmd
}

func newRmCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete objects (arrows attached to them go too)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := mutate(cmd.Context(), app, func(ws *workspace) (any, error) {
				objs, err := ws.objects(args)
				if err != nil {
					return nil, err
				}
				deleted := []int{}
				for _, o := range objs {
					// Already gone with an earlier container or endpoint.
					if ws.store().GetObject(o.ID) == nil {
						continue
					}
					ids, err := ws.sess.Delete(o)
					if err != nil {
						return nil, err
					}
					deleted = append(deleted, ids...)
				}
				if err := ws.sess.AddMomentToHistory(false); err != nil {
					return nil, err
				}
				return map[string]any{"data": map[string]any{"deleted": deleted}}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}
	return cmd
}

// drag runs a full drag gesture over objs: select them, move them by delta
// and drop them into container into at index, or onto the canvas when into
// is nil.
func drag(s *session.Session, objs []*model.Object, delta model.Vec2, into *model.Object, index int) error {
	yes := true
	for i, o := range objs {
		if err := s.Select(o, i > 0, &yes); err != nil {
			return err
		}
	}
	// Selecting a container drops its children from the selection, so start
	// from whatever is still selected.
	first := objs[0]
	for _, o := range objs {
		if o.Selected {
			first = o
			break
		}
	}
	if err := s.ObjectDragStart(first, model.Vec2{}, true); err != nil {
		return err
	}
	if delta != (model.Vec2{}) {
		if err := s.ObjectDragMove(model.Vec2{X: delta.X * s.Zoom(), Y: delta.Y * s.Zoom()}); err != nil {
			return err
		}
	}
	if into != nil {
		if err := s.ObjectDrop(into, index); err != nil {
			_ = s.Cancel()
			_ = s.ObjectDragEnd()
			return err
		}
	}
	return s.ObjectDragEnd()
}

func newMvCmd(app *App) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "mv <id>... <container-id|.>",
		Short: "Move objects into a container, or out onto the canvas with '.'",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := mutate(cmd.Context(), app, func(ws *workspace) (any, error) {
				objs, err := ws.objects(args[:len(args)-1])
				if err != nil {
					return nil, err
				}
				var into *model.Object
				if target := args[len(args)-1]; target != "." {
					if into, err = ws.object(target); err != nil {
						return nil, err
					}
					if !into.IsContainer() {
						return nil, wrongKindError{id: into.ID, kind: string(into.Kind()), want: "container"}
					}
				}
				if err := drag(ws.sess, objs, model.Vec2{}, into, index); err != nil {
					return nil, err
				}
				return map[string]any{"data": viewObjects(objs)}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().IntVar(&index, "index", -1, "Position inside the container (-1 appends)")
	return cmd
}

func newMoveCmd(app *App) *cobra.Command {
	var dx, dy float64

	cmd := &cobra.Command{
		Use:   "move <id>...",
		Short: "Translate objects on the canvas (positions snap to the grid)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := mutate(cmd.Context(), app, func(ws *workspace) (any, error) {
				objs, err := ws.objects(args)
				if err != nil {
					return nil, err
				}
				if err := drag(ws.sess, objs, model.Vec2{X: dx, Y: dy}, nil, -1); err != nil {
					return nil, err
				}
				return map[string]any{"data": viewObjects(objs)}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().Float64Var(&dx, "dx", 0, "Horizontal offset")
	cmd.Flags().Float64Var(&dy, "dy", 0, "Vertical offset")
	return cmd
}

func newResizeCmd(app *App) *cobra.Command {
	var w, h float64

	cmd := &cobra.Command{
		Use:   "resize <id>",
		Short: "Resize an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := mutate(cmd.Context(), app, func(ws *workspace) (any, error) {
				obj, err := ws.object(args[0])
				if err != nil {
					return nil, err
				}
				grow := model.Size2{}
				if w > 0 {
					grow.W = w - obj.Size.W
				}
				if h > 0 {
					grow.H = h - obj.Size.H
				}
				s := ws.sess
				if err := s.ObjectResizeStart(obj); err != nil {
					return nil, err
				}
				if err := s.ObjectResizeMove(obj, model.Size2{W: grow.W * s.Zoom(), H: grow.H * s.Zoom()}, model.Vec2{}); err != nil {
					return nil, err
				}
				if err := s.ObjectResizeEnd(obj); err != nil {
					return nil, err
				}
				return map[string]any{"data": viewObject(obj)}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().Float64Var(&w, "w", 0, "New width")
	cmd.Flags().Float64Var(&h, "h", 0, "New height")
	return cmd
}

func newTextCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "text <id> <text>",
		Short: "Replace the text of a text, title or folder object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := mutate(cmd.Context(), app, func(ws *workspace) (any, error) {
				obj, err := ws.object(args[0])
				if err != nil {
					return nil, err
				}
				text := args[1]
				if !raw {
					text = html.EscapeString(text)
					switch obj.Content.(type) {
					case *model.TextContent:
						text = "<div>" + strings.ReplaceAll(text, "\n", "<br>") + "</div>"
					case *model.TitleContent:
						text = "<h2>" + text + "</h2>"
					}
				}
				if err := ws.sess.SetText(obj, text); err != nil {
					return nil, err
				}
				if err := ws.sess.AddMomentToHistory(false); err != nil {
					return nil, err
				}
				return map[string]any{"data": viewObject(obj)}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().BoolVar(&raw, "html", false, "Store the text as given, as HTML")
	return cmd
}

func newStyleCmd(app *App) *cobra.Command {
	var color, icon string

	cmd := &cobra.Command{
		Use:   "style <folder-id>",
		Short: "Change the color and icon of a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := mutate(cmd.Context(), app, func(ws *workspace) (any, error) {
				obj, err := ws.object(args[0])
				if err != nil {
					return nil, err
				}
				f, ok := obj.Content.(*model.FolderContent)
				if !ok {
					return nil, wrongKindError{id: obj.ID, kind: string(obj.Kind()), want: "folder"}
				}
				if !cmd.Flags().Changed("color") {
					color = f.Color
				}
				if !cmd.Flags().Changed("icon") {
					icon = f.Icon
				}
				if err := ws.sess.SetFolderStyle(obj, color, icon); err != nil {
					return nil, err
				}
				if err := ws.sess.AddMomentToHistory(false); err != nil {
					return nil, err
				}
				return map[string]any{"data": map[string]any{"id": obj.ID, "color": color, "icon": icon}}, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Folder color")
	cmd.Flags().StringVar(&icon, "icon", "", "Folder icon")
	return cmd
}
