package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"slate-cli/internal/render"
	"slate-cli/internal/store"
)

func newExportCmd(app *App) *cobra.Command {
	var (
		as      string
		outPath string
		scale   float64
		padding float64
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the document (json) or the open canvas (png|md)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if as == "" {
				as = strings.TrimPrefix(filepath.Ext(outPath), ".")
			}
			var buf bytes.Buffer
			_, err := view(cmd.Context(), app, func(ws *workspace) (any, error) {
				st := ws.store()
				switch as {
				case "", "json":
					snap := st.CreateSnapshoter()
					doc := *ws.doc
					doc.Data = &store.DocumentData{LastObjectID: snap.LastObjectID, Data: snap.Data}
					b, err := json.MarshalIndent(&doc, "", "  ")
					if err != nil {
						return nil, err
					}
					buf.Write(b)
					buf.WriteByte('\n')
				case "png":
					return nil, render.PNG(&buf, st.CurrentRoot(), ws.assets, render.PNGOptions{Scale: scale, Padding: padding})
				case "md", "markdown":
					buf.WriteString(render.Markdown(st.CurrentRoot()))
				default:
					return nil, fmt.Errorf("unknown export format: %s (json|png|md)", as)
				}
				return nil, nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			if outPath == "" || outPath == "-" {
				_, err := io.Copy(cmd.OutOrStdout(), &buf)
				return err
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": outPath, "bytes": buf.Len()}})
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "Export format (json|png|md; default from -o extension, else json)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().Float64Var(&scale, "scale", 1, "PNG pixels per canvas unit")
	cmd.Flags().Float64Var(&padding, "padding", 30, "PNG padding around the content")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	var (
		name   string
		keepID bool
		noUse  bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import a document exported with `slate export`",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var raw []byte
			var err error
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			doc, err := store.ParseDocument(raw)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !keepID {
				doc.UUID = uuid.NewString()
			}
			if strings.TrimSpace(name) != "" {
				doc.Name = strings.TrimSpace(name)
			}
			doc.Touch(time.Now())

			cfg, lib, err := openLibrary(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer lib.Close()
			if keepID {
				if _, err := lib.Get(ctx, doc.UUID); err == nil {
					return writeErr(cmd, fmt.Errorf("document %s already exists", doc.UUID))
				}
			}
			if err := lib.Save(ctx, doc); err != nil {
				return writeErr(cmd, err)
			}
			if !noUse {
				cfg.CurrentDocument = doc.UUID
				if err := store.SaveConfig(cfg); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": viewDocument(doc, cfg.CurrentDocument)})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name for the imported document")
	cmd.Flags().BoolVar(&keepID, "keep-uuid", false, "Keep the uuid stored in the file")
	cmd.Flags().BoolVar(&noUse, "no-use", false, "Do not make the imported document current")
	return cmd
}
