package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"slate-cli/internal/store"
)

func newNewCmd(app *App) *cobra.Command {
	var noUse bool

	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a document and make it current",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, lib, err := openLibrary(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer lib.Close()

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			doc, err := lib.Create(ctx, name)
			if err != nil {
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

	cmd.Flags().BoolVar(&noUse, "no-use", false, "Do not make the new document current")
	return cmd
}

type docList struct {
	Data    []store.DocumentInfo `json:"data"`
	Current string               `json:"current,omitempty"`
	now     time.Time
}

func (l docList) Text() string {
	if len(l.Data) == 0 {
		return "no documents; run `slate new <name>`"
	}
	var b strings.Builder
	for _, d := range l.Data {
		mark := " "
		if d.UUID == l.Current {
			mark = "*"
		}
		seen := "never"
		if !d.LastAccess.IsZero() {
			seen = humanize.RelTime(d.LastAccess, l.now, "ago", "from now")
		}
		fmt.Fprintf(&b, "%s %s  %-24s %4s  %s\n", mark, shortID(d.UUID), d.Name, humanize.Comma(int64(d.Objects)), seen)
	}
	return b.String()
}

func newLsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List documents, most recently opened first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, lib, err := openLibrary(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer lib.Close()
			docs, err := lib.List(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, docList{Data: docs, Current: cfg.CurrentDocument, now: time.Now()})
		},
	}
	return cmd
}

func newOpenCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <doc>",
		Short: "Make a document current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, lib, err := openLibrary(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer lib.Close()
			doc, err := lib.Find(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := lib.Touch(ctx, doc.UUID, time.Now()); err != nil {
				return writeErr(cmd, err)
			}
			cfg.CurrentDocument = doc.UUID
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": viewDocument(doc, doc.UUID)})
		},
	}
	return cmd
}

func newRmDocCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm-doc <doc>",
		Short: "Delete a document with its images and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, lib, err := openLibrary(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer lib.Close()
			doc, err := lib.Find(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := lib.Delete(ctx, doc.UUID); err != nil {
				return writeErr(cmd, err)
			}
			if cfg.CurrentDocument == doc.UUID {
				cfg.CurrentDocument = ""
				if err := store.SaveConfig(cfg); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": doc.UUID}})
		},
	}
	return cmd
}

func newRenameCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <name>",
		Short: "Rename the current document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, lib, err := openLibrary(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer lib.Close()
			ref := currentRef(app, cfg)
			if ref == "" {
				return writeErr(cmd, errNoDocument)
			}
			doc, err := lib.Find(ctx, ref)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := lib.Rename(ctx, doc.UUID, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			doc.Name = strings.TrimSpace(args[0])
			return writeOut(cmd, app, map[string]any{"data": viewDocument(doc, cfg.CurrentDocument)})
		},
	}
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
