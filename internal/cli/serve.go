package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"slate-cli/internal/store"
	"slate-cli/internal/web"
)

// docSource loads one document from the library on every request so that
// edits made by other slate processes show up.
type docSource struct {
	app *App
	id  string
}

func (s docSource) Load(ctx context.Context) (*web.Canvas, error) {
	cfg, lib, err := openLibrary(ctx, s.app)
	if err != nil {
		return nil, err
	}
	defer lib.Close()
	w, err := loadWorkspace(ctx, s.app, cfg, lib, s.id)
	if err != nil {
		return nil, err
	}
	st := w.store()
	var path []string
	for _, f := range pathNames(st) {
		path = append(path, f.Name)
	}
	return &web.Canvas{Name: w.doc.Name, Path: path, Root: st.CurrentRoot(), Images: w.assets}, nil
}

func (s docSource) Revision(ctx context.Context) (int64, error) {
	_, lib, err := openLibrary(ctx, s.app)
	if err != nil {
		return 0, err
	}
	defer lib.Close()
	return lib.Revision(ctx, s.id)
}

func newServeCmd(app *App) *cobra.Command {
	var (
		addr     string
		auth     string
		terminal bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live, read-only view of the current document over HTTP",
		Long: strings.TrimSpace(`
Serve the open folder of the current document as a web page: a PNG of the
canvas and its outline. The page updates when the document is saved.

With --terminal, /terminal runs ` + "`slate browse`" + ` in a browser terminal.
`),
		Example: strings.TrimSpace(`
# View the current document on localhost
slate serve --addr 127.0.0.1:3335

# Require the printed login link, and expose the terminal UI
slate serve --auth token --terminal
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := openWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := w.doc.UUID
			_ = w.Close()

			configDir, err := store.ConfigDir()
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}
			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ln.Close()

			srv, err := web.NewServer(web.ServerConfig{
				Addr:         ln.Addr().String(),
				DocID:        id,
				ConfigDir:    configDir,
				AuthMode:     auth,
				Terminal:     terminal,
				TerminalArgs: []string{"--config-dir", configDir, "--doc", id, "browse"},
				Source:       docSource{app: app, id: id},
				Log:          app.log,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer srv.Close()

			link, err := srv.LoginURL()
			if err != nil {
				return writeErr(cmd, err)
			}
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      srv.Addr(),
					"doc":       id,
					"auth":      auth,
					"terminal":  terminal,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"open " + link},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "slate serving %s at %s\n", id, link)

			hs := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = hs.Shutdown(shutdownCtx)
			}()
			if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3335", "Bind address (host:port or :port)")
	cmd.Flags().StringVar(&auth, "auth", "none", "Auth mode (none|token)")
	cmd.Flags().BoolVar(&terminal, "terminal", false, "Serve the terminal UI at /terminal")
	return cmd
}
